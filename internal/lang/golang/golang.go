// Package golang is the Go-source LanguageExtractor: a per-file front end
// built directly on go/parser, go/doc and go/ast, grounded on the
// ApiExtractor.Go reference tool (_examples/other_examples, the
// sdk-chat sample's extract_api.go) which does the same
// parse-doc-comments-and-signatures walk for a Go SDK surface.
//
// Namespace and "package" exist at different granularities in Go than in a
// .NET-shaped assembly: a Go source file belongs to exactly one package
// directory, so that directory (slash-joined, dots substituted for slashes)
// stands in for "namespace" here. Free-standing functions, consts and vars
// have no enclosing type the way a C# static member would, so they are
// folded into a synthetic core.PackageLevelTypeName type per namespace, the
// same way the reference tool groups them under PackageApi.Functions /
// Constants / Variables rather than dropping them.
package golang

import (
	"go/ast"
	"go/doc"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/termfx/apigraph/internal/core"
	"github.com/termfx/apigraph/internal/extract"
	"github.com/termfx/apigraph/internal/sig"
)

// Extractor implements extract.LanguageExtractor for Go source files.
type Extractor struct{}

func (Extractor) Lang() string { return "go" }

func (Extractor) Extensions() []string { return []string{".go"} }

// ManifestFilePattern returns "" deliberately: go.mod is not XML, so
// internal/manifest's generic XML decoder cannot parse it. The orchestrator
// treats an empty pattern as "no manifest", falling back to the root
// directory's leaf name (§4.2's own documented fallback path) rather than
// teaching the shared manifest resolver a second file format.
func (Extractor) ManifestFilePattern() string { return "" }

func (Extractor) IsAvailable() (bool, string) { return true, "" }

// SystemNamespacePrefixes lists names of Go standard-library packages.
// ExternalRefs from this front end carry as qualifier the package name used
// at the reference site (for "net/http" that is "http", not "net.http"),
// and the shared §4.3 filter in internal/depresolve matches a qualifier
// equal to an entry or starting with entry + ".". A standard-library
// package whose name is not listed here (such as "http") is not treated
// as stdlib.
func (Extractor) SystemNamespacePrefixes() []string {
	return []string{
		"fmt", "os", "io", "strings", "strconv", "time", "context", "sync",
		"net", "encoding", "errors", "sort", "path", "unicode", "bytes",
		"bufio", "regexp", "reflect", "runtime", "math", "crypto", "hash",
		"container", "database", "flag", "log", "mime", "testing", "text",
		"unsafe", "syscall", "plugin", "embed", "cmp", "slices", "maps",
		"iter", "json",
	}
}

func (e Extractor) ParseFile(path string, src []byte) (extract.FileParse, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return extract.FileParse{}, err
	}

	astPkg := &ast.Package{Name: f.Name.Name, Files: map[string]*ast.File{path: f}}
	namespace := namespaceFor(path)
	docPkg := doc.New(astPkg, namespace, doc.AllDecls)

	var types []extract.RawType

	for _, t := range docPkg.Types {
		if !isExported(t.Name) {
			continue
		}
		rt, ok := extractType(namespace, t)
		if ok {
			types = append(types, rt)
		}
	}

	if pkgLevel, ok := extractPackageLevel(namespace, docPkg); ok {
		types = append(types, pkgLevel)
	}

	return extract.FileParse{Types: types}, nil
}

func namespaceFor(path string) string {
	dir := filepath.ToSlash(filepath.Dir(path))
	dir = strings.Trim(dir, "/")
	return strings.ReplaceAll(dir, "/", ".")
}

// extractType builds one RawType for a doc.Type, classifying it as a
// struct, interface or type alias, folding its associated constructor
// funcs, methods, fields and consts the way the reference tool's
// extractStruct/extractInterface do.
func extractType(namespace string, t *doc.Type) (extract.RawType, bool) {
	for _, spec := range t.Decl.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok || ts.Name.Name != t.Name {
			continue
		}

		rt := extract.RawType{
			Namespace: namespace,
			Name:      t.Name,
			Doc:       firstLine(t.Doc),
		}

		switch st := ts.Type.(type) {
		case *ast.StructType:
			rt.Kind = core.KindStruct
			fillStructMembers(&rt, st)
		case *ast.InterfaceType:
			rt.Kind = core.KindInterface
			fillInterfaceMembers(&rt, st)
		default:
			rt.Kind = core.KindTypeAlias
			rt.ExternalRefs = append(rt.ExternalRefs, exprRefs(ts.Type)...)
		}

		for _, f := range t.Funcs {
			if !isExported(f.Name) {
				continue
			}
			m, refs := extractFunc(f.Decl, f.Doc)
			m.Kind = core.MemberCtor
			m.IsStatic = true
			rt.Members = append(rt.Members, m)
			rt.ExternalRefs = append(rt.ExternalRefs, refs...)
		}

		foldTypedConsts(&rt, t)

		for _, m := range t.Methods {
			if !isExported(m.Name) {
				continue
			}
			mem, refs := extractFunc(m.Decl, m.Doc)
			mem.Kind = core.MemberMethod
			rt.Members = append(rt.Members, mem)
			rt.ExternalRefs = append(rt.ExternalRefs, refs...)
		}

		return rt, true
	}
	return extract.RawType{}, false
}

// foldTypedConsts implements the Go-idiomatic enum pattern: a named numeric
// or string type with an associated const block (typically iota-based)
// becomes core.KindEnum with Values, the closest Go equivalent to a C#
// enum. Consts not typed as this exact type fall back to plain
// MemberConst members instead of being dropped.
func foldTypedConsts(rt *extract.RawType, t *doc.Type) {
	var enumValues []string
	for _, c := range t.Consts {
		prevTypedAsThis := false
		for _, spec := range c.Decl.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			typedAsThis := vs.Type != nil && formatExpr(vs.Type) == t.Name
			// A spec with neither type nor values repeats the previous
			// spec's type (StatusRetired after "StatusActive Status = iota").
			if vs.Type == nil && len(vs.Values) == 0 {
				typedAsThis = prevTypedAsThis
			}
			prevTypedAsThis = typedAsThis
			for i, name := range vs.Names {
				if !isExported(name.Name) {
					continue
				}
				if typedAsThis {
					enumValues = append(enumValues, name.Name)
					continue
				}
				value := ""
				if i < len(vs.Values) {
					value = formatExpr(vs.Values[i])
				}
				collapsed, ok := sig.CollapseConstValue(value)
				memberSig := name.Name
				if ok && value != "" {
					memberSig = name.Name + " = " + collapsed
				}
				rt.Members = append(rt.Members, core.MemberInfo{
					Name: name.Name,
					Kind: core.MemberConst,
					Sig:  memberSig,
					Doc:  firstLine(c.Doc),
				})
			}
		}
	}
	if len(enumValues) > 0 && rt.Kind == core.KindTypeAlias {
		rt.Kind = core.KindEnum
		rt.Values = enumValues
	}
}

func fillStructMembers(rt *extract.RawType, st *ast.StructType) {
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			// Embedded field: Go's nearest equivalent to inheritance,
			// folded into the base-type classifier's raw-base bag (§4.1.2).
			rt.RawBases = append(rt.RawBases, strings.TrimPrefix(formatExpr(field.Type), "*"))
			rt.ExternalRefs = append(rt.ExternalRefs, exprRefs(field.Type)...)
			continue
		}
		for _, name := range field.Names {
			if !isExported(name.Name) {
				continue
			}
			rt.Members = append(rt.Members, core.MemberInfo{
				Name: name.Name,
				Kind: core.MemberField,
				Sig:  name.Name + " " + formatExpr(field.Type),
			})
			rt.ExternalRefs = append(rt.ExternalRefs, exprRefs(field.Type)...)
		}
	}
}

func fillInterfaceMembers(rt *extract.RawType, it *ast.InterfaceType) {
	for _, m := range it.Methods.List {
		if len(m.Names) == 0 {
			// Embedded interface: every raw base of an interface is itself
			// an interface per §4.1.2, so the classifier needs no extra
			// hint here.
			rt.RawBases = append(rt.RawBases, formatExpr(m.Type))
			rt.ExternalRefs = append(rt.ExternalRefs, exprRefs(m.Type)...)
			continue
		}
		ft, ok := m.Type.(*ast.FuncType)
		if !ok {
			continue
		}
		for _, name := range m.Names {
			if !isExported(name.Name) {
				continue
			}
			params := formatParams(ft.Params)
			results := formatResults(ft.Results)
			sig := name.Name + "(" + params + ")"
			if results != "" {
				sig += " " + results
			}
			rt.Members = append(rt.Members, core.MemberInfo{
				Name: name.Name,
				Kind: core.MemberMethod,
				Sig:  sig,
			})
			rt.ExternalRefs = append(rt.ExternalRefs, exprRefs(ft)...)
		}
	}
}

// extractPackageLevel folds every exported, type-unassociated func, const
// and var into the synthetic core.PackageLevelTypeName type for namespace.
func extractPackageLevel(namespace string, pkg *doc.Package) (extract.RawType, bool) {
	rt := extract.RawType{
		Namespace: namespace,
		Name:      core.PackageLevelTypeName,
		Kind:      core.KindClass,
		Doc:       firstLine(pkg.Doc),
	}

	for _, f := range pkg.Funcs {
		if !isExported(f.Name) {
			continue
		}
		m, refs := extractFunc(f.Decl, f.Doc)
		m.Kind = core.MemberMethod
		m.IsStatic = true
		rt.Members = append(rt.Members, m)
		rt.ExternalRefs = append(rt.ExternalRefs, refs...)
	}

	for _, c := range pkg.Consts {
		for _, spec := range c.Decl.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for i, name := range vs.Names {
				if !isExported(name.Name) {
					continue
				}
				value := ""
				if i < len(vs.Values) {
					value = formatExpr(vs.Values[i])
				}
				collapsed, ok := sig.CollapseConstValue(value)
				memberSig := name.Name
				if ok && value != "" {
					memberSig = name.Name + " = " + collapsed
				}
				rt.Members = append(rt.Members, core.MemberInfo{
					Name: name.Name,
					Kind: core.MemberConst,
					Sig:  memberSig,
					Doc:  firstLine(c.Doc),
				})
			}
		}
	}

	for _, v := range pkg.Vars {
		for _, spec := range v.Decl.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, name := range vs.Names {
				if !isExported(name.Name) {
					continue
				}
				typeText := ""
				if vs.Type != nil {
					typeText = formatExpr(vs.Type)
					rt.ExternalRefs = append(rt.ExternalRefs, exprRefs(vs.Type)...)
				}
				rt.Members = append(rt.Members, core.MemberInfo{
					Name: name.Name,
					Kind: core.MemberField,
					Sig:  name.Name + " " + typeText,
					Doc:  firstLine(v.Doc),
				})
			}
		}
	}

	if len(rt.Members) == 0 {
		return extract.RawType{}, false
	}
	return rt, true
}

func extractFunc(decl *ast.FuncDecl, docStr string) (core.MemberInfo, []extract.ExternalRef) {
	params := formatParams(decl.Type.Params)
	results := formatResults(decl.Type.Results)
	sig := decl.Name.Name + "(" + params + ")"
	if results != "" {
		sig += " " + results
	}

	var refs []extract.ExternalRef
	if decl.Type.Params != nil {
		for _, p := range decl.Type.Params.List {
			refs = append(refs, exprRefs(p.Type)...)
		}
	}
	if decl.Type.Results != nil {
		for _, r := range decl.Type.Results.List {
			refs = append(refs, exprRefs(r.Type)...)
		}
	}

	return core.MemberInfo{
		Name: decl.Name.Name,
		Sig:  sig,
		Doc:  firstLine(docStr),
	}, refs
}

func formatParams(fl *ast.FieldList) string {
	if fl == nil {
		return ""
	}
	var parts []string
	for _, p := range fl.List {
		typeStr := formatExpr(p.Type)
		if len(p.Names) == 0 {
			parts = append(parts, typeStr)
			continue
		}
		for _, name := range p.Names {
			parts = append(parts, name.Name+" "+typeStr)
		}
	}
	return strings.Join(parts, ", ")
}

func formatResults(fl *ast.FieldList) string {
	if fl == nil || len(fl.List) == 0 {
		return ""
	}
	var parts []string
	for _, r := range fl.List {
		parts = append(parts, formatExpr(r.Type))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatExpr(expr ast.Expr) string {
	if expr == nil {
		return ""
	}
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return "*" + formatExpr(e.X)
	case *ast.ArrayType:
		return "[]" + formatExpr(e.Elt)
	case *ast.MapType:
		return "map[" + formatExpr(e.Key) + "]" + formatExpr(e.Value)
	case *ast.SelectorExpr:
		return formatExpr(e.X) + "." + e.Sel.Name
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.ChanType:
		return "chan " + formatExpr(e.Value)
	case *ast.FuncType:
		return "func(" + formatParams(e.Params) + ") " + formatResults(e.Results)
	case *ast.Ellipsis:
		return "..." + formatExpr(e.Elt)
	case *ast.BasicLit:
		return e.Value
	case *ast.IndexExpr:
		return formatExpr(e.X) + "[" + formatExpr(e.Index) + "]"
	case *ast.IndexListExpr:
		var indices []string
		for _, idx := range e.Indices {
			indices = append(indices, formatExpr(idx))
		}
		return formatExpr(e.X) + "[" + strings.Join(indices, ", ") + "]"
	default:
		return ""
	}
}

// exprRefs walks the same node shapes as formatExpr, collecting one
// ExternalRef per qualified (package-prefixed) identifier it finds — the
// Go front end's analog of the C# front end's qualified-name AST walk
// (§4.1.3, §9): never a blanket string search over the formatted text.
func exprRefs(expr ast.Expr) []extract.ExternalRef {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case *ast.SelectorExpr:
		if pkgIdent, ok := e.X.(*ast.Ident); ok {
			return []extract.ExternalRef{{
				SimpleName: e.Sel.Name,
				Qualifier:  strings.ReplaceAll(pkgIdent.Name, "/", "."),
				Kind:       core.KindClass,
			}}
		}
		return exprRefs(e.X)
	case *ast.StarExpr:
		return exprRefs(e.X)
	case *ast.ArrayType:
		return exprRefs(e.Elt)
	case *ast.MapType:
		return append(exprRefs(e.Key), exprRefs(e.Value)...)
	case *ast.ChanType:
		return exprRefs(e.Value)
	case *ast.Ellipsis:
		return exprRefs(e.Elt)
	case *ast.IndexExpr:
		return append(exprRefs(e.X), exprRefs(e.Index)...)
	case *ast.IndexListExpr:
		refs := exprRefs(e.X)
		for _, idx := range e.Indices {
			refs = append(refs, exprRefs(idx)...)
		}
		return refs
	case *ast.FuncType:
		var refs []extract.ExternalRef
		if e.Params != nil {
			for _, p := range e.Params.List {
				refs = append(refs, exprRefs(p.Type)...)
			}
		}
		if e.Results != nil {
			for _, r := range e.Results.List {
				refs = append(refs, exprRefs(r.Type)...)
			}
		}
		return refs
	default:
		return nil
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.SplitN(s, "\n", 2)
	return strings.TrimSpace(lines[0])
}

func isExported(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)[0]
	return unicode.IsUpper(r)
}

// sigCollapseConst applies the §4.1.3 ≤30-character const-literal rule to
// already-formatted Go literal text. The extraction paths in this file call
// sig.CollapseConstValue instead; nothing in the package calls this helper.
func sigCollapseConst(expr string) (string, bool) {
	if expr == "" {
		return "", false
	}
	r := []rune(expr)
	if len(r) <= 30 {
		return expr, true
	}
	return "", false
}
