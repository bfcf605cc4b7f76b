// Package csharp is the C#-source LanguageExtractor front end. It parses
// with github.com/smacker/go-tree-sitter's C# grammar, walking the
// resulting concrete syntax tree to collect the publicly-visible surface:
// classes, interfaces, structs, records and enums, their base/interface
// lists, and their members.
//
// Grounded on the teacher's tree-sitter wiring (providers/base/provider.go,
// internal/lang/typescript/provider.go): sitter.NewParser +
// parser.SetLanguage + parser.ParseCtx to get a *sitter.Tree, then a
// recursive descent over *sitter.Node using Type()/ChildByFieldName(),
// generalized here from a query-pattern matcher to a direct declaration
// extractor mirroring internal/lang/golang's shape.
package csharp

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/termfx/apigraph/internal/core"
	"github.com/termfx/apigraph/internal/extract"
	"github.com/termfx/apigraph/internal/sig"
)

// asyncCarriers are the return-type identifiers that mark a method async
// even without the async modifier (§3 "isAsync is true iff... the return
// type's outermost identifier matches a recognized async carrier").
var asyncCarriers = map[string]bool{
	"Task":             true,
	"ValueTask":        true,
	"IAsyncEnumerable": true,
}

// Extractor implements extract.LanguageExtractor for C# sources.
type Extractor struct{}

func (Extractor) Lang() string { return "csharp" }

func (Extractor) Extensions() []string { return []string{".cs"} }

func (Extractor) ManifestFilePattern() string { return "*.csproj" }

func (Extractor) IsAvailable() (bool, string) { return true, "" }

// SystemNamespacePrefixes returns the .NET BCL root namespaces recognized
// by the §4.3 stdlib-prefix filter and by sig.TrimStdlibQualifier.
func (Extractor) SystemNamespacePrefixes() []string {
	return []string{
		"System", "mscorlib", "netstandard", "Microsoft.CSharp",
		"Microsoft.VisualBasic", "Microsoft.Win32", "WindowsBase",
	}
}

// ParseFile parses one C# source file and extracts every publicly-visible
// type declaration it contains.
func (Extractor) ParseFile(path string, src []byte) (extract.FileParse, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(csharp.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return extract.FileParse{}, err
	}
	defer tree.Close()

	w := &walker{src: src}
	w.walk(tree.RootNode(), "")
	return extract.FileParse{Types: w.types}, nil
}

type walker struct {
	src   []byte
	types []extract.RawType
}

// walk descends the tree tracking the enclosing namespace, extracting a
// RawType for every type-declaration node it encounters and continuing
// into its body afterward to pick up nested type declarations.
func (w *walker) walk(node *sitter.Node, namespace string) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "namespace_declaration", "file_scoped_namespace_declaration":
		name := w.text(node.ChildByFieldName("name"))
		child := namespace
		if name != "" {
			if child != "" {
				child += "."
			}
			child += name
		}
		w.walkChildren(node, child)
		return

	case "class_declaration", "interface_declaration", "struct_declaration",
		"record_declaration", "record_struct_declaration":
		if rt, ok := w.extractType(node, namespace); ok {
			w.types = append(w.types, rt)
		}
		w.walkChildren(node, namespace)
		return

	case "enum_declaration":
		if rt, ok := w.extractEnum(node, namespace); ok {
			w.types = append(w.types, rt)
		}
		return
	}

	w.walkChildren(node, namespace)
}

func (w *walker) walkChildren(node *sitter.Node, namespace string) {
	n := int(node.ChildCount())
	for i := 0; i < n; i++ {
		w.walk(node.Child(i), namespace)
	}
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

// kindOf maps a declaration node's type to the shared core.Kind model.
func kindOf(nodeType string) core.Kind {
	switch nodeType {
	case "interface_declaration":
		return core.KindInterface
	case "struct_declaration", "record_struct_declaration":
		return core.KindStruct
	case "record_declaration":
		return core.KindRecord
	default:
		return core.KindClass
	}
}

func (w *walker) extractType(node *sitter.Node, namespace string) (extract.RawType, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil || !isExported(w.text(nameNode)) {
		return extract.RawType{}, false
	}

	rt := extract.RawType{
		Namespace: namespace,
		Name:      w.text(nameNode),
		Kind:      kindOf(node.Type()),
		Doc:       core.TruncateDoc(docComment(w, node)),
		IsError:   strings.HasSuffix(w.text(nameNode), "Exception"),
	}

	if bases := node.ChildByFieldName("bases"); bases != nil {
		w.fillBases(&rt, bases)
		rt.ExternalRefs = append(rt.ExternalRefs, w.baseListRefs(bases)...)
	}

	if body := node.ChildByFieldName("body"); body != nil {
		w.fillMembers(&rt, body, rt.Kind == core.KindInterface)
	}

	return rt, true
}

// fillBases records every base_list entry, in source order and with any
// generic suffix stripped, as a raw base of rt. It does not tell the base
// class apart from interfaces; that split (§4.1.2) is made later by
// internal/extract's classifier, which sees every locally declared kind.
func (w *walker) fillBases(rt *extract.RawType, baseList *sitter.Node) {
	n := int(baseList.NamedChildCount())
	for i := 0; i < n; i++ {
		child := baseList.NamedChild(i)
		name := sig.StripGenerics(w.text(child))
		if name == "" {
			continue
		}
		if i == 0 && !looksLikeInterfaceName(name) && rt.Kind != core.KindInterface {
			rt.RawBases = append(rt.RawBases, name)
			continue
		}
		rt.RawBases = append(rt.RawBases, name)
	}
}

// looksLikeInterfaceName applies C#'s "I" + uppercase-letter convention,
// the same non-local-type fallback internal/extract's classifier uses for
// names it cannot resolve locally.
func looksLikeInterfaceName(name string) bool {
	return len(name) >= 2 && name[0] == 'I' && name[1] >= 'A' && name[1] <= 'Z'
}

func (w *walker) fillMembers(rt *extract.RawType, body *sitter.Node, inInterface bool) {
	n := int(body.NamedChildCount())
	for i := 0; i < n; i++ {
		member := body.NamedChild(i)
		w.fillOneMember(rt, member, inInterface)
	}
}

func (w *walker) fillOneMember(rt *extract.RawType, member *sitter.Node, inInterface bool) {
	mods := modifiers(w, member)
	if !inInterface && !mods["public"] {
		return
	}

	switch member.Type() {
	case "method_declaration":
		w.fillMethod(rt, member, mods)
	case "constructor_declaration":
		w.fillConstructor(rt, member, mods)
	case "property_declaration":
		w.fillProperty(rt, member, mods)
	case "indexer_declaration":
		w.fillIndexer(rt, member, mods)
	case "event_declaration", "event_field_declaration":
		w.fillEvent(rt, member, mods)
	case "field_declaration":
		w.fillField(rt, member, mods)
	}
}

func (w *walker) fillMethod(rt *extract.RawType, node *sitter.Node, mods map[string]bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil || !isExported(w.text(nameNode)) {
		return
	}
	name := w.text(nameNode)

	retTypeNode := node.ChildByFieldName("returns")
	if retTypeNode == nil {
		retTypeNode = node.ChildByFieldName("type")
	}
	retType := w.formatType(retTypeNode)

	paramsNode := node.ChildByFieldName("parameters")
	params := w.formatParams(paramsNode)
	typeParams := w.formatTypeParams(node.ChildByFieldName("type_parameters"))

	isAsync := mods["async"] || asyncCarriers[sig.StripGenerics(leadingIdent(retType))]

	sigStr := retType + " " + name + typeParams + "(" + params + ")"
	rt.Members = append(rt.Members, core.MemberInfo{
		Name:     name,
		Kind:     core.MemberMethod,
		Sig:      sigStr,
		Doc:      core.TruncateDoc(docComment(w, node)),
		IsStatic: mods["static"],
		IsAsync:  isAsync,
	})
	rt.ExternalRefs = append(rt.ExternalRefs, w.typeRefs(retTypeNode)...)
	rt.ExternalRefs = append(rt.ExternalRefs, w.paramRefs(paramsNode)...)
}

func (w *walker) fillConstructor(rt *extract.RawType, node *sitter.Node, mods map[string]bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	paramsNode := node.ChildByFieldName("parameters")
	params := w.formatParams(paramsNode)
	rt.Members = append(rt.Members, core.MemberInfo{
		Name:     w.text(nameNode),
		Kind:     core.MemberCtor,
		Sig:      "(" + params + ")",
		Doc:      core.TruncateDoc(docComment(w, node)),
		IsStatic: mods["static"],
	})
	rt.ExternalRefs = append(rt.ExternalRefs, w.paramRefs(paramsNode)...)
}

func (w *walker) fillProperty(rt *extract.RawType, node *sitter.Node, mods map[string]bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil || !isExported(w.text(nameNode)) {
		return
	}
	typeNode := node.ChildByFieldName("type")
	typ := w.formatType(typeNode)
	accessors := accessorKinds(w, node)

	sigStr := typ + " " + w.text(nameNode) + " { " + strings.Join(accessors, " ") + " }"
	rt.Members = append(rt.Members, core.MemberInfo{
		Name:     w.text(nameNode),
		Kind:     core.MemberProperty,
		Sig:      sigStr,
		Doc:      core.TruncateDoc(docComment(w, node)),
		IsStatic: mods["static"],
	})
	rt.ExternalRefs = append(rt.ExternalRefs, w.typeRefs(typeNode)...)
}

func (w *walker) fillIndexer(rt *extract.RawType, node *sitter.Node, mods map[string]bool) {
	typeNode := node.ChildByFieldName("type")
	typ := w.formatType(typeNode)
	paramsNode := node.ChildByFieldName("parameters")
	params := w.formatParams(paramsNode)

	rt.Members = append(rt.Members, core.MemberInfo{
		Name:     core.IndexerName,
		Kind:     core.MemberIndexer,
		Sig:      typ + " this[" + params + "]",
		Doc:      core.TruncateDoc(docComment(w, node)),
		IsStatic: mods["static"],
	})
	rt.ExternalRefs = append(rt.ExternalRefs, w.typeRefs(typeNode)...)
	rt.ExternalRefs = append(rt.ExternalRefs, w.paramRefs(paramsNode)...)
}

func (w *walker) fillEvent(rt *extract.RawType, node *sitter.Node, mods map[string]bool) {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	typ := w.formatType(typeNode)
	if nameNode == nil {
		// event_field_declaration nests its declarator(s) one level deeper.
		decl := firstChildOfType(node, "variable_declaration")
		if decl == nil {
			return
		}
		typeNode = decl.ChildByFieldName("type")
		typ = w.formatType(typeNode)
		declarator := firstChildOfType(decl, "variable_declarator")
		if declarator == nil {
			return
		}
		nameNode = declarator.ChildByFieldName("name")
	}
	if nameNode == nil || !isExported(w.text(nameNode)) {
		return
	}

	rt.Members = append(rt.Members, core.MemberInfo{
		Name:     w.text(nameNode),
		Kind:     core.MemberEvent,
		Sig:      "event " + typ + " " + w.text(nameNode),
		Doc:      core.TruncateDoc(docComment(w, node)),
		IsStatic: mods["static"],
	})
	rt.ExternalRefs = append(rt.ExternalRefs, w.typeRefs(typeNode)...)
}

func (w *walker) fillField(rt *extract.RawType, node *sitter.Node, mods map[string]bool) {
	decl := firstChildOfType(node, "variable_declaration")
	if decl == nil {
		decl = node
	}
	typeNode := decl.ChildByFieldName("type")
	typ := w.formatType(typeNode)
	rt.ExternalRefs = append(rt.ExternalRefs, w.typeRefs(typeNode)...)

	n := int(decl.NamedChildCount())
	for i := 0; i < n; i++ {
		declarator := decl.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		nameNode := declarator.ChildByFieldName("name")
		if nameNode == nil || !isExported(w.text(nameNode)) {
			continue
		}
		name := w.text(nameNode)

		if mods["const"] {
			valueNode := declarator.ChildByFieldName("value")
			sigStr := "const " + typ + " " + name
			if valueNode != nil {
				if val, ok := sig.CollapseConstValue(w.text(valueNode)); ok {
					sigStr += " = " + val
				}
			}
			rt.Members = append(rt.Members, core.MemberInfo{
				Name: name,
				Kind: core.MemberConst,
				Sig:  sigStr,
				Doc:  core.TruncateDoc(docComment(w, node)),
			})
			continue
		}

		rt.Members = append(rt.Members, core.MemberInfo{
			Name:     name,
			Kind:     core.MemberField,
			Sig:      typ + " " + name,
			Doc:      core.TruncateDoc(docComment(w, node)),
			IsStatic: mods["static"],
		})
	}
}

func (w *walker) extractEnum(node *sitter.Node, namespace string) (extract.RawType, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil || !isExported(w.text(nameNode)) {
		return extract.RawType{}, false
	}

	rt := extract.RawType{
		Namespace: namespace,
		Name:      w.text(nameNode),
		Kind:      core.KindEnum,
		Doc:       core.TruncateDoc(docComment(w, node)),
	}

	body := node.ChildByFieldName("body")
	if body != nil {
		n := int(body.NamedChildCount())
		for i := 0; i < n; i++ {
			member := body.NamedChild(i)
			if member.Type() != "enum_member_declaration" {
				continue
			}
			if memberName := member.ChildByFieldName("name"); memberName != nil {
				rt.Values = append(rt.Values, w.text(memberName))
			}
		}
	}
	return rt, true
}

// formatParams renders a parameter_list as "Type name, Type name, ...",
// including a default-value suffix per §4.1.3's ≤20-char rule.
func (w *walker) formatParams(list *sitter.Node) string {
	if list == nil {
		return ""
	}
	var parts []string
	n := int(list.NamedChildCount())
	for i := 0; i < n; i++ {
		p := list.NamedChild(i)
		if p.Type() != "parameter" {
			continue
		}
		typ := w.formatType(p.ChildByFieldName("type"))
		name := w.text(p.ChildByFieldName("name"))
		part := typ + " " + name
		if def := p.ChildByFieldName("default_value"); def != nil {
			part += " = " + sig.CollapseDefault(w.text(def))
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

func (w *walker) formatTypeParams(list *sitter.Node) string {
	if list == nil {
		return ""
	}
	var parts []string
	n := int(list.NamedChildCount())
	for i := 0; i < n; i++ {
		parts = append(parts, w.text(list.NamedChild(i)))
	}
	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// formatType renders a type node, dropping a leading stdlib qualifier
// (§4.1.3) and preserving generic-argument lists.
func (w *walker) formatType(node *sitter.Node) string {
	if node == nil {
		return "void"
	}
	switch node.Type() {
	case "qualified_name":
		qualifier := w.text(node.ChildByFieldName("qualifier"))
		name := w.text(node.ChildByFieldName("name"))
		if name == "" && int(node.NamedChildCount()) >= 2 {
			qualifier = w.text(node.NamedChild(0))
			name = w.text(node.NamedChild(int(node.NamedChildCount()) - 1))
		}
		full := qualifier + "." + name
		return sig.TrimStdlibQualifier(full, Extractor{}.SystemNamespacePrefixes())
	case "generic_name":
		base := w.text(node.ChildByFieldName("name"))
		argsNode := node.ChildByFieldName("type_arguments")
		if argsNode == nil {
			return base
		}
		var args []string
		n := int(argsNode.NamedChildCount())
		for i := 0; i < n; i++ {
			args = append(args, w.formatType(argsNode.NamedChild(i)))
		}
		return base + "<" + strings.Join(args, ", ") + ">"
	case "array_type":
		elem := w.formatType(node.ChildByFieldName("type"))
		return elem + "[]"
	case "nullable_type":
		elem := w.formatType(node.ChildByFieldName("type"))
		return elem + "?"
	default:
		return node.Content(w.src)
	}
}

// typeRefs walks a type node the same way formatType renders it, emitting an
// extract.ExternalRef for every named type it reaches. Mirrors Go's exprRefs
// (internal/lang/golang/golang.go) so depresolve sees C# type references too;
// predefined_type (int, string, void, ...) never yields a ref since it can
// never resolve to a first- or third-party package.
func (w *walker) typeRefs(node *sitter.Node) []extract.ExternalRef {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "qualified_name":
		qualifier := w.text(node.ChildByFieldName("qualifier"))
		name := w.text(node.ChildByFieldName("name"))
		if name == "" && int(node.NamedChildCount()) >= 2 {
			qualifier = w.text(node.NamedChild(0))
			name = w.text(node.NamedChild(int(node.NamedChildCount()) - 1))
		}
		if name == "" {
			return nil
		}
		return []extract.ExternalRef{{SimpleName: name, Qualifier: qualifier, Kind: core.KindClass}}
	case "generic_name":
		base := w.text(node.ChildByFieldName("name"))
		var refs []extract.ExternalRef
		if base != "" {
			refs = append(refs, extract.ExternalRef{SimpleName: base, Kind: core.KindClass})
		}
		if argsNode := node.ChildByFieldName("type_arguments"); argsNode != nil {
			n := int(argsNode.NamedChildCount())
			for i := 0; i < n; i++ {
				refs = append(refs, w.typeRefs(argsNode.NamedChild(i))...)
			}
		}
		return refs
	case "array_type", "nullable_type":
		return w.typeRefs(node.ChildByFieldName("type"))
	case "identifier":
		return []extract.ExternalRef{{SimpleName: w.text(node), Kind: core.KindClass}}
	default:
		return nil
	}
}

// baseListRefs walks a base_list (the ": Base, IFace" clause) emitting an
// ExternalRef per listed base or interface.
func (w *walker) baseListRefs(baseList *sitter.Node) []extract.ExternalRef {
	if baseList == nil {
		return nil
	}
	var refs []extract.ExternalRef
	n := int(baseList.NamedChildCount())
	for i := 0; i < n; i++ {
		refs = append(refs, w.typeRefs(baseList.NamedChild(i))...)
	}
	return refs
}

// paramRefs walks a parameter_list emitting an ExternalRef for each
// parameter's declared type.
func (w *walker) paramRefs(list *sitter.Node) []extract.ExternalRef {
	if list == nil {
		return nil
	}
	var refs []extract.ExternalRef
	n := int(list.NamedChildCount())
	for i := 0; i < n; i++ {
		p := list.NamedChild(i)
		if p.Type() != "parameter" {
			continue
		}
		refs = append(refs, w.typeRefs(p.ChildByFieldName("type"))...)
	}
	return refs
}

// leadingIdent returns the outermost identifier of a rendered type string
// (stripping any generic-argument suffix already appended by formatType).
func leadingIdent(typeStr string) string {
	return sig.StripGenerics(typeStr)
}

// modifiers collects the modifier keywords of member; the C# grammar
// attaches them as "modifier" children of the declaration node itself.
func modifiers(w *walker, member *sitter.Node) map[string]bool {
	out := make(map[string]bool)
	n := int(member.ChildCount())
	for i := 0; i < n; i++ {
		c := member.Child(i)
		if c.Type() == "modifier" {
			out[w.text(c)] = true
		}
	}
	return out
}

func accessorKinds(w *walker, property *sitter.Node) []string {
	var out []string
	accessors := property.ChildByFieldName("accessors")
	if accessors == nil {
		return []string{"get;"}
	}
	n := int(accessors.NamedChildCount())
	for i := 0; i < n; i++ {
		decl := accessors.NamedChild(i)
		kw := firstChildOfType(decl, "get", "set", "init")
		if kw == nil {
			continue
		}
		out = append(out, w.text(kw)+";")
	}
	if len(out) == 0 {
		out = []string{"get;"}
	}
	return out
}

// docComment collects a contiguous run of preceding "///" comments.
func docComment(w *walker, node *sitter.Node) string {
	var lines []string
	prev := node.PrevSibling()
	for prev != nil && prev.Type() == "comment" {
		text := w.text(prev)
		if !strings.HasPrefix(strings.TrimSpace(text), "///") {
			break
		}
		lines = append([]string{strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "///"))}, lines...)
		prev = prev.PrevSibling()
	}
	return strings.Join(lines, " ")
}

func firstChildOfType(node *sitter.Node, types ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	n := int(node.ChildCount())
	for i := 0; i < n; i++ {
		c := node.Child(i)
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return nil
}

func isExported(name string) bool {
	if name == "" {
		return false
	}
	r := name[0]
	return r >= 'A' && r <= 'Z'
}
