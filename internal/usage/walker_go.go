package usage

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

// GoWalker is the Mode A native syntactic walker for Go sample files,
// grounded directly on the reference tool's analyzeUsage: the same
// ast.Inspect-over-CallExpr walk for covered operations, and the same
// ast.Inspect-over-DeferStmt/GoStmt/SelectStmt/RangeStmt substring checks
// for pattern detection.
type GoWalker struct{}

func (GoWalker) Extensions() []string { return []string{".go"} }

func (GoWalker) Walk(relPath string, src []byte) ([]CallSite, []string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, relPath, src, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}

	var calls []CallSite
	ast.Inspect(f, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		pos := fset.Position(call.Pos())
		calls = append(calls, CallSite{
			ReceiverStr: formatReceiver(sel.X),
			MethodName:  sel.Sel.Name,
			File:        relPath,
			Line:        pos.Line,
		})
		return true
	})

	patterns := detectPatterns(f, string(src))
	return calls, patterns, nil
}

func formatReceiver(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return formatReceiver(e.X) + "." + e.Sel.Name
	case *ast.StarExpr:
		return formatReceiver(e.X)
	case *ast.CallExpr:
		return formatReceiver(e.Fun)
	default:
		return ""
	}
}

func detectPatterns(f *ast.File, src string) []string {
	found := make(map[string]bool)
	srcLower := strings.ToLower(src)

	ast.Inspect(f, func(n ast.Node) bool {
		switch stmt := n.(type) {
		case *ast.DeferStmt:
			found["defer-cleanup"] = true
		case *ast.GoStmt:
			found["goroutine"] = true
		case *ast.SelectStmt:
			found["channel-select"] = true
		case *ast.RangeStmt:
			if stmt.For.IsValid() && (strings.Contains(srcLower, "page") || strings.Contains(srcLower, "pager")) {
				found["pagination"] = true
			}
		}
		return true
	})

	if strings.Contains(src, "context.") {
		found["context"] = true
	}
	if strings.Contains(srcLower, "credential") || strings.Contains(srcLower, "authenticate") {
		found["authentication"] = true
	}
	if strings.Contains(srcLower, "retry") || strings.Contains(srcLower, "backoff") {
		found["retry"] = true
	}
	if strings.Contains(src, "err != nil") {
		found["error-handling"] = true
	}

	var out []string
	for p := range found {
		out = append(out, p)
	}
	return out
}
