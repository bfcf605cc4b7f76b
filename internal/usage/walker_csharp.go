package usage

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// CSharpWalker is the Mode A sample-file walker for C#, grounded on the
// same tree-sitter grammar internal/lang/csharp already parses sources
// with. It mirrors GoWalker's two passes — call-site collection and
// pattern detection — over C#'s invocation_expression/member_access_expression
// shape instead of Go's CallExpr/SelectorExpr, and maps each §4.5 pattern
// tag to the nearest C# idiom for it (CancellationToken for "context",
// try/catch for "error-handling", and so on) rather than a Go construct
// that C# has no equivalent of.
type CSharpWalker struct{}

func (CSharpWalker) Extensions() []string { return []string{".cs"} }

func (CSharpWalker) Walk(relPath string, src []byte) ([]CallSite, []string, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(csharp.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, nil, err
	}
	defer tree.Close()

	var calls []CallSite
	patterns := make(map[string]bool)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "invocation_expression":
			if call, ok := csharpCallSite(n, relPath, src); ok {
				calls = append(calls, call)
			}
		case "using_statement", "finally_clause":
			patterns["defer-cleanup"] = true
		case "try_statement":
			patterns["error-handling"] = true
		case "lock_statement":
			patterns["goroutine"] = true
		}

		count := int(n.NamedChildCount())
		for i := 0; i < count; i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())

	for p, ok := range detectCSharpSubstringPatterns(src) {
		if ok {
			patterns[p] = true
		}
	}

	var patternList []string
	for p := range patterns {
		patternList = append(patternList, p)
	}
	return calls, patternList, nil
}

// csharpCallSite recognizes a receiver.Method(...) invocation, the C#
// shape of the Go walker's SelectorExpr-funced CallExpr.
func csharpCallSite(n *sitter.Node, relPath string, src []byte) (CallSite, bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_access_expression" {
		return CallSite{}, false
	}
	receiver := fn.ChildByFieldName("expression")
	name := fn.ChildByFieldName("name")
	if receiver == nil || name == nil {
		return CallSite{}, false
	}
	return CallSite{
		ReceiverStr: string(src[receiver.StartByte():receiver.EndByte()]),
		MethodName:  string(src[name.StartByte():name.EndByte()]),
		File:        relPath,
		Line:        int(n.StartPoint().Row) + 1,
	}, true
}

// detectCSharpSubstringPatterns covers the remaining §4.5 pattern tags
// with the same cheap substring checks the Go walker uses, translated to
// their .NET idiom: CancellationToken stands in for context.Context,
// Task.Run/Parallel stand in for goroutine-style concurrency, and
// System.Threading.Channels stands in for a Go channel select.
func detectCSharpSubstringPatterns(src []byte) map[string]bool {
	s := string(src)
	sLower := strings.ToLower(s)
	found := make(map[string]bool)

	if strings.Contains(s, "CancellationToken") {
		found["context"] = true
	}
	if strings.Contains(sLower, "credential") || strings.Contains(sLower, "authenticate") {
		found["authentication"] = true
	}
	if strings.Contains(sLower, "retry") || strings.Contains(sLower, "backoff") {
		found["retry"] = true
	}
	if strings.Contains(s, "Task.Run(") || strings.Contains(s, "new Thread(") || strings.Contains(s, "Parallel.") {
		found["goroutine"] = true
	}
	if strings.Contains(s, "Channel<") || strings.Contains(s, "ChannelReader") || strings.Contains(s, "ChannelWriter") {
		found["channel-select"] = true
	}
	if strings.Contains(sLower, "foreach") && (strings.Contains(sLower, "page") || strings.Contains(sLower, "pager")) {
		found["pagination"] = true
	}
	return found
}
