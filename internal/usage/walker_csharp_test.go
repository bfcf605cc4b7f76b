package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/apigraph/internal/core"
)

const sampleCSharpCallerSrc = `using System;
using System.Threading;

namespace Widgets.Samples
{
    class Program
    {
        static async System.Threading.Tasks.Task Run(WidgetClient client, CancellationToken ct)
        {
            try
            {
                var w = await client.GetAsync("1", ct);
                Console.WriteLine(w);
            }
            finally
            {
                client.Close();
            }
        }
    }
}
`

func TestCSharpWalker_CoversCalledMethods(t *testing.T) {
	clients := []core.TypeInfo{
		{
			Name: "WidgetClient",
			Kind: core.KindClass,
			Members: []core.MemberInfo{
				{Name: "GetAsync", Kind: core.MemberMethod, Sig: "Task<Widget> GetAsync(string id, CancellationToken ct)"},
				{Name: "Close", Kind: core.MemberMethod, Sig: "void Close()"},
				{Name: "List", Kind: core.MemberMethod, Sig: "Widget[] List()"},
			},
		},
	}
	files := map[string][]byte{"Program.cs": []byte(sampleCSharpCallerSrc)}
	index := Analyze(clients, files, CSharpWalker{})

	require.Equal(t, 1, index.FileCount)
	var coveredOps []string
	for _, c := range index.CoveredOperations {
		coveredOps = append(coveredOps, c.Operation)
	}
	assert.Contains(t, coveredOps, "GetAsync")
	assert.Contains(t, coveredOps, "Close")

	var uncoveredOps []string
	for _, u := range index.UncoveredOperations {
		uncoveredOps = append(uncoveredOps, u.Operation)
	}
	assert.Contains(t, uncoveredOps, "List")
}

func TestCSharpWalker_DetectsPatterns(t *testing.T) {
	files := map[string][]byte{"Program.cs": []byte(sampleCSharpCallerSrc)}
	index := Analyze([]core.TypeInfo{{
		Name:    "WidgetClient",
		Kind:    core.KindClass,
		Members: []core.MemberInfo{{Name: "GetAsync", Kind: core.MemberMethod}},
	}}, files, CSharpWalker{})

	assert.Contains(t, index.Patterns, "defer-cleanup", "finally block should be tagged the same as Go's defer")
	assert.Contains(t, index.Patterns, "error-handling", "try block should be tagged the same as Go's err != nil check")
	assert.Contains(t, index.Patterns, "context", "a CancellationToken parameter is C#'s context.Context")
}

func TestCSharpWalker_ExtensionsIsCs(t *testing.T) {
	assert.Equal(t, []string{".cs"}, CSharpWalker{}.Extensions())
}
