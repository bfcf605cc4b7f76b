package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/apigraph/internal/core"
)

func sampleClients() []core.TypeInfo {
	return []core.TypeInfo{
		{
			Name: "WidgetClient",
			Kind: core.KindClass,
			Members: []core.MemberInfo{
				{Name: "Get", Kind: core.MemberMethod, Sig: "Get(id string) (Widget, error)"},
				{Name: "DeleteAsync", Kind: core.MemberMethod, Sig: "DeleteAsync(id string) error"},
				{Name: "List", Kind: core.MemberMethod, Sig: "List() ([]Widget, error)"},
			},
		},
	}
}

const sampleCallerSrc = `package main

import "context"

func run(ctx context.Context, client *WidgetClient) error {
	w, err := client.Get("1")
	if err != nil {
		return err
	}
	_ = w
	defer client.Close()
	return client.Delete("1")
}
`

func TestAnalyze_CoversCalledMethods(t *testing.T) {
	files := map[string][]byte{"main.go": []byte(sampleCallerSrc)}
	index := Analyze(sampleClients(), files, GoWalker{})

	require.Equal(t, 1, index.FileCount)

	var coveredOps []string
	for _, c := range index.CoveredOperations {
		coveredOps = append(coveredOps, c.Operation)
	}
	assert.Contains(t, coveredOps, "Get")
	assert.Contains(t, coveredOps, "DeleteAsync", "Delete() call should match DeleteAsync via tolerant suffix matching")
}

func TestAnalyze_UncoveredListsRemainingMethods(t *testing.T) {
	files := map[string][]byte{"main.go": []byte(sampleCallerSrc)}
	index := Analyze(sampleClients(), files, GoWalker{})

	var uncoveredOps []string
	for _, u := range index.UncoveredOperations {
		uncoveredOps = append(uncoveredOps, u.Operation)
	}
	assert.Contains(t, uncoveredOps, "List")
	assert.NotContains(t, uncoveredOps, "Get")
}

func TestAnalyze_EmptyClientSetReturnsImmediately(t *testing.T) {
	index := Analyze(nil, map[string][]byte{"main.go": []byte(sampleCallerSrc)}, GoWalker{})
	assert.Equal(t, 0, index.FileCount)
	assert.Empty(t, index.CoveredOperations)
}

func TestAnalyze_DetectsPatterns(t *testing.T) {
	files := map[string][]byte{"main.go": []byte(sampleCallerSrc)}
	index := Analyze(sampleClients(), files, GoWalker{})
	assert.Contains(t, index.Patterns, "defer-cleanup")
	assert.Contains(t, index.Patterns, "error-handling")
	assert.Contains(t, index.Patterns, "context")
}

func TestBackfillSignatures(t *testing.T) {
	idx := core.UsageIndex{
		UncoveredOperations: []core.UncoveredOperation{
			{ClientType: "WidgetClient", Operation: "List"},
		},
	}
	filled := BackfillSignatures(idx, sampleClients())
	require.Len(t, filled.UncoveredOperations, 1)
	assert.Equal(t, "List() ([]Widget, error)", filled.UncoveredOperations[0].Signature)
}
