package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/apigraph/internal/core"
)

func sampleIndex() *core.ApiIndex {
	return &core.ApiIndex{
		Package: "widgets",
		Namespaces: []core.NamespaceInfo{
			{
				Name: "widgets",
				Types: []core.TypeInfo{
					{
						Name:       "WidgetClient",
						Kind:       core.KindClass,
						EntryPoint: true,
						Namespace:  "widgets",
						Doc:        "Entry point for talking to the widget service.",
						Members: []core.MemberInfo{
							{Name: "Get", Kind: core.MemberMethod, Sig: "Widget Get(string id)"},
							{Name: "List", Kind: core.MemberMethod, Sig: "Widget[] List()"},
						},
					},
					{
						Name:      "Widget",
						Kind:      core.KindClass,
						Namespace: "widgets",
						Members: []core.MemberInfo{
							{Name: "Id", Kind: core.MemberProperty, Sig: "string Id { get; }"},
						},
					},
					{
						Name:      "WidgetNotFoundError",
						Kind:      core.KindClass,
						IsError:   true,
						Namespace: "widgets",
					},
					{
						Name:      "WidgetStatus",
						Kind:      core.KindEnum,
						Namespace: "widgets",
						Values:    []string{"Active", "Retired"},
					},
				},
			},
		},
		Dependencies: []core.DependencyInfo{
			{
				Package: "System.Net.Http",
				Types: []core.TypeInfo{
					{Name: "HttpClient", Kind: core.KindClass},
				},
			},
		},
	}
}

func TestRenderStubs_OrdersByPriorityGroup(t *testing.T) {
	out := RenderStubs(sampleIndex(), Options{})

	clientIdx := strings.Index(out, "WidgetClient")
	depIdx := strings.Index(out, "class Widget {")
	errorIdx := strings.Index(out, "WidgetNotFoundError")
	enumIdx := strings.Index(out, "WidgetStatus")

	require.NotEqual(t, -1, clientIdx)
	require.NotEqual(t, -1, depIdx)
	require.NotEqual(t, -1, errorIdx)
	require.NotEqual(t, -1, enumIdx)

	assert.Less(t, clientIdx, errorIdx, "client types render before error types")
	assert.Less(t, errorIdx, enumIdx, "error types render before enums")
	assert.Less(t, depIdx, errorIdx, "client dependencies (Widget, returned by WidgetClient) render before error types")
}

func TestRenderStubs_NamespaceWrapping(t *testing.T) {
	out := RenderStubs(sampleIndex(), Options{})
	assert.Contains(t, out, "namespace widgets {")
}

func TestRenderStubs_DependencyAppendixPresentOutsideCoverageMode(t *testing.T) {
	out := RenderStubs(sampleIndex(), Options{})
	assert.Contains(t, out, "// dependency: System.Net.Http")
}

func TestRenderStubs_CoverageModeOmitsDependencyAppendix(t *testing.T) {
	usage := core.UsageIndex{
		UncoveredOperations: []core.UncoveredOperation{
			{ClientType: "WidgetClient", Operation: "List", Signature: "Widget[] List()"},
		},
	}
	out := RenderStubs(sampleIndex(), Options{Usage: &usage})
	assert.NotContains(t, out, "// dependency:")
}

func TestRenderStubs_CoverageModeFiltersToUncoveredMethods(t *testing.T) {
	usage := core.UsageIndex{
		CoveredOperations: []core.CoveredOperation{
			{ClientType: "WidgetClient", Operation: "Get"},
		},
		UncoveredOperations: []core.UncoveredOperation{
			{ClientType: "WidgetClient", Operation: "List", Signature: "Widget[] List()"},
		},
	}
	out := RenderStubs(sampleIndex(), Options{Usage: &usage})

	assert.Contains(t, out, "List()")
	assert.NotContains(t, out, "Get(string id)")
	assert.Contains(t, out, "// Coverage summary")
}

func TestRenderStubs_CoverageModeDropsTypesWithoutUncoveredOperations(t *testing.T) {
	usage := core.UsageIndex{
		UncoveredOperations: []core.UncoveredOperation{
			{ClientType: "WidgetClient", Operation: "List", Signature: "Widget[] List()"},
		},
	}
	out := RenderStubs(sampleIndex(), Options{Usage: &usage})
	assert.NotContains(t, out, "WidgetNotFoundError")
}

func TestRenderStubs_BudgetTruncationMarker(t *testing.T) {
	out := RenderStubs(sampleIndex(), Options{Budget: 150})
	assert.Contains(t, out, "truncated")
	assert.Contains(t, out, "budget exceeded")
}

func TestRenderStubs_EscapesDocText(t *testing.T) {
	idx := &core.ApiIndex{
		Package: "widgets",
		Namespaces: []core.NamespaceInfo{
			{
				Name: "",
				Types: []core.TypeInfo{
					{
						Name: "Widget",
						Kind: core.KindClass,
						Doc:  "A <Widget> & friends",
					},
				},
			},
		},
	}
	out := RenderStubs(idx, Options{})
	assert.Contains(t, out, "&lt;Widget&gt; &amp; friends")
	assert.NotContains(t, out, "<Widget>")
}

func TestRenderStubs_GlobalNamespaceEmittedBare(t *testing.T) {
	idx := &core.ApiIndex{
		Package: "widgets",
		Namespaces: []core.NamespaceInfo{
			{Name: "", Types: []core.TypeInfo{{Name: "Widget", Kind: core.KindClass}}},
		},
	}
	out := RenderStubs(idx, Options{})
	assert.NotContains(t, out, "namespace  {")
}
