package reach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/apigraph/internal/core"
)

func buildIndex() *core.ApiIndex {
	return &core.ApiIndex{
		Package: "sample",
		Namespaces: []core.NamespaceInfo{
			{
				Name: "Acme.Sdk",
				Types: []core.TypeInfo{
					{
						Name:       "WidgetClient",
						Kind:       core.KindClass,
						EntryPoint: true,
						Members: []core.MemberInfo{
							{Name: "Get", Kind: core.MemberMethod, Sig: "Get(id string) Widget"},
						},
					},
					{
						Name: "Widget",
						Kind: core.KindClass,
						Members: []core.MemberInfo{
							{Name: "ID", Kind: core.MemberField, Sig: "ID string"},
						},
					},
					{
						Name:       "IWidgetStore",
						Kind:       core.KindInterface,
						Interfaces: nil,
						Members: []core.MemberInfo{
							{Name: "Save", Kind: core.MemberMethod, Sig: "Save(w Widget) error"},
						},
					},
					{
						Name:       "WidgetStore",
						Kind:       core.KindClass,
						Interfaces: []string{"IWidgetStore"},
						Members: []core.MemberInfo{
							{Name: "Save", Kind: core.MemberMethod, Sig: "Save(w Widget) error"},
						},
					},
					{
						Name: "Orphan",
						Kind: core.KindClass,
						Members: []core.MemberInfo{
							{Name: "Noop", Kind: core.MemberMethod, Sig: "Noop()"},
						},
					},
				},
			},
		},
	}
}

func TestAnalyze_ExplicitEntryPointRoot(t *testing.T) {
	result := Analyze(buildIndex())

	var names []string
	for _, t := range result.ClientTypes {
		names = append(names, t.Name)
	}

	assert.Contains(t, names, "WidgetClient")
	assert.NotContains(t, names, "Widget", "Widget has no methods, excluded from the client set")
	assert.NotContains(t, names, "Orphan", "Orphan is unreachable from the explicit entry point")
}

func TestAnalyze_InterfaceWithoutImplementersExcluded(t *testing.T) {
	index := &core.ApiIndex{
		Namespaces: []core.NamespaceInfo{
			{
				Name: "",
				Types: []core.TypeInfo{
					{
						Name:       "Root",
						Kind:       core.KindClass,
						EntryPoint: true,
						Members: []core.MemberInfo{
							{Name: "Do", Kind: core.MemberMethod, Sig: "Do(x IOrphanInterface)"},
						},
					},
					{
						Name: "IOrphanInterface",
						Kind: core.KindInterface,
						Members: []core.MemberInfo{
							{Name: "M", Kind: core.MemberMethod, Sig: "M()"},
						},
					},
				},
			},
		},
	}

	result := Analyze(index)
	var names []string
	for _, t := range result.ClientTypes {
		names = append(names, t.Name)
	}
	assert.Contains(t, names, "Root")
	assert.NotContains(t, names, "IOrphanInterface")
}

func TestAnalyze_FallsBackToIndegreeZeroWhenNoEntryPoint(t *testing.T) {
	index := buildIndex()
	for i := range index.Namespaces[0].Types {
		index.Namespaces[0].Types[i].EntryPoint = false
	}

	result := Analyze(index)
	require.NotEmpty(t, result.ClientTypes)

	var names []string
	for _, t := range result.ClientTypes {
		names = append(names, t.Name)
	}
	assert.Contains(t, names, "WidgetClient")
}

func TestAnalyze_EmptyIndexProducesNoClients(t *testing.T) {
	result := Analyze(&core.ApiIndex{})
	assert.Empty(t, result.ClientTypes)
}
