package apigraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/apigraph/internal/core"
	"github.com/termfx/apigraph/internal/format"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const sampleGoSource = `package widget

// WidgetClient talks to the widget service.
type WidgetClient struct{}

func NewWidgetClient() *WidgetClient { return &WidgetClient{} }

func (c *WidgetClient) Get(id string) (*Widget, error) { return nil, nil }
func (c *WidgetClient) List() ([]*Widget, error)        { return nil, nil }

// Widget is a single widget.
type Widget struct {
	ID   string
	Name string
}
`

func TestExtract_UnsupportedLanguage(t *testing.T) {
	dir := t.TempDir()
	_, err := Extract(context.Background(), dir, ExtractOptions{Lang: "cobol"})
	assert.Error(t, err)
}

func TestExtract_GoProducesIndexAndDependencies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "widget.go", sampleGoSource)

	index, err := Extract(context.Background(), dir, ExtractOptions{Lang: "go"})
	require.NoError(t, err)
	require.NotNil(t, index)

	var found bool
	for _, ns := range index.Namespaces {
		for _, ty := range ns.Types {
			if ty.Name == "WidgetClient" {
				found = true
			}
		}
	}
	assert.True(t, found, "expected WidgetClient to be extracted")
}

func TestExtract_CachedExtractorMemoizesParse(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "widget.go", sampleGoSource)
	cacheDSN := filepath.Join(t.TempDir(), "cache.db")

	first, err := Extract(context.Background(), dir, ExtractOptions{Lang: "go", CacheDSN: cacheDSN})
	require.NoError(t, err)

	second, err := Extract(context.Background(), dir, ExtractOptions{Lang: "go", CacheDSN: cacheDSN})
	require.NoError(t, err)

	assert.Equal(t, len(first.Namespaces), len(second.Namespaces))
}

func TestReachability_ClassifiesEntryPointClient(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "widget.go", sampleGoSource)

	index, err := Extract(context.Background(), dir, ExtractOptions{Lang: "go"})
	require.NoError(t, err)

	result := Reachability(index)
	var names []string
	for _, c := range result.ClientTypes {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "WidgetClient")
}

func TestAnalyzeUsage_NoWalkerForUnknownLanguage(t *testing.T) {
	_, err := AnalyzeUsage(context.Background(), nil, &core.ApiIndex{}, t.TempDir(), UsageOptions{Lang: "cobol"})
	assert.Error(t, err)
}

func TestAnalyzeUsage_CountsCoveredCall(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "widget.go", sampleGoSource)
	index, err := Extract(context.Background(), dir, ExtractOptions{Lang: "go"})
	require.NoError(t, err)
	clients := Reachability(index).ClientTypes

	samplesDir := t.TempDir()
	writeFile(t, samplesDir, "main_sample.go", `package main

import "widget"

func main() {
	c := widget.NewWidgetClient()
	c.Get("abc")
}
`)

	usageIdx, err := AnalyzeUsage(context.Background(), clients, index, samplesDir, UsageOptions{Lang: "go"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, usageIdx.FileCount, 1)
}

func TestRenderJSON_ProducesValidIndentedJSON(t *testing.T) {
	index := &core.ApiIndex{Package: "widget", Version: "1.0.0"}
	out, err := RenderJSON(index)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"package": "widget"`)
}

func TestRenderStubs_DelegatesToFormat(t *testing.T) {
	index := &core.ApiIndex{
		Package: "widget",
		Namespaces: []core.NamespaceInfo{
			{Name: "", Types: []core.TypeInfo{{Name: "Widget", Kind: core.KindClass}}},
		},
	}
	out := RenderStubs(index, format.Options{Budget: 10_000})
	assert.Contains(t, out, "Widget")
}

const sampleCSharpSource = `using System;

namespace Widgets.Api
{
    public class WidgetClient : BaseClient
    {
        public Logger Log { get; set; }

        public Widget Get(string id)
        {
            return null;
        }
    }

    public class Widget
    {
        public string Id { get; set; }
    }
}
`

func TestExtract_CSharpPopulatesDependenciesFromTypeReferences(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Widgets.cs", sampleCSharpSource)

	index, err := Extract(context.Background(), dir, ExtractOptions{Lang: "csharp"})
	require.NoError(t, err)
	require.NotNil(t, index)

	var depNames []string
	for _, dep := range index.Dependencies {
		for _, ty := range dep.Types {
			depNames = append(depNames, ty.Name)
		}
	}
	assert.Contains(t, depNames, "BaseClient", "a base class outside this root should resolve as a dependency")
	assert.Contains(t, depNames, "Logger", "a property type outside this root should resolve as a dependency")
	assert.NotContains(t, depNames, "Widget", "Widget is declared locally and must not be reported as a dependency")
}

func TestExtract_CSharpPackageNameComesFromManifestNotDirectory(t *testing.T) {
	dir := t.TempDir() // TempDir's leaf name is random, never "Acme.Widgets"
	writeFile(t, dir, "Widgets.csproj", `<Project>
  <PropertyGroup>
    <PackageId>Acme.Widgets</PackageId>
  </PropertyGroup>
</Project>`)
	writeFile(t, dir, "Widgets.cs", sampleCSharpSource)

	index, err := Extract(context.Background(), dir, ExtractOptions{Lang: "csharp"})
	require.NoError(t, err)
	assert.Equal(t, "Acme.Widgets", index.Package)
}

func TestAnalyzeUsage_CSharpHasARegisteredWalker(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Widgets.cs", sampleCSharpSource)
	index, err := Extract(context.Background(), dir, ExtractOptions{Lang: "csharp"})
	require.NoError(t, err)
	clients := Reachability(index).ClientTypes

	samplesDir := t.TempDir()
	writeFile(t, samplesDir, "Sample.cs", `class Program {
	static void Main() {
		var client = new WidgetClient();
		client.Get("1");
	}
}
`)

	usageIdx, err := AnalyzeUsage(context.Background(), clients, index, samplesDir, UsageOptions{Lang: "csharp"})
	require.NoError(t, err, "Mode A must work for csharp the same as for go")
	assert.GreaterOrEqual(t, usageIdx.FileCount, 1)
}
