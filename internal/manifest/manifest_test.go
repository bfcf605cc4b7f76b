package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCsproj(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse_PackageNamePrefersPackageId(t *testing.T) {
	dir := t.TempDir()
	path := writeCsproj(t, dir, "random-checkout-dir.csproj", `<Project>
  <PropertyGroup>
    <RootNamespace>Widgets.Api</RootNamespace>
    <PackageId>Acme.Widgets</PackageId>
    <AssemblyName>Widgets</AssemblyName>
  </PropertyGroup>
</Project>`)

	info, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme.Widgets", info.PackageName)
}

func TestParse_PackageNameFallsBackToRootNamespace(t *testing.T) {
	dir := t.TempDir()
	path := writeCsproj(t, dir, "Widgets.csproj", `<Project>
  <PropertyGroup>
    <RootNamespace>Widgets.Api</RootNamespace>
    <AssemblyName>Widgets</AssemblyName>
  </PropertyGroup>
</Project>`)

	info, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "Widgets.Api", info.PackageName)
}

func TestParse_PackageNameFallsBackToAssemblyName(t *testing.T) {
	dir := t.TempDir()
	path := writeCsproj(t, dir, "Widgets.csproj", `<Project>
  <PropertyGroup>
    <AssemblyName>Widgets.Assembly</AssemblyName>
  </PropertyGroup>
</Project>`)

	info, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "Widgets.Assembly", info.PackageName)
}

func TestParse_PackageNameFallsBackToProjectFileStem(t *testing.T) {
	dir := t.TempDir()
	path := writeCsproj(t, dir, "Acme.Widgets.csproj", `<Project>
  <PropertyGroup>
  </PropertyGroup>
</Project>`)

	info, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme.Widgets", info.PackageName)
}

func TestDirFallback_UsesDirectoryLeafNameForBoth(t *testing.T) {
	info := DirFallback("/tmp/some-checkout/Acme.Widgets")
	assert.Equal(t, "Acme.Widgets", info.PackageName)
	assert.Equal(t, []string{"Acme.Widgets"}, info.EntryNames)
}

func TestIsEntryPointNamespace_MatchesDirectChildExcludesInternal(t *testing.T) {
	assert.True(t, IsEntryPointNamespace("Widgets", []string{"Widgets"}))
	assert.True(t, IsEntryPointNamespace("Widgets.Api", []string{"Widgets"}))
	assert.False(t, IsEntryPointNamespace("Widgets.Api.Internal", []string{"Widgets.Api"}))
}
