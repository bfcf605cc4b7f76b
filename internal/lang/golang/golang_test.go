package golang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/apigraph/internal/core"
)

const sampleSrc = `// Package sample is a tiny SDK surface for extractor tests.
package sample

import (
	"context"
	"net/http"
)

// Status is the lifecycle state of a Widget.
type Status int

const (
	StatusActive Status = iota
	StatusRetired
)

// Base carries fields shared by every client.
type Base struct {
	Endpoint string
}

// WidgetClient talks to the widget service.
type WidgetClient struct {
	Base
	http *http.Client
}

// NewWidgetClient constructs a WidgetClient.
func NewWidgetClient(endpoint string) *WidgetClient {
	return &WidgetClient{Base: Base{Endpoint: endpoint}}
}

// Get fetches a widget by id.
func (c *WidgetClient) Get(ctx context.Context, id string) (*Widget, error) {
	return nil, nil
}

// Widget is a single resource.
type Widget struct {
	ID string
}

// IWidgetStore is implemented by any widget-backing store.
type IWidgetStore interface {
	Save(w *Widget) error
}

// MaxPageSize bounds list requests.
const MaxPageSize = 100

// DefaultTimeoutSeconds is the default request timeout.
var DefaultTimeoutSeconds = 30

// Ping checks service liveness.
func Ping() error { return nil }
`

func TestParseFile_ExtractsExportedTypes(t *testing.T) {
	var ex Extractor
	fp, err := ex.ParseFile("/repo/sample/sample.go", []byte(sampleSrc))
	require.NoError(t, err)

	byName := make(map[string]int)
	for i, rt := range fp.Types {
		byName[rt.Name] = i
	}

	require.Contains(t, byName, "WidgetClient")
	require.Contains(t, byName, "Widget")
	require.Contains(t, byName, "IWidgetStore")
	require.Contains(t, byName, "Status")
	require.Contains(t, byName, core.PackageLevelTypeName)

	client := fp.Types[byName["WidgetClient"]]
	assert.Equal(t, core.KindStruct, client.Kind)
	assert.Contains(t, client.RawBases, "Base")
	assert.Equal(t, "sample.sample", client.Namespace)

	var hasCtor, hasMethod bool
	for _, m := range client.Members {
		if m.Kind == core.MemberCtor && m.Name == "NewWidgetClient" {
			hasCtor = true
			assert.True(t, m.IsStatic)
		}
		if m.Kind == core.MemberMethod && m.Name == "Get" {
			hasMethod = true
		}
	}
	assert.True(t, hasCtor, "constructor-folded NewWidgetClient member expected")
	assert.True(t, hasMethod, "Get method expected")
}

func TestParseFile_EnumFoldsTypedConsts(t *testing.T) {
	var ex Extractor
	fp, err := ex.ParseFile("/repo/sample/sample.go", []byte(sampleSrc))
	require.NoError(t, err)

	for _, rt := range fp.Types {
		if rt.Name != "Status" {
			continue
		}
		assert.Equal(t, core.KindEnum, rt.Kind)
		assert.ElementsMatch(t, []string{"StatusActive", "StatusRetired"}, rt.Values)
		return
	}
	t.Fatal("Status type not found")
}

func TestParseFile_InterfaceMembersAreMethods(t *testing.T) {
	var ex Extractor
	fp, err := ex.ParseFile("/repo/sample/sample.go", []byte(sampleSrc))
	require.NoError(t, err)

	for _, rt := range fp.Types {
		if rt.Name != "IWidgetStore" {
			continue
		}
		assert.Equal(t, core.KindInterface, rt.Kind)
		require.Len(t, rt.Members, 1)
		assert.Equal(t, "Save", rt.Members[0].Name)
		assert.Equal(t, core.MemberMethod, rt.Members[0].Kind)
		return
	}
	t.Fatal("IWidgetStore type not found")
}

func TestParseFile_FoldsPackageLevelDeclarations(t *testing.T) {
	var ex Extractor
	fp, err := ex.ParseFile("/repo/sample/sample.go", []byte(sampleSrc))
	require.NoError(t, err)

	for _, rt := range fp.Types {
		if rt.Name != core.PackageLevelTypeName {
			continue
		}
		var names []string
		for _, m := range rt.Members {
			names = append(names, m.Name)
		}
		assert.Contains(t, names, "Ping")
		assert.Contains(t, names, "MaxPageSize")
		assert.Contains(t, names, "DefaultTimeoutSeconds")
		return
	}
	t.Fatal("package-level type not found")
}

func TestParseFile_CollectsExternalRefs(t *testing.T) {
	var ex Extractor
	fp, err := ex.ParseFile("/repo/sample/sample.go", []byte(sampleSrc))
	require.NoError(t, err)

	var found bool
	for _, rt := range fp.Types {
		for _, ref := range rt.ExternalRefs {
			if ref.SimpleName == "Context" && ref.Qualifier == "context" {
				found = true
			}
		}
	}
	assert.True(t, found, "expected a context.Context external reference from the exported Get method")
}

func TestNamespaceFor(t *testing.T) {
	assert.Equal(t, "a.b.c", namespaceFor("/root/a/b/c/file.go"))
}

func TestSystemNamespacePrefixes_IncludesCommonRoots(t *testing.T) {
	var ex Extractor
	prefixes := ex.SystemNamespacePrefixes()
	assert.Contains(t, prefixes, "fmt")
	assert.Contains(t, prefixes, "net")
}
