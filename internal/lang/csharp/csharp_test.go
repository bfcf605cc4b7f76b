package csharp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/apigraph/internal/core"
	"github.com/termfx/apigraph/internal/extract"
)

const sampleSrc = `
using System;
using System.Threading.Tasks;

namespace Widgets.Api
{
    /// Status of a widget.
    public enum WidgetStatus
    {
        Active,
        Retired,
    }

    public interface IWidgetStore
    {
        Task<Widget> GetAsync(string id);
    }

    public class Widget
    {
        public string Id { get; set; }
        public const int MaxNameLength = 64;
    }

    /// Client for talking to the widget service.
    public class WidgetClient : IWidgetStore
    {
        public WidgetClient(string baseUrl)
        {
        }

        public async Task<Widget> GetAsync(string id)
        {
            return null;
        }

        public Widget[] List()
        {
            return null;
        }
    }
}
`

func parseSample(t *testing.T) []extract.RawType {
	fp, err := Extractor{}.ParseFile("Widgets.cs", []byte(sampleSrc))
	require.NoError(t, err)
	return fp.Types
}

func findType(t *testing.T, name string) extract.RawType {
	t.Helper()
	for _, rt := range parseSample(t) {
		if rt.Name == name {
			return rt
		}
	}
	t.Fatalf("type %s not found", name)
	return extract.RawType{}
}

func TestParseFile_ExtractsExportedTypes(t *testing.T) {
	names := map[string]bool{}
	for _, rt := range parseSample(t) {
		names[rt.Name] = true
	}
	assert.True(t, names["WidgetStatus"])
	assert.True(t, names["IWidgetStore"])
	assert.True(t, names["Widget"])
	assert.True(t, names["WidgetClient"])
}

func TestParseFile_EnumValues(t *testing.T) {
	status := findType(t, "WidgetStatus")
	assert.Equal(t, core.KindEnum, status.Kind)
	assert.Contains(t, status.Values, "Active")
	assert.Contains(t, status.Values, "Retired")
}

func TestParseFile_InterfaceIsKind(t *testing.T) {
	store := findType(t, "IWidgetStore")
	assert.Equal(t, core.KindInterface, store.Kind)
	require.Len(t, store.Members, 1)
	assert.Equal(t, "GetAsync", store.Members[0].Name)
}

func TestParseFile_ImplementsInterfaceCapturedAsBase(t *testing.T) {
	client := findType(t, "WidgetClient")
	assert.Contains(t, client.RawBases, "IWidgetStore")
}

func TestParseFile_DetectsAsyncByReturnType(t *testing.T) {
	client := findType(t, "WidgetClient")
	var get core.MemberInfo
	for _, m := range client.Members {
		if m.Name == "GetAsync" {
			get = m
		}
	}
	require.NotEmpty(t, get.Name)
	assert.True(t, get.IsAsync)
}

func TestParseFile_NonAsyncMethodNotFlagged(t *testing.T) {
	client := findType(t, "WidgetClient")
	var list core.MemberInfo
	for _, m := range client.Members {
		if m.Name == "List" {
			list = m
		}
	}
	require.NotEmpty(t, list.Name)
	assert.False(t, list.IsAsync)
}

func TestParseFile_ConstFoldedWithValue(t *testing.T) {
	widget := findType(t, "Widget")
	var maxLen core.MemberInfo
	for _, m := range widget.Members {
		if m.Name == "MaxNameLength" {
			maxLen = m
		}
	}
	require.NotEmpty(t, maxLen.Name)
	assert.Equal(t, core.MemberConst, maxLen.Kind)
	assert.Contains(t, maxLen.Sig, "= 64")
}

func TestParseFile_PropertyRendersAccessors(t *testing.T) {
	widget := findType(t, "Widget")
	var id core.MemberInfo
	for _, m := range widget.Members {
		if m.Name == "Id" {
			id = m
		}
	}
	require.NotEmpty(t, id.Name)
	assert.Contains(t, id.Sig, "get;")
	assert.Contains(t, id.Sig, "set;")
}

func TestParseFile_ExternalRefsCollectedFromBaseListAndSignatures(t *testing.T) {
	client := findType(t, "WidgetClient")

	var names []string
	for _, ref := range client.ExternalRefs {
		names = append(names, ref.SimpleName)
	}
	assert.Contains(t, names, "IWidgetStore", "implemented interface from the base list must be recorded")
	assert.Contains(t, names, "Task", "an async method's return type must be recorded")
}

func TestParseFile_ExternalRefsExcludePredefinedTypes(t *testing.T) {
	client := findType(t, "WidgetClient")

	for _, ref := range client.ExternalRefs {
		assert.NotEqual(t, "string", ref.SimpleName, "predefined_type nodes must never yield an ExternalRef")
	}
}

func TestSystemNamespacePrefixes_IncludesBCLRoots(t *testing.T) {
	prefixes := Extractor{}.SystemNamespacePrefixes()
	assert.Contains(t, prefixes, "System")
}
