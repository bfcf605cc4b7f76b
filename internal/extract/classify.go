package extract

import (
	"strings"
	"unicode"

	"github.com/termfx/apigraph/internal/core"
	"github.com/termfx/apigraph/internal/sig"
)

// classification is the resolved base/interfaces split for one type,
// produced by the §4.1.2 base-type classifier.
type classification struct {
	base       string
	interfaces []string
}

// classify runs the post-parse base-type classifier over every entry in
// typeMap. It must run strictly after every parser worker has joined
// (§5), since it needs the complete local type-kind map to disambiguate
// raw base names.
func classify(typeMap *core.TypeMap) map[core.TypeKey]classification {
	keys := typeMap.Keys()

	// A simple-name -> kind lookup across the whole parsed tree. Raw base
	// names are resolved by simple name (generics stripped) rather than by
	// (namespace, name), since a class's bases are frequently declared in
	// a different namespace than the class itself and the raw base text
	// rarely carries its own namespace qualifier once signature
	// normalization has stripped it.
	kindByName := make(map[string]core.Kind, len(keys))
	for _, k := range keys {
		kindByName[k.Name] = typeMap.Get(k).Kind()
	}

	result := make(map[core.TypeKey]classification, len(keys))
	for _, k := range keys {
		entry := typeMap.Get(k)
		result[k] = classifyOne(entry.Kind(), entry.RawBases(), kindByName)
	}
	return result
}

func classifyOne(declaredKind core.Kind, rawBases []string, kindByName map[string]core.Kind) classification {
	var c classification

	for _, raw := range rawBases {
		name := sig.StripGenerics(strings.TrimSpace(raw))
		if name == "" {
			continue
		}

		if declaredKind == core.KindInterface {
			// Every raw base of an interface is itself an interface
			// (language rule, §4.1.2).
			c.interfaces = append(c.interfaces, name)
			continue
		}

		if localKind, ok := kindByName[name]; ok {
			if localKind == core.KindInterface {
				c.interfaces = append(c.interfaces, name)
			} else if c.base == "" {
				c.base = name // first writer wins
			}
			continue
		}

		// Not locally defined: fall back to the I-prefix naming
		// convention (§4.1.2), never applied to locally-defined types.
		if looksLikeInterfaceName(name) {
			c.interfaces = append(c.interfaces, name)
		} else if c.base == "" {
			c.base = name
		}
	}

	return c
}

// looksLikeInterfaceName implements the fallback naming convention: an
// uppercase "I" followed by another uppercase letter, e.g. "IWidgets".
func looksLikeInterfaceName(name string) bool {
	r := []rune(name)
	if len(r) < 2 {
		return false
	}
	return r[0] == 'I' && unicode.IsUpper(r[1])
}
