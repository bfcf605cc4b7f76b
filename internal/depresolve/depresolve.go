// Package depresolve implements the dependency resolver (§4.3): attributes
// every externally-referenced type from the public surface to an
// originating package, filters out anything locally defined, groups by
// package, and flags standard-library packages.
//
// No C# compiler is linked into this module, so "semantic compilation" is
// implemented as a best-effort symbol table built from the ExternalRef
// values the language front end already collected while walking member
// signatures and base lists (see SPEC_FULL.md's Open Questions: the spec
// explicitly tolerates unresolved symbols rather than requiring full
// type-checking, which is an explicit Non-goal).
package depresolve

import (
	"sort"

	"github.com/termfx/apigraph/internal/config"
	"github.com/termfx/apigraph/internal/core"
)

// Ref mirrors internal/extract.ExternalRef without importing that package,
// to keep this package usable from any language front end's output.
type Ref struct {
	SimpleName         string
	Qualifier          string
	DeclaringNamespace string
	Kind               core.Kind
}

// Resolve runs §4.3's algorithm over refs, dropping anything whose simple
// name is in localNames, attributing the rest to a package, grouping, and
// sorting. stdlibPrefixes is the frozen standard-library root set for the
// §4.3 system-assembly filter ("exact match, case-insensitive, or the
// candidate begins with root+'.'").
func Resolve(refs []Ref, localNames map[string]bool, stdlibPrefixes []string) []core.DependencyInfo {
	byPackage := make(map[string]map[string]core.TypeInfo)

	// Processed in fixed-size batches (§4.3 step 2, §5): this does not
	// change the result, only mirrors the teacher/spec's bounded-memory
	// batching discipline for when this symbol table is backed by a real
	// compiler's semantic model in a future language front end.
	batchSize := config.DependencyBatchSize
	for start := 0; start < len(refs); start += batchSize {
		end := start + batchSize
		if end > len(refs) {
			end = len(refs)
		}
		for _, ref := range refs[start:end] {
			if localNames[ref.SimpleName] {
				continue // first-party: dropped (§4.3 step 3)
			}
			pkg := attributePackage(ref)
			if byPackage[pkg] == nil {
				byPackage[pkg] = make(map[string]core.TypeInfo)
			}
			byPackage[pkg][ref.SimpleName] = core.TypeInfo{
				Name: ref.SimpleName,
				Kind: ref.Kind,
			}
		}
	}

	var out []core.DependencyInfo
	for pkg, types := range byPackage {
		typeList := make([]core.TypeInfo, 0, len(types))
		for _, t := range types {
			typeList = append(typeList, t)
		}
		sort.Slice(typeList, func(i, j int) bool { return typeList[i].Name < typeList[j].Name })
		out = append(out, core.DependencyInfo{
			Package:  pkg,
			Types:    typeList,
			IsStdlib: isStdlib(pkg, stdlibPrefixes),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}

// attributePackage implements §4.3 step 2's attribution rule: a qualified
// reference attributes to its qualifier (the "containing assembly"
// analog available without a real semantic model); an unresolved,
// unqualified reference falls back to its declaring namespace.
func attributePackage(ref Ref) string {
	if ref.Qualifier != "" {
		return ref.Qualifier
	}
	if ref.DeclaringNamespace != "" {
		return ref.DeclaringNamespace
	}
	return ref.SimpleName
}

func isStdlib(pkg string, stdlibPrefixes []string) bool {
	for _, prefix := range stdlibPrefixes {
		if equalFold(pkg, prefix) {
			return true
		}
		if hasPrefixFold(pkg, prefix+".") {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if lower(a[i]) != lower(b[i]) {
			return false
		}
	}
	return true
}

func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return equalFold(s[:len(prefix)], prefix)
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
