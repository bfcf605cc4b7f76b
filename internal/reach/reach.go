// Package reach implements the reachability / client-set classifier
// (§4.4): it builds a type-node graph from an ApiIndex, seeds it with a
// root set, walks it breadth-first, and intersects the reached set with
// "actually has operations" to produce the final client set.
package reach

import (
	"sort"

	"github.com/termfx/apigraph/internal/core"
	"github.com/termfx/apigraph/internal/sig"
)

// node is the §4.4 type-node model.
type node struct {
	name                 string
	hasOperations        bool
	isExplicitEntryPoint bool
	isRootCandidate      bool
	isInterface          bool
	referencedTypes      []string
}

// Result is the reachability pass's output: the client set (types whose
// methods are coverage candidates), in the same order they appear in the
// source ApiIndex's namespaces, deduplicated by normalized simple name.
type Result struct {
	ClientTypes []core.TypeInfo
}

// Analyze runs the full §4.4 algorithm over index.
func Analyze(index *core.ApiIndex) Result {
	nodes, order := buildNodes(index)
	implementers := buildImplementerEdges(index)
	roots := selectRoots(nodes, order)
	reached := bfs(nodes, implementers, roots)

	byName := typesByName(index)
	var clients []core.TypeInfo
	seen := make(map[string]bool)
	for _, name := range order {
		if !reached[name] {
			continue
		}
		n := nodes[name]
		if !n.hasOperations {
			continue
		}
		if n.isInterface && len(implementers[name]) == 0 {
			continue // interface without implementers: excluded from the final client set
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		clients = append(clients, byName[name])
	}
	return Result{ClientTypes: clients}
}

// buildNodes walks every locally-defined type in index, producing one node
// per normalized simple name plus the encounter order (namespace-then-type
// sort order, already guaranteed by core.ApiIndex's snapshot contract).
func buildNodes(index *core.ApiIndex) (map[string]node, []string) {
	known := make(map[string]bool)
	for _, ns := range index.Namespaces {
		for _, t := range ns.Types {
			known[sig.StripGenerics(t.Name)] = true
		}
	}

	nodes := make(map[string]node)
	var order []string
	for _, ns := range index.Namespaces {
		for _, t := range ns.Types {
			name := sig.StripGenerics(t.Name)
			if _, exists := nodes[name]; exists {
				continue
			}
			order = append(order, name)
			nodes[name] = node{
				name:                 name,
				hasOperations:        hasMethod(t),
				isExplicitEntryPoint: t.EntryPoint,
				isRootCandidate:      t.Kind != core.KindInterface,
				isInterface:          t.Kind == core.KindInterface,
				referencedTypes:      referencedTypes(t, known),
			}
		}
	}
	return nodes, order
}

func hasMethod(t core.TypeInfo) bool {
	for _, m := range t.Members {
		if m.Kind == core.MemberMethod {
			return true
		}
	}
	return false
}

// referencedTypes tokenizes every member signature and keeps only tokens
// matching a known local type name — the token-boundary-aware extractor
// from §4.4 ("referencedTypes: simple-name set obtained by tokenizing
// member signatures"). Base/interface lists are a separate edge kind
// (classification, §4.1.2) and are deliberately not folded in here.
func referencedTypes(t core.TypeInfo, known map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range t.Members {
		for _, tok := range sig.KnownTokens(m.Sig, known) {
			if tok == t.Name || seen[tok] {
				continue
			}
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}

// buildImplementerEdges returns, for every interface name, the list of
// concrete types that list it as an interface — the §4.4 "interface →
// implementer" edge set.
func buildImplementerEdges(index *core.ApiIndex) map[string][]string {
	edges := make(map[string][]string)
	for _, ns := range index.Namespaces {
		for _, t := range ns.Types {
			for _, iface := range t.Interfaces {
				name := sig.StripGenerics(iface)
				edges[name] = append(edges[name], sig.StripGenerics(t.Name))
			}
		}
	}
	return edges
}

func typesByName(index *core.ApiIndex) map[string]core.TypeInfo {
	out := make(map[string]core.TypeInfo)
	for _, ns := range index.Namespaces {
		for _, t := range ns.Types {
			name := sig.StripGenerics(t.Name)
			if _, exists := out[name]; !exists {
				out[name] = t
			}
		}
	}
	return out
}

// selectRoots implements the §4.4 three-step root-selection fallback.
func selectRoots(nodes map[string]node, order []string) []string {
	var explicit []string
	for _, name := range order {
		if nodes[name].isExplicitEntryPoint {
			explicit = append(explicit, name)
		}
	}
	if len(explicit) > 0 {
		return explicit
	}

	indegree := make(map[string]int)
	for _, name := range order {
		for _, ref := range nodes[name].referencedTypes {
			indegree[ref]++
		}
	}

	var augmented []string
	for _, name := range order {
		n := nodes[name]
		if n.hasOperations && indegree[name] == 0 {
			augmented = append(augmented, name)
		}
	}
	for _, name := range order {
		for _, ref := range nodes[name].referencedTypes {
			if nodes[ref].hasOperations {
				augmented = append(augmented, name)
				break
			}
		}
	}
	if len(augmented) > 0 {
		return dedupStrings(augmented)
	}

	var allOperationBearing []string
	for _, name := range order {
		if nodes[name].hasOperations {
			allOperationBearing = append(allOperationBearing, name)
		}
	}
	return allOperationBearing
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// bfs walks from roots over referencedTypes edges plus
// interface->implementer edges, returning the full reached set.
func bfs(nodes map[string]node, implementers map[string][]string, roots []string) map[string]bool {
	reached := make(map[string]bool)
	var queue []string
	for _, r := range roots {
		if reached[r] {
			continue
		}
		reached[r] = true
		queue = append(queue, r)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		n, ok := nodes[current]
		if !ok {
			continue
		}
		for _, ref := range n.referencedTypes {
			if !reached[ref] {
				reached[ref] = true
				queue = append(queue, ref)
			}
		}
		for _, impl := range implementers[current] {
			if !reached[impl] {
				reached[impl] = true
				queue = append(queue, impl)
			}
		}
	}
	return reached
}
