// Package format implements the §4.6 coverage-aware stub formatter: it
// renders an ApiIndex (optionally combined with a UsageIndex) as a
// compact textual stub bundle that fits within a character budget.
package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/termfx/apigraph/internal/core"
)

// Options tunes one render.
type Options struct {
	// Budget is the total character budget (§4.6 "Budget accounting").
	// 0 means unbounded.
	Budget int
	// Usage, if non-nil, switches the renderer into coverage mode
	// (§4.6 "Coverage mode").
	Usage *core.UsageIndex
}

// priorityGroup is the §4.6 rendering priority order, ascending.
type priorityGroup int

const (
	groupClientTypes priorityGroup = iota
	groupClientDependencies
	groupErrorTypes
	groupEnums
	groupModelTypes
	groupOthers
)

// RenderStubs renders index as the compact stub text described in §4.6.
func RenderStubs(index *core.ApiIndex, opts Options) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("// %s - Public API Surface\n", index.Package))

	ordered := orderByPriority(index)

	coverageMode := opts.Usage != nil
	if coverageMode {
		writeCoverageSummary(&sb, *opts.Usage)
		ordered = filterForCoverageMode(ordered, *opts.Usage)
	}

	byNamespace := groupByNamespace(ordered)
	var namespaces []string
	for ns := range byNamespace {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	budget := opts.Budget
	written := 0
	omitted := 0
	budgetExceeded := false

renderLoop:
	for _, ns := range namespaces {
		nsTypes := byNamespace[ns]
		var nsBody strings.Builder
		wroteAny := false

		for _, t := range nsTypes {
			if budgetExceeded {
				omitted++
				continue
			}

			rendered := renderType(t, coverageMode, opts.Usage)
			if budget > 0 && sb.Len()+nsBody.Len()+len(rendered) > budget-100 && written > 0 {
				budgetExceeded = true
				omitted++
				continue
			}

			nsBody.WriteString(rendered)
			wroteAny = true
			written++
		}

		if !wroteAny {
			continue
		}
		if ns == "" {
			sb.WriteString(nsBody.String())
		} else {
			sb.WriteString(fmt.Sprintf("namespace %s {\n", ns))
			sb.WriteString(indent(nsBody.String()))
			sb.WriteString("}\n\n")
		}

		if budgetExceeded {
			break renderLoop
		}
	}

	if budgetExceeded || omitted > 0 {
		sb.WriteString(fmt.Sprintf("// ... truncated (%d types omitted, budget exceeded)\n", omitted))
	}

	if !coverageMode {
		writeDependencyAppendix(&sb, index.Dependencies)
	}

	return sb.String()
}

// orderByPriority sorts every first-party type into the §4.6 priority
// groups, preserving each group's namespace/name order from the index.
func orderByPriority(index *core.ApiIndex) []core.TypeInfo {
	depNames := clientDependencyNames(index)

	var groups [6][]core.TypeInfo
	for _, ns := range index.Namespaces {
		for _, t := range ns.Types {
			groups[classifyPriority(t, depNames)] = append(groups[classifyPriority(t, depNames)], t)
		}
	}

	var out []core.TypeInfo
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func classifyPriority(t core.TypeInfo, depNames map[string]bool) priorityGroup {
	switch {
	case t.EntryPoint && hasMethod(t):
		return groupClientTypes
	case depNames[t.Name]:
		return groupClientDependencies
	case t.IsError:
		return groupErrorTypes
	case t.Kind == core.KindEnum:
		return groupEnums
	case isModelType(t):
		return groupModelTypes
	default:
		return groupOthers
	}
}

func hasMethod(t core.TypeInfo) bool {
	for _, m := range t.Members {
		if m.Kind == core.MemberMethod {
			return true
		}
	}
	return false
}

func isModelType(t core.TypeInfo) bool {
	if t.Kind != core.KindClass && t.Kind != core.KindRecord && t.Kind != core.KindRecordStruct && t.Kind != core.KindStruct {
		return false
	}
	hasProperty := false
	for _, m := range t.Members {
		if m.Kind == core.MemberMethod {
			return false
		}
		if m.Kind == core.MemberProperty || m.Kind == core.MemberField {
			hasProperty = true
		}
	}
	return hasProperty
}

// clientDependencyNames returns every type name referenced from a client
// type's member signatures — "types reachable from client members'
// signatures" (§4.6 group 2).
func clientDependencyNames(index *core.ApiIndex) map[string]bool {
	known := make(map[string]bool)
	for _, ns := range index.Namespaces {
		for _, t := range ns.Types {
			known[t.Name] = true
		}
	}

	deps := make(map[string]bool)
	for _, ns := range index.Namespaces {
		for _, t := range ns.Types {
			if !t.EntryPoint || !hasMethod(t) {
				continue
			}
			for _, m := range t.Members {
				for _, tok := range tokenize(m.Sig) {
					if tok != t.Name && known[tok] {
						deps[tok] = true
					}
				}
			}
		}
	}
	return deps
}

func tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

func groupByNamespace(types []core.TypeInfo) map[string][]core.TypeInfo {
	out := make(map[string][]core.TypeInfo)
	for _, t := range types {
		out[t.Namespace] = append(out[t.Namespace], t)
	}
	return out
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n") + "\n"
}

func writeDependencyAppendix(sb *strings.Builder, deps []core.DependencyInfo) {
	for _, d := range deps {
		sb.WriteString(fmt.Sprintf("// dependency: %s\n", d.Package))
		for _, t := range d.Types {
			sb.WriteString(fmt.Sprintf("//   %s %s\n", t.Kind, t.Name))
		}
		sb.WriteString("\n")
	}
}

func writeCoverageSummary(sb *strings.Builder, usage core.UsageIndex) {
	coveredByClient := make(map[string]int)
	uncoveredByClient := make(map[string]int)
	for _, c := range usage.CoveredOperations {
		coveredByClient[c.ClientType]++
	}
	for _, u := range usage.UncoveredOperations {
		uncoveredByClient[u.ClientType]++
	}

	var clients []string
	seen := make(map[string]bool)
	for c := range coveredByClient {
		if !seen[c] {
			seen[c] = true
			clients = append(clients, c)
		}
	}
	for c := range uncoveredByClient {
		if !seen[c] {
			seen[c] = true
			clients = append(clients, c)
		}
	}
	sort.Strings(clients)

	sb.WriteString("// Coverage summary\n")
	for _, c := range clients {
		sb.WriteString(fmt.Sprintf("// %s: %d covered, %d uncovered\n", c, coveredByClient[c], uncoveredByClient[c]))
	}
	sb.WriteString("\n")
}

// filterForCoverageMode keeps only types with an uncovered operation, or
// types referenced by such a type (§4.6 "Coverage mode").
func filterForCoverageMode(types []core.TypeInfo, usage core.UsageIndex) []core.TypeInfo {
	hasUncovered := make(map[string]bool)
	for _, u := range usage.UncoveredOperations {
		hasUncovered[u.ClientType] = true
	}

	known := make(map[string]bool)
	for _, t := range types {
		known[t.Name] = true
	}

	keep := make(map[string]bool)
	for _, t := range types {
		if hasUncovered[t.Name] {
			keep[t.Name] = true
		}
	}
	for _, t := range types {
		if !hasUncovered[t.Name] {
			continue
		}
		for _, m := range t.Members {
			for _, tok := range tokenize(m.Sig) {
				if known[tok] {
					keep[tok] = true
				}
			}
		}
	}

	var out []core.TypeInfo
	for _, t := range types {
		if keep[t.Name] {
			out = append(out, t)
		}
	}
	return out
}

func renderType(t core.TypeInfo, coverageMode bool, usage *core.UsageIndex) string {
	var sb strings.Builder
	if t.Doc != "" {
		sb.WriteString(fmt.Sprintf("// %s\n", escapeXML(t.Doc)))
	}

	header := string(t.Kind) + " " + t.Name
	if t.Base != "" {
		header += " : " + t.Base
	} else if len(t.Interfaces) > 0 {
		header += " : " + strings.Join(t.Interfaces, ", ")
	}
	sb.WriteString(header + " {\n")

	members := t.Members
	if coverageMode && usage != nil {
		members = filterUncoveredMembers(t, *usage)
	}
	for _, m := range members {
		if m.Doc != "" {
			sb.WriteString(fmt.Sprintf("    // %s\n", escapeXML(m.Doc)))
		}
		sb.WriteString("    " + m.Sig + "\n")
	}
	if t.Kind == core.KindEnum {
		for _, v := range t.Values {
			sb.WriteString("    " + v + "\n")
		}
	}
	sb.WriteString("}\n\n")
	return sb.String()
}

// filterUncoveredMembers keeps non-method members plus only the uncovered
// methods (§4.6 coverage mode, group (a) filtering rule).
func filterUncoveredMembers(t core.TypeInfo, usage core.UsageIndex) []core.MemberInfo {
	uncoveredMethods := make(map[string]bool)
	for _, u := range usage.UncoveredOperations {
		if u.ClientType == t.Name {
			uncoveredMethods[u.Operation] = true
		}
	}

	var out []core.MemberInfo
	for _, m := range t.Members {
		if m.Kind != core.MemberMethod {
			out = append(out, m)
			continue
		}
		if uncoveredMethods[m.Name] {
			out = append(out, m)
		}
	}
	return out
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.String(s)
}
