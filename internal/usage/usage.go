// Package usage implements the §4.5 usage analyzer: given a client set
// (from internal/reach) and a sample-file corpus, it produces a
// core.UsageIndex listing which (clientType, operation) pairs are
// demonstrated by a call site and which are not.
//
// Grounded on the reference tool's analyzeUsage
// (other_examples/...ApiExtractor.Go-extract_api.go.go): the client-method
// map, receiver-string matching heuristics, seenOps dedup set and
// pattern-detection pass are carried over directly; this package
// generalizes the single-language (Go) walk into a pluggable SampleWalker
// per language (Mode A, §4.5) plus the external-helper protocol (Mode B).
package usage

import (
	"sort"
	"strings"

	"github.com/termfx/apigraph/internal/core"
)

// clientMethods maps a client type's normalized name to its methods,
// keyed by method name, deduplicated the way the reference tool's
// clientMethods map is built (first writer wins across client types that
// happen to share a simple name).
type clientMethods map[string]map[string]core.MemberInfo

func buildClientMethods(clients []core.TypeInfo) clientMethods {
	out := make(clientMethods)
	for _, c := range clients {
		methods := make(map[string]core.MemberInfo)
		for _, m := range c.Members {
			if m.Kind != core.MemberMethod {
				continue
			}
			methods[m.Name] = m
		}
		if len(methods) == 0 {
			continue
		}
		if _, exists := out[c.Name]; !exists {
			out[c.Name] = methods
		}
	}
	return out
}

// CallSite is one member-access call expression found while walking a
// sample file: receiverStr.methodName(...).
type CallSite struct {
	ReceiverStr string
	MethodName  string
	File        string
	Line        int
}

// SampleWalker is the per-language Mode A front end: it finds call
// expressions and coarse behavioral patterns in one sample file's source.
type SampleWalker interface {
	// Extensions lists the file extensions this walker accepts.
	Extensions() []string
	// Walk parses src (from the file at relPath) and returns every call
	// site plus detected pattern tags found within it. A parse error is
	// non-fatal: the caller skips the file.
	Walk(relPath string, src []byte) ([]CallSite, []string, error)
}

// known suffixes stripped from a client type's name to obtain its "base"
// for receiver-string matching (§4.5 "stripping known suffixes").
var knownSuffixes = []string{"Client", "Service", "Manager"}

// Analyze runs the §4.5 algorithm over clients using walker for every
// matching file under root (file discovery is the caller's
// responsibility via internal/discover; files is the already-filtered
// list of sample file paths with their contents).
func Analyze(clients []core.TypeInfo, files map[string][]byte, walker SampleWalker) core.UsageIndex {
	methods := buildClientMethods(clients)
	if len(methods) == 0 {
		return core.UsageIndex{}
	}

	seen := make(map[string]bool)
	var covered []core.CoveredOperation
	patterns := make(map[string]bool)

	accepted := acceptedExtensions(walker)
	fileCount := 0
	for path, src := range files {
		if !hasAcceptedExt(path, accepted) {
			continue
		}
		fileCount++
		calls, filePatterns, err := walker.Walk(path, src)
		if err != nil {
			continue
		}
		for _, p := range filePatterns {
			patterns[p] = true
		}
		for _, call := range calls {
			client, method, ok := matchCall(call, methods)
			if !ok {
				continue
			}
			key := client + "." + method
			if seen[key] {
				continue
			}
			seen[key] = true
			covered = append(covered, core.CoveredOperation{
				ClientType: client,
				Operation:  method,
				File:       call.File,
				Line:       call.Line,
			})
		}
	}

	uncovered := buildUncovered(methods, seen)

	var patternList []string
	for p := range patterns {
		patternList = append(patternList, p)
	}
	sort.Strings(patternList)

	sort.Slice(covered, func(i, j int) bool {
		if covered[i].ClientType != covered[j].ClientType {
			return covered[i].ClientType < covered[j].ClientType
		}
		return covered[i].Operation < covered[j].Operation
	})

	return core.UsageIndex{
		FileCount:           fileCount,
		CoveredOperations:   covered,
		UncoveredOperations: uncovered,
		Patterns:            patternList,
	}
}

// matchCall implements the §4.5 receiver/method matching rules: a
// "client-ish" receiver check, tolerant Async-suffix method matching, and
// a final fallback to any client declaring the method.
func matchCall(call CallSite, methods clientMethods) (clientName, methodName string, ok bool) {
	receiverLower := strings.ToLower(call.ReceiverStr)

	for client, ms := range methods {
		if !looksLikeClientReceiver(receiverLower, client) {
			continue
		}
		if m, ok := matchMethodName(ms, call.MethodName); ok {
			return client, m, true
		}
	}

	// Fallback: any client declaring the method, regardless of receiver
	// text (§4.5 "If no receiver match works, fall back to matching any
	// client that declares the method").
	for client, ms := range methods {
		if m, ok := matchMethodName(ms, call.MethodName); ok {
			return client, m, true
		}
	}
	return "", "", false
}

func looksLikeClientReceiver(receiverLower, clientName string) bool {
	base := clientName
	for _, suffix := range knownSuffixes {
		if strings.HasSuffix(base, suffix) {
			base = strings.TrimSuffix(base, suffix)
			break
		}
	}
	baseLower := strings.ToLower(base)

	if baseLower != "" && strings.Contains(receiverLower, baseLower) {
		return true
	}
	if strings.HasSuffix(receiverLower, "client") || strings.HasSuffix(receiverLower, "service") {
		return true
	}
	if strings.HasPrefix(receiverLower, "_") {
		return true
	}
	return false
}

// matchMethodName tolerates an "Async" suffix mismatch in either
// direction (§4.5).
func matchMethodName(methods map[string]core.MemberInfo, called string) (string, bool) {
	if _, ok := methods[called]; ok {
		return called, true
	}
	if m, ok := methods[called+"Async"]; ok {
		return m.Name, true
	}
	if trimmed := strings.TrimSuffix(called, "Async"); trimmed != called {
		if m, ok := methods[trimmed]; ok {
			return m.Name, true
		}
	}
	return "", false
}

func buildUncovered(methods clientMethods, seen map[string]bool) []core.UncoveredOperation {
	var out []core.UncoveredOperation
	for client, ms := range methods {
		for method, info := range ms {
			key := client + "." + method
			if seen[key] {
				continue
			}
			out = append(out, core.UncoveredOperation{
				ClientType: client,
				Operation:  method,
				Signature:  info.Sig,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClientType != out[j].ClientType {
			return out[i].ClientType < out[j].ClientType
		}
		return out[i].Operation < out[j].Operation
	})
	return out
}

func acceptedExtensions(w SampleWalker) map[string]bool {
	out := make(map[string]bool)
	for _, ext := range w.Extensions() {
		out[ext] = true
	}
	return out
}

func hasAcceptedExt(path string, accepted map[string]bool) bool {
	for ext := range accepted {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
