// Package core defines the immutable data model shared by every stage of
// the extraction pipeline: parser output, dependency resolution, reachability,
// usage analysis and rendering all read and write these types.
package core

// Kind enumerates the declared shapes a TypeInfo can take.
type Kind string

const (
	KindClass        Kind = "class"
	KindRecord       Kind = "record"
	KindRecordStruct Kind = "record-struct"
	KindStruct       Kind = "struct"
	KindInterface    Kind = "interface"
	KindEnum         Kind = "enum"
	KindDelegate     Kind = "delegate"
	KindTypeAlias    Kind = "type"
)

// MemberKind enumerates the declared shapes a MemberInfo can take.
type MemberKind string

const (
	MemberCtor     MemberKind = "ctor"
	MemberMethod   MemberKind = "method"
	MemberProperty MemberKind = "property"
	MemberIndexer  MemberKind = "indexer"
	MemberEvent    MemberKind = "event"
	MemberConst    MemberKind = "const"
	MemberField    MemberKind = "field"
)

// IndexerName is the fixed member name used for indexer members (§3).
const IndexerName = "this[]"

// PackageLevelTypeName is the synthetic type name a language front end uses
// to hold free-standing, non-member declarations (Go's package-level funcs,
// consts and vars) so they still fit the member-of-a-type model the rest of
// the pipeline assumes (SPEC_FULL.md "Supplemented features").
const PackageLevelTypeName = "package"

// ApiIndex is the top-level, immutable result of one extraction run.
type ApiIndex struct {
	Package      string           `json:"package"`
	Version      string           `json:"version,omitempty"`
	Namespaces   []NamespaceInfo  `json:"namespaces"`
	Dependencies []DependencyInfo `json:"dependencies,omitempty"`
}

// NamespaceInfo groups declared types under one namespace. An empty Name
// denotes the global/root namespace.
type NamespaceInfo struct {
	Name  string     `json:"name"`
	Types []TypeInfo `json:"types"`
}

// TypeInfo is one declared, publicly-visible type.
type TypeInfo struct {
	Name            string       `json:"name"`
	Kind            Kind         `json:"kind"`
	EntryPoint      bool         `json:"entryPoint,omitempty"`
	IsError         bool         `json:"isError,omitempty"`
	ReExportedFrom  string       `json:"reExportedFrom,omitempty"`
	Base            string       `json:"base,omitempty"`
	Interfaces      []string     `json:"interfaces,omitempty"`
	Doc             string       `json:"doc,omitempty"`
	Members         []MemberInfo `json:"members,omitempty"`
	Values          []string     `json:"values,omitempty"`
	Namespace       string       `json:"-"` // declaring namespace, not serialized (already grouped by NamespaceInfo)
}

// MemberInfo is one declared, publicly-visible member of a TypeInfo.
type MemberInfo struct {
	Name     string     `json:"name"`
	Kind     MemberKind `json:"kind"`
	Sig      string     `json:"sig"`
	Doc      string     `json:"doc,omitempty"`
	IsStatic bool       `json:"isStatic,omitempty"`
	IsAsync  bool       `json:"isAsync,omitempty"`
}

// DependencyInfo groups types referenced from an external, non-first-party
// package or assembly.
type DependencyInfo struct {
	Package  string     `json:"package"`
	Types    []TypeInfo `json:"types"`
	IsStdlib bool       `json:"isStdlib,omitempty"`
}

// CoveredOperation is a (clientType, operation) pair demonstrated by a call
// site in the sample corpus.
type CoveredOperation struct {
	ClientType string `json:"clientType"`
	Operation  string `json:"operation"`
	File       string `json:"file"`
	Line       int    `json:"line"`
}

// UncoveredOperation is a declared method on a client type with no
// demonstrating call site found in the sample corpus.
type UncoveredOperation struct {
	ClientType string `json:"clientType"`
	Operation  string `json:"operation"`
	Signature  string `json:"signature"`
}

// UsageIndex is the result of the coverage analyzer (§4.5).
type UsageIndex struct {
	FileCount           int                  `json:"fileCount"`
	CoveredOperations   []CoveredOperation   `json:"coveredOperations"`
	UncoveredOperations []UncoveredOperation `json:"uncoveredOperations"`
	// Patterns is a supplemental, additive field (see SPEC_FULL.md
	// "Supplemented features") never required by downstream consumers.
	Patterns []string `json:"patterns,omitempty"`
}

const maxDocLen = 150

// TruncateDoc applies the ≤150-character single-line summary rule from §3,
// appending "…" only when truncation actually occurred.
func TruncateDoc(s string) string {
	r := []rune(s)
	if len(r) <= maxDocLen {
		return s
	}
	return string(r[:maxDocLen-1]) + "…"
}
