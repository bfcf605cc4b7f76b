package core

import (
	"sort"
	"sync"
)

// RawMember is a member as seen by one parser before the shared TypeMap has
// deduplicated it against concurrent writers for the same type.
type RawMember struct {
	MemberInfo
}

// TypeKey identifies a declared type by its declaring namespace and name,
// the uniqueness key required by §3 ("(name, declaring namespace) is unique").
type TypeKey struct {
	Namespace string
	Name      string
}

// MergedType is the mutable, concurrently-written accumulator for one
// TypeKey. Every field follows the first-writer-wins contract described in
// §4.1.1, guarded by a per-entry lock so concurrent merge(type) calls on the
// same key are safe without a global lock across the whole TypeMap.
type MergedType struct {
	mu sync.Mutex

	namespace string
	name      string

	kind    Kind
	kindSet bool

	doc    string
	docSet bool

	// rawBases accumulates every raw base-type name from every partial
	// declaration; classification into base/interfaces happens later,
	// after all writers have joined (§4.1.2).
	rawBases []string

	members    []MemberInfo
	memberSigs map[string]bool

	values    []string
	valuesSet bool

	reExportedFrom string
	isError        bool
}

// TypeMap is the shared, concurrent keyed map that accumulates MergedType
// entries across every parallel parser worker. Reads after the parse phase
// has joined require no lock (§3 "Entries are read-only outside the parsing
// phase").
type TypeMap struct {
	mu      sync.RWMutex
	entries map[TypeKey]*MergedType
}

// NewTypeMap creates an empty, ready-to-use TypeMap.
func NewTypeMap() *TypeMap {
	return &TypeMap{entries: make(map[TypeKey]*MergedType)}
}

// entry returns the MergedType for key, creating it under a short-held
// write lock if this is the first writer to see it.
func (m *TypeMap) entry(key TypeKey) *MergedType {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return e
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok = m.entries[key]; ok {
		return e
	}
	e = &MergedType{
		namespace:  key.Namespace,
		name:       key.Name,
		memberSigs: make(map[string]bool),
	}
	m.entries[key] = e
	return e
}

// Merge folds one parsed declaration of (namespace, name) into the shared
// entry, applying the first-writer-wins / dedup-by-sig rules from §4.1.1.
func (m *TypeMap) Merge(key TypeKey, kind Kind, doc string, rawBases []string, members []MemberInfo, values []string, reExportedFrom string, isError bool) {
	e := m.entry(key)

	e.mu.Lock()
	defer e.mu.Unlock()

	if kind != "" && !e.kindSet {
		e.kind = kind
		e.kindSet = true
	}
	if doc != "" && !e.docSet {
		e.doc = doc
		e.docSet = true
	}
	if reExportedFrom != "" && e.reExportedFrom == "" {
		e.reExportedFrom = reExportedFrom
	}
	if isError {
		e.isError = true
	}

	e.rawBases = append(e.rawBases, rawBases...)

	for _, mem := range members {
		if e.memberSigs[mem.Sig] {
			continue // second writer silently drops (§4.1.1)
		}
		e.memberSigs[mem.Sig] = true
		e.members = append(e.members, mem)
	}

	if len(values) > 0 && !e.valuesSet {
		e.values = append([]string(nil), values...)
		e.valuesSet = true
	}
}

// Keys returns every TypeKey currently present, in no particular order.
// Safe to call only after all writers have joined.
func (m *TypeMap) Keys() []TypeKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]TypeKey, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys
}

// Get returns the MergedType for key, or nil if absent. Safe to call only
// after all writers have joined — no lock is taken on the entry itself.
func (m *TypeMap) Get(key TypeKey) *MergedType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[key]
}

// RawBases returns the accumulated, unclassified base-name bag for this
// entry. Only meaningful after the parse phase has joined.
func (e *MergedType) RawBases() []string {
	return append([]string(nil), e.rawBases...)
}

// Local type accessors used by the classifier and signature tokenizer.
func (e *MergedType) Name() string      { return e.name }
func (e *MergedType) Namespace() string { return e.namespace }
func (e *MergedType) Kind() Kind        { return e.kind }

// Snapshot produces the immutable TypeInfo for this entry. base and
// interfaces must already have been set by the classifier (§4.1.2); they
// are passed in rather than stored on MergedType because classification is
// a distinct, strictly-sequenced phase.
func (e *MergedType) Snapshot(base string, interfaces []string, entryPoint bool) TypeInfo {
	members := append([]MemberInfo(nil), e.members...)
	sort.Slice(members, func(i, j int) bool { return members[i].Sig < members[j].Sig })

	t := TypeInfo{
		Name:           e.name,
		Kind:           e.kind,
		EntryPoint:     entryPoint,
		IsError:        e.isError,
		ReExportedFrom: e.reExportedFrom,
		Base:           base,
		Interfaces:     append([]string(nil), interfaces...),
		Doc:            TruncateDoc(e.doc),
		Namespace:      e.namespace,
	}

	if e.kind == KindEnum {
		t.Values = append([]string(nil), e.values...)
	} else if len(members) > 0 {
		t.Members = members
	}

	sort.Strings(t.Interfaces)
	return t
}
