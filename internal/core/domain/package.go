package domain

import (
	"maps"
	"slices"
)

// PackageName identifies a package in the registry.
// Names are opaque and compared by exact, case-sensitive equality.
type PackageName string

// String returns the name as a plain string.
func (n PackageName) String() string {
	return string(n)
}

// Batch is the set of distinct package names looked up by one invocation.
// A Batch is immutable once built.
type Batch struct {
	names map[PackageName]struct{}
}

// NewBatch deduplicates raw names into a Batch.
// It performs no I/O; calling it on the names of an existing Batch yields an equal Batch.
func NewBatch(raw []string) Batch {
	names := make(map[PackageName]struct{}, len(raw))
	for _, name := range raw {
		names[PackageName(name)] = struct{}{}
	}
	return Batch{names: names}
}

// Len returns the number of distinct names.
func (b Batch) Len() int {
	return len(b.names)
}

// IsEmpty reports whether the batch has no names.
func (b Batch) IsEmpty() bool {
	return len(b.names) == 0
}

// Contains reports whether name is a member of the batch.
func (b Batch) Contains(name PackageName) bool {
	_, ok := b.names[name]
	return ok
}

// Names returns the members in lexical order.
// The order is for stable presentation only; the batch itself is unordered.
func (b Batch) Names() []PackageName {
	return slices.Sorted(maps.Keys(b.names))
}

// Strings returns the members as plain strings in lexical order.
func (b Batch) Strings() []string {
	out := make([]string, 0, len(b.names))
	for _, name := range b.Names() {
		out = append(out, name.String())
	}
	return out
}
