// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package ir

import "sort"

type dataRange struct {
	start int64
	end   int64
	id    Id
}

// Builder accumulates items, roots, and edges during the two passes over a
// module. It also maintains the data-address map consulted by the code
// scanner and the function name map sourced from the "name" custom section.
//
// A Builder is single-use: populate it with one module, then hand it to the
// analyses. Nothing is mutated after the edge pass finishes.
type Builder struct {
	items  []Item
	index  map[Id]int
	roots  map[Id]bool
	edges  []Edge
	ranges []dataRange

	names     map[int]string
	sizeAdded uint64
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		index: make(map[Id]int),
		roots: make(map[Id]bool),
		names: make(map[int]string),
	}
}

// AddItem appends a non-root item.
func (b *Builder) AddItem(it Item) {
	if _, ok := b.index[it.Id]; ok {
		return
	}
	b.index[it.Id] = len(b.items)
	b.items = append(b.items, it)
	b.sizeAdded += uint64(it.Size)
}

// AddRoot appends an item and marks it externally reachable.
func (b *Builder) AddRoot(it Item) {
	b.AddItem(it)
	b.roots[it.Id] = true
}

// AddEdge records a directed reference from one item to another.
func (b *Builder) AddEdge(from, to Id) {
	b.edges = append(b.edges, Edge{From: from, To: to})
}

// LinkData registers the half-open byte range [offset, offset+length) of
// linear memory as belonging to the given data item.
func (b *Builder) LinkData(offset int64, length int, id Id) {
	b.ranges = append(b.ranges, dataRange{start: offset, end: offset + int64(length), id: id})
}

// GetData looks an absolute address up against the registered data ranges.
func (b *Builder) GetData(address uint32) (Id, bool) {
	a := int64(address)
	for _, r := range b.ranges {
		if a >= r.start && a < r.end {
			return r.id, true
		}
	}
	return Id{}, false
}

// SizeAdded returns the cumulative byte size of all items added so far.
// Parsers snapshot it around a section's leaf items to compute the
// residual attributed to the section-headers root.
func (b *Builder) SizeAdded() uint64 {
	return b.sizeAdded
}

// SetFunctionName records a name-section entry keyed by function index
// space slot (imports occupy the low slots).
func (b *Builder) SetFunctionName(slot int, name string) {
	b.names[slot] = name
}

// FunctionName returns the recorded name for a function index space slot.
func (b *Builder) FunctionName(slot int) (string, bool) {
	name, ok := b.names[slot]
	return name, ok
}

// Items returns all items in insertion order.
func (b *Builder) Items() []Item {
	return b.items
}

// ItemById resolves an id to its item.
func (b *Builder) ItemById(id Id) (Item, bool) {
	i, ok := b.index[id]
	if !ok {
		return Item{}, false
	}
	return b.items[i], true
}

// Contains reports whether an item with the given id was added.
func (b *Builder) Contains(id Id) bool {
	_, ok := b.index[id]
	return ok
}

// IsRoot reports whether the item is marked as a GC root.
func (b *Builder) IsRoot(id Id) bool {
	return b.roots[id]
}

// Roots returns the root ids ordered by id.
func (b *Builder) Roots() []Id {
	out := make([]Id, 0, len(b.roots))
	for id := range b.roots {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Edges returns the edge list in emission order.
func (b *Builder) Edges() []Edge {
	return b.edges
}

// TotalSize returns the byte size covered by all items; for a fully parsed
// module this equals the module's file size.
func (b *Builder) TotalSize() uint64 {
	return b.sizeAdded
}
