// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"sort"

	"github.com/dotandev/wasize/internal/ir"
)

// DominatorTree is the dominator relation of the reference graph, rooted
// at a synthetic meta-root above all GC roots. Retained size of an item is
// its own size plus the sizes of everything it immediately or transitively
// dominates.
type DominatorTree struct {
	builder  *ir.Builder
	idom     map[ir.Id]ir.Id
	children map[ir.Id][]ir.Id
	retained map[ir.Id]uint64
	rootIds  []ir.Id
	hasIdom  map[ir.Id]bool
}

// NewDominatorTree computes dominators with the Cooper-Harvey-Kennedy
// iterative algorithm over the items reachable from the GC roots.
func NewDominatorTree(b *ir.Builder) *DominatorTree {
	succ := successors(b)
	roots := b.Roots()

	// Index reachable nodes in reverse postorder, meta-root first. The
	// meta-root takes index 0 and is never materialized as an item.
	const meta = 0
	index := map[ir.Id]int{}
	var order []ir.Id // postorder

	visited := map[ir.Id]bool{}
	var dfs func(ir.Id)
	dfs = func(id ir.Id) {
		visited[id] = true
		for _, next := range succ[id] {
			if !visited[next] && b.Contains(next) {
				dfs(next)
			}
		}
		order = append(order, id)
	}
	for _, r := range roots {
		if !visited[r] {
			dfs(r)
		}
	}

	n := len(order) + 1
	nodes := make([]ir.Id, n) // rpo index -> id; 0 is the meta-root
	for i, id := range order {
		rpo := n - 1 - i
		nodes[rpo] = id
		index[id] = rpo
	}

	// Predecessor lists in index space; every root hangs off the meta.
	preds := make([][]int, n)
	for _, e := range b.Edges() {
		from, okF := index[e.From]
		to, okT := index[e.To]
		if okF && okT {
			preds[to] = append(preds[to], from)
		}
	}
	for _, r := range roots {
		preds[index[r]] = append(preds[index[r]], meta)
	}

	idom := make([]int, n)
	for i := range idom {
		idom[i] = -1
	}
	idom[meta] = meta

	intersect := func(a, b int) int {
		for a != b {
			for a > b {
				a = idom[a]
			}
			for b > a {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for v := 1; v < n; v++ {
			newIdom := -1
			for _, p := range preds[v] {
				if idom[p] < 0 {
					continue
				}
				if newIdom < 0 {
					newIdom = p
				} else {
					newIdom = intersect(newIdom, p)
				}
			}
			if newIdom >= 0 && idom[v] != newIdom {
				idom[v] = newIdom
				changed = true
			}
		}
	}

	t := &DominatorTree{
		builder:  b,
		idom:     map[ir.Id]ir.Id{},
		children: map[ir.Id][]ir.Id{},
		retained: map[ir.Id]uint64{},
		rootIds:  roots,
		hasIdom:  map[ir.Id]bool{},
	}

	for v := 1; v < n; v++ {
		if idom[v] < 0 {
			continue
		}
		if idom[v] != meta {
			t.idom[nodes[v]] = nodes[idom[v]]
			t.hasIdom[nodes[v]] = true
			t.children[nodes[idom[v]]] = append(t.children[nodes[idom[v]]], nodes[v])
		}
	}

	// Retained sizes accumulate bottom-up in postorder; index order works
	// because idom[v] < v in reverse postorder numbering.
	for v := n - 1; v >= 1; v-- {
		id := nodes[v]
		it, ok := b.ItemById(id)
		if !ok {
			continue
		}
		t.retained[id] += uint64(it.Size)
		if t.hasIdom[id] {
			t.retained[t.idom[id]] += t.retained[id]
		}
	}

	for id := range t.children {
		kids := t.children[id]
		sort.Slice(kids, func(i, j int) bool {
			if t.retained[kids[i]] != t.retained[kids[j]] {
				return t.retained[kids[i]] > t.retained[kids[j]]
			}
			return kids[i].Less(kids[j])
		})
	}

	return t
}

// Retained returns the retained size of an item: its dominated subtree
// total when reachable, its own size otherwise.
func (t *DominatorTree) Retained(id ir.Id) uint64 {
	if r, ok := t.retained[id]; ok {
		return r
	}
	if it, ok := t.builder.ItemById(id); ok {
		return uint64(it.Size)
	}
	return 0
}

// DomRow is one row of the rendered dominator tree.
type DomRow struct {
	Depth        int    `json:"depth"`
	Name         string `json:"name"`
	ShallowSize  uint32 `json:"shallow_size"`
	RetainedSize uint64 `json:"retained_size"`
}

// DominatorsOptions selects and bounds the reported subtrees.
type DominatorsOptions struct {
	// Names selects subtree roots by exact item name.
	Names []string
	// Regex selects subtree roots by pattern.
	Regex string
	// MaxDepth bounds subtree depth; 0 means the default of 10.
	MaxDepth int
	// MaxRows bounds total rows; 0 means unbounded.
	MaxRows int
}

// DominatorsReport is the dominators analysis output.
type DominatorsReport struct {
	Rows      []DomRow `json:"rows"`
	TotalSize uint64   `json:"total_size"`
}

// Dominators renders the dominator tree, starting from the GC roots or
// from the items an explicit selection picks.
func Dominators(b *ir.Builder, opts DominatorsOptions) (*DominatorsReport, error) {
	t := NewDominatorTree(b)

	match, err := matcher(opts.Names, opts.Regex)
	if err != nil {
		return nil, err
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 10
	}

	var starts []ir.Id
	if len(opts.Names) > 0 || opts.Regex != "" {
		for _, it := range b.Items() {
			if match(displayName(it)) {
				starts = append(starts, it.Id)
			}
		}
		sort.Slice(starts, func(i, j int) bool {
			return t.Retained(starts[i]) > t.Retained(starts[j])
		})
	} else {
		starts = t.rootIds
	}

	report := &DominatorsReport{TotalSize: b.TotalSize()}
	var emit func(id ir.Id, depth int)
	emit = func(id ir.Id, depth int) {
		if opts.MaxRows > 0 && len(report.Rows) >= opts.MaxRows {
			return
		}
		it, ok := b.ItemById(id)
		if !ok {
			return
		}
		report.Rows = append(report.Rows, DomRow{
			Depth:        depth,
			Name:         displayName(it),
			ShallowSize:  it.Size,
			RetainedSize: t.Retained(id),
		})
		if depth+1 >= maxDepth {
			return
		}
		for _, child := range t.children[id] {
			emit(child, depth+1)
		}
	}
	for _, s := range starts {
		emit(s, 0)
	}

	return report, nil
}
