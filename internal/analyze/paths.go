// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"github.com/dotandev/wasize/internal/ir"
)

// PathsOptions selects targets and bounds the search.
type PathsOptions struct {
	// Names selects targets by exact item name.
	Names []string
	// Regex selects targets by pattern.
	Regex string
	// MaxPaths bounds paths per target; 0 means the default of 10.
	MaxPaths int
	// MaxDepth bounds path length; 0 means the default of 20.
	MaxDepth int
	// Descending walks callees away from the targets instead of callers
	// toward them.
	Descending bool
}

// PathTarget holds the paths found for one selected item.
type PathTarget struct {
	Name  string     `json:"name"`
	Paths [][]string `json:"paths"`
}

// PathsReport is the paths analysis output.
type PathsReport struct {
	Targets []PathTarget `json:"targets"`
}

// Paths enumerates, for every selected item, the call paths that retain it:
// walks from the item through its predecessors up to the GC roots. With
// Descending it walks the forward graph instead, showing what the item
// keeps alive.
func Paths(b *ir.Builder, opts PathsOptions) (*PathsReport, error) {
	match, err := matcher(opts.Names, opts.Regex)
	if err != nil {
		return nil, err
	}

	maxPaths := opts.MaxPaths
	if maxPaths <= 0 {
		maxPaths = 10
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 20
	}

	var adj map[ir.Id][]ir.Id
	if opts.Descending {
		adj = successors(b)
	} else {
		adj = predecessors(b)
	}

	report := &PathsReport{}
	for _, it := range b.Items() {
		name := displayName(it)
		if !match(name) {
			continue
		}
		target := PathTarget{Name: name}

		// Depth-first over the chosen direction; a path terminates at a
		// GC root (ascending), at a leaf, or at the depth bound.
		var walk func(id ir.Id, trail []ir.Id)
		walk = func(id ir.Id, trail []ir.Id) {
			if len(target.Paths) >= maxPaths {
				return
			}
			for _, seen := range trail {
				if seen == id {
					return
				}
			}
			trail = append(trail, id)

			terminal := len(trail) >= maxDepth || len(adj[id]) == 0
			if !opts.Descending && b.IsRoot(id) {
				terminal = true
			}
			if terminal {
				path := make([]string, 0, len(trail))
				for _, tid := range trail {
					ti, ok := b.ItemById(tid)
					if !ok {
						continue
					}
					path = append(path, displayName(ti))
				}
				target.Paths = append(target.Paths, path)
				return
			}
			for _, next := range adj[id] {
				walk(next, trail)
			}
		}
		walk(it.Id, nil)

		report.Targets = append(report.Targets, target)
	}

	return report, nil
}
