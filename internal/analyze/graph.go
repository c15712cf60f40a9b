// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

// Package analyze implements the size analyses that consume the IR: top,
// dominators, paths, monos, diff, and garbage. They operate on the
// published items, roots, and edges only and never re-read module bytes.
package analyze

import (
	"regexp"

	"github.com/dotandev/wasize/internal/ir"
)

// successors returns the forward adjacency of the reference graph.
func successors(b *ir.Builder) map[ir.Id][]ir.Id {
	out := make(map[ir.Id][]ir.Id)
	for _, e := range b.Edges() {
		out[e.From] = append(out[e.From], e.To)
	}
	return out
}

// predecessors returns the reversed adjacency of the reference graph.
func predecessors(b *ir.Builder) map[ir.Id][]ir.Id {
	out := make(map[ir.Id][]ir.Id)
	for _, e := range b.Edges() {
		out[e.To] = append(out[e.To], e.From)
	}
	return out
}

// reachableFromRoots walks the forward graph from every GC root.
func reachableFromRoots(b *ir.Builder) map[ir.Id]bool {
	succ := successors(b)
	seen := make(map[ir.Id]bool)
	queue := append([]ir.Id(nil), b.Roots()...)
	for _, r := range queue {
		seen[r] = true
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range succ[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// displayName picks the demangled name for code items and the plain name
// for everything else.
func displayName(it ir.Item) string {
	if it.Kind == ir.KindCode && it.DemangledName != "" {
		return it.DemangledName
	}
	return it.Name
}

// matcher compiles an optional regex plus an optional exact-name set into
// one predicate. With neither, everything matches.
func matcher(names []string, pattern string) (func(string) bool, error) {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
	}
	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[n] = true
	}
	return func(s string) bool {
		if re == nil && len(nameSet) == 0 {
			return true
		}
		if re != nil && re.MatchString(s) {
			return true
		}
		return nameSet[s]
	}, nil
}
