// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"sort"

	"github.com/dotandev/wasize/internal/ir"
)

// TopOptions bounds the top analysis.
type TopOptions struct {
	// Number is the row cutoff; 0 means the default of 25.
	Number int
	// All disables the cutoff.
	All bool
	// Retained sorts by retained size instead of shallow size.
	Retained bool
}

// TopEntry is one row of the top report.
type TopEntry struct {
	Name         string  `json:"name"`
	ShallowSize  uint32  `json:"shallow_size"`
	ShallowPct   float64 `json:"shallow_pct"`
	RetainedSize uint64  `json:"retained_size,omitempty"`
	RetainedPct  float64 `json:"retained_pct,omitempty"`
}

// TopReport is the top analysis output.
type TopReport struct {
	Entries   []TopEntry `json:"entries"`
	TotalSize uint64     `json:"total_size"`
	Retained  bool       `json:"retained"`
}

// Top lists the largest items, by shallow or retained size.
func Top(b *ir.Builder, opts TopOptions) *TopReport {
	number := opts.Number
	if number <= 0 {
		number = 25
	}

	var tree *DominatorTree
	if opts.Retained {
		tree = NewDominatorTree(b)
	}

	total := b.TotalSize()
	items := b.Items()
	entries := make([]TopEntry, 0, len(items))
	for _, it := range items {
		e := TopEntry{
			Name:        displayName(it),
			ShallowSize: it.Size,
		}
		if total > 0 {
			e.ShallowPct = float64(it.Size) / float64(total) * 100
		}
		if tree != nil {
			e.RetainedSize = tree.Retained(it.Id)
			if total > 0 {
				e.RetainedPct = float64(e.RetainedSize) / float64(total) * 100
			}
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if opts.Retained {
			return entries[i].RetainedSize > entries[j].RetainedSize
		}
		return entries[i].ShallowSize > entries[j].ShallowSize
	})

	if !opts.All && len(entries) > number {
		entries = entries[:number]
	}

	return &TopReport{Entries: entries, TotalSize: total, Retained: opts.Retained}
}
