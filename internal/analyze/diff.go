// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"sort"

	"github.com/dotandev/wasize/internal/ir"
)

// DiffOptions bounds the diff report.
type DiffOptions struct {
	// Number is the row cutoff; 0 means the default of 20.
	Number int
	// All disables the cutoff.
	All bool
}

// DiffEntry is one changed item, keyed by display name. Items present in
// only one module carry their whole size, signed.
type DiffEntry struct {
	Name  string `json:"name"`
	Delta int64  `json:"delta"`
}

// DiffReport is the diff analysis output.
type DiffReport struct {
	Entries []DiffEntry `json:"entries"`
	OldSize uint64      `json:"old_size"`
	NewSize uint64      `json:"new_size"`
}

// Diff compares two parsed modules by item name, sorted by absolute delta.
// Names that repeat within a module are aggregated before comparing.
func Diff(oldB, newB *ir.Builder, opts DiffOptions) *DiffReport {
	number := opts.Number
	if number <= 0 {
		number = 20
	}

	sum := func(b *ir.Builder) map[string]int64 {
		out := make(map[string]int64)
		for _, it := range b.Items() {
			out[displayName(it)] += int64(it.Size)
		}
		return out
	}
	oldSizes := sum(oldB)
	newSizes := sum(newB)

	report := &DiffReport{OldSize: oldB.TotalSize(), NewSize: newB.TotalSize()}
	seen := make(map[string]bool)
	for name, oldSize := range oldSizes {
		seen[name] = true
		delta := newSizes[name] - oldSize
		if delta != 0 {
			report.Entries = append(report.Entries, DiffEntry{Name: name, Delta: delta})
		}
	}
	for name, newSize := range newSizes {
		if !seen[name] {
			report.Entries = append(report.Entries, DiffEntry{Name: name, Delta: newSize})
		}
	}

	sort.SliceStable(report.Entries, func(i, j int) bool {
		ai, aj := report.Entries[i].Delta, report.Entries[j].Delta
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		if ai != aj {
			return ai > aj
		}
		return report.Entries[i].Name < report.Entries[j].Name
	})
	if !opts.All && len(report.Entries) > number {
		report.Entries = report.Entries[:number]
	}
	return report
}
