// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"sort"

	"github.com/dotandev/wasize/internal/ir"
)

// GarbageOptions bounds the garbage analysis.
type GarbageOptions struct {
	// Number is the row cutoff; 0 means the default of 10.
	Number int
	// All disables the cutoff.
	All bool
}

// GarbageEntry is one unreachable item.
type GarbageEntry struct {
	Name string `json:"name"`
	Size uint32 `json:"size"`
}

// GarbageReport is the garbage analysis output.
type GarbageReport struct {
	Entries     []GarbageEntry `json:"entries"`
	GarbageSize uint64         `json:"garbage_size"`
	TotalSize   uint64         `json:"total_size"`
}

// Garbage lists the items no GC root reaches through the reference graph.
func Garbage(b *ir.Builder, opts GarbageOptions) *GarbageReport {
	number := opts.Number
	if number <= 0 {
		number = 10
	}

	reachable := reachableFromRoots(b)
	report := &GarbageReport{TotalSize: b.TotalSize()}
	for _, it := range b.Items() {
		if reachable[it.Id] || b.IsRoot(it.Id) {
			continue
		}
		report.Entries = append(report.Entries, GarbageEntry{Name: displayName(it), Size: it.Size})
		report.GarbageSize += uint64(it.Size)
	}

	sort.SliceStable(report.Entries, func(i, j int) bool {
		return report.Entries[i].Size > report.Entries[j].Size
	})
	if !opts.All && len(report.Entries) > number {
		report.Entries = report.Entries[:number]
	}
	return report
}
