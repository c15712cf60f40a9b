// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"sort"

	"github.com/dotandev/wasize/internal/demangle"
	"github.com/dotandev/wasize/internal/ir"
)

// MonosOptions bounds the monomorphization report.
type MonosOptions struct {
	// MaxGenerics bounds the generics listed; 0 means the default of 10.
	MaxGenerics int
	// MaxMonos bounds instantiations listed per generic; 0 means the
	// default of 5.
	MaxMonos int
	// OnlyGenerics hides the individual instantiations.
	OnlyGenerics bool
	// All disables both bounds.
	All bool
}

// MonoInstance is one monomorphized copy of a generic function.
type MonoInstance struct {
	Name string `json:"name"`
	Size uint32 `json:"size"`
}

// MonoGroup is one generic function with its instantiations.
type MonoGroup struct {
	Generic string `json:"generic"`
	// TotalSize is the sum of all instantiation sizes.
	TotalSize uint64 `json:"total_size"`
	// PotentialSavings estimates the bloat: everything beyond the
	// largest single instantiation.
	PotentialSavings uint64         `json:"potential_savings"`
	Instances        []MonoInstance `json:"instances,omitempty"`
}

// MonosReport is the monos analysis output.
type MonosReport struct {
	Groups    []MonoGroup `json:"groups"`
	TotalSize uint64      `json:"total_size"`
}

// Monos clusters Code items by the generic function they instantiate.
// Only names carrying generic parameter markers participate.
func Monos(b *ir.Builder, opts MonosOptions) *MonosReport {
	maxGenerics := opts.MaxGenerics
	if maxGenerics <= 0 {
		maxGenerics = 10
	}
	maxMonos := opts.MaxMonos
	if maxMonos <= 0 {
		maxMonos = 5
	}

	groups := make(map[string]*MonoGroup)
	for _, it := range b.Items() {
		if it.Kind != ir.KindCode {
			continue
		}
		name := displayName(it)
		if !demangle.HasGenerics(name) {
			continue
		}
		stem := demangle.Stem(name)
		g, ok := groups[stem]
		if !ok {
			g = &MonoGroup{Generic: stem}
			groups[stem] = g
		}
		g.TotalSize += uint64(it.Size)
		g.Instances = append(g.Instances, MonoInstance{Name: name, Size: it.Size})
	}

	report := &MonosReport{TotalSize: b.TotalSize()}
	for _, g := range groups {
		sort.SliceStable(g.Instances, func(i, j int) bool {
			return g.Instances[i].Size > g.Instances[j].Size
		})
		if len(g.Instances) > 0 {
			g.PotentialSavings = g.TotalSize - uint64(g.Instances[0].Size)
		}
		if !opts.All && len(g.Instances) > maxMonos {
			g.Instances = g.Instances[:maxMonos]
		}
		if opts.OnlyGenerics {
			g.Instances = nil
		}
		report.Groups = append(report.Groups, *g)
	}

	sort.SliceStable(report.Groups, func(i, j int) bool {
		return report.Groups[i].TotalSize > report.Groups[j].TotalSize
	})
	if !opts.All && len(report.Groups) > maxGenerics {
		report.Groups = report.Groups[:maxGenerics]
	}
	return report
}
