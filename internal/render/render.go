// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

// Package render turns analysis reports into the CLI's output surfaces:
// an aligned text table, CSV, or JSON, selected by the --format flag.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/dotandev/wasize/internal/analyze"
	"github.com/dotandev/wasize/internal/config"
	"github.com/dotandev/wasize/internal/errors"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatCSV, FormatJSON:
		return Format(s), nil
	default:
		return "", errors.WrapConfigInvalid("format", s)
	}
}

// Renderer writes reports in one format to one stream.
type Renderer struct {
	Format Format
	Color  config.ColorMode
	Out    io.Writer
}

// New returns a renderer for the given stream.
func New(format Format, colorMode config.ColorMode, out io.Writer) *Renderer {
	return &Renderer{Format: format, Color: colorMode, Out: out}
}

func (r *Renderer) useColor() bool {
	switch r.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default:
		f, ok := r.Out.(*os.File)
		return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	}
}

// sizeSprint highlights the size column when the stream wants color.
func (r *Renderer) sizeSprint() func(a ...interface{}) string {
	if !r.useColor() {
		return fmt.Sprint
	}
	return color.New(color.FgCyan).SprintFunc()
}

func (r *Renderer) headerSprint() func(a ...interface{}) string {
	if !r.useColor() {
		return fmt.Sprint
	}
	return color.New(color.Bold).SprintFunc()
}

func (r *Renderer) json(v interface{}) error {
	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) csv(header []string, rows [][]string) error {
	w := csv.NewWriter(r.Out)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Top renders the top report.
func (r *Renderer) Top(report *analyze.TopReport) error {
	switch r.Format {
	case FormatJSON:
		return r.json(report)
	case FormatCSV:
		header := []string{"shallow_bytes", "shallow_pct", "name"}
		if report.Retained {
			header = []string{"shallow_bytes", "shallow_pct", "retained_bytes", "retained_pct", "name"}
		}
		rows := make([][]string, 0, len(report.Entries))
		for _, e := range report.Entries {
			row := []string{
				strconv.FormatUint(uint64(e.ShallowSize), 10),
				fmt.Sprintf("%.2f", e.ShallowPct),
			}
			if report.Retained {
				row = append(row,
					strconv.FormatUint(e.RetainedSize, 10),
					fmt.Sprintf("%.2f", e.RetainedPct),
				)
			}
			rows = append(rows, append(row, e.Name))
		}
		return r.csv(header, rows)
	default:
		size := r.sizeSprint()
		head := r.headerSprint()
		w := tabwriter.NewWriter(r.Out, 2, 4, 2, ' ', 0)
		if report.Retained {
			fmt.Fprintln(w, head("Shallow Bytes")+"\t"+head("Shallow %")+"\t"+head("Retained Bytes")+"\t"+head("Retained %")+"\t"+head("Item"))
			for _, e := range report.Entries {
				fmt.Fprintf(w, "%s\t%.2f%%\t%s\t%.2f%%\t%s\n",
					size(e.ShallowSize), e.ShallowPct, size(e.RetainedSize), e.RetainedPct, e.Name)
			}
		} else {
			fmt.Fprintln(w, head("Shallow Bytes")+"\t"+head("Shallow %")+"\t"+head("Item"))
			for _, e := range report.Entries {
				fmt.Fprintf(w, "%s\t%.2f%%\t%s\n", size(e.ShallowSize), e.ShallowPct, e.Name)
			}
		}
		fmt.Fprintf(w, "%s\t\t%s\n", size(report.TotalSize), "Σ [module bytes]")
		return w.Flush()
	}
}

// Dominators renders the dominator tree report.
func (r *Renderer) Dominators(report *analyze.DominatorsReport) error {
	switch r.Format {
	case FormatJSON:
		return r.json(report)
	case FormatCSV:
		rows := make([][]string, 0, len(report.Rows))
		for _, row := range report.Rows {
			rows = append(rows, []string{
				strconv.Itoa(row.Depth),
				strconv.FormatUint(row.RetainedSize, 10),
				strconv.FormatUint(uint64(row.ShallowSize), 10),
				row.Name,
			})
		}
		return r.csv([]string{"depth", "retained_bytes", "shallow_bytes", "name"}, rows)
	default:
		size := r.sizeSprint()
		head := r.headerSprint()
		w := tabwriter.NewWriter(r.Out, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, head("Retained Bytes")+"\t"+head("Shallow Bytes")+"\t"+head("Dominator Tree"))
		for _, row := range report.Rows {
			indent := strings.Repeat("  ", row.Depth)
			fmt.Fprintf(w, "%s\t%s\t%s↳ %s\n", size(row.RetainedSize), size(row.ShallowSize), indent, row.Name)
		}
		return w.Flush()
	}
}

// Paths renders the paths report.
func (r *Renderer) Paths(report *analyze.PathsReport) error {
	switch r.Format {
	case FormatJSON:
		return r.json(report)
	case FormatCSV:
		var rows [][]string
		for _, t := range report.Targets {
			for _, p := range t.Paths {
				rows = append(rows, []string{t.Name, strings.Join(p, " <- ")})
			}
		}
		return r.csv([]string{"target", "path"}, rows)
	default:
		head := r.headerSprint()
		for _, t := range report.Targets {
			fmt.Fprintln(r.Out, head(t.Name))
			if len(t.Paths) == 0 {
				fmt.Fprintln(r.Out, "  (no retaining paths)")
				continue
			}
			for _, p := range t.Paths {
				for depth, name := range p {
					fmt.Fprintf(r.Out, "  %s%s %s\n", strings.Repeat("  ", depth), "⬑", name)
				}
			}
		}
		return nil
	}
}

// Monos renders the monomorphization report.
func (r *Renderer) Monos(report *analyze.MonosReport) error {
	switch r.Format {
	case FormatJSON:
		return r.json(report)
	case FormatCSV:
		var rows [][]string
		for _, g := range report.Groups {
			rows = append(rows, []string{
				strconv.FormatUint(g.TotalSize, 10),
				strconv.FormatUint(g.PotentialSavings, 10),
				g.Generic,
			})
			for _, inst := range g.Instances {
				rows = append(rows, []string{strconv.FormatUint(uint64(inst.Size), 10), "", inst.Name})
			}
		}
		return r.csv([]string{"bytes", "approx_savings", "name"}, rows)
	default:
		size := r.sizeSprint()
		head := r.headerSprint()
		w := tabwriter.NewWriter(r.Out, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, head("Total Bytes")+"\t"+head("Approx. Savings")+"\t"+head("Generic"))
		for _, g := range report.Groups {
			fmt.Fprintf(w, "%s\t%s\t%s\n", size(g.TotalSize), size(g.PotentialSavings), g.Generic)
			for _, inst := range g.Instances {
				fmt.Fprintf(w, "%s\t\t    %s\n", size(inst.Size), inst.Name)
			}
		}
		return w.Flush()
	}
}

// Diff renders the diff report.
func (r *Renderer) Diff(report *analyze.DiffReport) error {
	switch r.Format {
	case FormatJSON:
		return r.json(report)
	case FormatCSV:
		rows := make([][]string, 0, len(report.Entries))
		for _, e := range report.Entries {
			rows = append(rows, []string{strconv.FormatInt(e.Delta, 10), e.Name})
		}
		return r.csv([]string{"delta_bytes", "name"}, rows)
	default:
		head := r.headerSprint()
		w := tabwriter.NewWriter(r.Out, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, head("Delta Bytes")+"\t"+head("Item"))
		for _, e := range report.Entries {
			fmt.Fprintf(w, "%+d\t%s\n", e.Delta, e.Name)
		}
		fmt.Fprintf(w, "%+d\t%s\n", int64(report.NewSize)-int64(report.OldSize), "Σ [module bytes]")
		return w.Flush()
	}
}

// Garbage renders the garbage report.
func (r *Renderer) Garbage(report *analyze.GarbageReport) error {
	switch r.Format {
	case FormatJSON:
		return r.json(report)
	case FormatCSV:
		rows := make([][]string, 0, len(report.Entries))
		for _, e := range report.Entries {
			rows = append(rows, []string{strconv.FormatUint(uint64(e.Size), 10), e.Name})
		}
		return r.csv([]string{"bytes", "name"}, rows)
	default:
		size := r.sizeSprint()
		head := r.headerSprint()
		w := tabwriter.NewWriter(r.Out, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, head("Bytes")+"\t"+head("Garbage Item"))
		for _, e := range report.Entries {
			fmt.Fprintf(w, "%s\t%s\n", size(e.Size), e.Name)
		}
		fmt.Fprintf(w, "%s\t%s\n", size(report.GarbageSize), "Σ unreachable")
		return w.Flush()
	}
}
