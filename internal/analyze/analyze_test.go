// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/wasize/internal/ir"
)

// fixture builds a small graph:
//
//	export (root, 10) -> body (20) -> data (5)
//	orphan (7) hangs off nothing
//	headers (root, 8) stands alone
func fixture() *ir.Builder {
	b := ir.NewBuilder()
	b.AddRoot(ir.NewMisc(ir.EntryId(1, 0), "export \"main\"", 10))
	b.AddItem(ir.NewCode(ir.EntryId(2, 0), "code[0]", 20, "body::run"))
	b.AddItem(ir.NewData(ir.EntryId(3, 0), "data[0]", 5, ""))
	b.AddItem(ir.NewCode(ir.EntryId(2, 1), "code[1]", 7, "orphan::gone"))
	b.AddRoot(ir.NewMisc(ir.SectionId(0), "wasm magic bytes", 8))
	b.AddEdge(ir.EntryId(1, 0), ir.EntryId(2, 0))
	b.AddEdge(ir.EntryId(2, 0), ir.EntryId(3, 0))
	return b
}

func TestTopShallow(t *testing.T) {
	report := Top(fixture(), TopOptions{Number: 3})

	require.Len(t, report.Entries, 3)
	assert.Equal(t, "body::run", report.Entries[0].Name)
	assert.Equal(t, uint32(20), report.Entries[0].ShallowSize)
	assert.Equal(t, "export \"main\"", report.Entries[1].Name)
	assert.Equal(t, "wasm magic bytes", report.Entries[2].Name)
	assert.Equal(t, uint64(50), report.TotalSize)
}

func TestTopRetained(t *testing.T) {
	report := Top(fixture(), TopOptions{Number: 2, Retained: true})

	require.Len(t, report.Entries, 2)
	// The export retains itself, the body, and the data.
	assert.Equal(t, "export \"main\"", report.Entries[0].Name)
	assert.Equal(t, uint64(35), report.Entries[0].RetainedSize)
	assert.Equal(t, "body::run", report.Entries[1].Name)
	assert.Equal(t, uint64(25), report.Entries[1].RetainedSize)
}

func TestDominatorRetainedSizes(t *testing.T) {
	b := fixture()
	tree := NewDominatorTree(b)

	assert.Equal(t, uint64(35), tree.Retained(ir.EntryId(1, 0)))
	assert.Equal(t, uint64(25), tree.Retained(ir.EntryId(2, 0)))
	assert.Equal(t, uint64(5), tree.Retained(ir.EntryId(3, 0)))
	// Unreachable items fall back to their own size.
	assert.Equal(t, uint64(7), tree.Retained(ir.EntryId(2, 1)))
}

func TestDominatorSharedChildIsNotRetained(t *testing.T) {
	// Two roots both reach the same item; neither dominates it.
	b := ir.NewBuilder()
	b.AddRoot(ir.NewMisc(ir.EntryId(1, 0), "a", 10))
	b.AddRoot(ir.NewMisc(ir.EntryId(1, 1), "b", 10))
	b.AddItem(ir.NewMisc(ir.EntryId(2, 0), "shared", 100))
	b.AddEdge(ir.EntryId(1, 0), ir.EntryId(2, 0))
	b.AddEdge(ir.EntryId(1, 1), ir.EntryId(2, 0))

	tree := NewDominatorTree(b)
	assert.Equal(t, uint64(10), tree.Retained(ir.EntryId(1, 0)))
	assert.Equal(t, uint64(10), tree.Retained(ir.EntryId(1, 1)))
	assert.Equal(t, uint64(100), tree.Retained(ir.EntryId(2, 0)))
}

func TestDominatorsReportSelection(t *testing.T) {
	report, err := Dominators(fixture(), DominatorsOptions{Regex: `^body::`})
	require.NoError(t, err)

	require.NotEmpty(t, report.Rows)
	assert.Equal(t, "body::run", report.Rows[0].Name)
	assert.Equal(t, 0, report.Rows[0].Depth)
	assert.Equal(t, uint64(25), report.Rows[0].RetainedSize)
	// Its dominated data child follows at depth 1.
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "data[0]", report.Rows[1].Name)
	assert.Equal(t, 1, report.Rows[1].Depth)
}

func TestPathsAscending(t *testing.T) {
	report, err := Paths(fixture(), PathsOptions{Names: []string{"data[0]"}})
	require.NoError(t, err)

	require.Len(t, report.Targets, 1)
	target := report.Targets[0]
	assert.Equal(t, "data[0]", target.Name)
	require.NotEmpty(t, target.Paths)
	assert.Equal(t, []string{"data[0]", "body::run", "export \"main\""}, target.Paths[0])
}

func TestPathsDescending(t *testing.T) {
	report, err := Paths(fixture(), PathsOptions{Names: []string{"export \"main\""}, Descending: true})
	require.NoError(t, err)

	require.Len(t, report.Targets, 1)
	require.NotEmpty(t, report.Targets[0].Paths)
	assert.Equal(t, []string{"export \"main\"", "body::run", "data[0]"}, report.Targets[0].Paths[0])
}

func TestGarbage(t *testing.T) {
	report := Garbage(fixture(), GarbageOptions{})

	require.Len(t, report.Entries, 1)
	assert.Equal(t, "orphan::gone", report.Entries[0].Name)
	assert.Equal(t, uint32(7), report.Entries[0].Size)
	assert.Equal(t, uint64(7), report.GarbageSize)
}

func TestGarbageCycleIsCollected(t *testing.T) {
	b := fixture()
	// A two-item cycle reachable from nothing still counts as garbage.
	b.AddItem(ir.NewMisc(ir.EntryId(4, 0), "loop-a", 3))
	b.AddItem(ir.NewMisc(ir.EntryId(4, 1), "loop-b", 4))
	b.AddEdge(ir.EntryId(4, 0), ir.EntryId(4, 1))
	b.AddEdge(ir.EntryId(4, 1), ir.EntryId(4, 0))

	report := Garbage(b, GarbageOptions{})
	assert.Equal(t, uint64(14), report.GarbageSize)
	assert.Len(t, report.Entries, 3)
}

func TestMonosGroupsByStem(t *testing.T) {
	b := ir.NewBuilder()
	b.AddItem(ir.NewCode(ir.EntryId(2, 0), "code[0]", 40, "core::iter::Map<u32>::fold"))
	b.AddItem(ir.NewCode(ir.EntryId(2, 1), "code[1]", 30, "core::iter::Map<u64>::fold"))
	b.AddItem(ir.NewCode(ir.EntryId(2, 2), "code[2]", 25, "plain_function"))

	report := Monos(b, MonosOptions{})
	require.Len(t, report.Groups, 1)
	g := report.Groups[0]
	assert.Equal(t, "core::iter::Map::fold", g.Generic)
	assert.Equal(t, uint64(70), g.TotalSize)
	assert.Equal(t, uint64(30), g.PotentialSavings)
	require.Len(t, g.Instances, 2)
	assert.Equal(t, "core::iter::Map<u32>::fold", g.Instances[0].Name)
}

func TestMonosOnlyGenerics(t *testing.T) {
	b := ir.NewBuilder()
	b.AddItem(ir.NewCode(ir.EntryId(2, 0), "code[0]", 40, "f<u32>"))

	report := Monos(b, MonosOptions{OnlyGenerics: true})
	require.Len(t, report.Groups, 1)
	assert.Empty(t, report.Groups[0].Instances)
}

func TestDiff(t *testing.T) {
	oldB := ir.NewBuilder()
	oldB.AddItem(ir.NewCode(ir.EntryId(2, 0), "code[0]", 100, "grew"))
	oldB.AddItem(ir.NewCode(ir.EntryId(2, 1), "code[1]", 50, "removed"))
	oldB.AddItem(ir.NewCode(ir.EntryId(2, 2), "code[2]", 10, "stable"))

	newB := ir.NewBuilder()
	newB.AddItem(ir.NewCode(ir.EntryId(2, 0), "code[0]", 130, "grew"))
	newB.AddItem(ir.NewCode(ir.EntryId(2, 1), "code[1]", 10, "stable"))
	newB.AddItem(ir.NewCode(ir.EntryId(2, 2), "code[2]", 5, "added"))

	report := Diff(oldB, newB, DiffOptions{Number: 5})
	require.Len(t, report.Entries, 3)
	assert.Equal(t, DiffEntry{Name: "removed", Delta: -50}, report.Entries[0])
	assert.Equal(t, DiffEntry{Name: "grew", Delta: 30}, report.Entries[1])
	assert.Equal(t, DiffEntry{Name: "added", Delta: 5}, report.Entries[2])
	assert.Equal(t, uint64(160), report.OldSize)
	assert.Equal(t, uint64(145), report.NewSize)
}

func TestDiffCutoff(t *testing.T) {
	oldB := ir.NewBuilder()
	oldB.AddItem(ir.NewMisc(ir.EntryId(1, 0), "a", 100))
	oldB.AddItem(ir.NewMisc(ir.EntryId(1, 1), "b", 50))
	newB := ir.NewBuilder()
	newB.AddItem(ir.NewMisc(ir.EntryId(1, 0), "a", 1))
	newB.AddItem(ir.NewMisc(ir.EntryId(1, 1), "b", 45))

	report := Diff(oldB, newB, DiffOptions{Number: 1})
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "a", report.Entries[0].Name)
}
