// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package wasmparse

import (
	"bytes"
	"errors"
	"sort"
	"testing"

	wsizeerrors "github.com/dotandev/wasize/internal/errors"
	"github.com/dotandev/wasize/internal/ir"
)

// ─── module building helpers ─────────────────────────────────────────────────

func encU32(v uint32) []byte {
	var out [5]byte
	i := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out[i] = b
		i++
		if v == 0 {
			break
		}
	}
	return out[:i]
}

func section(id byte, payload []byte) []byte {
	var out bytes.Buffer
	out.WriteByte(id)
	out.Write(encU32(uint32(len(payload))))
	out.Write(payload)
	return out.Bytes()
}

func buildModule(sections ...[]byte) []byte {
	var out bytes.Buffer
	out.Write([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	for _, s := range sections {
		out.Write(s)
	}
	return out.Bytes()
}

func name(s string) []byte {
	return append(encU32(uint32(len(s))), s...)
}

func vec(entries ...[]byte) []byte {
	var out bytes.Buffer
	out.Write(encU32(uint32(len(entries))))
	for _, e := range entries {
		out.Write(e)
	}
	return out.Bytes()
}

func cat(parts ...[]byte) []byte {
	var out bytes.Buffer
	for _, p := range parts {
		out.Write(p)
	}
	return out.Bytes()
}

// testModule builds a module exercising every section kind:
//
//	ordinal  0: version
//	ordinal  1: type      (i32) -> i32
//	ordinal  2: import    env::f (function 0)
//	ordinal  3: function  1 entry, type 0
//	ordinal  4: table     funcref, min 1
//	ordinal  5: memory    min 1
//	ordinal  6: global    mutable i32
//	ordinal  7: export    "main" func 1, "m" memory 0
//	ordinal  8: element   active, table 0, [func 1]
//	ordinal  9: code section start
//	ordinal 10: code body (call 0, global.get 0, const+load at 1024)
//	ordinal 11: data      active at 1024, 4 bytes
//	ordinal 12: custom "name" with a function-names subsection
func testModule() []byte {
	typeSec := section(1, vec([]byte{0x60, 0x01, 0x7f, 0x01, 0x7f}))
	importSec := section(2, vec(cat(name("env"), name("f"), []byte{0x00, 0x00})))
	funcSec := section(3, vec([]byte{0x00}))
	tableSec := section(4, vec([]byte{0x70, 0x00, 0x01}))
	memSec := section(5, vec([]byte{0x00, 0x01}))
	globalSec := section(6, vec([]byte{0x7f, 0x01, 0x41, 0x00, 0x0b}))
	exportSec := section(7, vec(
		cat(name("main"), []byte{0x00, 0x01}),
		cat(name("m"), []byte{0x02, 0x00}),
	))
	elemSec := section(9, vec(cat(
		[]byte{0x00},             // flags: active, table 0
		[]byte{0x41, 0x00, 0x0b}, // offset: i32.const 0
		vec([]byte{0x01}),        // [func 1]
	)))

	body := cat(
		[]byte{0x00},             // no locals
		[]byte{0x41, 0x80, 0x08}, // i32.const 1024
		[]byte{0x28, 0x02, 0x00}, // i32.load align=2 offset=0
		[]byte{0x23, 0x00},       // global.get 0
		[]byte{0x10, 0x00},       // call 0 (the import)
		[]byte{0x0b},             // end
	)
	codeSec := section(10, vec(cat(encU32(uint32(len(body))), body)))

	dataSec := section(11, vec(cat(
		[]byte{0x00},                   // flags: active, memory 0
		[]byte{0x41, 0x80, 0x08, 0x0b}, // offset: i32.const 1024, end
		[]byte{0x04},                   // 4 bytes
		[]byte("abcd"),
	)))

	funcNames := cat(encU32(1), encU32(1), name("hello")) // slot 1 -> "hello"
	nameSec := section(0, cat(
		name("name"),
		[]byte{0x01}, encU32(uint32(len(funcNames))), funcNames,
	))

	return buildModule(typeSec, importSec, funcSec, tableSec, memSec,
		globalSec, exportSec, elemSec, codeSec, dataSec, nameSec)
}

const (
	ordType    = 1
	ordImport  = 2
	ordTable   = 4
	ordMemory  = 5
	ordGlobal  = 6
	ordExport  = 7
	ordElement = 8
	ordCode    = 9
	ordData    = 11
	ordCustom  = 12
)

func hasEdge(b *ir.Builder, from, to ir.Id) bool {
	for _, e := range b.Edges() {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// ─── tests ───────────────────────────────────────────────────────────────────

func TestParse_FullSizeAccounting(t *testing.T) {
	module := testModule()
	b, err := Parse(module)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var sum uint64
	for _, it := range b.Items() {
		sum += uint64(it.Size)
	}
	if sum != uint64(len(module)) {
		t.Fatalf("items cover %d bytes, module has %d", sum, len(module))
	}
}

func TestParse_IdUniqueness(t *testing.T) {
	b, err := Parse(testModule())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	seen := make(map[ir.Id]bool)
	for _, it := range b.Items() {
		if seen[it.Id] {
			t.Fatalf("duplicate id %v", it.Id)
		}
		seen[it.Id] = true
	}
}

func TestParse_EdgeReferentialIntegrity(t *testing.T) {
	b, err := Parse(testModule())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	for _, e := range b.Edges() {
		if !b.Contains(e.From) {
			t.Fatalf("edge from unknown item %v", e.From)
		}
		if !b.Contains(e.To) {
			t.Fatalf("edge to unknown item %v", e.To)
		}
	}
}

func TestParse_CodeItemNameAndSize(t *testing.T) {
	b, err := Parse(testModule())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	it, ok := b.ItemById(ir.EntryId(ordCode, 0))
	if !ok {
		t.Fatalf("no code item at Entry(%d, 0)", ordCode)
	}
	if it.Name != "hello" {
		t.Fatalf("expected name-section decoration %q, got %q", "hello", it.Name)
	}
	if it.Kind != ir.KindCode {
		t.Fatalf("expected code kind, got %v", it.Kind)
	}
	// One LEB128 type index in the function section, a one-byte length
	// prefix, and the 12-byte body.
	if it.Size != 1+1+12 {
		t.Fatalf("expected code item size 14, got %d", it.Size)
	}
}

func TestParse_CallGlobalAndDataEdges(t *testing.T) {
	b, err := Parse(testModule())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	body := ir.EntryId(ordCode, 0)
	if !hasEdge(b, body, ir.EntryId(ordImport, 0)) {
		t.Fatalf("missing call edge to imported function")
	}
	if !hasEdge(b, body, ir.EntryId(ordGlobal, 0)) {
		t.Fatalf("missing global.get edge")
	}
	if !hasEdge(b, body, ir.EntryId(ordData, 0)) {
		t.Fatalf("missing const+load data edge")
	}
	if !hasEdge(b, body, ir.EntryId(ordType, 0)) {
		t.Fatalf("missing type signature edge")
	}
}

func TestParse_ExportAndElementEdges(t *testing.T) {
	b, err := Parse(testModule())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	body := ir.EntryId(ordCode, 0)
	if !hasEdge(b, ir.EntryId(ordExport, 0), body) {
		t.Fatalf(`missing export "main" -> body edge`)
	}
	if !hasEdge(b, ir.EntryId(ordExport, 1), ir.EntryId(ordMemory, 0)) {
		t.Fatalf(`missing export "m" -> memory edge`)
	}
	if !hasEdge(b, ir.EntryId(ordTable, 0), ir.EntryId(ordElement, 0)) {
		t.Fatalf("missing table -> elem edge")
	}
	if !hasEdge(b, ir.EntryId(ordElement, 0), body) {
		t.Fatalf("missing elem -> function edge")
	}
}

func TestParse_IndexSpaceLayout(t *testing.T) {
	c, err := classify(testModule())
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	si, err := buildSectionIndices(c)
	if err != nil {
		t.Fatalf("buildSectionIndices failed: %v", err)
	}

	if len(si.functions) != 2 {
		t.Fatalf("expected 2 function slots, got %d", len(si.functions))
	}
	if si.functions[0] != ir.EntryId(ordImport, 0) {
		t.Fatalf("slot 0 should be the import, got %v", si.functions[0])
	}
	if si.functions[1] != ir.EntryId(ordCode, 0) {
		t.Fatalf("slot 1 should be the defined function, got %v", si.functions[1])
	}
	if len(si.tables) != 1 || len(si.memories) != 1 || len(si.globals) != 1 {
		t.Fatalf("unexpected index space sizes: %d tables, %d memories, %d globals",
			len(si.tables), len(si.memories), len(si.globals))
	}
}

func TestParse_RootFlags(t *testing.T) {
	b, err := Parse(testModule())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	for _, id := range []ir.Id{
		ir.EntryId(ordExport, 0),
		ir.EntryId(ordTable, 0),
		ir.SectionId(ordCode),
	} {
		if !b.IsRoot(id) {
			t.Fatalf("expected %v to be a root", id)
		}
	}
	if b.IsRoot(ir.EntryId(ordCode, 0)) {
		t.Fatalf("function body must not be a root")
	}
	if b.IsRoot(ir.EntryId(ordMemory, 0)) {
		t.Fatalf("memory must not be a root")
	}
}

func TestParse_NameSubsectionItems(t *testing.T) {
	b, err := Parse(testModule())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	it, ok := b.ItemById(ir.EntryId(ordCustom, 0))
	if !ok {
		t.Fatalf("no item for the function-names subsection")
	}
	if it.Kind != ir.KindDebugInfo {
		t.Fatalf("expected debug info kind, got %v", it.Kind)
	}
	if it.Name != `"function names" subsection` {
		t.Fatalf("unexpected subsection name %q", it.Name)
	}
	if !b.IsRoot(it.Id) {
		t.Fatalf("name subsections are roots")
	}
}

func TestParse_RoundTripIdempotence(t *testing.T) {
	module := testModule()
	first, err := Parse(module)
	if err != nil {
		t.Fatalf("first Parse failed: %v", err)
	}
	second, err := Parse(module)
	if err != nil {
		t.Fatalf("second Parse failed: %v", err)
	}

	if len(first.Items()) != len(second.Items()) {
		t.Fatalf("item counts differ: %d vs %d", len(first.Items()), len(second.Items()))
	}
	for i, it := range first.Items() {
		if second.Items()[i] != it {
			t.Fatalf("item %d differs between runs", i)
		}
	}

	sortEdges := func(edges []ir.Edge) []ir.Edge {
		out := append([]ir.Edge(nil), edges...)
		sort.Slice(out, func(i, j int) bool {
			if out[i].From != out[j].From {
				return out[i].From.Less(out[j].From)
			}
			return out[i].To.Less(out[j].To)
		})
		return out
	}
	e1, e2 := sortEdges(first.Edges()), sortEdges(second.Edges())
	if len(e1) != len(e2) {
		t.Fatalf("edge counts differ: %d vs %d", len(e1), len(e2))
	}
	for i := range e1 {
		if e1[i] != e2[i] {
			t.Fatalf("edge %d differs between runs", i)
		}
	}
}

func TestParse_EmptyModule(t *testing.T) {
	module := buildModule()
	b, err := Parse(module)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	items := b.Items()
	if len(items) != 1 {
		t.Fatalf("expected only the version root, got %d items", len(items))
	}
	if items[0].Name != "wasm magic bytes" || items[0].Size != 8 {
		t.Fatalf("unexpected version root: %+v", items[0])
	}
	if !b.IsRoot(items[0].Id) {
		t.Fatalf("version root must be a root")
	}
}

func TestParse_CustomSectionsOnly(t *testing.T) {
	module := buildModule(
		section(0, cat(name("producers"), []byte{1, 2, 3})),
		section(0, cat(name("extra"), []byte{9})),
	)
	b, err := Parse(module)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	it, ok := b.ItemById(ir.EntryId(1, 0))
	if !ok || it.Name != "custom section 'producers'" {
		t.Fatalf("missing custom section item, got %+v", it)
	}
	if it.Size != 3 {
		t.Fatalf("custom section item should cover the payload after the name, got %d", it.Size)
	}

	var sum uint64
	for _, item := range b.Items() {
		sum += uint64(item.Size)
	}
	if sum != uint64(len(module)) {
		t.Fatalf("items cover %d bytes, module has %d", sum, len(module))
	}
}

func TestParse_MissingCodePair(t *testing.T) {
	onlyFunc := buildModule(
		section(1, vec([]byte{0x60, 0x00, 0x00})),
		section(3, vec([]byte{0x00})),
	)
	if _, err := Parse(onlyFunc); !errors.Is(err, wsizeerrors.ErrMissingCodePair) {
		t.Fatalf("expected missing-pair error, got %v", err)
	}

	onlyCode := buildModule(section(10, vec()))
	if _, err := Parse(onlyCode); !errors.Is(err, wsizeerrors.ErrMissingCodePair) {
		t.Fatalf("expected missing-pair error, got %v", err)
	}
}

func TestParse_CountMismatch(t *testing.T) {
	body := []byte{0x00, 0x0b}
	module := buildModule(
		section(1, vec([]byte{0x60, 0x00, 0x00})),
		section(3, vec([]byte{0x00}, []byte{0x00})),            // two entries
		section(10, vec(cat(encU32(uint32(len(body))), body))), // one body
	)
	if _, err := Parse(module); !errors.Is(err, wsizeerrors.ErrCountMismatch) {
		t.Fatalf("expected count-mismatch error, got %v", err)
	}
}

func TestParse_TruncatedModule(t *testing.T) {
	module := testModule()
	if _, err := Parse(module[:len(module)-6]); err == nil {
		t.Fatalf("expected an error for a truncated module")
	}

	header := module[:6]
	if _, err := Parse(header); !errors.Is(err, wsizeerrors.ErrTruncatedModule) {
		t.Fatalf("expected truncation error, got %v", err)
	}
}

func TestParse_CallIndirectDrawsNoEdge(t *testing.T) {
	body := cat(
		[]byte{0x00},             // no locals
		[]byte{0x41, 0x00},       // i32.const 0
		[]byte{0x11, 0x00, 0x00}, // call_indirect type 0, table 0
		[]byte{0x1a},             // drop
		[]byte{0x0b},             // end
	)
	module := buildModule(
		section(1, vec([]byte{0x60, 0x00, 0x00})),
		section(3, vec([]byte{0x00})),
		section(4, vec([]byte{0x70, 0x00, 0x01})),
		section(10, vec(cat(encU32(uint32(len(body))), body))),
	)
	b, err := Parse(module)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	for _, e := range b.Edges() {
		target, _ := b.ItemById(e.To)
		if target.Kind == ir.KindCode {
			t.Fatalf("call_indirect must not draw call edges, found %v -> %v", e.From, e.To)
		}
	}
}

func TestParse_NonConstantDataOffsetIsNotLinked(t *testing.T) {
	body := cat(
		[]byte{0x00},             // no locals
		[]byte{0x41, 0x00},       // i32.const 0
		[]byte{0x28, 0x02, 0x00}, // i32.load
		[]byte{0x1a},             // drop
		[]byte{0x0b},             // end
	)
	module := buildModule(
		section(1, vec([]byte{0x60, 0x00, 0x00})),
		section(2, vec(cat(name("env"), name("g"), []byte{0x03, 0x7f, 0x00}))),
		section(3, vec([]byte{0x00})),
		section(10, vec(cat(encU32(uint32(len(body))), body))),
		section(11, vec(cat(
			[]byte{0x00},
			[]byte{0x23, 0x00, 0x0b}, // offset: global.get 0
			[]byte{0x02}, []byte("xy"),
		))),
	)
	b, err := Parse(module)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Payloads: version 0, type 1, import 2, function 3, code start 4,
	// code entry 5, data 6.
	if _, ok := b.ItemById(ir.EntryId(6, 0)); !ok {
		t.Fatalf("data segment item must still be emitted")
	}
	if _, ok := b.GetData(0); ok {
		t.Fatalf("computed offsets must not register address ranges")
	}
}

func TestParse_StartAndDataCountSections(t *testing.T) {
	body := []byte{0x00, 0x0b}
	module := buildModule(
		section(1, vec([]byte{0x60, 0x00, 0x00})),
		section(3, vec([]byte{0x00})),
		section(8, []byte{0x00}),  // start: func 0
		section(12, []byte{0x00}), // data count: 0 segments
		section(10, vec(cat(encU32(uint32(len(body))), body))),
	)
	// Payloads: version 0, type 1, function 2, start 3, data count 4,
	// code start 5, code entry 6.
	b, err := Parse(module)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	start, ok := b.ItemById(ir.EntryId(3, 0))
	if !ok || start.Name != `"start" section` || start.Size != 1 {
		t.Fatalf("unexpected start item: %+v", start)
	}
	if !b.IsRoot(start.Id) {
		t.Fatalf("start section is a root")
	}
	if !hasEdge(b, start.Id, ir.EntryId(5, 0)) {
		t.Fatalf("missing start -> function edge")
	}

	dc, ok := b.ItemById(ir.EntryId(4, 0))
	if !ok || dc.Name != `"data count" section` || dc.Size != 1 {
		t.Fatalf("unexpected data count item: %+v", dc)
	}

	var sum uint64
	for _, it := range b.Items() {
		sum += uint64(it.Size)
	}
	if sum != uint64(len(module)) {
		t.Fatalf("items cover %d bytes, module has %d", sum, len(module))
	}
}

func TestParse_ResidualSectionRoots(t *testing.T) {
	module := testModule()
	b, err := Parse(module)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// The type section: 1 byte id + 1 byte size + 1 byte count + 5 bytes
	// of entry. The entry is the leaf; the other 3 bytes are residual.
	root, ok := b.ItemById(ir.SectionId(ordType))
	if !ok {
		t.Fatalf("no section-headers root for the type section")
	}
	if root.Name != "type section headers" {
		t.Fatalf("unexpected root name %q", root.Name)
	}
	if root.Size != 3 {
		t.Fatalf("expected 3 residual bytes, got %d", root.Size)
	}

	leaf, ok := b.ItemById(ir.EntryId(ordType, 0))
	if !ok {
		t.Fatalf("no type entry item")
	}
	if leaf.Name != "type[0]: (i32) -> i32" {
		t.Fatalf("unexpected type rendering %q", leaf.Name)
	}
	if leaf.Size != 5 {
		t.Fatalf("expected 5-byte type entry, got %d", leaf.Size)
	}
}
