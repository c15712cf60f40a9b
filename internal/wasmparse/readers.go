// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package wasmparse

import "fmt"

// SectionReader is a lazily-decodable view over a section body, positioned
// after the entry-count prefix. Entry readers advance it one entry at a
// time and report the exact bytes each entry covered.
type SectionReader struct {
	data  []byte
	base  int // absolute module offset of data[0]
	count uint32
	pos   int
}

func newSectionReader(data []byte, base int, count uint32) *SectionReader {
	return &SectionReader{data: data, base: base, count: count}
}

// clone returns an independent reader over the same body, so one walk can
// pre-scan a section another walk still needs to consume.
func (r *SectionReader) clone() *SectionReader {
	cp := *r
	return &cp
}

// Count returns the declared number of entries.
func (r *SectionReader) Count() uint32 {
	return r.count
}

// Position returns the reader's absolute offset in the module.
func (r *SectionReader) Position() int {
	return r.base + r.pos
}

// Done reports whether the body has been fully consumed.
func (r *SectionReader) Done() bool {
	return r.pos >= len(r.data)
}

// rest returns the unread body and the absolute offset it starts at.
func (r *SectionReader) rest() ([]byte, int) {
	return r.data[r.pos:], r.base + r.pos
}

func (r *SectionReader) fail(err error) error {
	return fmt.Errorf("at byte %d: %w", r.Position(), err)
}

// FuncSignature is a decoded function type.
type FuncSignature struct {
	Params  []ValType
	Results []ValType
}

// TypeEntry is one type-section entry. Func is nil for forms outside the
// core function form; those are size-accounted anonymously.
type TypeEntry struct {
	Func *FuncSignature
}

// ReadType decodes the next type entry, returning it with its byte size.
// An unrecognized type form swallows the remainder of the section body as
// one anonymous entry so size accounting cannot drift.
func (r *SectionReader) ReadType() (TypeEntry, uint32, error) {
	start := r.pos
	if r.pos >= len(r.data) {
		return TypeEntry{}, 0, r.fail(fmt.Errorf("type entry truncated"))
	}
	form := r.data[r.pos]
	r.pos++
	if form != byte(TypeFunc) {
		r.pos = len(r.data)
		return TypeEntry{}, uint32(r.pos - start), nil
	}

	params, err := r.readValTypeVec()
	if err != nil {
		return TypeEntry{}, 0, err
	}
	results, err := r.readValTypeVec()
	if err != nil {
		return TypeEntry{}, 0, err
	}
	entry := TypeEntry{Func: &FuncSignature{Params: params, Results: results}}
	return entry, uint32(r.pos - start), nil
}

func (r *SectionReader) readValTypeVec() ([]ValType, error) {
	count, n, err := readU32(r.data, r.pos)
	if err != nil {
		return nil, r.fail(err)
	}
	r.pos += n
	if r.pos+int(count) > len(r.data) {
		return nil, r.fail(fmt.Errorf("value type vector out of bounds"))
	}
	out := make([]ValType, count)
	for i := range out {
		out[i] = ValType(r.data[r.pos])
		r.pos++
	}
	return out, nil
}

// Import is one import-section entry.
type Import struct {
	Module string
	Field  string
	Kind   ExternalKind
}

// ReadImport decodes the next import entry with its byte size.
func (r *SectionReader) ReadImport() (Import, uint32, error) {
	start := r.pos

	module, n, err := readName(r.data, r.pos)
	if err != nil {
		return Import{}, 0, r.fail(err)
	}
	r.pos += n
	field, n, err := readName(r.data, r.pos)
	if err != nil {
		return Import{}, 0, r.fail(err)
	}
	r.pos += n

	if r.pos >= len(r.data) {
		return Import{}, 0, r.fail(fmt.Errorf("import entry truncated"))
	}
	kind := ExternalKind(r.data[r.pos])
	r.pos++

	switch kind {
	case KindFunction:
		_, n, err := readU32(r.data, r.pos)
		if err != nil {
			return Import{}, 0, r.fail(err)
		}
		r.pos += n
	case KindTable:
		if r.pos >= len(r.data) {
			return Import{}, 0, r.fail(fmt.Errorf("table import truncated"))
		}
		r.pos++ // reftype
		np, err := skipLimits(r.data, r.pos)
		if err != nil {
			return Import{}, 0, r.fail(err)
		}
		r.pos = np
	case KindMemory:
		np, err := skipLimits(r.data, r.pos)
		if err != nil {
			return Import{}, 0, r.fail(err)
		}
		r.pos = np
	case KindGlobal:
		if r.pos+2 > len(r.data) {
			return Import{}, 0, r.fail(fmt.Errorf("global import truncated"))
		}
		r.pos += 2 // valtype, mutability
	case KindTag:
		if r.pos >= len(r.data) {
			return Import{}, 0, r.fail(fmt.Errorf("tag import truncated"))
		}
		r.pos++ // attribute
		_, n, err := readU32(r.data, r.pos)
		if err != nil {
			return Import{}, 0, r.fail(err)
		}
		r.pos += n
	default:
		return Import{}, 0, r.fail(fmt.Errorf("unsupported import kind %d", kind))
	}

	return Import{Module: module, Field: field, Kind: kind}, uint32(r.pos - start), nil
}

// ReadTable decodes the next table entry, returning only its byte size.
func (r *SectionReader) ReadTable() (uint32, error) {
	start := r.pos
	if r.pos >= len(r.data) {
		return 0, r.fail(fmt.Errorf("table entry truncated"))
	}
	r.pos++ // reftype
	np, err := skipLimits(r.data, r.pos)
	if err != nil {
		return 0, r.fail(err)
	}
	r.pos = np
	return uint32(r.pos - start), nil
}

// ReadMemory decodes the next memory entry, returning only its byte size.
func (r *SectionReader) ReadMemory() (uint32, error) {
	start := r.pos
	np, err := skipLimits(r.data, r.pos)
	if err != nil {
		return 0, r.fail(err)
	}
	r.pos = np
	return uint32(r.pos - start), nil
}

// Global is one global-section entry.
type Global struct {
	ContentType ValType
	Mutable     bool
}

// ReadGlobal decodes the next global entry with its byte size.
func (r *SectionReader) ReadGlobal() (Global, uint32, error) {
	start := r.pos
	if r.pos+2 > len(r.data) {
		return Global{}, 0, r.fail(fmt.Errorf("global entry truncated"))
	}
	g := Global{ContentType: ValType(r.data[r.pos]), Mutable: r.data[r.pos+1] != 0}
	r.pos += 2
	if err := r.skipInitExpr(); err != nil {
		return Global{}, 0, err
	}
	return g, uint32(r.pos - start), nil
}

// Export is one export-section entry.
type Export struct {
	Field string
	Kind  ExternalKind
	Index uint32
}

// ReadExport decodes the next export entry with its byte size.
func (r *SectionReader) ReadExport() (Export, uint32, error) {
	start := r.pos
	field, n, err := readName(r.data, r.pos)
	if err != nil {
		return Export{}, 0, r.fail(err)
	}
	r.pos += n
	if r.pos >= len(r.data) {
		return Export{}, 0, r.fail(fmt.Errorf("export entry truncated"))
	}
	kind := ExternalKind(r.data[r.pos])
	r.pos++
	idx, n, err := readU32(r.data, r.pos)
	if err != nil {
		return Export{}, 0, r.fail(err)
	}
	r.pos += n
	return Export{Field: field, Kind: kind, Index: idx}, uint32(r.pos - start), nil
}

// ElementKind tags how an element segment binds to a table.
type ElementKind int

const (
	ElementActive ElementKind = iota
	ElementPassive
	ElementDeclared
)

// Element is one element-section entry. FuncIndices holds the function
// references of the init list; null references are omitted.
type Element struct {
	Kind       ElementKind
	TableIndex uint32
	FuncIndices []uint32
}

// ReadElement decodes the next element segment with its byte size.
func (r *SectionReader) ReadElement() (Element, uint32, error) {
	start := r.pos
	flags, n, err := readU32(r.data, r.pos)
	if err != nil {
		return Element{}, 0, r.fail(err)
	}
	r.pos += n

	if flags > 7 {
		return Element{}, 0, r.fail(fmt.Errorf("unsupported element flags %d", flags))
	}

	elem := Element{}
	switch flags {
	case 1, 5:
		elem.Kind = ElementPassive
	case 3, 7:
		elem.Kind = ElementDeclared
	default:
		elem.Kind = ElementActive
	}

	// Explicit table index (flags 2 and 6).
	if flags == 2 || flags == 6 {
		ti, n, err := readU32(r.data, r.pos)
		if err != nil {
			return Element{}, 0, r.fail(err)
		}
		r.pos += n
		elem.TableIndex = ti
	}

	// Offset expression for active segments.
	if elem.Kind == ElementActive {
		if err := r.skipInitExpr(); err != nil {
			return Element{}, 0, err
		}
	}

	// Elemkind byte (flags 1-3) or reftype byte (flags 5-7).
	if flags >= 1 && flags != 4 {
		if r.pos >= len(r.data) {
			return Element{}, 0, r.fail(fmt.Errorf("element segment truncated"))
		}
		r.pos++
	}

	if flags < 4 {
		// Plain vector of function indices.
		count, n, err := readU32(r.data, r.pos)
		if err != nil {
			return Element{}, 0, r.fail(err)
		}
		r.pos += n
		for i := uint32(0); i < count; i++ {
			idx, n, err := readU32(r.data, r.pos)
			if err != nil {
				return Element{}, 0, r.fail(err)
			}
			r.pos += n
			elem.FuncIndices = append(elem.FuncIndices, idx)
		}
	} else {
		// Vector of init expressions; collect ref.func targets.
		count, n, err := readU32(r.data, r.pos)
		if err != nil {
			return Element{}, 0, r.fail(err)
		}
		r.pos += n
		for i := uint32(0); i < count; i++ {
			refs, err := r.readInitExprFuncRefs()
			if err != nil {
				return Element{}, 0, err
			}
			elem.FuncIndices = append(elem.FuncIndices, refs...)
		}
	}

	return elem, uint32(r.pos - start), nil
}

// DataSegment is one data-section entry.
type DataSegment struct {
	Active bool
	// Offset is the constant address of an active segment, present only
	// when the offset initializer is a lone i32/i64 constant.
	Offset    *int64
	Length    int
}

// ReadData decodes the next data segment with its byte size.
func (r *SectionReader) ReadData() (DataSegment, uint32, error) {
	start := r.pos
	flags, n, err := readU32(r.data, r.pos)
	if err != nil {
		return DataSegment{}, 0, r.fail(err)
	}
	r.pos += n

	seg := DataSegment{}
	switch flags {
	case 0, 2:
		seg.Active = true
		if flags == 2 {
			_, n, err := readU32(r.data, r.pos) // memory index
			if err != nil {
				return DataSegment{}, 0, r.fail(err)
			}
			r.pos += n
		}
		offset, err := r.readInitExprConst()
		if err != nil {
			return DataSegment{}, 0, err
		}
		seg.Offset = offset
	case 1:
		// Passive.
	default:
		return DataSegment{}, 0, r.fail(fmt.Errorf("unsupported data flags %d", flags))
	}

	length, n, err := readU32(r.data, r.pos)
	if err != nil {
		return DataSegment{}, 0, r.fail(err)
	}
	r.pos += n
	if r.pos+int(length) > len(r.data) {
		return DataSegment{}, 0, r.fail(fmt.Errorf("data segment out of bounds"))
	}
	r.pos += int(length)
	seg.Length = int(length)

	return seg, uint32(r.pos - start), nil
}

// ReadFunctionTypeIndex decodes the next function-section entry (a type
// index) with its byte size.
func (r *SectionReader) ReadFunctionTypeIndex() (uint32, uint32, error) {
	idx, n, err := readU32(r.data, r.pos)
	if err != nil {
		return 0, 0, r.fail(err)
	}
	r.pos += n
	return idx, uint32(n), nil
}

// CodeBody is one code-section entry: the locals declarations plus the
// operator stream, aliasing the module buffer.
type CodeBody struct {
	Data []byte
	Base int
}

// ReadCodeBody decodes the next code entry with its byte size (length
// prefix included).
func (r *SectionReader) ReadCodeBody() (CodeBody, uint32, error) {
	start := r.pos
	size, n, err := readU32(r.data, r.pos)
	if err != nil {
		return CodeBody{}, 0, r.fail(err)
	}
	r.pos += n
	if r.pos+int(size) > len(r.data) {
		return CodeBody{}, 0, r.fail(fmt.Errorf("code body out of bounds"))
	}
	body := CodeBody{Data: r.data[r.pos : r.pos+int(size)], Base: r.base + r.pos}
	r.pos += int(size)
	return body, uint32(r.pos - start), nil
}

// skipInitExpr steps over a constant expression, including its End opcode.
func (r *SectionReader) skipInitExpr() error {
	rest, base := r.rest()
	s := newOpScanner(rest, base)
	for {
		op, err := s.next()
		if err != nil {
			return err
		}
		if op.Kind == OpEnd {
			r.pos += s.pos
			return nil
		}
	}
}

// readInitExprConst steps over a constant expression and returns its value
// when the expression opens with a lone i32 or i64 constant.
func (r *SectionReader) readInitExprConst() (*int64, error) {
	rest, base := r.rest()
	s := newOpScanner(rest, base)
	var offset *int64
	first := true
	for {
		op, err := s.next()
		if err != nil {
			return nil, err
		}
		if op.Kind == OpEnd {
			r.pos += s.pos
			return offset, nil
		}
		if first && (op.Kind == OpI32Const || op.Kind == OpI64Const) {
			v := op.Value
			offset = &v
		} else {
			// Anything after the opening constant makes the address
			// computed rather than constant.
			offset = nil
		}
		first = false
	}
}

// readInitExprFuncRefs steps over a constant expression collecting ref.func
// targets; ref.null contributes nothing.
func (r *SectionReader) readInitExprFuncRefs() ([]uint32, error) {
	rest, base := r.rest()
	s := newOpScanner(rest, base)
	var refs []uint32
	for {
		op, err := s.next()
		if err != nil {
			return nil, err
		}
		if op.Kind == OpEnd {
			r.pos += s.pos
			return refs, nil
		}
		if op.Kind == OpRefFunc {
			refs = append(refs, op.Index)
		}
	}
}
