// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package wasmparse

import (
	"fmt"

	"github.com/dotandev/wasize/internal/errors"
	"github.com/dotandev/wasize/internal/ir"
)

// Parse runs the item pass and the edge pass over a module and returns the
// populated builder. The module buffer is borrowed for the duration of the
// call only; nothing in the returned IR aliases it.
func Parse(data []byte) (*ir.Builder, error) {
	b := ir.NewBuilder()
	if err := ParseItems(data, b); err != nil {
		return nil, err
	}
	if err := ParseEdges(data, b); err != nil {
		return nil, err
	}
	return b, nil
}

type indexedPayload struct {
	ordinal int
	payload Payload
}

type codeHandle struct {
	ordinal  int
	reader   *SectionReader
	byteSize uint32
}

type funcHandle struct {
	ordinal  int
	reader   *SectionReader
	byteSize uint32
}

// classified is the classifier's view of one decoder walk: every payload
// with its ordinal and consumed byte size, the function/code pair split out
// for lock-step parsing.
type classified struct {
	sections []indexedPayload
	sizes    map[int]uint32
	code     *codeHandle
	fn       *funcHandle
}

// classify iterates the decoder to completion, buffering payloads. Ordinals
// count every payload, Version and CodeSectionEntry included, so they match
// between the two passes.
func classify(data []byte) (*classified, error) {
	dec := NewDecoder(data)
	c := &classified{sizes: make(map[int]uint32)}

	idx := 0
	for !dec.EOF() {
		start := dec.Position()
		p, err := dec.Next()
		if err != nil {
			return nil, err
		}
		size := uint32(dec.Position() - start)

		switch p.Kind {
		case PayloadCodeSectionStart:
			c.code = &codeHandle{
				ordinal:  idx,
				reader:   p.Reader,
				byteSize: uint32(p.SectionEnd - start),
			}
		case PayloadFunctionSection:
			c.fn = &funcHandle{ordinal: idx, reader: p.Reader, byteSize: size}
		case PayloadCodeSectionEntry:
			// Covered by the code section reader.
		default:
			c.sections = append(c.sections, indexedPayload{ordinal: idx, payload: p})
		}
		c.sizes[idx] = size
		idx++
	}
	return c, nil
}

// ParseItems runs the item pass: every byte of the module ends up in
// exactly one item, leaf or section-headers root.
func ParseItems(data []byte, b *ir.Builder) error {
	c, err := classify(data)
	if err != nil {
		return err
	}

	// The code section wants human-readable names and the import count
	// before its items can be emitted, so both are gathered up front.
	if err := collectFunctionNames(c.sections, b); err != nil {
		return err
	}
	imported, err := countImportedFunctions(c.sections)
	if err != nil {
		return err
	}

	switch {
	case c.fn != nil && c.code != nil:
		if err := parsePairItems(c.fn, c.code, imported, b); err != nil {
			return err
		}
	case c.fn != nil || c.code != nil:
		return errors.ErrMissingCodePair
	}

	for _, s := range c.sections {
		start := b.SizeAdded()
		if err := parseSectionItems(s.payload, s.ordinal, b); err != nil {
			return err
		}
		size, ok := c.sizes[s.ordinal]
		if !ok {
			return errors.WrapMalformed(0, fmt.Sprintf("no size recorded for ordinal %d", s.ordinal))
		}
		added := b.SizeAdded() - start
		if added > uint64(size) {
			return errors.WrapSizeViolation(sectionHeadersName(s.payload), added, uint64(size))
		}
		b.AddRoot(ir.NewMisc(ir.SectionId(s.ordinal), sectionHeadersName(s.payload), size-uint32(added)))
	}

	return nil
}

// sectionIndices maps every wasm index space slot onto the item id that
// represents it. Imports occupy the low slots; locally defined entries
// follow in section order.
type sectionIndices struct {
	typeSection *int
	codeSection *int
	functions   []ir.Id
	tables      []ir.Id
	memories    []ir.Id
	globals     []ir.Id
}

func buildSectionIndices(c *classified) (*sectionIndices, error) {
	si := &sectionIndices{}

	for _, s := range c.sections {
		switch s.payload.Kind {
		case PayloadTypeSection:
			ord := s.ordinal
			si.typeSection = &ord

		case PayloadImportSection:
			r := s.payload.Reader.clone()
			for i := uint32(0); i < r.Count(); i++ {
				imp, _, err := r.ReadImport()
				if err != nil {
					return nil, errors.WrapMalformedErr(r.Position(), err)
				}
				id := ir.EntryId(s.ordinal, int(i))
				switch imp.Kind {
				case KindFunction:
					si.functions = append(si.functions, id)
				case KindTable:
					si.tables = append(si.tables, id)
				case KindMemory:
					si.memories = append(si.memories, id)
				case KindGlobal:
					si.globals = append(si.globals, id)
				default:
					// Tags and friends own separate index spaces.
				}
			}

		case PayloadTableSection:
			for i := uint32(0); i < s.payload.Reader.Count(); i++ {
				si.tables = append(si.tables, ir.EntryId(s.ordinal, int(i)))
			}

		case PayloadMemorySection:
			for i := uint32(0); i < s.payload.Reader.Count(); i++ {
				si.memories = append(si.memories, ir.EntryId(s.ordinal, int(i)))
			}

		case PayloadGlobalSection:
			for i := uint32(0); i < s.payload.Reader.Count(); i++ {
				si.globals = append(si.globals, ir.EntryId(s.ordinal, int(i)))
			}
		}
	}

	if c.fn != nil && c.code != nil {
		ord := c.code.ordinal
		si.codeSection = &ord
		for i := uint32(0); i < c.fn.reader.Count(); i++ {
			si.functions = append(si.functions, ir.EntryId(c.code.ordinal, int(i)))
		}
	}

	return si, nil
}

// ParseEdges runs the edge pass. Index spaces are fully built before any
// section draws edges, so every (kind, index) pair resolves to an item id.
func ParseEdges(data []byte, b *ir.Builder) error {
	c, err := classify(data)
	if err != nil {
		return err
	}

	si, err := buildSectionIndices(c)
	if err != nil {
		return err
	}

	switch {
	case c.fn != nil && c.code != nil:
		if err := parsePairEdges(c.fn, c.code, si, b); err != nil {
			return err
		}
	case c.fn != nil || c.code != nil:
		return errors.ErrMissingCodePair
	}

	for _, s := range c.sections {
		if err := parseSectionEdges(s.payload, s.ordinal, si, b); err != nil {
			return err
		}
	}

	return nil
}

func countImportedFunctions(sections []indexedPayload) (int, error) {
	imported := 0
	for _, s := range sections {
		if s.payload.Kind != PayloadImportSection {
			continue
		}
		r := s.payload.Reader.clone()
		for i := uint32(0); i < r.Count(); i++ {
			imp, _, err := r.ReadImport()
			if err != nil {
				return 0, errors.WrapMalformedErr(r.Position(), err)
			}
			if imp.Kind == KindFunction {
				imported++
			}
		}
	}
	return imported, nil
}

func sectionHeadersName(p Payload) string {
	switch p.Kind {
	case PayloadVersion:
		return "wasm magic bytes"
	case PayloadTypeSection:
		return "type section headers"
	case PayloadImportSection:
		return "import section headers"
	case PayloadFunctionSection:
		return "function section headers"
	case PayloadTableSection:
		return "table section headers"
	case PayloadMemorySection:
		return "memory section headers"
	case PayloadGlobalSection:
		return "global section headers"
	case PayloadExportSection:
		return "export section headers"
	case PayloadStartSection:
		return "start section headers"
	case PayloadElementSection:
		return "element section headers"
	case PayloadCodeSectionStart:
		return "code section headers"
	case PayloadDataSection:
		return "data section headers"
	case PayloadDataCountSection:
		return "data count section headers"
	case PayloadCustomSection:
		return fmt.Sprintf("custom section '%s' headers", p.Name)
	default:
		return fmt.Sprintf("unknown section (id %d) headers", p.SectionID)
	}
}
