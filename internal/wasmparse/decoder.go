// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

// Package wasmparse is the wasm front-end: it streams the payloads of a
// binary module, runs an item pass and an edge pass over them, and emits
// every byte of the module into an ir.Builder.
package wasmparse

import (
	"bytes"
	"fmt"

	"github.com/dotandev/wasize/internal/errors"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

const (
	sectionCustom    = 0
	sectionType      = 1
	sectionImport    = 2
	sectionFunction  = 3
	sectionTable     = 4
	sectionMemory    = 5
	sectionGlobal    = 6
	sectionExport    = 7
	sectionStart     = 8
	sectionElement   = 9
	sectionCode      = 10
	sectionData      = 11
	sectionDataCount = 12
)

// PayloadKind discriminates what a Decoder handed back.
type PayloadKind int

const (
	PayloadVersion PayloadKind = iota
	PayloadTypeSection
	PayloadImportSection
	PayloadFunctionSection
	PayloadTableSection
	PayloadMemorySection
	PayloadGlobalSection
	PayloadExportSection
	PayloadStartSection
	PayloadElementSection
	PayloadCodeSectionStart
	PayloadCodeSectionEntry
	PayloadDataSection
	PayloadDataCountSection
	PayloadCustomSection
	PayloadUnknownSection
)

// Payload is one decoded chunk of the module. Reader is set for the
// vector-shaped sections; the remaining fields are kind-specific.
type Payload struct {
	Kind   PayloadKind
	Reader *SectionReader

	// Version
	Version uint32

	// CustomSection
	Name       string
	Data       []byte
	DataOffset int

	// StartSection
	FuncIndex uint32

	// StartSection / DataCountSection: absolute byte range of the section
	// body (after the id byte and size prefix).
	RangeStart int
	RangeEnd   int

	// CodeSectionStart
	Count uint32
	// SectionEnd is the absolute end of the whole code section; entries
	// are streamed as separate payloads up to this offset.
	SectionEnd int

	// UnknownSection
	SectionID byte
}

// Decoder streams payloads out of a borrowed module byte slice, tracking a
// cumulative offset. It performs no validation beyond framing.
type Decoder struct {
	data   []byte
	offset int

	sawHeader   bool // set once the magic and version were consumed
	codeEnd     int  // while codePending > 0, entries remain before this offset
	codePending uint32
}

// NewDecoder returns a decoder positioned at the start of the module.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Position returns the current absolute byte offset.
func (d *Decoder) Position() int {
	return d.offset
}

// EOF reports whether the whole module has been consumed.
func (d *Decoder) EOF() bool {
	return d.offset == len(d.data)
}

// Next decodes and returns the next payload, advancing the offset by
// exactly the bytes the payload covers. Truncation anywhere is an error,
// never a panic.
func (d *Decoder) Next() (Payload, error) {
	if d.EOF() {
		return Payload{}, errors.WrapTruncated(d.offset)
	}

	if !d.sawHeader {
		return d.readHeader()
	}

	if d.codePending > 0 {
		return d.readCodeEntry()
	}

	return d.readSection()
}

func (d *Decoder) readHeader() (Payload, error) {
	if len(d.data) < 8 {
		return Payload{}, errors.WrapTruncated(len(d.data))
	}
	if !bytes.Equal(d.data[:4], wasmMagic) {
		return Payload{}, errors.WrapMalformed(0, "bad magic number")
	}
	version := uint32(d.data[4]) | uint32(d.data[5])<<8 | uint32(d.data[6])<<16 | uint32(d.data[7])<<24
	if version != 1 {
		return Payload{}, errors.WrapMalformed(4, fmt.Sprintf("unsupported version %d", version))
	}
	d.sawHeader = true
	d.offset = 8
	return Payload{Kind: PayloadVersion, Version: version}, nil
}

func (d *Decoder) readSection() (Payload, error) {
	start := d.offset
	id := d.data[d.offset]
	pos := d.offset + 1

	size, n, err := readU32(d.data, pos)
	if err != nil {
		return Payload{}, errors.WrapMalformedErr(pos, err)
	}
	pos += n
	end := pos + int(size)
	if end > len(d.data) {
		return Payload{}, errors.WrapTruncated(len(d.data))
	}
	body := d.data[pos:end]

	switch id {
	case sectionCustom:
		name, n, err := readName(body, 0)
		if err != nil {
			return Payload{}, errors.WrapMalformedErr(pos, err)
		}
		d.offset = end
		return Payload{
			Kind:       PayloadCustomSection,
			Name:       name,
			Data:       body[n:],
			DataOffset: pos + n,
		}, nil

	case sectionStart:
		idx, _, err := readU32(body, 0)
		if err != nil {
			return Payload{}, errors.WrapMalformedErr(pos, err)
		}
		d.offset = end
		return Payload{
			Kind:       PayloadStartSection,
			FuncIndex:  idx,
			RangeStart: pos,
			RangeEnd:   end,
		}, nil

	case sectionDataCount:
		d.offset = end
		return Payload{
			Kind:       PayloadDataCountSection,
			RangeStart: pos,
			RangeEnd:   end,
		}, nil

	case sectionCode:
		count, n, err := readU32(body, 0)
		if err != nil {
			return Payload{}, errors.WrapMalformedErr(pos, err)
		}
		// The section header and count are this payload; bodies stream
		// as CodeSectionEntry payloads.
		d.offset = pos + n
		d.codeEnd = end
		d.codePending = count
		if count == 0 && d.offset != end {
			return Payload{}, errors.WrapMalformed(start, "code section has trailing bytes")
		}
		return Payload{
			Kind:       PayloadCodeSectionStart,
			Count:      count,
			Reader:     newSectionReader(body[n:], pos+n, count),
			SectionEnd: end,
		}, nil

	default:
		kind, ok := sectionPayloadKind(id)
		if !ok {
			d.offset = end
			return Payload{Kind: PayloadUnknownSection, SectionID: id}, nil
		}
		count, n, err := readU32(body, 0)
		if err != nil {
			return Payload{}, errors.WrapMalformedErr(pos, err)
		}
		d.offset = end
		return Payload{
			Kind:   kind,
			Reader: newSectionReader(body[n:], pos+n, count),
		}, nil
	}
}

func (d *Decoder) readCodeEntry() (Payload, error) {
	size, n, err := readU32(d.data, d.offset)
	if err != nil {
		return Payload{}, errors.WrapMalformedErr(d.offset, err)
	}
	end := d.offset + n + int(size)
	if end > d.codeEnd {
		return Payload{}, errors.WrapMalformed(d.offset, "code body overruns its section")
	}
	d.offset = end
	d.codePending--
	if d.codePending == 0 {
		if d.offset != d.codeEnd {
			return Payload{}, errors.WrapMalformed(d.offset, "code section has trailing bytes")
		}
		d.codeEnd = 0
	}
	return Payload{Kind: PayloadCodeSectionEntry}, nil
}

func sectionPayloadKind(id byte) (PayloadKind, bool) {
	switch id {
	case sectionType:
		return PayloadTypeSection, true
	case sectionImport:
		return PayloadImportSection, true
	case sectionFunction:
		return PayloadFunctionSection, true
	case sectionTable:
		return PayloadTableSection, true
	case sectionMemory:
		return PayloadMemorySection, true
	case sectionGlobal:
		return PayloadGlobalSection, true
	case sectionExport:
		return PayloadExportSection, true
	case sectionElement:
		return PayloadElementSection, true
	case sectionData:
		return PayloadDataSection, true
	default:
		return 0, false
	}
}
