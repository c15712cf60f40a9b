// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package wasmparse

import (
	"github.com/dotandev/wasize/internal/errors"
	"github.com/dotandev/wasize/internal/ir"
)

const (
	nameSubsectionModule   = 0
	nameSubsectionFunction = 1
	nameSubsectionLocal    = 2
)

// nameSubsection is one chunk of the "name" custom section: its id, its
// body, and the full byte size including the subsection header.
type nameSubsection struct {
	id   byte
	body []byte
	base int
	size uint32
}

func iterateNameSubsections(p Payload, visit func(nameSubsection) error) error {
	data := p.Data
	pos := 0
	for pos < len(data) {
		start := pos
		id := data[pos]
		pos++
		size, n, err := readU32(data, pos)
		if err != nil {
			return errors.WrapMalformedErr(p.DataOffset+pos, err)
		}
		pos += n
		if pos+int(size) > len(data) {
			return errors.WrapMalformed(p.DataOffset+pos, "name subsection out of bounds")
		}
		sub := nameSubsection{
			id:   id,
			body: data[pos : pos+int(size)],
			base: p.DataOffset + pos,
			size: uint32(pos + int(size) - start),
		}
		pos += int(size)
		if err := visit(sub); err != nil {
			return err
		}
	}
	return nil
}

// collectFunctionNames pre-scans the buffered payloads for the "name"
// custom section and records its function-name assignments, keyed by
// function index space slot, into the builder.
func collectFunctionNames(sections []indexedPayload, b *ir.Builder) error {
	for _, s := range sections {
		if s.payload.Kind != PayloadCustomSection || s.payload.Name != "name" {
			continue
		}
		err := iterateNameSubsections(s.payload, func(sub nameSubsection) error {
			if sub.id != nameSubsectionFunction {
				return nil
			}
			count, n, err := readU32(sub.body, 0)
			if err != nil {
				return errors.WrapMalformedErr(sub.base, err)
			}
			pos := n
			for i := uint32(0); i < count; i++ {
				slot, n, err := readU32(sub.body, pos)
				if err != nil {
					return errors.WrapMalformedErr(sub.base+pos, err)
				}
				pos += n
				name, n, err := readName(sub.body, pos)
				if err != nil {
					return errors.WrapMalformedErr(sub.base+pos, err)
				}
				pos += n
				b.SetFunctionName(int(slot), name)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// parseNameSectionItems emits one DebugInfo root per known subsection of
// the "name" section. Unknown subsection ids are size-accounted by the
// custom section's headers root instead.
func parseNameSectionItems(p Payload, ordinal int, b *ir.Builder) error {
	i := 0
	return iterateNameSubsections(p, func(sub nameSubsection) error {
		var name string
		switch sub.id {
		case nameSubsectionModule:
			name = `"module name" subsection`
		case nameSubsectionFunction:
			name = `"function names" subsection`
		case nameSubsectionLocal:
			name = `"local names" subsection`
		default:
			return nil
		}
		b.AddRoot(ir.NewDebugInfo(ir.EntryId(ordinal, i), name, sub.size))
		i++
		return nil
	})
}
