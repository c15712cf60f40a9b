// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package wasmparse

import (
	"fmt"

	"github.com/dotandev/wasize/internal/demangle"
	"github.com/dotandev/wasize/internal/errors"
	"github.com/dotandev/wasize/internal/ir"
)

// parsePairItems collapses corresponding function-section and code-section
// entries into one item per defined function, keyed by the code section's
// ordinal. The item's size spans both encodings: the LEB128 type index in
// the function section plus the locals-and-body blob in the code section.
func parsePairItems(fn *funcHandle, code *codeHandle, importedFunctions int, b *ir.Builder) error {
	fnReader := fn.reader.clone()
	codeReader := code.reader.clone()
	if fnReader.Count() != codeReader.Count() {
		return errors.WrapCountMismatch(fnReader.Count(), codeReader.Count())
	}

	start := b.SizeAdded()
	for i := uint32(0); i < codeReader.Count(); i++ {
		_, fnSize, err := fnReader.ReadFunctionTypeIndex()
		if err != nil {
			return errors.WrapMalformedErr(fnReader.Position(), err)
		}
		_, bodySize, err := codeReader.ReadCodeBody()
		if err != nil {
			return errors.WrapMalformedErr(codeReader.Position(), err)
		}

		name, ok := b.FunctionName(int(i) + importedFunctions)
		if !ok {
			name = fmt.Sprintf("code[%d]", i)
		}
		id := ir.EntryId(code.ordinal, int(i))
		b.AddItem(ir.NewCode(id, name, fnSize+bodySize, demangle.Demangle(name)))
	}

	added := b.SizeAdded() - start
	total := uint64(code.byteSize) + uint64(fn.byteSize)
	if added > total {
		return errors.WrapSizeViolation("code section headers", added, total)
	}
	b.AddRoot(ir.NewMisc(ir.SectionId(code.ordinal), "code section headers", uint32(total-added)))

	return nil
}

// parsePairEdges draws the type-signature edges and walks every body's
// operator stream. Edges accumulate locally and commit in bulk so a decode
// failure mid-body leaves the builder untouched.
func parsePairEdges(fn *funcHandle, code *codeHandle, si *sectionIndices, b *ir.Builder) error {
	var edges []ir.Edge

	fnReader := fn.reader.clone()
	for i := uint32(0); i < fnReader.Count(); i++ {
		typeIdx, _, err := fnReader.ReadFunctionTypeIndex()
		if err != nil {
			return errors.WrapMalformedErr(fnReader.Position(), err)
		}
		if si.typeSection != nil && si.codeSection != nil {
			edges = append(edges, ir.Edge{
				From: ir.EntryId(*si.codeSection, int(i)),
				To:   ir.EntryId(*si.typeSection, int(typeIdx)),
			})
		}
	}

	codeReader := code.reader.clone()
	for i := uint32(0); i < codeReader.Count(); i++ {
		body, _, err := codeReader.ReadCodeBody()
		if err != nil {
			return errors.WrapMalformedErr(codeReader.Position(), err)
		}
		bodyEdges, err := scanBody(body, ir.EntryId(code.ordinal, int(i)), si, b)
		if err != nil {
			return err
		}
		edges = append(edges, bodyEdges...)
	}

	for _, e := range edges {
		b.AddEdge(e.From, e.To)
	}
	return nil
}

// scanBody walks one operator stream with a one-instruction look-behind.
// Only a constant immediately before a load can form a data edge; any
// intervening operator, side-effect free or not, breaks the match.
func scanBody(body CodeBody, bodyId ir.Id, si *sectionIndices, b *ir.Builder) ([]ir.Edge, error) {
	pos, err := skipLocalDecls(body)
	if err != nil {
		return nil, err
	}

	var edges []ir.Edge
	s := newOpScanner(body.Data[pos:], body.Base+pos)
	var cache *Op
	for !s.done() {
		op, err := s.next()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrMalformedModule, err)
		}

		prev := cache
		cache = nil

		switch op.Kind {
		case OpCall:
			target, err := resolveIndex(si.functions, op.Index, "function")
			if err != nil {
				return nil, err
			}
			edges = append(edges, ir.Edge{From: bodyId, To: target})

		case OpCallIndirect:
			// TODO: resolve indirect targets through the vtables the
			// element segments populate.

		case OpGlobalGet, OpGlobalSet:
			target, err := resolveIndex(si.globals, op.Index, "global")
			if err != nil {
				return nil, err
			}
			edges = append(edges, ir.Edge{From: bodyId, To: target})

		case OpLoad:
			if prev != nil && prev.Kind == OpI32Const {
				address := uint32(int32(prev.Value)) + op.MemOffset
				if dataId, ok := b.GetData(address); ok {
					edges = append(edges, ir.Edge{From: bodyId, To: dataId})
				}
			}

		default:
			carried := op
			cache = &carried
		}
	}
	return edges, nil
}

// skipLocalDecls steps over the locals declarations at the head of a code
// body and returns the offset of the first operator.
func skipLocalDecls(body CodeBody) (int, error) {
	pos := 0
	count, n, err := readU32(body.Data, pos)
	if err != nil {
		return 0, errors.WrapMalformedErr(body.Base, err)
	}
	pos += n
	for i := uint32(0); i < count; i++ {
		_, n, err := readU32(body.Data, pos)
		if err != nil {
			return 0, errors.WrapMalformedErr(body.Base+pos, err)
		}
		pos += n
		if pos >= len(body.Data) {
			return 0, errors.WrapMalformed(body.Base+pos, "local declaration truncated")
		}
		pos++ // value type
	}
	return pos, nil
}
