// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package wasmparse

import (
	"fmt"
	"strings"

	"github.com/dotandev/wasize/internal/errors"
	"github.com/dotandev/wasize/internal/ir"
)

// parseSectionItems emits the leaf items of one buffered payload. The bytes
// the leaves do not cover fall to the section-headers root the caller adds
// afterwards.
func parseSectionItems(p Payload, ordinal int, b *ir.Builder) error {
	switch p.Kind {
	case PayloadTypeSection:
		return parseTypeItems(p.Reader, ordinal, b)
	case PayloadImportSection:
		return parseImportItems(p.Reader, ordinal, b)
	case PayloadTableSection:
		return parseTableItems(p.Reader, ordinal, b)
	case PayloadMemorySection:
		return parseMemoryItems(p.Reader, ordinal, b)
	case PayloadGlobalSection:
		return parseGlobalItems(p.Reader, ordinal, b)
	case PayloadExportSection:
		return parseExportItems(p.Reader, ordinal, b)
	case PayloadStartSection:
		size := uint32(p.RangeEnd - p.RangeStart)
		b.AddRoot(ir.NewMisc(ir.EntryId(ordinal, 0), `"start" section`, size))
		return nil
	case PayloadElementSection:
		return parseElementItems(p.Reader, ordinal, b)
	case PayloadDataSection:
		return parseDataItems(p.Reader, ordinal, b)
	case PayloadDataCountSection:
		size := uint32(p.RangeEnd - p.RangeStart)
		b.AddRoot(ir.NewMisc(ir.EntryId(ordinal, 0), `"data count" section`, size))
		return nil
	case PayloadCustomSection:
		return parseCustomItems(p, ordinal, b)
	default:
		// Version, unknown and extension sections carry no leaf items.
		return nil
	}
}

// parseSectionEdges emits the edges of one buffered payload against the
// fully-built index spaces.
func parseSectionEdges(p Payload, ordinal int, si *sectionIndices, b *ir.Builder) error {
	switch p.Kind {
	case PayloadExportSection:
		return parseExportEdges(p.Reader, ordinal, si, b)
	case PayloadStartSection:
		id, err := resolveIndex(si.functions, p.FuncIndex, "function")
		if err != nil {
			return err
		}
		b.AddEdge(ir.EntryId(ordinal, 0), id)
		return nil
	case PayloadElementSection:
		return parseElementEdges(p.Reader, ordinal, si, b)
	default:
		return nil
	}
}

func parseTypeItems(r *SectionReader, ordinal int, b *ir.Builder) error {
	for i := uint32(0); i < r.Count(); i++ {
		entry, size, err := r.ReadType()
		if err != nil {
			return errors.WrapMalformedErr(r.Position(), err)
		}
		if entry.Func == nil {
			// Non-function forms stay anonymous. ReadType has consumed
			// the rest of the body, so this entry and any after it land
			// on the section-headers root.
			break
		}
		name := renderTypeName(int(i), entry.Func)
		b.AddItem(ir.NewMisc(ir.EntryId(ordinal, int(i)), name, size))
	}
	return nil
}

// renderTypeName formats a function signature as the reports display it,
// e.g. "type[3]: (i32, i64) -> nil".
func renderTypeName(i int, sig *FuncSignature) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "type[%d]: (", i)
	for j, p := range sig.Params {
		if j != 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(") -> ")

	switch len(sig.Results) {
	case 0:
		sb.WriteString("nil")
	case 1:
		sb.WriteString(sig.Results[0].String())
	default:
		sb.WriteString("(")
		for j, res := range sig.Results {
			if j != 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(res.String())
		}
		sb.WriteString(")")
	}
	return sb.String()
}

func parseImportItems(r *SectionReader, ordinal int, b *ir.Builder) error {
	for i := uint32(0); i < r.Count(); i++ {
		imp, size, err := r.ReadImport()
		if err != nil {
			return errors.WrapMalformedErr(r.Position(), err)
		}
		name := fmt.Sprintf("import %s::%s", imp.Module, imp.Field)
		b.AddItem(ir.NewMisc(ir.EntryId(ordinal, int(i)), name, size))
	}
	return nil
}

func parseTableItems(r *SectionReader, ordinal int, b *ir.Builder) error {
	for i := uint32(0); i < r.Count(); i++ {
		size, err := r.ReadTable()
		if err != nil {
			return errors.WrapMalformedErr(r.Position(), err)
		}
		// Tables are externally reachable through indirect calls.
		b.AddRoot(ir.NewMisc(ir.EntryId(ordinal, int(i)), fmt.Sprintf("table[%d]", i), size))
	}
	return nil
}

func parseMemoryItems(r *SectionReader, ordinal int, b *ir.Builder) error {
	for i := uint32(0); i < r.Count(); i++ {
		size, err := r.ReadMemory()
		if err != nil {
			return errors.WrapMalformedErr(r.Position(), err)
		}
		b.AddItem(ir.NewMisc(ir.EntryId(ordinal, int(i)), fmt.Sprintf("memory[%d]", i), size))
	}
	return nil
}

func parseGlobalItems(r *SectionReader, ordinal int, b *ir.Builder) error {
	for i := uint32(0); i < r.Count(); i++ {
		g, size, err := r.ReadGlobal()
		if err != nil {
			return errors.WrapMalformedErr(r.Position(), err)
		}
		name := fmt.Sprintf("global[%d]", i)
		b.AddItem(ir.NewData(ir.EntryId(ordinal, int(i)), name, size, g.ContentType.String()))
	}
	return nil
}

func parseExportItems(r *SectionReader, ordinal int, b *ir.Builder) error {
	for i := uint32(0); i < r.Count(); i++ {
		exp, size, err := r.ReadExport()
		if err != nil {
			return errors.WrapMalformedErr(r.Position(), err)
		}
		name := fmt.Sprintf("export %q", exp.Field)
		b.AddRoot(ir.NewMisc(ir.EntryId(ordinal, int(i)), name, size))
	}
	return nil
}

func parseExportEdges(r *SectionReader, ordinal int, si *sectionIndices, b *ir.Builder) error {
	for i := uint32(0); i < r.Count(); i++ {
		exp, _, err := r.ReadExport()
		if err != nil {
			return errors.WrapMalformedErr(r.Position(), err)
		}
		expId := ir.EntryId(ordinal, int(i))

		var space []ir.Id
		var kind string
		switch exp.Kind {
		case KindFunction:
			space, kind = si.functions, "function"
		case KindTable:
			space, kind = si.tables, "table"
		case KindMemory:
			space, kind = si.memories, "memory"
		case KindGlobal:
			space, kind = si.globals, "global"
		default:
			// Tags and extension kinds draw no edges.
			continue
		}
		target, err := resolveIndex(space, exp.Index, kind)
		if err != nil {
			return err
		}
		b.AddEdge(expId, target)
	}
	return nil
}

func parseElementItems(r *SectionReader, ordinal int, b *ir.Builder) error {
	for i := uint32(0); i < r.Count(); i++ {
		_, size, err := r.ReadElement()
		if err != nil {
			return errors.WrapMalformedErr(r.Position(), err)
		}
		b.AddItem(ir.NewMisc(ir.EntryId(ordinal, int(i)), fmt.Sprintf("elem[%d]", i), size))
	}
	return nil
}

func parseElementEdges(r *SectionReader, ordinal int, si *sectionIndices, b *ir.Builder) error {
	for i := uint32(0); i < r.Count(); i++ {
		elem, _, err := r.ReadElement()
		if err != nil {
			return errors.WrapMalformedErr(r.Position(), err)
		}
		elemId := ir.EntryId(ordinal, int(i))

		// The table points into its active segments; passive and
		// declared segments hang off nothing.
		if elem.Kind == ElementActive {
			table, err := resolveIndex(si.tables, elem.TableIndex, "table")
			if err != nil {
				return err
			}
			b.AddEdge(table, elemId)
		}

		for _, fidx := range elem.FuncIndices {
			target, err := resolveIndex(si.functions, fidx, "function")
			if err != nil {
				return err
			}
			b.AddEdge(elemId, target)
		}
	}
	return nil
}

func parseDataItems(r *SectionReader, ordinal int, b *ir.Builder) error {
	for i := uint32(0); i < r.Count(); i++ {
		seg, size, err := r.ReadData()
		if err != nil {
			return errors.WrapMalformedErr(r.Position(), err)
		}
		id := ir.EntryId(ordinal, int(i))
		b.AddItem(ir.NewData(id, fmt.Sprintf("data[%d]", i), size, ""))

		// Only segments with a constant address participate in the
		// memory-load lookup; computed offsets stay unlinked.
		if seg.Active && seg.Offset != nil {
			b.LinkData(*seg.Offset, seg.Length, id)
		}
	}
	return nil
}

func parseCustomItems(p Payload, ordinal int, b *ir.Builder) error {
	if p.Name == "name" {
		return parseNameSectionItems(p, ordinal, b)
	}
	name := fmt.Sprintf("custom section '%s'", p.Name)
	b.AddItem(ir.NewMisc(ir.EntryId(ordinal, 0), name, uint32(len(p.Data))))
	return nil
}

func resolveIndex(space []ir.Id, index uint32, kind string) (ir.Id, error) {
	if int(index) >= len(space) {
		return ir.Id{}, errors.WrapMalformed(0, fmt.Sprintf("%s index %d out of range (space has %d entries)", kind, index, len(space)))
	}
	return space[index], nil
}
