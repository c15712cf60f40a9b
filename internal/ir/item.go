// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

// Package ir holds the intermediate representation produced by the wasm
// front-end: a flat collection of sized items that accounts for every byte
// of the module, plus a directed reference graph between them.
package ir

import "fmt"

// Id is the tagged address of an item. It either names the synthetic
// "section headers" root of a payload, or the j-th entry within it.
// Section ordinals are 0-based positions in the module's payload sequence,
// not wasm section ids, so two payloads never share an ordinal.
type Id struct {
	// Section is the payload ordinal that owns the item.
	Section int
	// Entry is the entry index within the payload, or -1 for the
	// synthetic section-headers item.
	Entry int
}

// SectionId returns the id of the synthetic section-headers item for the
// payload at the given ordinal.
func SectionId(section int) Id {
	return Id{Section: section, Entry: -1}
}

// EntryId returns the id of the entry-th item within the payload at the
// given ordinal.
func EntryId(section, entry int) Id {
	return Id{Section: section, Entry: entry}
}

// IsSection reports whether the id names a section-headers item.
func (id Id) IsSection() bool {
	return id.Entry < 0
}

// Less orders ids by (section, entry), section roots first.
func (id Id) Less(other Id) bool {
	if id.Section != other.Section {
		return id.Section < other.Section
	}
	return id.Entry < other.Entry
}

func (id Id) String() string {
	if id.IsSection() {
		return fmt.Sprintf("section[%d]", id.Section)
	}
	return fmt.Sprintf("entry[%d][%d]", id.Section, id.Entry)
}

// Kind tags what an item is, which drives downstream analysis.
type Kind int

const (
	// KindMisc covers bookkeeping entries: section headers, types,
	// imports, exports, tables.
	KindMisc Kind = iota
	// KindCode is a function body.
	KindCode
	// KindData is an initialized data segment or global.
	KindData
	// KindDebugInfo is a name-section subsection or other debug payload.
	KindDebugInfo
)

func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindData:
		return "data"
	case KindDebugInfo:
		return "debug"
	default:
		return "misc"
	}
}

// Item is one unit of size attribution.
type Item struct {
	Id   Id
	Name string
	Size uint32
	Kind Kind

	// DemangledName is the display name for code items after symbol
	// demangling; empty for other kinds.
	DemangledName string
	// DataType is the rendered content type of typed data items (globals);
	// empty when the payload is untyped.
	DataType string
}

// NewMisc returns a Misc item.
func NewMisc(id Id, name string, size uint32) Item {
	return Item{Id: id, Name: name, Size: size, Kind: KindMisc}
}

// NewCode returns a Code item carrying its demangled display name.
func NewCode(id Id, name string, size uint32, demangled string) Item {
	return Item{Id: id, Name: name, Size: size, Kind: KindCode, DemangledName: demangled}
}

// NewData returns a Data item; dataType may be empty.
func NewData(id Id, name string, size uint32, dataType string) Item {
	return Item{Id: id, Name: name, Size: size, Kind: KindData, DataType: dataType}
}

// NewDebugInfo returns a DebugInfo item.
func NewDebugInfo(id Id, name string, size uint32) Item {
	return Item{Id: id, Name: name, Size: size, Kind: KindDebugInfo}
}

// Edge is a directed reference between two items. The edge multiset allows
// duplicates; consumers dedupe if they need to.
type Edge struct {
	From Id
	To   Id
}
