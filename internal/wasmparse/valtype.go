// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package wasmparse

// ValType is a wasm value type byte.
type ValType byte

const (
	TypeI32       ValType = 0x7f
	TypeI64       ValType = 0x7e
	TypeF32       ValType = 0x7d
	TypeF64       ValType = 0x7c
	TypeV128      ValType = 0x7b
	TypeFuncRef   ValType = 0x70
	TypeExternRef ValType = 0x6f
	TypeExnRef    ValType = 0x69
	TypeFunc      ValType = 0x60
	TypeEmpty     ValType = 0x40
)

// String renders a value type the way the size reports spell them. funcref
// and externref keep their historical anyfunc/anyref spellings.
func (t ValType) String() string {
	switch t {
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	case TypeV128:
		return "v128"
	case TypeFuncRef:
		return "anyfunc"
	case TypeExternRef:
		return "anyref"
	case TypeExnRef:
		return "exnref"
	default:
		return "?"
	}
}

// ExternalKind is an import/export kind byte.
type ExternalKind byte

const (
	KindFunction ExternalKind = 0x00
	KindTable    ExternalKind = 0x01
	KindMemory   ExternalKind = 0x02
	KindGlobal   ExternalKind = 0x03
	KindTag      ExternalKind = 0x04
)
