// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package wasmparse

import "fmt"

// OpKind classifies the operators the scanners care about. Everything else
// is OpOther: decoded far enough to step over its immediates, then dropped.
type OpKind int

const (
	OpOther OpKind = iota
	OpEnd
	OpCall
	OpCallIndirect
	OpGlobalGet
	OpGlobalSet
	OpLoad
	OpI32Const
	OpI64Const
	OpRefFunc
)

// Op is one decoded operator.
type Op struct {
	Kind OpKind

	// Index is the call target or global index.
	Index uint32
	// Value is the i32/i64 constant value.
	Value int64
	// MemOffset is the static memarg offset of a load.
	MemOffset uint32
}

// opScanner steps through an operator stream one instruction at a time.
type opScanner struct {
	data []byte
	base int
	pos  int
}

func newOpScanner(data []byte, base int) *opScanner {
	return &opScanner{data: data, base: base}
}

func (s *opScanner) done() bool {
	return s.pos >= len(s.data)
}

func (s *opScanner) fail(err error) error {
	return fmt.Errorf("at byte %d: %w", s.base+s.pos, err)
}

func (s *opScanner) u32() (uint32, error) {
	v, n, err := readU32(s.data, s.pos)
	if err != nil {
		return 0, s.fail(err)
	}
	s.pos += n
	return v, nil
}

// next decodes one operator and advances past its immediates.
func (s *opScanner) next() (Op, error) {
	if s.done() {
		return Op{}, s.fail(fmt.Errorf("operator stream truncated"))
	}
	op := s.data[s.pos]
	s.pos++

	switch op {
	case 0x0b:
		return Op{Kind: OpEnd}, nil

	case 0x02, 0x03, 0x04: // block, loop, if
		if err := s.skipBlockType(); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpOther}, nil

	case 0x0c, 0x0d: // br, br_if
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpOther}, nil

	case 0x0e: // br_table
		count, err := s.u32()
		if err != nil {
			return Op{}, err
		}
		for i := uint32(0); i < count+1; i++ {
			if _, err := s.u32(); err != nil {
				return Op{}, err
			}
		}
		return Op{Kind: OpOther}, nil

	case 0x10: // call
		idx, err := s.u32()
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: OpCall, Index: idx}, nil

	case 0x11: // call_indirect
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpCallIndirect}, nil

	case 0x12: // return_call
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpOther}, nil

	case 0x13: // return_call_indirect
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpOther}, nil

	case 0x1c: // select with type vector
		count, err := s.u32()
		if err != nil {
			return Op{}, err
		}
		if s.pos+int(count) > len(s.data) {
			return Op{}, s.fail(fmt.Errorf("select type vector out of bounds"))
		}
		s.pos += int(count)
		return Op{Kind: OpOther}, nil

	case 0x20, 0x21, 0x22: // local.get/set/tee
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpOther}, nil

	case 0x23: // global.get
		idx, err := s.u32()
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: OpGlobalGet, Index: idx}, nil

	case 0x24: // global.set
		idx, err := s.u32()
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: OpGlobalSet, Index: idx}, nil

	case 0x25, 0x26: // table.get/set
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpOther}, nil

	case 0x28, 0x29, 0x2a, 0x2b, 0x2c, 0x2d, 0x2e, 0x2f,
		0x30, 0x31, 0x32, 0x33, 0x34, 0x35:
		// All loads: memarg is (align, offset).
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		offset, err := s.u32()
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: OpLoad, MemOffset: offset}, nil

	case 0x36, 0x37, 0x38, 0x39, 0x3a, 0x3b, 0x3c, 0x3d, 0x3e:
		// Stores carry the same memarg shape.
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpOther}, nil

	case 0x3f, 0x40: // memory.size, memory.grow
		if _, err := s.u32(); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpOther}, nil

	case 0x41: // i32.const
		v, n, err := readSLEB32(s.data, s.pos)
		if err != nil {
			return Op{}, s.fail(err)
		}
		s.pos += n
		return Op{Kind: OpI32Const, Value: int64(v)}, nil

	case 0x42: // i64.const
		v, n, err := readSLEB64(s.data, s.pos)
		if err != nil {
			return Op{}, s.fail(err)
		}
		s.pos += n
		return Op{Kind: OpI64Const, Value: v}, nil

	case 0x43: // f32.const
		if s.pos+4 > len(s.data) {
			return Op{}, s.fail(fmt.Errorf("f32.const truncated"))
		}
		s.pos += 4
		return Op{Kind: OpOther}, nil

	case 0x44: // f64.const
		if s.pos+8 > len(s.data) {
			return Op{}, s.fail(fmt.Errorf("f64.const truncated"))
		}
		s.pos += 8
		return Op{Kind: OpOther}, nil

	case 0xd0: // ref.null
		if s.pos >= len(s.data) {
			return Op{}, s.fail(fmt.Errorf("ref.null truncated"))
		}
		s.pos++
		return Op{Kind: OpOther}, nil

	case 0xd2: // ref.func
		idx, err := s.u32()
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: OpRefFunc, Index: idx}, nil

	case 0xfc:
		if err := s.skipMiscPrefix(); err != nil {
			return Op{}, err
		}
		return Op{Kind: OpOther}, nil

	case 0xfd:
		return Op{}, s.fail(fmt.Errorf("unsupported SIMD opcode prefix 0xfd"))

	case 0xfe:
		return Op{}, s.fail(fmt.Errorf("unsupported atomic opcode prefix 0xfe"))

	default:
		if isNoImmediateOpcode(op) {
			return Op{Kind: OpOther}, nil
		}
		return Op{}, s.fail(fmt.Errorf("unsupported opcode 0x%02x", op))
	}
}

func (s *opScanner) skipBlockType() error {
	if s.pos >= len(s.data) {
		return s.fail(fmt.Errorf("blocktype truncated"))
	}
	switch s.data[s.pos] {
	case 0x40, 0x7f, 0x7e, 0x7d, 0x7c, 0x7b, 0x70, 0x6f:
		s.pos++
		return nil
	default:
		_, n, err := readSLEB33(s.data, s.pos)
		if err != nil {
			return s.fail(err)
		}
		s.pos += n
		return nil
	}
}

func (s *opScanner) skipMiscPrefix() error {
	sub, n, err := readU32(s.data, s.pos)
	if err != nil {
		return s.fail(err)
	}
	s.pos += n
	switch sub {
	case 0, 1, 2, 3, 4, 5, 6, 7:
		// Saturating truncations: no immediates.
		return nil
	case 8, 10, 12, 14:
		// memory.init/copy, table.init/copy: two indices.
		if _, err := s.u32(); err != nil {
			return err
		}
		_, err := s.u32()
		return err
	case 9, 11, 13, 15, 16, 17:
		// data.drop, memory.fill, elem.drop, table.grow/size/fill: one index.
		_, err := s.u32()
		return err
	default:
		return s.fail(fmt.Errorf("unsupported 0xfc subopcode %d", sub))
	}
}

func isNoImmediateOpcode(op byte) bool {
	switch op {
	case 0x00, 0x01, 0x05, 0x0f, 0x1a, 0x1b, 0x1d, 0x1e, 0x1f, 0xd1:
		return true
	}
	if op >= 0x45 && op <= 0xc4 {
		return true
	}
	return false
}
