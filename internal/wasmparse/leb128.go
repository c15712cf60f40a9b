// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package wasmparse

import "fmt"

// readU32 decodes an unsigned LEB128 u32 at pos. It returns the value and
// the number of bytes consumed.
func readU32(data []byte, pos int) (uint32, int, error) {
	var v uint32
	shift := uint(0)
	for i := 0; i < 5; i++ {
		if pos+i >= len(data) {
			return 0, 0, fmt.Errorf("uleb128 out of bounds")
		}
		b := data[pos+i]
		v |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("uleb128 overflow")
}

func readSLEB32(data []byte, pos int) (int32, int, error) {
	val, n, err := readSLEB(data, pos, 32)
	return int32(val), n, err
}

func readSLEB64(data []byte, pos int) (int64, int, error) {
	return readSLEB(data, pos, 64)
}

func readSLEB33(data []byte, pos int) (int64, int, error) {
	return readSLEB(data, pos, 33)
}

func readSLEB(data []byte, pos int, bits uint) (int64, int, error) {
	var result int64
	shift := uint(0)
	var b byte
	for i := 0; i < 10; i++ {
		if pos+i >= len(data) {
			return 0, 0, fmt.Errorf("sleb128 out of bounds")
		}
		b = data[pos+i]
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < bits && (b&0x40) != 0 {
				result |= ^0 << shift
			}
			return result, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("sleb128 overflow")
}

// readName decodes a length-prefixed UTF-8 name at pos.
func readName(data []byte, pos int) (string, int, error) {
	l, n, err := readU32(data, pos)
	if err != nil {
		return "", 0, err
	}
	if pos+n+int(l) > len(data) {
		return "", 0, fmt.Errorf("name out of bounds")
	}
	return string(data[pos+n : pos+n+int(l)]), n + int(l), nil
}

// skipLimits consumes a limits record (flags, min, optional max) and returns
// the new position.
func skipLimits(data []byte, pos int) (int, error) {
	flags, n, err := readU32(data, pos)
	if err != nil {
		return 0, err
	}
	pos += n
	_, n, err = readU32(data, pos)
	if err != nil {
		return 0, err
	}
	pos += n
	if flags&0x01 != 0 {
		_, n, err = readU32(data, pos)
		if err != nil {
			return 0, err
		}
		pos += n
	}
	return pos, nil
}
