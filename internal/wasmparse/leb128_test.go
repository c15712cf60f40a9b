// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package wasmparse

import "testing"

func TestReadU32(t *testing.T) {
	cases := []struct {
		data []byte
		want uint32
		n    int
	}{
		{[]byte{0x00}, 0, 1},
		{[]byte{0x7f}, 127, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0x80, 0x08}, 1024, 2},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xffffffff, 5},
	}
	for _, c := range cases {
		got, n, err := readU32(c.data, 0)
		if err != nil {
			t.Fatalf("readU32(%v) failed: %v", c.data, err)
		}
		if got != c.want || n != c.n {
			t.Fatalf("readU32(%v) = (%d, %d), want (%d, %d)", c.data, got, n, c.want, c.n)
		}
	}
}

func TestReadU32_Errors(t *testing.T) {
	if _, _, err := readU32(nil, 0); err == nil {
		t.Fatalf("expected out-of-bounds error")
	}
	if _, _, err := readU32([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}, 0); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestReadSLEB32(t *testing.T) {
	cases := []struct {
		data []byte
		want int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
		{[]byte{0x7f}, -1},
		{[]byte{0x80, 0x08}, 1024},
		{[]byte{0x80, 0x78}, -1024},
	}
	for _, c := range cases {
		got, _, err := readSLEB32(c.data, 0)
		if err != nil {
			t.Fatalf("readSLEB32(%v) failed: %v", c.data, err)
		}
		if got != c.want {
			t.Fatalf("readSLEB32(%v) = %d, want %d", c.data, got, c.want)
		}
	}
}

func TestReadName(t *testing.T) {
	data := append([]byte{0x03}, []byte("abc")...)
	s, n, err := readName(data, 0)
	if err != nil {
		t.Fatalf("readName failed: %v", err)
	}
	if s != "abc" || n != 4 {
		t.Fatalf("readName = (%q, %d), want (abc, 4)", s, n)
	}

	if _, _, err := readName([]byte{0x05, 'a'}, 0); err == nil {
		t.Fatalf("expected out-of-bounds error")
	}
}
