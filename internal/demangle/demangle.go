// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

// Package demangle decodes legacy Rust symbol names (_ZN...E) into their
// readable path form. Names that do not look mangled pass through
// unchanged, so it is safe to run on every function name in a module.
package demangle

import (
	"strconv"
	"strings"
)

// Demangle turns "_ZN4core3fmt9Formatter3pad17h1234abcd5678efabE" into
// "core::fmt::Formatter::pad". The trailing hash segment is dropped.
func Demangle(name string) string {
	inner, ok := strip(name)
	if !ok {
		return name
	}

	segments, ok := splitSegments(inner)
	if !ok {
		return name
	}
	if n := len(segments); n > 1 && isHashSegment(segments[n-1]) {
		segments = segments[:n-1]
	}

	for i, seg := range segments {
		segments[i] = unescape(seg)
	}
	return strings.Join(segments, "::")
}

// HasGenerics reports whether a demangled name carries generic parameter
// markers, which is what makes it eligible for monomorphization grouping.
func HasGenerics(demangled string) bool {
	lt := strings.IndexByte(demangled, '<')
	if lt < 0 {
		return false
	}
	return strings.IndexByte(demangled[lt:], '>') >= 0
}

// Stem strips the generic arguments from a demangled name, leaving the
// generic function they instantiate: "alloc::vec::Vec<u8>::push" becomes
// "alloc::vec::Vec::push".
func Stem(demangled string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range demangled {
		switch r {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
				continue
			}
		default:
			if depth == 0 {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

func strip(name string) (string, bool) {
	for _, prefix := range []string{"_ZN", "__ZN", "ZN"} {
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, "E") {
			return name[len(prefix) : len(name)-1], true
		}
	}
	return "", false
}

func splitSegments(inner string) ([]string, bool) {
	var segments []string
	pos := 0
	for pos < len(inner) {
		start := pos
		for pos < len(inner) && inner[pos] >= '0' && inner[pos] <= '9' {
			pos++
		}
		if pos == start {
			return nil, false
		}
		length, err := strconv.Atoi(inner[start:pos])
		if err != nil || pos+length > len(inner) {
			return nil, false
		}
		segments = append(segments, inner[pos:pos+length])
		pos += length
	}
	return segments, len(segments) > 0
}

// isHashSegment matches the compiler-appended "h<16 hex digits>" segment.
func isHashSegment(seg string) bool {
	if len(seg) != 17 || seg[0] != 'h' {
		return false
	}
	for _, c := range seg[1:] {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

var escapes = []struct {
	from string
	to   string
}{
	{"$SP$", "@"},
	{"$BP$", "*"},
	{"$RF$", "&"},
	{"$LT$", "<"},
	{"$GT$", ">"},
	{"$LP$", "("},
	{"$RP$", ")"},
	{"$C$", ","},
	{"$u20$", " "},
	{"$u22$", "\""},
	{"$u27$", "'"},
	{"$u2b$", "+"},
	{"$u3b$", ";"},
	{"$u5b$", "["},
	{"$u5d$", "]"},
	{"$u7b$", "{"},
	{"$u7d$", "}"},
	{"$u7e$", "~"},
}

func unescape(seg string) string {
	// Segments cannot open with punctuation, so the mangler inserts an
	// underscore before an escape; drop it.
	if strings.HasPrefix(seg, "_$") {
		seg = seg[1:]
	}
	for _, e := range escapes {
		seg = strings.ReplaceAll(seg, e.from, e.to)
	}
	// ".." is the path separator inside a segment; a lone "." survives as
	// itself (closure and shim segments).
	seg = strings.ReplaceAll(seg, "..", "::")
	return seg
}
