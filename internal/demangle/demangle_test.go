// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package demangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemangleLegacyRustSymbol(t *testing.T) {
	assert.Equal(t,
		"core::fmt::Formatter::pad",
		Demangle("_ZN4core3fmt9Formatter3pad17h03179697b5acdbfcE"))
}

func TestDemangleKeepsHashlessSymbols(t *testing.T) {
	assert.Equal(t, "alloc::oom::oom", Demangle("_ZN5alloc3oom3oomE"))
}

func TestDemangleUnescapesPunctuation(t *testing.T) {
	got := Demangle("_ZN64_$LT$wee_alloc..WeeAlloc$u20$as$u20$core..alloc..GlobalAlloc$GT$5alloc17h1234567890abcdefE")
	assert.Equal(t, "<wee_alloc::WeeAlloc as core::alloc::GlobalAlloc>::alloc", got)
}

func TestDemanglePassesThroughUnmangled(t *testing.T) {
	assert.Equal(t, "code[42]", Demangle("code[42]"))
	assert.Equal(t, "memcpy", Demangle("memcpy"))
	assert.Equal(t, "", Demangle(""))
}

func TestDemangleRejectsBadLengths(t *testing.T) {
	// A length prefix that overruns the input is left untouched.
	assert.Equal(t, "_ZN99fooE", Demangle("_ZN99fooE"))
}

func TestHasGenerics(t *testing.T) {
	assert.True(t, HasGenerics("alloc::vec::Vec<u8>::push"))
	assert.True(t, HasGenerics("<wee_alloc::WeeAlloc as core::alloc::GlobalAlloc>::alloc"))
	assert.False(t, HasGenerics("core::fmt::Formatter::pad"))
	assert.False(t, HasGenerics("code[7]"))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "alloc::vec::Vec::push", Stem("alloc::vec::Vec<u8>::push"))
	assert.Equal(t, "core::iter::Map::fold", Stem("core::iter::Map<core::slice::Iter<u32>, fn(u32)>::fold"))
	assert.Equal(t, "plain", Stem("plain"))
}
