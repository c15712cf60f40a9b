// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedErrorsMatchSentinels(t *testing.T) {
	assert.ErrorIs(t, WrapMalformed(12, "bad leb128"), ErrMalformedModule)
	assert.ErrorIs(t, WrapMalformedErr(4, stderrors.New("boom")), ErrMalformedModule)
	assert.ErrorIs(t, WrapTruncated(99), ErrTruncatedModule)
	assert.ErrorIs(t, WrapCountMismatch(3, 2), ErrCountMismatch)
	assert.ErrorIs(t, WrapSizeViolation("type section headers", 10, 8), ErrSizeViolation)
	assert.ErrorIs(t, WrapUnknownItem("code[9]"), ErrUnknownItem)
	assert.ErrorIs(t, WrapConfigInvalid("color", "rainbow"), ErrConfigInvalid)
	assert.ErrorIs(t, WrapHistoryStore(stderrors.New("locked")), ErrHistoryStore)
}

func TestWrapKeepsContext(t *testing.T) {
	err := WrapMalformed(42, "bad magic")
	assert.Contains(t, err.Error(), "42")
	assert.Contains(t, err.Error(), "bad magic")

	err = WrapCountMismatch(3, 2)
	assert.Contains(t, err.Error(), "3")
	assert.Contains(t, err.Error(), "2")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("uleb128 out of bounds")
	err := WrapMalformedErr(7, cause)
	assert.Contains(t, err.Error(), "uleb128 out of bounds")
}
