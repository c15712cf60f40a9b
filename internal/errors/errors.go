// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for comparison with errors.Is
var (
	ErrMalformedModule = errors.New("malformed wasm module")
	ErrTruncatedModule = errors.New("truncated wasm module")
	ErrMissingCodePair = errors.New("function or code section is missing")
	ErrCountMismatch   = errors.New("function and code section counts disagree")
	ErrSizeViolation   = errors.New("internal size accounting violation")
	ErrUnknownItem     = errors.New("unknown item")
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrHistoryStore    = errors.New("history store failure")
)

// Wrap functions for consistent error wrapping
func WrapMalformed(offset int, reason string) error {
	return fmt.Errorf("%w: at byte %d: %s", ErrMalformedModule, offset, reason)
}

func WrapMalformedErr(offset int, err error) error {
	return fmt.Errorf("%w: at byte %d: %w", ErrMalformedModule, offset, err)
}

func WrapTruncated(offset int) error {
	return fmt.Errorf("%w: input ends at byte %d mid-payload", ErrTruncatedModule, offset)
}

func WrapCountMismatch(functions, bodies uint32) error {
	return fmt.Errorf("%w: %d type indices vs %d bodies", ErrCountMismatch, functions, bodies)
}

func WrapSizeViolation(section string, leaves, total uint64) error {
	return fmt.Errorf("%w: %s leaves cover %d of %d bytes", ErrSizeViolation, section, leaves, total)
}

func WrapUnknownItem(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownItem, name)
}

func WrapConfigInvalid(field, value string) error {
	return fmt.Errorf("%w: %s=%q", ErrConfigInvalid, field, value)
}

func WrapHistoryStore(err error) error {
	return fmt.Errorf("%w: %w", ErrHistoryStore, err)
}
