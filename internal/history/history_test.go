// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)

	id, err := store.Record(Run{
		Command:    "top",
		ModulePath: "./a.wasm",
		ModuleSize: 4096,
		ItemCount:  37,
		TopItem:    "code[0]",
		TopSize:    512,
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	_, err = store.Record(Run{Command: "garbage", ModulePath: "./b.wasm", ModuleSize: 128, ItemCount: 3})
	require.NoError(t, err)

	runs, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// Newest first.
	assert.Equal(t, "garbage", runs[0].Command)
	assert.Equal(t, "top", runs[1].Command)
	assert.Equal(t, uint64(4096), runs[1].ModuleSize)
	assert.Equal(t, "code[0]", runs[1].TopItem)
	assert.False(t, runs[0].Timestamp.IsZero())
}

func TestForModule(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		_, err := store.Record(Run{Command: "top", ModulePath: "./a.wasm", ModuleSize: uint64(100 + i)})
		require.NoError(t, err)
	}
	_, err := store.Record(Run{Command: "top", ModulePath: "./other.wasm", ModuleSize: 7})
	require.NoError(t, err)

	runs, err := store.ForModule("./a.wasm", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, uint64(102), runs[0].ModuleSize)
	assert.Equal(t, uint64(101), runs[1].ModuleSize)
}

func TestRecentEmptyStore(t *testing.T) {
	store := openTestStore(t)

	runs, err := store.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
