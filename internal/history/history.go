// Copyright 2025 Wasize Users
// SPDX-License-Identifier: Apache-2.0

// Package history records analysis runs in a local SQLite database so past
// module sizes stay comparable across builds.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dotandev/wasize/internal/errors"
)

// Run is one recorded analysis invocation
type Run struct {
	ID         int64     `json:"id"`
	Command    string    `json:"command"`
	ModulePath string    `json:"module_path"`
	ModuleSize uint64    `json:"module_size"`
	ItemCount  int       `json:"item_count"`
	TopItem    string    `json:"top_item"`
	TopSize    uint64    `json:"top_size"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store handles database operations
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.WrapHistoryStore(fmt.Errorf("failed to create data dir: %w", err))
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapHistoryStore(fmt.Errorf("failed to open db: %w", err))
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		command TEXT NOT NULL,
		module_path TEXT NOT NULL,
		module_size INTEGER NOT NULL,
		item_count INTEGER NOT NULL,
		top_item TEXT,
		top_size INTEGER,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_module ON runs(module_path);
	`
	if _, err := db.Exec(schema); err != nil {
		return errors.WrapHistoryStore(fmt.Errorf("failed to init schema: %w", err))
	}
	return nil
}

// Record inserts one run.
func (s *Store) Record(run Run) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (command, module_path, module_size, item_count, top_item, top_size)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.Command, run.ModulePath, run.ModuleSize, run.ItemCount, run.TopItem, run.TopSize,
	)
	if err != nil {
		return 0, errors.WrapHistoryStore(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.WrapHistoryStore(err)
	}
	return id, nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, command, module_path, module_size, item_count,
		        COALESCE(top_item, ''), COALESCE(top_size, 0), timestamp
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.WrapHistoryStore(err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Command, &r.ModulePath, &r.ModuleSize,
			&r.ItemCount, &r.TopItem, &r.TopSize, &r.Timestamp); err != nil {
			return nil, errors.WrapHistoryStore(err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ForModule returns the recorded runs of one module path, newest first.
func (s *Store) ForModule(path string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, command, module_path, module_size, item_count,
		        COALESCE(top_item, ''), COALESCE(top_size, 0), timestamp
		 FROM runs WHERE module_path = ? ORDER BY id DESC LIMIT ?`, path, limit)
	if err != nil {
		return nil, errors.WrapHistoryStore(err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Command, &r.ModulePath, &r.ModuleSize,
			&r.ItemCount, &r.TopItem, &r.TopSize, &r.Timestamp); err != nil {
			return nil, errors.WrapHistoryStore(err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
