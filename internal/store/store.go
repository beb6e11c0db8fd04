// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store implements Gobby's embedded relational storage: one
// modernc.org/sqlite file holding sessions, workflows, tasks, agent runs,
// worktrees, artifacts, memories, skills and pipeline executions, plus an
// FTS5 full-text index over tasks and artifacts.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/gobbyhq/gobby/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ChangeFunc is invoked synchronously after a commit that inserted, updated,
// or deleted a row in the named table. Implementations must not initiate
// further writes on the Store's connection from inside a ChangeFunc.
type ChangeFunc func(op ChangeOp, table string, id string)

// ChangeOp identifies the kind of mutation that triggered a listener.
type ChangeOp int

const (
	ChangeInsert ChangeOp = iota
	ChangeUpdate
	ChangeDelete
)

// Store is the embedded relational store. A single writer connection
// serializes all mutating statements; a separate read pool serves
// concurrent reads, matching SQLite's single-writer model.
type Store struct {
	write *sql.DB
	read  *sql.DB

	mu        sync.RWMutex
	listeners map[string][]ChangeFunc
}

// Open opens (creating if necessary) the store file at path, applies
// pending migrations, and configures WAL + foreign-key pragmas.
func Open(ctx context.Context, path string) (*Store, error) {
	write, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.External("sqlite", "open", err)
	}
	write.SetMaxOpenConns(1)

	read, err := sql.Open("sqlite", path)
	if err != nil {
		write.Close()
		return nil, errors.External("sqlite", "open", err)
	}

	s := &Store{write: write, read: read, listeners: make(map[string][]ChangeFunc)}

	if err := s.configurePragmas(ctx); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configurePragmas(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := s.write.ExecContext(ctx, p); err != nil {
			return errors.External("sqlite", "pragma", fmt.Errorf("%s: %w", p, err))
		}
		if _, err := s.read.ExecContext(ctx, p); err != nil {
			return errors.External("sqlite", "pragma", fmt.Errorf("%s: %w", p, err))
		}
	}
	return nil
}

// migrate runs all pending forward-only migrations via goose, each inside
// its own transaction (goose's default behavior for the sqlite3 dialect).
func (s *Store) migrate() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.External("goose", "set-dialect", err)
	}
	if err := goose.Up(s.write, "migrations"); err != nil {
		return errors.External("goose", "migrate", err)
	}
	return nil
}

// Close releases both connections.
func (s *Store) Close() error {
	var firstErr error
	if err := s.write.Close(); err != nil {
		firstErr = err
	}
	if err := s.read.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// OnChange registers fn to be invoked after every committed mutation to
// table, in registration order. Intended for C12 sync projectors and the
// Event Bus bridge.
func (s *Store) OnChange(table string, fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[table] = append(s.listeners[table], fn)
}

func (s *Store) notify(table string, op ChangeOp, id string) {
	s.mu.RLock()
	fns := append([]ChangeFunc(nil), s.listeners[table]...)
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(op, table, id)
	}
}

// withTx runs fn inside a write transaction, notifying registered
// listeners for table/op/id only after a successful commit.
func (s *Store) withTx(ctx context.Context, table string, op ChangeOp, id string, fn func(tx *sql.Tx) error) error {
	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return errors.External("sqlite", "begin-tx", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.External("sqlite", "commit", err)
	}
	if table != "" {
		s.notify(table, op, id)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
