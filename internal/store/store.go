// Copyright 2026 The SprayDryFS Authors.
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

// Package store defines the SprayDryFS schema and opens the writer and
// reader connections used by ingest and rehydrate, respectively.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
)

// Writer owns the single writer connection to the database: a single
// *sql.Conn pinned out of the pool so PRAGMAs and SAVEPOINT nesting
// apply to one physical SQLite connection, matching SQLite's
// connection-local transaction semantics.
type Writer struct {
	db   *sql.DB
	conn *sql.Conn
}

// OpenWriter opens (creating if absent) the database at path with
// write-ahead logging and foreign keys enabled, and ensures the schema
// (including the two seeded default rehydrate configs) exists.
func OpenWriter(ctx context.Context, path string) (*Writer, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=1")
	if err != nil {
		return nil, sdferrors.StoreError("opening writer database", err)
	}
	db.SetMaxOpenConns(1)
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, sdferrors.StoreError("acquiring writer connection", err)
	}
	w := &Writer{db: db, conn: conn}
	if err := w.ensureSchema(ctx); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	for _, stmt := range createStatements {
		if _, err := w.conn.ExecContext(ctx, stmt); err != nil {
			return sdferrors.StoreError(fmt.Sprintf("applying schema statement: %s", stmt), err)
		}
	}
	return nil
}

// Close releases the pinned connection and the underlying pool.
func (w *Writer) Close() error {
	if w.conn != nil {
		w.conn.Close()
	}
	return w.db.Close()
}

// Conn exposes the pinned writer connection for packages (ingest) that
// need to run ad hoc statements and savepoint control.
func (w *Writer) Conn() *sql.Conn { return w.conn }

// Begin starts the top-level transaction around a root creation, per
// spec.md §4.1's "BEGIN ... COMMIT/ROLLBACK around root creation".
func (w *Writer) Begin(ctx context.Context) error {
	_, err := w.conn.ExecContext(ctx, "BEGIN")
	if err != nil {
		return sdferrors.StoreError("BEGIN", err)
	}
	return nil
}

// Commit commits the top-level transaction.
func (w *Writer) Commit(ctx context.Context) error {
	_, err := w.conn.ExecContext(ctx, "COMMIT")
	if err != nil {
		return sdferrors.StoreError("COMMIT", err)
	}
	return nil
}

// Rollback rolls back the top-level transaction.
func (w *Writer) Rollback(ctx context.Context) error {
	_, err := w.conn.ExecContext(ctx, "ROLLBACK")
	if err != nil {
		return sdferrors.StoreError("ROLLBACK", err)
	}
	return nil
}

// Savepoint opens a named SAVEPOINT. Names must be unique within the
// current savepoint stack; the ingestor derives them deterministically
// from a hash of the entry's path so a recursive descent never
// collides with an ancestor's savepoint.
func (w *Writer) Savepoint(ctx context.Context, name string) error {
	_, err := w.conn.ExecContext(ctx, "SAVEPOINT "+name)
	if err != nil {
		return sdferrors.StoreError("SAVEPOINT "+name, err)
	}
	return nil
}

// RollbackTo rolls back to and releases the named savepoint, undoing
// its effects while keeping ancestor savepoints intact.
func (w *Writer) RollbackTo(ctx context.Context, name string) error {
	if _, err := w.conn.ExecContext(ctx, "ROLLBACK TO "+name); err != nil {
		return sdferrors.StoreError("ROLLBACK TO "+name, err)
	}
	if _, err := w.conn.ExecContext(ctx, "RELEASE "+name); err != nil {
		return sdferrors.StoreError("RELEASE "+name, err)
	}
	return nil
}

// Release merges the named savepoint's effects into its parent.
func (w *Writer) Release(ctx context.Context, name string) error {
	if _, err := w.conn.ExecContext(ctx, "RELEASE "+name); err != nil {
		return sdferrors.StoreError("RELEASE "+name, err)
	}
	return nil
}

// OpenReader opens a read-only connection pool to path, with an
// optional memory-mapped region of mmapSize bytes (0 disables mmap).
func OpenReader(path string, mmapSize int64) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	if mmapSize > 0 {
		dsn += fmt.Sprintf("&_mmap_size=%d", mmapSize)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, sdferrors.StoreError("opening reader database", err)
	}
	return db, nil
}

// FormatHash renders a finalised hash as ascii(algo-name) || '-' || digest.
func FormatHash(algoName string, digest []byte) []byte {
	out := make([]byte, 0, len(algoName)+1+len(digest))
	out = append(out, algoName...)
	out = append(out, '-')
	out = append(out, digest...)
	return out
}

// FormatPreliminaryHash renders the tagged fake hash used for a
// not-yet-finalised file row: ascii(algo-name) || '_' || path-digest.
// The underscore separator guarantees it can never collide with a
// real (hyphen-separated) finalised hash.
func FormatPreliminaryHash(algoName string, pathDigest []byte) []byte {
	out := make([]byte, 0, len(algoName)+1+len(pathDigest))
	out = append(out, algoName...)
	out = append(out, '_')
	out = append(out, pathDigest...)
	return out
}
