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

// Package rehydrate implements the read-side engine: mapping
// (file, offset, length) requests to a minimal sequence of stored
// chunks, decoding, and slicing to exact bounds.
package rehydrate

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/spraydryfs/spraydryfs/internal/algospec"
	"github.com/spraydryfs/spraydryfs/internal/dryer"
	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
	"github.com/spraydryfs/spraydryfs/internal/store"
)

// Entry is a resolved directory entry, root, or file attribute row.
// Root entries have ParentFile == 0 and no Name.
type Entry struct {
	ID          int64
	ParentFile  int64
	Name        []byte
	IsDirectory bool
	Mode        []byte
	Size        int64
	File        int64
}

// Rehydrator opens a read-only reader over a SprayDryFS database and
// pre-builds a rehydrate-id -> codec dispatch table for O(1) decode
// dispatch per chunk, per spec.md §4.6.
type Rehydrator struct {
	db     *sql.DB
	codecs map[int64]dryer.Codec
}

// Open opens a read-only connection to path (with an optional
// memory-mapped region of mmapSize bytes) and materialises the codec
// dispatch table by scanning the rehydrate config table.
func Open(ctx context.Context, path string, mmapSize int64) (*Rehydrator, error) {
	db, err := store.OpenReader(path, mmapSize)
	if err != nil {
		return nil, err
	}
	r := &Rehydrator{db: db, codecs: make(map[int64]dryer.Codec)}
	if err := r.buildDispatchTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Rehydrator) buildDispatchTable(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, algorithm, data FROM rehydrate`)
	if err != nil {
		return sdferrors.StoreError("scanning rehydrate configs", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var algSpec string
		var dict []byte
		if err := rows.Scan(&id, &algSpec, &dict); err != nil {
			return sdferrors.StoreError("scanning rehydrate config row", err)
		}
		spec, err := algospec.Split(algSpec)
		if err != nil {
			return err
		}
		codec, err := dryer.New(spec, dict)
		if err != nil {
			return err
		}
		r.codecs[id] = codec
	}
	return rows.Err()
}

// Close closes the underlying reader connection pool.
func (r *Rehydrator) Close() error { return r.db.Close() }

// Root resolves a named, versioned root to its synthesised entry.
func (r *Rehydrator) Root(ctx context.Context, name, version string) (Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, isdirectory, mode, size, file FROM root WHERE name = ? AND version = ?`, name, version)
	var e Entry
	if err := row.Scan(&e.ID, &e.IsDirectory, &e.Mode, &e.Size, &e.File); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, &sdferrors.NotFound{Kind: "root", Key: fmt.Sprintf("%s/%s", name, version)}
		}
		return Entry{}, sdferrors.StoreError("looking up root", err)
	}
	return e, nil
}

// Attributes resolves an entry by its persisted id.
func (r *Rehydrator) Attributes(ctx context.Context, entryID int64) (Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, directory, name, isdirectory, mode, size, file FROM entry WHERE id = ?`, entryID)
	var e Entry
	if err := row.Scan(&e.ID, &e.ParentFile, &e.Name, &e.IsDirectory, &e.Mode, &e.Size, &e.File); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, &sdferrors.NotFound{Kind: "entry", Key: fmt.Sprintf("%d", entryID)}
		}
		return Entry{}, sdferrors.StoreError("looking up entry attributes", err)
	}
	return e, nil
}

// Entry resolves the (case-sensitive) child named name within
// directory file dirFileID.
func (r *Rehydrator) Entry(ctx context.Context, dirFileID int64, name []byte) (Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, directory, name, isdirectory, mode, size, file FROM entry WHERE directory = ? AND name = ?`,
		dirFileID, name)
	var e Entry
	if err := row.Scan(&e.ID, &e.ParentFile, &e.Name, &e.IsDirectory, &e.Mode, &e.Size, &e.File); err != nil {
		if err == sql.ErrNoRows {
			return Entry{}, &sdferrors.NotFound{Kind: "entry", Key: string(name)}
		}
		return Entry{}, sdferrors.StoreError("looking up entry by name", err)
	}
	return e, nil
}

// ListRow pairs a dense, 1-based row number with its entry for use as
// a directory-read resume cookie.
type ListRow struct {
	RowNumber int64
	Entry     Entry
}

// ListGen lazily yields the children of dirFileID ordered by name
// ascending, skipping the first offset rows. row_number is 1-based and
// dense so it can serve directly as a readdir resume cookie.
func (r *Rehydrator) ListGen(ctx context.Context, dirFileID int64, offset int64) iter.Seq2[ListRow, error] {
	return func(yield func(ListRow, error) bool) {
		rows, err := r.db.QueryContext(ctx, `
			SELECT id, directory, name, isdirectory, mode, size, file, rn FROM (
				SELECT *, ROW_NUMBER() OVER (ORDER BY name) AS rn
				FROM entry WHERE directory = ?
			) WHERE rn > ?`, dirFileID, offset)
		if err != nil {
			yield(ListRow{}, sdferrors.StoreError("listing directory", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var lr ListRow
			if err := rows.Scan(&lr.Entry.ID, &lr.Entry.ParentFile, &lr.Entry.Name,
				&lr.Entry.IsDirectory, &lr.Entry.Mode, &lr.Entry.Size, &lr.Entry.File, &lr.RowNumber); err != nil {
				yield(ListRow{}, sdferrors.StoreError("scanning directory row", err))
				return
			}
			if !yield(lr, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(ListRow{}, sdferrors.StoreError("iterating directory listing", err))
		}
	}
}

// contentRow is a Content row relevant to a pread plan.
type contentRow struct {
	rehydrate int64
	offset    int64
	size      int64
	chunk     int64
}

// PRead reads up to size bytes of fileID's content starting at offset,
// returning fewer bytes than requested if the file ends first, never
// an error for that case (spec.md §4.6 edge policy).
func (r *Rehydrator) PRead(ctx context.Context, fileID, offset, size int64) ([]byte, error) {
	out := make([]byte, 0, size)
	for piece, err := range r.PReadGen(ctx, fileID, offset, size) {
		if err != nil {
			return nil, err
		}
		out = append(out, piece...)
	}
	return out, nil
}

// PReadGen lazily yields the byte slices composing a pread plan, in
// offset order, per the preadgen plan in spec.md §4.6.
func (r *Rehydrator) PReadGen(ctx context.Context, fileID, offset, size int64) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if size <= 0 {
			return
		}
		end := offset + size
		rows, err := r.db.QueryContext(ctx, `
			SELECT rehydrate, offset, size, chunk FROM content
			WHERE file = ? AND offset < ? AND offset + size > ?
			ORDER BY offset`, fileID, end, offset)
		if err != nil {
			yield(nil, sdferrors.StoreError("planning pread", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var c contentRow
			if err := rows.Scan(&c.rehydrate, &c.offset, &c.size, &c.chunk); err != nil {
				yield(nil, sdferrors.StoreError("scanning content row", err))
				return
			}
			decoded, err := r.decodeChunk(ctx, c)
			if err != nil {
				yield(nil, err)
				return
			}
			var piece []byte
			if offset <= c.offset && c.offset+c.size <= end {
				piece = decoded
			} else {
				lo := offset - c.offset
				if lo < 0 {
					lo = 0
				}
				hi := end - c.offset
				if hi > c.size {
					hi = c.size
				}
				piece = decoded[lo:hi]
			}
			if !yield(piece, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, sdferrors.StoreError("iterating pread plan", err))
		}
	}
}

func (r *Rehydrator) decodeChunk(ctx context.Context, c contentRow) ([]byte, error) {
	codec, ok := r.codecs[c.rehydrate]
	if !ok {
		return nil, sdferrors.NewIntegrityError(fmt.Sprintf("no codec registered for rehydrate id %d", c.rehydrate), nil)
	}
	row := r.db.QueryRowContext(ctx, `SELECT data FROM chunk WHERE id = ?`, c.chunk)
	var stored []byte
	if err := row.Scan(&stored); err != nil {
		if err == sql.ErrNoRows {
			return nil, sdferrors.NewIntegrityError(fmt.Sprintf("missing chunk body for chunkhash id %d", c.chunk), nil)
		}
		return nil, sdferrors.StoreError("reading chunk body", err)
	}
	return codec.Decode(int(c.size), stored)
}
