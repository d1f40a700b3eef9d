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

// Package ingest implements the spray-dry pipeline: walking a source
// tree, driving the chunker/codec/hasher, and writing the
// content-addressed graph under nested savepoints.
package ingest

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/edsrzf/mmap-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spraydryfs/spraydryfs/internal/algospec"
	"github.com/spraydryfs/spraydryfs/internal/dryer"
	"github.com/spraydryfs/spraydryfs/internal/hash"
	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
	"github.com/spraydryfs/spraydryfs/internal/spray"
	"github.com/spraydryfs/spraydryfs/internal/store"
)

// Ingestor walks a source tree and writes it into a rehydrate config's
// content-addressed graph, per spec.md §4.5.
type Ingestor struct {
	w           *store.Writer
	hasher      hash.Factory
	chunker     spray.Chunker
	codec       dryer.Codec
	rehydrateID int64
	log         *zap.Logger
}

// New builds an Ingestor bound to a resolved rehydrate configuration.
func New(w *store.Writer, cfg RehydrateConfig, hasher hash.Factory, log *zap.Logger) (*Ingestor, error) {
	chunkSpec, err := algospec.Split(cfg.ChunkingSpec)
	if err != nil {
		return nil, err
	}
	chunker, err := spray.New(chunkSpec)
	if err != nil {
		return nil, err
	}
	codecSpec, err := algospec.Split(cfg.AlgorithmSpec)
	if err != nil {
		return nil, err
	}
	codec, err := dryer.New(codecSpec, cfg.Dict)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingestor{w: w, hasher: hasher, chunker: chunker, codec: codec, rehydrateID: cfg.ID, log: log}, nil
}

// Root ingests path as a new root (name, version), failing with
// DuplicateRoot if that pair already exists. The whole operation runs
// inside one top-level transaction, per spec.md §4.1.
func (ing *Ingestor) Root(ctx context.Context, name, version, path string) (int64, error) {
	var dummy int
	row := ing.w.Conn().QueryRowContext(ctx, `SELECT 1 FROM root WHERE name = ? AND version = ?`, name, version)
	switch err := row.Scan(&dummy); err {
	case nil:
		return 0, &sdferrors.DuplicateRoot{Name: name, Version: version}
	case sql.ErrNoRows:
		// fall through
	default:
		return 0, sdferrors.StoreError("checking for existing root", err)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return 0, sdferrors.StoreError("resolving root path "+path, err)
	}

	if err := ing.w.Begin(ctx); err != nil {
		return 0, err
	}
	fileID, fileHash, info, dup, err := ing.dry(ctx, resolved)
	if err != nil {
		_ = ing.w.Rollback(ctx)
		return 0, err
	}
	if dup {
		ing.log.Info("root content matches an existing file, row reused",
			zap.Error(&sdferrors.DuplicateFile{Hash: string(fileHash), ExistingID: fileID}))
	}

	_, err = ing.w.Conn().ExecContext(ctx,
		`INSERT INTO root (name, version, isdirectory, mode, size, file) VALUES (?,?,?,?,?,?)`,
		name, version, info.IsDir(), modeBytes(info), info.Size(), fileID)
	if err != nil {
		_ = ing.w.Rollback(ctx)
		return 0, sdferrors.StoreError("inserting root row", err)
	}
	if err := ing.w.Commit(ctx); err != nil {
		return 0, err
	}
	ing.log.Info("root ingested", zap.String("name", name), zap.String("version", version),
		zap.Int64("file_id", fileID), zap.ByteString("hash", fileHash))
	return fileID, nil
}

// dry dispatches on POSIX type, following symlinks to their target
// (os.Stat, not os.Lstat) so a symlinked file or directory is ingested
// as whatever it resolves to: directories recurse through
// dryDirectory, regular files through dryFile, anything else fails
// with UnsupportedFileType. The fourth return value reports whether an
// existing row was reused (DuplicateFile recovered locally).
func (ing *Ingestor) dry(ctx context.Context, path string) (id int64, fileHash []byte, info fs.FileInfo, dup bool, err error) {
	info, err = os.Stat(path)
	if err != nil {
		return 0, nil, nil, false, sdferrors.StoreError("stat "+path, err)
	}
	switch {
	case info.Mode().IsDir():
		id, fileHash, dup, err = ing.dryDirectory(ctx, path, info)
	case info.Mode().IsRegular():
		id, fileHash, dup, err = ing.dryFile(ctx, path, info)
	default:
		err = &sdferrors.UnsupportedFileType{Path: path, Mode: info.Mode().String()}
	}
	return id, fileHash, info, dup, err
}

// dryFile implements spec.md §4.5's dry_file: preliminary row, mapped
// chunk iteration, running file hash, final-hash dedup.
func (ing *Ingestor) dryFile(ctx context.Context, path string, info fs.FileInfo) (int64, []byte, bool, error) {
	sp := savepointName(path)
	if err := ing.w.Savepoint(ctx, sp); err != nil {
		return 0, nil, false, err
	}

	fileID, err := ing.insertPreliminary(ctx, path)
	if err != nil {
		return 0, nil, false, err
	}

	running := ing.hasher.New()
	if err := ing.chunkFile(ctx, path, info, fileID, running); err != nil {
		return 0, nil, false, err
	}

	return ing.finalize(ctx, sp, fileID, running.Sum())
}

func (ing *Ingestor) chunkFile(ctx context.Context, path string, info fs.FileInfo, fileID int64, running hash.Hasher) error {
	if info.Size() == 0 {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return sdferrors.StoreError("opening "+path, err)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return sdferrors.StoreError("mmap "+path, err)
	}
	defer m.Unmap()

	for offset, chunk := range ing.chunker.Chunks([]byte(m)) {
		running.Update(chunk)
		chunkID, err := ing.storeChunk(ctx, chunk)
		if err != nil {
			return err
		}
		_, err = ing.w.Conn().ExecContext(ctx,
			`INSERT INTO content (file, rehydrate, offset, size, chunk) VALUES (?,?,?,?,?)`,
			fileID, ing.rehydrateID, offset, len(chunk), chunkID)
		if err != nil {
			return sdferrors.StoreError("inserting content row", err)
		}
	}
	return nil
}

// storeChunk implements spec.md §4.5's store_chunk: insert-or-ignore on
// the logical chunk hash, writing the encoded body exactly once.
func (ing *Ingestor) storeChunk(ctx context.Context, chunk []byte) (int64, error) {
	digest := store.FormatHash(ing.hasher.Name(), ing.hasher.New().Update(chunk).Sum())
	res, err := ing.w.Conn().ExecContext(ctx,
		`INSERT OR IGNORE INTO chunkhash (rehydrate, size, data) VALUES (?,?,?)`,
		ing.rehydrateID, len(chunk), digest)
	if err != nil {
		return 0, sdferrors.StoreError("inserting chunkhash row", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, sdferrors.StoreError("reading chunkhash insert result", err)
	}
	if affected == 0 {
		row := ing.w.Conn().QueryRowContext(ctx,
			`SELECT id FROM chunkhash WHERE rehydrate = ? AND data = ?`, ing.rehydrateID, digest)
		var id int64
		if err := row.Scan(&id); err != nil {
			return 0, sdferrors.StoreError("looking up existing chunkhash row", err)
		}
		return id, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, sdferrors.StoreError("reading chunkhash insert id", err)
	}
	encoded, err := ing.codec.Encode(chunk)
	if err != nil {
		return 0, err
	}
	if _, err := ing.w.Conn().ExecContext(ctx,
		`INSERT INTO chunk (id, data) VALUES (?,?)`, id, encoded); err != nil {
		return 0, sdferrors.StoreError("inserting chunk body", err)
	}
	return id, nil
}

// dryDirectory implements spec.md §4.5's dry_directory: children are
// visited in sorted name order, each contributing an entry_segment to
// the directory's running hash and an Entry row.
func (ing *Ingestor) dryDirectory(ctx context.Context, path string, _ fs.FileInfo) (int64, []byte, bool, error) {
	sp := savepointName(path)
	if err := ing.w.Savepoint(ctx, sp); err != nil {
		return 0, nil, false, err
	}

	fileID, err := ing.insertPreliminary(ctx, path)
	if err != nil {
		return 0, nil, false, err
	}

	children, err := os.ReadDir(path)
	if err != nil {
		return 0, nil, false, sdferrors.StoreError("reading directory "+path, err)
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name() < children[j].Name() })

	running := ing.hasher.New()
	for _, child := range children {
		childPath := filepath.Join(path, child.Name())
		childInfo, err := os.Stat(childPath)
		if err != nil {
			return 0, nil, false, sdferrors.StoreError("stat "+childPath, err)
		}
		childID, childHash, _, _, err := ing.dry(ctx, childPath)
		if err != nil {
			return 0, nil, false, err
		}

		nameBytes := []byte(child.Name())
		mb := modeBytes(childInfo)
		segment := make([]byte, 0, 1+len(childHash)+len(mb)+len(nameBytes)*2)
		segment = append(segment, 0x00)
		segment = append(segment, childHash...)
		segment = append(segment, mb...)
		segment = append(segment, []byte(hex.EncodeToString(nameBytes))...)
		running.Update(segment)

		_, err = ing.w.Conn().ExecContext(ctx,
			`INSERT INTO entry (directory, name, isdirectory, mode, size, file) VALUES (?,?,?,?,?,?)`,
			fileID, nameBytes, childInfo.IsDir(), mb, childInfo.Size(), childID)
		if err != nil {
			return 0, nil, false, sdferrors.StoreError("inserting entry row", err)
		}
	}

	return ing.finalize(ctx, sp, fileID, running.Sum())
}

func (ing *Ingestor) insertPreliminary(ctx context.Context, path string) (int64, error) {
	pathDigest := ing.hasher.New().Update([]byte(path)).Sum()
	prelim := store.FormatPreliminaryHash(ing.hasher.Name(), pathDigest)
	row := ing.w.Conn().QueryRowContext(ctx,
		`INSERT INTO file (hash, rehydrate) VALUES (?,?) RETURNING id`, prelim, ing.rehydrateID)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, sdferrors.StoreError("inserting preliminary file row", err)
	}
	return id, nil
}

// finalize implements the shared tail of dry_file/dry_directory: on a
// final-hash collision, the savepoint is rolled back and the existing
// row's id is reused; otherwise the preliminary row is finalized and
// the savepoint released.
func (ing *Ingestor) finalize(ctx context.Context, sp string, fileID int64, digest []byte) (int64, []byte, bool, error) {
	finalHash := store.FormatHash(ing.hasher.Name(), digest)

	row := ing.w.Conn().QueryRowContext(ctx,
		`SELECT id FROM file WHERE hash = ? AND rehydrate = ?`, finalHash, ing.rehydrateID)
	var existingID int64
	switch err := row.Scan(&existingID); err {
	case nil:
		if err := ing.w.RollbackTo(ctx, sp); err != nil {
			return 0, nil, false, err
		}
		return existingID, finalHash, true, nil
	case sql.ErrNoRows:
		// fall through to finalize the preliminary row
	default:
		return 0, nil, false, sdferrors.StoreError("checking final hash for dedup", err)
	}

	if _, err := ing.w.Conn().ExecContext(ctx,
		`UPDATE file SET hash = ? WHERE id = ?`, finalHash, fileID); err != nil {
		return 0, nil, false, sdferrors.StoreError("finalizing file hash", err)
	}
	if err := ing.w.Release(ctx, sp); err != nil {
		return 0, nil, false, err
	}
	return fileID, finalHash, false, nil
}

// modeBytes extracts the low 16 bits of the raw POSIX stat mode, little
// endian, per spec.md §4.5. Falls back to the portable fs.FileMode bits
// when the platform does not expose a syscall.Stat_t.
func modeBytes(info fs.FileInfo) []byte {
	var raw uint32
	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		raw = uint32(sys.Mode)
	} else {
		raw = uint32(info.Mode())
	}
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(raw))
	return b
}

// savepointName derives a deterministic SAVEPOINT identifier from path
// so a recursive descent never collides with an ancestor's savepoint.
// Only falls back to a random identifier when no path is available.
func savepointName(path string) string {
	if path == "" {
		return "sp_" + uuidHex()
	}
	return fmt.Sprintf("sp_%08x", crc32.ChecksumIEEE([]byte(path)))
}

func uuidHex() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
