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

package ingest

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spraydryfs/spraydryfs/internal/hash"
	"github.com/spraydryfs/spraydryfs/internal/rehydrate"
	"github.com/spraydryfs/spraydryfs/internal/store"
)

func TestRootIngestAndPRead(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	w, err := store.OpenWriter(ctx, dbPath)
	require.NoError(t, err)
	cfg, found, err := LookupRehydrateConfig(ctx, w, "nocompress-fixed", "1")
	require.NoError(t, err)
	require.True(t, found)
	ing, err := New(w, cfg, hash.Blake3, nil)
	require.NoError(t, err)

	srcPath := filepath.Join(dir, "abc.txt")
	require.NoError(t, os.WriteFile(srcPath, []byte("abc"), 0o644))

	fileID, err := ing.Root(ctx, "root1", "v1", srcPath)
	require.NoError(t, err)
	w.Close()

	rh, err := rehydrate.Open(ctx, dbPath, 0)
	require.NoError(t, err)
	defer rh.Close()

	got, err := rh.PRead(ctx, fileID, 0, 10)
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)
}

func TestRootDuplicateRejected(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w, ing := openTestIngestorAt(t, ctx, dir, "nocompress-fixed")
	defer w.Close()
	srcPath := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(srcPath, []byte("hello"), 0o644))

	_, err := ing.Root(ctx, "dup", "1", srcPath)
	require.NoError(t, err)
	_, err = ing.Root(ctx, "dup", "1", srcPath)
	require.Error(t, err)
}

func openTestIngestorAt(t *testing.T, ctx context.Context, dir, rehydrateName string) (*store.Writer, *Ingestor) {
	t.Helper()
	w, err := store.OpenWriter(ctx, filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	cfg, found, err := LookupRehydrateConfig(ctx, w, rehydrateName, "1")
	require.NoError(t, err)
	require.True(t, found)
	ing, err := New(w, cfg, hash.Blake3, nil)
	require.NoError(t, err)
	return w, ing
}

func TestDirectoryHashIsPureFunctionOfSortedChildren(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w, ing := openTestIngestorAt(t, ctx, dir, "nocompress-fixed")
	defer w.Close()

	srcDir := filepath.Join(dir, "a")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "x"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "y"), []byte("22"), 0o644))

	fileID, err := ing.Root(ctx, "dirroot", "1", srcDir)
	require.NoError(t, err)

	var gotHash []byte
	row := w.Conn().QueryRowContext(ctx, `SELECT hash FROM file WHERE id = ?`, fileID)
	require.NoError(t, row.Scan(&gotHash))

	running := hash.Blake3.New()
	children := []string{"x", "y"}
	sort.Strings(children)
	for _, name := range children {
		content, err := os.ReadFile(filepath.Join(srcDir, name))
		require.NoError(t, err)
		childHash := store.FormatHash("blake3", hash.Blake3.New().Update(content).Sum())
		info, err := os.Lstat(filepath.Join(srcDir, name))
		require.NoError(t, err)
		mb := modeBytes(info)
		segment := append([]byte{0x00}, childHash...)
		segment = append(segment, mb...)
		segment = append(segment, []byte(hex.EncodeToString([]byte(name)))...)
		running.Update(segment)
	}
	wantHash := store.FormatHash("blake3", running.Sum())
	require.Equal(t, wantHash, gotHash)
}

func TestDeduplicatesIdenticalFileContent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w, ing := openTestIngestorAt(t, ctx, dir, "nocompress-fixed")
	defer w.Close()

	srcDir := filepath.Join(dir, "d")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	content := make([]byte, 5000)
	for i := range content {
		content[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.bin"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "b.bin"), content, 0o644))

	_, err := ing.Root(ctx, "deduproot", "1", srcDir)
	require.NoError(t, err)

	var chunkCount int
	row := w.Conn().QueryRowContext(ctx, `SELECT count(*) FROM chunkhash`)
	require.NoError(t, row.Scan(&chunkCount))

	var fileCount int
	row = w.Conn().QueryRowContext(ctx, `SELECT count(*) FROM file WHERE id IN (SELECT file FROM entry)`)
	require.NoError(t, row.Scan(&fileCount))
	require.Equal(t, 1, fileCount, "identical file content must dedup to a single File row")

	// With a 0x2000-byte fixed chunker over a 5000-byte file there are
	// ceil(5000/0x2000)=1 chunk; both identical files must share it.
	require.Equal(t, 1, chunkCount)
}

func TestPReadRoundTripAndBoundaries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	w, err := store.OpenWriter(ctx, dbPath)
	require.NoError(t, err)
	cfg, found, err := LookupRehydrateConfig(ctx, w, "nocompress-fixed", "1")
	require.NoError(t, err)
	require.True(t, found)
	ing, err := New(w, cfg, hash.Blake3, nil)
	require.NoError(t, err)

	content := make([]byte, 50000)
	for i := range content {
		content[i] = byte(i % 256)
	}
	srcPath := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(srcPath, content, 0o644))
	fileID, err := ing.Root(ctx, "bigroot", "1", srcPath)
	require.NoError(t, err)
	w.Close()

	rh, err := rehydrate.Open(ctx, dbPath, 0)
	require.NoError(t, err)
	defer rh.Close()

	full, err := rh.PRead(ctx, fileID, 0, int64(len(content)))
	require.NoError(t, err)
	require.Equal(t, content, full)

	mid, err := rh.PRead(ctx, fileID, 100, 9000)
	require.NoError(t, err)
	require.Equal(t, content[100:9100], mid)

	// Read past EOF: fewer bytes than requested, never an error.
	tail, err := rh.PRead(ctx, fileID, int64(len(content))-10, 1000)
	require.NoError(t, err)
	require.Equal(t, content[len(content)-10:], tail)

	empty, err := rh.PRead(ctx, fileID, int64(len(content))+5, 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}
