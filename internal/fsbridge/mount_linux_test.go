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

//go:build linux_fuse_integration

// This file requires a real /dev/fuse and is excluded from normal test
// runs; it only builds and runs under the linux_fuse_integration tag
// with SPRAYDRYFS_FUSE_IT=1, e.g. in a CI job with FUSE available.
package fsbridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spraydryfs/spraydryfs/internal/hash"
	"github.com/spraydryfs/spraydryfs/internal/ingest"
	"github.com/spraydryfs/spraydryfs/internal/rehydrate"
	"github.com/spraydryfs/spraydryfs/internal/store"
)

func TestMountAndReadFile(t *testing.T) {
	if os.Getenv("SPRAYDRYFS_FUSE_IT") != "1" {
		t.Skip("set SPRAYDRYFS_FUSE_IT=1 to run FUSE mount integration tests")
	}

	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	w, err := store.OpenWriter(ctx, dbPath)
	require.NoError(t, err)

	cfg, found, err := ingest.LookupRehydrateConfig(ctx, w, "nocompress-fixed", "1")
	require.NoError(t, err)
	require.True(t, found)
	ingestor, err := ingest.New(w, cfg, hash.Blake3, nil)
	require.NoError(t, err)

	srcDir := filepath.Join(dir, "root")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "hello.txt"), []byte("hello, spraydryfs"), 0o644))
	_, err = ingestor.Root(ctx, "mountroot", "1", srcDir)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	rh, err := rehydrate.Open(ctx, dbPath, 0)
	require.NoError(t, err)
	defer rh.Close()

	bridge, err := New(ctx, rh, "mountroot", "1", uint32(os.Getuid()), uint32(os.Getgid()), nil)
	require.NoError(t, err)

	mountpoint := t.TempDir()
	server, err := Mount(bridge, mountpoint, false)
	require.NoError(t, err)
	defer server.Unmount()

	got, err := os.ReadFile(filepath.Join(mountpoint, "hello.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello, spraydryfs", string(got))
}
