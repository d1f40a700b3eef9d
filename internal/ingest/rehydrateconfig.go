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
	"database/sql"
	"fmt"

	"github.com/spraydryfs/spraydryfs/internal/algospec"
	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
	"github.com/spraydryfs/spraydryfs/internal/store"
)

// RehydrateConfig is a resolved (name, version) rehydrate row.
type RehydrateConfig struct {
	ID            int64
	Name          string
	Version       string
	ChunkingSpec  string
	AlgorithmSpec string
	Dict          []byte
}

// LookupRehydrateConfig fetches an existing rehydrate row by name and
// version, returning (zero value, false, nil) if absent.
func LookupRehydrateConfig(ctx context.Context, w *store.Writer, name, version string) (RehydrateConfig, bool, error) {
	row := w.Conn().QueryRowContext(ctx,
		`SELECT id, chunking, algorithm, data FROM rehydrate WHERE name = ? AND version = ?`,
		name, version)
	var cfg RehydrateConfig
	cfg.Name, cfg.Version = name, version
	if err := row.Scan(&cfg.ID, &cfg.ChunkingSpec, &cfg.AlgorithmSpec, &cfg.Dict); err != nil {
		if err == sql.ErrNoRows {
			return RehydrateConfig{}, false, nil
		}
		return RehydrateConfig{}, false, sdferrors.StoreError("looking up rehydrate config", err)
	}
	return cfg, true, nil
}

// EnsureRehydrateConfig looks up (name, version); if absent, it is
// created with the given chunking/algorithm specs and dictionary. If
// present, the stored specs must match what the caller asked for
// (mirroring the original implementation's assertion that an existing
// config cannot silently diverge from a caller's expectations).
func EnsureRehydrateConfig(ctx context.Context, w *store.Writer, name, version string, chunking, codec algospec.Spec, dict []byte) (RehydrateConfig, error) {
	existing, found, err := LookupRehydrateConfig(ctx, w, name, version)
	if err != nil {
		return RehydrateConfig{}, err
	}
	chunkingStr := algospec.Join(chunking)
	codecStr := algospec.Join(codec)
	if found {
		if existing.ChunkingSpec != chunkingStr || existing.AlgorithmSpec != codecStr {
			return RehydrateConfig{}, sdferrors.NewConfigError(
				fmt.Sprintf("rehydrate config %q/%q exists with different chunking/algorithm specs (%q/%q != %q/%q)",
					name, version, existing.ChunkingSpec, existing.AlgorithmSpec, chunkingStr, codecStr), nil)
		}
		return existing, nil
	}
	row := w.Conn().QueryRowContext(ctx,
		`INSERT INTO rehydrate (name, version, chunking, algorithm, data) VALUES (?,?,?,?,?) RETURNING id`,
		name, version, chunkingStr, codecStr, dict)
	var id int64
	if err := row.Scan(&id); err != nil {
		return RehydrateConfig{}, sdferrors.StoreError("inserting rehydrate config", err)
	}
	return RehydrateConfig{ID: id, Name: name, Version: version, ChunkingSpec: chunkingStr, AlgorithmSpec: codecStr, Dict: dict}, nil
}
