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

package rehydrate

import (
	"context"

	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
)

// RehydrateConfigInfo summarises a rehydrate config row for the `list`
// CLI subcommand, without exposing the raw dictionary bytes.
type RehydrateConfigInfo struct {
	ID       int64
	Name     string
	Version  string
	Chunking string
	Codec    string
	DictSize int
}

// Rehydrators lists every rehydrate config in the store, supplementing
// the core read path with the introspection the original
// implementation exposed for operators inspecting a database.
func (r *Rehydrator) Rehydrators(ctx context.Context) ([]RehydrateConfigInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, version, chunking, algorithm, length(data) FROM rehydrate ORDER BY id`)
	if err != nil {
		return nil, sdferrors.StoreError("listing rehydrate configs", err)
	}
	defer rows.Close()
	var out []RehydrateConfigInfo
	for rows.Next() {
		var info RehydrateConfigInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Version, &info.Chunking, &info.Codec, &info.DictSize); err != nil {
			return nil, sdferrors.StoreError("scanning rehydrate config row", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// RootInfo summarises a root row for the `list` CLI subcommand.
type RootInfo struct {
	Name        string
	Version     string
	IsDirectory bool
	Size        int64
	File        int64
}

// Roots lists every named, versioned root in the store.
func (r *Rehydrator) Roots(ctx context.Context) ([]RootInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, version, isdirectory, size, file FROM root ORDER BY name, version`)
	if err != nil {
		return nil, sdferrors.StoreError("listing roots", err)
	}
	defer rows.Close()
	var out []RootInfo
	for rows.Next() {
		var info RootInfo
		if err := rows.Scan(&info.Name, &info.Version, &info.IsDirectory, &info.Size, &info.File); err != nil {
			return nil, sdferrors.StoreError("scanning root row", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
