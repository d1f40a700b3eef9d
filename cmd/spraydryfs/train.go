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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spraydryfs/spraydryfs/internal/algospec"
	"github.com/spraydryfs/spraydryfs/internal/ingest"
	"github.com/spraydryfs/spraydryfs/internal/store"
)

// newTrainCmd creates or verifies a rehydrate config. Dictionary
// *training* itself (building a zstd dictionary from sample chunks)
// is an external collaborator per spec.md §1's non-goals; this
// subcommand only registers the resulting (chunking, codec, dict)
// triple, consuming a dictionary file produced by an outside tool.
func newTrainCmd() *cobra.Command {
	var (
		rehydrateName, rehydrateVersion string
		chunkingSpec, codecSpec        string
		dictFile                       string
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Create or verify a rehydrate configuration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			chunking, err := algospec.Split(chunkingSpec)
			if err != nil {
				return err
			}
			codec, err := algospec.Split(codecSpec)
			if err != nil {
				return err
			}
			var dict []byte
			if dictFile != "" {
				dict, err = os.ReadFile(dictFile)
				if err != nil {
					return err
				}
			}

			ctx := context.Background()
			w, err := store.OpenWriter(ctx, dbPath)
			if err != nil {
				return err
			}
			defer w.Close()

			cfg, err := ingest.EnsureRehydrateConfig(ctx, w, rehydrateName, rehydrateVersion, chunking, codec, dict)
			if err != nil {
				return err
			}
			fmt.Printf("rehydrate config %s/%s ready, id %d (chunking=%q algorithm=%q dict_bytes=%d)\n",
				cfg.Name, cfg.Version, cfg.ID, cfg.ChunkingSpec, cfg.AlgorithmSpec, len(cfg.Dict))
			return nil
		},
	}
	cmd.Flags().StringVar(&rehydrateName, "name", "", "rehydrate config name")
	cmd.Flags().StringVar(&rehydrateVersion, "version", "1", "rehydrate config version")
	cmd.Flags().StringVar(&chunkingSpec, "chunking", "fixed size:0x2000", "chunking spec string")
	cmd.Flags().StringVar(&codecSpec, "codec", "nocompress", "codec spec string")
	cmd.Flags().StringVar(&dictFile, "dict-file", "", "path to a pre-trained dictionary blob")
	cmd.MarkFlagRequired("name")
	return cmd
}
