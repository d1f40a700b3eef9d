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

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/spraydryfs/spraydryfs/internal/hash"
	"github.com/spraydryfs/spraydryfs/internal/ingest"
	"github.com/spraydryfs/spraydryfs/internal/logging"
	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
	"github.com/spraydryfs/spraydryfs/internal/store"
)

func newIngestCmd() *cobra.Command {
	var (
		rootName, rootVersion   string
		sourcePath              string
		rehydrateName           string
		rehydrateVersion        string
		hashAlgo                string
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a source tree as a new root.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			factory, ok := hash.ByName(hashAlgo)
			if !ok {
				return sdferrors.NewConfigError(fmt.Sprintf("unknown hash algorithm %q", hashAlgo), nil)
			}

			ctx := context.Background()
			w, err := store.OpenWriter(ctx, dbPath)
			if err != nil {
				return err
			}
			defer w.Close()

			cfg, found, err := ingest.LookupRehydrateConfig(ctx, w, rehydrateName, rehydrateVersion)
			if err != nil {
				return err
			}
			if !found {
				return sdferrors.NewConfigError(fmt.Sprintf("unknown rehydrate config %q/%q; use 'train' to create it", rehydrateName, rehydrateVersion), nil)
			}

			ingestor, err := ingest.New(w, cfg, factory, log)
			if err != nil {
				return err
			}

			fileID, err := ingestor.Root(ctx, rootName, rootVersion, sourcePath)
			if err != nil {
				return err
			}
			sizeStr := "unknown size"
			if st, statErr := os.Stat(sourcePath); statErr == nil {
				sizeStr = humanize.Bytes(uint64(st.Size()))
			}
			fmt.Printf("root %s/%s ingested, file id %d, source size %s\n", rootName, rootVersion, fileID, sizeStr)
			return nil
		},
	}
	cmd.Flags().StringVar(&rootName, "root-name", "", "name for the new root")
	cmd.Flags().StringVar(&rootVersion, "root-version", "", "version for the new root")
	cmd.Flags().StringVar(&sourcePath, "path", "", "source tree to ingest")
	cmd.Flags().StringVar(&rehydrateName, "rehydrate-name", "nocompress-fixed", "rehydrate config name to ingest under")
	cmd.Flags().StringVar(&rehydrateVersion, "rehydrate-version", "1", "rehydrate config version to ingest under")
	cmd.Flags().StringVar(&hashAlgo, "hash", "blake3", "hash algorithm: blake3, blake2b-256, xxh3, sha256")
	cmd.MarkFlagRequired("root-name")
	cmd.MarkFlagRequired("root-version")
	cmd.MarkFlagRequired("path")
	return cmd
}
