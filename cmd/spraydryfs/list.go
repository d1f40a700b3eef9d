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
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/spraydryfs/spraydryfs/internal/rehydrate"
)

// newListCmd exposes the introspection the original implementation
// provided for operators (rehydrators()/roots()), printed as JSON the
// same way __main__.py's default mode does:
// json.dumps({'root': roots, 'rehydrate': rehydrators}, indent=2).
func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rehydrate configs and roots in a database, as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rh, err := rehydrate.Open(ctx, dbPath, 0)
			if err != nil {
				return err
			}
			defer rh.Close()

			roots, err := rh.Roots(ctx)
			if err != nil {
				return err
			}
			configs, err := rh.Rehydrators(ctx)
			if err != nil {
				return err
			}
			return emitJSON(map[string]any{"root": roots, "rehydrate": configs})
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "roots",
		Short: "List named, versioned roots, as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rh, err := rehydrate.Open(ctx, dbPath, 0)
			if err != nil {
				return err
			}
			defer rh.Close()
			roots, err := rh.Roots(ctx)
			if err != nil {
				return err
			}
			return emitJSON(roots)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "configs",
		Short: "List rehydrate configurations, as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rh, err := rehydrate.Open(ctx, dbPath, 0)
			if err != nil {
				return err
			}
			defer rh.Close()
			configs, err := rh.Rehydrators(ctx)
			if err != nil {
				return err
			}
			return emitJSON(configs)
		},
	})
	return cmd
}

func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
