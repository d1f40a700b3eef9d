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

// Command spraydryfs is the CLI collaborator spec.md §6 describes:
// it parses one sub-operation (mount | ingest | train | list), does
// argument validation and logging setup, and delivers typed config
// into the core packages.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath  string
	verbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "spraydryfs",
		Short: "A read-only, content-addressed archival filesystem.",
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SprayDryFS SQLite database")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.MarkPersistentFlagRequired("db")

	root.AddCommand(newMountCmd())
	root.AddCommand(newIngestCmd())
	root.AddCommand(newTrainCmd())
	root.AddCommand(newListCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
