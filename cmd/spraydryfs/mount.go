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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spraydryfs/spraydryfs/internal/fsbridge"
	"github.com/spraydryfs/spraydryfs/internal/logging"
	"github.com/spraydryfs/spraydryfs/internal/rehydrate"
)

func newMountCmd() *cobra.Command {
	var (
		rootName, rootVersion string
		mountpoint            string
		mmapSize              int64
		debugFUSE             bool
	)
	cmd := &cobra.Command{
		Use:   "mount",
		Short: "Mount a root as a read-only FUSE filesystem.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := context.Background()
			rh, err := rehydrate.Open(ctx, dbPath, mmapSize)
			if err != nil {
				return err
			}
			defer rh.Close()

			bridge, err := fsbridge.New(ctx, rh, rootName, rootVersion, uint32(os.Getuid()), uint32(os.Getgid()), log)
			if err != nil {
				return err
			}

			server, err := fsbridge.Mount(bridge, mountpoint, debugFUSE)
			if err != nil {
				return err
			}
			log.Info("mounted", zap.String("mountpoint", mountpoint), zap.String("root", rootName), zap.String("version", rootVersion))

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigs
				server.Unmount()
			}()
			server.Wait()
			return nil
		},
	}
	cmd.Flags().StringVar(&rootName, "root-name", "", "name of the root to mount")
	cmd.Flags().StringVar(&rootVersion, "root-version", "", "version of the root to mount")
	cmd.Flags().StringVar(&mountpoint, "mountpoint", "", "directory to mount onto")
	cmd.Flags().Int64Var(&mmapSize, "mmap-size", 0, "memory-mapped region size for the reader connection, 0 to disable")
	cmd.Flags().BoolVar(&debugFUSE, "debug-fuse", false, "enable go-fuse request tracing")
	cmd.MarkFlagRequired("root-name")
	cmd.MarkFlagRequired("root-version")
	cmd.MarkFlagRequired("mountpoint")
	return cmd
}
