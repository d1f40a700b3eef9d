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

package fsbridge

import (
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
)

// Mount mounts b's root at mountpoint with read-only, single-threaded
// semantics (spec.md §5's single-threaded cooperative scheduling model
// for the FS bridge). debug enables go-fuse's own request trace.
func Mount(b *Bridge, mountpoint string, debug bool) (*fuse.Server, error) {
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{
			FsName:        "spraydryfs",
			Name:          "spraydryfs",
			Debug:         debug,
			Options:       []string{"ro"},
			SingleThreaded: true,
		},
	}
	server, err := fs.Mount(mountpoint, b.RootNode(), opts)
	if err != nil {
		return nil, sdferrors.StoreError("mounting "+mountpoint, err)
	}
	return server, nil
}
