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
	"context"
	"iter"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/spraydryfs/spraydryfs/internal/rehydrate"
)

// dirStream adapts rehydrate.ListGen's lazy (row, err) sequence to
// go-fuse's pull-based fs.DirStream, starting from row_number 0 (the
// beginning of the listing) on every Readdir.
type dirStream struct {
	bridge *Bridge
	next   func() (rehydrate.ListRow, error, bool)
	stop   func()

	pending rehydrate.ListRow
	err     error
	has     bool
}

func newDirStream(ctx context.Context, b *Bridge, dirFileID int64) *dirStream {
	next, stop := iter.Pull2(b.rh.ListGen(ctx, dirFileID, 0))
	return &dirStream{bridge: b, next: next, stop: stop}
}

func (d *dirStream) HasNext() bool {
	if d.has {
		return true
	}
	row, err, ok := d.next()
	if !ok {
		return false
	}
	d.pending, d.err, d.has = row, err, true
	return true
}

func (d *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if !d.HasNext() {
		return fuse.DirEntry{}, syscall.ENOENT
	}
	row, err := d.pending, d.err
	d.has = false
	if err != nil {
		return fuse.DirEntry{}, toErrno(err)
	}
	_, typ := decodeMode(row.Entry.Mode)
	return fuse.DirEntry{
		Name: string(row.Entry.Name),
		Ino:  uint64(row.Entry.ID) + rootInodeOffset,
		Mode: typ,
	}, 0
}

func (d *dirStream) Close() {
	d.stop()
}
