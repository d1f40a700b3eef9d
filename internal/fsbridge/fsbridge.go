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

// Package fsbridge translates POSIX filesystem operations delivered by
// the kernel's FUSE channel into rehydrator calls, per spec.md §4.7.
// It depends on github.com/hanwen/go-fuse/v2's "fs" node API.
package fsbridge

import (
	"context"
	"encoding/binary"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"go.uber.org/zap"

	"github.com/spraydryfs/spraydryfs/internal/rehydrate"
	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
)

// rootInodeOffset is the reserved kernel root-inode constant. Every
// persisted Entry id maps to kernel inode entry.id + rootInodeOffset,
// and inode 1 itself is reserved for the mount root.
const rootInodeOffset = uint64(fuse.FUSE_ROOT_ID)

// Bridge owns the rehydrator and mount-time identity (uid/gid, root
// selection) shared by every Node in one mount.
type Bridge struct {
	rh   *rehydrate.Rehydrator
	uid  uint32
	gid  uint32
	log  *zap.Logger
	root rehydrate.Entry
}

// New resolves the named, versioned root up front (so a missing root
// fails fast at mount time rather than on first lookup) and returns a
// Bridge ready to build the root fs.InodeEmbedder from.
func New(ctx context.Context, rh *rehydrate.Rehydrator, rootName, rootVersion string, uid, gid uint32, log *zap.Logger) (*Bridge, error) {
	root, err := rh.Root(ctx, rootName, rootVersion)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{rh: rh, uid: uid, gid: gid, log: log, root: root}, nil
}

// RootNode returns the fs.InodeEmbedder to pass to fs.Mount as the
// filesystem root.
func (b *Bridge) RootNode() fs.InodeEmbedder {
	return &Node{bridge: b, isRoot: true}
}

// Node is one kernel inode: either the synthesised mount root or a
// persisted Entry. Nodes are stateless handles into the immutable
// store; inode-as-handle means Open never allocates anything beyond
// the entry id itself.
type Node struct {
	fs.Inode

	bridge *Bridge

	isRoot  bool
	entryID int64 // valid when !isRoot
}

var (
	_ fs.NodeGetattrer  = (*Node)(nil)
	_ fs.NodeLookuper   = (*Node)(nil)
	_ fs.NodeOpendirer  = (*Node)(nil)
	_ fs.NodeReaddirer  = (*Node)(nil)
	_ fs.NodeOpener     = (*Node)(nil)
	_ fs.NodeReader     = (*Node)(nil)
)

// attrs resolves this node's (isDirectory, modeBytes, size, fileID)
// quadruple, the common lookup underlying getattr/opendir/open/read.
func (n *Node) attrs(ctx context.Context) (isDir bool, mode []byte, size int64, fileID int64, err error) {
	if n.isRoot {
		r := n.bridge.root
		return r.IsDirectory, r.Mode, r.Size, r.File, nil
	}
	e, err := n.bridge.rh.Attributes(ctx, n.entryID)
	if err != nil {
		return false, nil, 0, 0, err
	}
	return e.IsDirectory, e.Mode, e.Size, e.File, nil
}

func (n *Node) Getattr(ctx context.Context, _ fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	_, mode, size, _, err := n.attrs(ctx)
	if err != nil {
		return toErrno(err)
	}
	full, _ := decodeMode(mode)
	out.Attr.Mode = full
	out.Attr.Size = uint64(size)
	out.Attr.Uid = n.bridge.uid
	out.Attr.Gid = n.bridge.gid
	out.Attr.Atime, out.Attr.Mtime, out.Attr.Ctime = 0, 0, 0
	return 0
}

func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	_, _, _, dirFileID, err := n.attrs(ctx)
	if err != nil {
		return nil, toErrno(err)
	}
	child, err := n.bridge.rh.Entry(ctx, dirFileID, []byte(name))
	if err != nil {
		return nil, toErrno(err)
	}
	full, typ := decodeMode(child.Mode)
	out.Attr.Mode = full
	out.Attr.Size = uint64(child.Size)
	out.Attr.Uid = n.bridge.uid
	out.Attr.Gid = n.bridge.gid
	stable := fs.StableAttr{Mode: typ, Ino: uint64(child.ID) + rootInodeOffset}
	childNode := &Node{bridge: n.bridge, entryID: child.ID}
	return n.NewInode(ctx, childNode, stable), 0
}

func (n *Node) Opendir(ctx context.Context) syscall.Errno {
	isDir, _, _, _, err := n.attrs(ctx)
	if err != nil {
		return toErrno(err)
	}
	if !isDir {
		return syscall.ENOTDIR
	}
	return 0
}

func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	_, _, _, dirFileID, err := n.attrs(ctx)
	if err != nil {
		return nil, toErrno(err)
	}
	return newDirStream(ctx, n.bridge, dirFileID), 0
}

func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, toErrno(&sdferrors.AccessDenied{Detail: "read-only filesystem"})
	}
	if _, _, _, _, err := n.attrs(ctx); err != nil {
		return nil, 0, toErrno(err)
	}
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *Node) Read(ctx context.Context, _ fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	_, _, _, fileID, err := n.attrs(ctx)
	if err != nil {
		return nil, toErrno(err)
	}
	data, err := n.bridge.rh.PRead(ctx, fileID, off, int64(len(dest)))
	if err != nil {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(data), 0
}

// decodeMode splits a stored little-endian raw POSIX mode into the
// full mode (type + permission bits, for Attr.Mode) and the type bits
// alone (for fs.StableAttr.Mode).
func decodeMode(mode []byte) (full uint32, typeBits uint32) {
	if len(mode) < 2 {
		return 0, 0
	}
	full = uint32(binary.LittleEndian.Uint16(mode))
	return full, full & syscall.S_IFMT
}

// toErrno maps the core error taxonomy onto FUSE errno values, per
// spec.md §7's propagation policy: NotFound -> ENOENT,
// AccessDenied -> EACCES, everything else -> EIO.
func toErrno(err error) syscall.Errno {
	switch err.(type) {
	case *sdferrors.NotFound:
		return syscall.ENOENT
	case *sdferrors.AccessDenied:
		return syscall.EACCES
	default:
		return syscall.EIO
	}
}
