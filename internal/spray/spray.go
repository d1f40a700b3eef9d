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

// Package spray implements the content-defined and fixed-size chunkers
// ("sprayers") that split a mapped file's bytes into (offset, chunk)
// pairs for the ingest pipeline.
package spray

import (
	"fmt"
	"hash/crc32"
	"iter"

	"github.com/spraydryfs/spraydryfs/internal/algospec"
	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
)

// Chunker lazily splits data into (offset, chunk) pairs. Implementations
// must not retain data beyond the lifetime of a single Chunks call;
// callers that need the bytes past the iteration should copy them.
type Chunker interface {
	// Chunks yields (offset, chunk) pairs over data in ascending,
	// non-overlapping, contiguous offset order covering [0, len(data)).
	Chunks(data []byte) iter.Seq2[int64, []byte]
}

// Spec returns the canonical algospec.Spec describing this chunker, for
// persistence into the rehydrate.chunking column.
type Describable interface {
	Spec() algospec.Spec
}

// Default parameters, matching the seeded "nocompress-fixed" and
// "nocompress-crc32" rehydrate configs.
const (
	DefaultFixedSize   = 0x2000
	DefaultInitializer = 0xfacade00
	DefaultCutoff      = 0x000a0000
	DefaultMin         = 0x0800
	DefaultMax         = 0x4000
)

// New builds a Chunker from a parsed algospec.Spec.
func New(s algospec.Spec) (Chunker, error) {
	switch s.Algorithm {
	case "fixed":
		return NewFixed(algospec.Uint(s, "size", DefaultFixedSize)), nil
	case "crc32":
		return NewCRC32(
			uint32(algospec.Uint(s, "initializer", DefaultInitializer)),
			uint32(algospec.Uint(s, "cutoff", DefaultCutoff)),
			uint32(algospec.Uint(s, "min", DefaultMin)),
			uint32(algospec.Uint(s, "max", DefaultMax)),
		), nil
	default:
		return nil, sdferrors.NewConfigError(fmt.Sprintf("unsupported spraying algorithm %q", s.Algorithm), nil)
	}
}

// Fixed splits data into chunks of exactly Size bytes, the last one
// possibly short.
type Fixed struct {
	Size uint64
}

// NewFixed builds a Fixed chunker.
func NewFixed(size uint64) *Fixed {
	return &Fixed{Size: size}
}

func (f *Fixed) Spec() algospec.Spec {
	return algospec.Spec{Algorithm: "fixed", Params: map[string]any{"size": f.Size}}
}

func (f *Fixed) Chunks(data []byte) iter.Seq2[int64, []byte] {
	size := f.Size
	if size == 0 {
		size = DefaultFixedSize
	}
	return func(yield func(int64, []byte) bool) {
		for offset := uint64(0); offset < uint64(len(data)); offset += size {
			end := offset + size
			if end > uint64(len(data)) {
				end = uint64(len(data))
			}
			if !yield(int64(offset), data[offset:end]) {
				return
			}
		}
	}
}

// CRC32 implements the content-defined chunker: a byte-at-a-time
// rolling CRC32 accumulator whose value dropping below Cutoff marks a
// cut point, with Min delaying cut detection and Max capping the
// length of each chunk emitted at a cut point via sub-splitting. The
// trailing region after the last cut is emitted as one chunk and is not
// sub-split, so it can be longer than Max.
type CRC32 struct {
	Initializer uint32
	Cutoff      uint32
	Min         uint32
	Max         uint32
}

// NewCRC32 builds a CRC32 content-defined chunker.
func NewCRC32(initializer, cutoff, min, max uint32) *CRC32 {
	return &CRC32{Initializer: initializer, Cutoff: cutoff, Min: min, Max: max}
}

func (c *CRC32) Spec() algospec.Spec {
	return algospec.Spec{Algorithm: "crc32", Params: map[string]any{
		"initializer": uint64(c.Initializer),
		"cutoff":      uint64(c.Cutoff),
		"min":         uint64(c.Min),
		"max":         uint64(c.Max),
	}}
}

// Chunks implements the exact emission algorithm specified in
// spec.md §4.3: cut points fire when the accumulated CRC32 drops
// below Cutoff, subject to Min delaying detection; once fired, the
// accumulated region [border, position) is split into ceil-sized
// sub-chunks no larger than Max. Offsets and boundaries must match
// this structure exactly, since file hashes depend on it.
func (c *CRC32) Chunks(data []byte) iter.Seq2[int64, []byte] {
	maxLen := c.Max
	if maxLen == 0 {
		maxLen = DefaultMax
	}
	minLen := c.Min
	cutoff := c.Cutoff
	return func(yield func(int64, []byte) bool) {
		border := 0
		rolling := c.Initializer
		single := make([]byte, 1)
		for position := 0; position < len(data); position++ {
			single[0] = data[position]
			rolling = crc32.Update(rolling, crc32.IEEETable, single)
			if rolling >= cutoff {
				continue
			}
			if uint32(position-border) < minLen {
				continue
			}
			for interior := border; interior < position; interior += int(maxLen) {
				next := position
				if interior+int(maxLen) < next {
					next = interior + int(maxLen)
				}
				if !yield(int64(interior), data[interior:next]) {
					return
				}
			}
			border = position
		}
		if border < len(data) {
			yield(int64(border), data[border:])
		}
	}
}
