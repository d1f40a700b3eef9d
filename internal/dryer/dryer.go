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

// Package dryer implements the "drying" codecs: algorithm-parameterised
// encode/decode of chunk bytes, with an optional shared dictionary.
package dryer

import (
	"fmt"

	"github.com/dolthub/gozstd"

	"github.com/spraydryfs/spraydryfs/internal/algospec"
	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
)

// Codec encodes chunk bytes for storage and decodes them back.
type Codec interface {
	// Encode compresses (or passes through) a single chunk's bytes into
	// their on-disk representation.
	Encode(chunk []byte) ([]byte, error)
	// Decode reconstructs exactly size bytes from the stored
	// representation, returning an IntegrityError if the result does
	// not have the recorded length.
	Decode(size int, stored []byte) ([]byte, error)
	// Spec returns the canonical algospec.Spec for persistence into
	// rehydrate.algorithm.
	Spec() algospec.Spec
}

// New builds a Codec from a parsed spec and dictionary bytes. dict may
// be empty for nocompress or for zstd without a trained dictionary.
func New(s algospec.Spec, dict []byte) (Codec, error) {
	switch s.Algorithm {
	case "nocompress":
		return NoCompress{}, nil
	case "zstd":
		return newZstd(s, dict)
	default:
		return nil, sdferrors.NewConfigError(fmt.Sprintf("unsupported algorithm for drying: %q", s.Algorithm), nil)
	}
}

// NoCompress is the identity codec: encode and decode are no-ops aside
// from the length check decode always performs.
type NoCompress struct{}

func (NoCompress) Encode(chunk []byte) ([]byte, error) {
	return chunk, nil
}

func (NoCompress) Decode(size int, stored []byte) ([]byte, error) {
	if len(stored) != size {
		return nil, sdferrors.NewIntegrityError(
			fmt.Sprintf("nocompress: decoded length %d != recorded size %d", len(stored), size), nil)
	}
	return stored, nil
}

func (NoCompress) Spec() algospec.Spec {
	return algospec.Spec{Algorithm: "nocompress", Params: map[string]any{}}
}

// Zstd compresses each chunk as a single, complete zstd frame against a
// shared dictionary, mirroring the teacher's storage engine dependency
// on github.com/dolthub/gozstd for its compressed chunk representation.
type Zstd struct {
	level int
	dict  []byte
	cdict *gozstd.CDict
	ddict *gozstd.DDict
}

const defaultZstdLevel = 3

func newZstd(s algospec.Spec, dict []byte) (*Zstd, error) {
	level := int(algospec.Uint(s, "level", uint64(defaultZstdLevel)))
	z := &Zstd{level: level, dict: dict}
	if len(dict) > 0 {
		cdict, err := gozstd.NewCDictLevel(dict, level)
		if err != nil {
			return nil, sdferrors.NewConfigError("building zstd compression dictionary", err)
		}
		ddict, err := gozstd.NewDDict(dict)
		if err != nil {
			return nil, sdferrors.NewConfigError("building zstd decompression dictionary", err)
		}
		z.cdict = cdict
		z.ddict = ddict
	}
	return z, nil
}

func (z *Zstd) Encode(chunk []byte) ([]byte, error) {
	if z.cdict != nil {
		return gozstd.CompressDict(nil, chunk, z.cdict), nil
	}
	return gozstd.CompressLevel(nil, chunk, z.level), nil
}

func (z *Zstd) Decode(size int, stored []byte) ([]byte, error) {
	var (
		out []byte
		err error
	)
	if z.ddict != nil {
		out, err = gozstd.DecompressDict(nil, stored, z.ddict)
	} else {
		out, err = gozstd.Decompress(nil, stored)
	}
	if err != nil {
		return nil, sdferrors.NewIntegrityError("zstd: decompression failed", err)
	}
	if len(out) != size {
		return nil, sdferrors.NewIntegrityError(
			fmt.Sprintf("zstd: decoded length %d != recorded size %d", len(out), size), nil)
	}
	return out, nil
}

func (z *Zstd) Spec() algospec.Spec {
	params := map[string]any{"level": uint64(z.level)}
	return algospec.Spec{Algorithm: "zstd", Params: params}
}
