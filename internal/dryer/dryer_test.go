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

package dryer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spraydryfs/spraydryfs/internal/algospec"
	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
)

func TestNoCompressRoundTrip(t *testing.T) {
	c := NoCompress{}
	chunk := []byte("hello world")
	encoded, err := c.Encode(chunk)
	require.NoError(t, err)
	require.Equal(t, chunk, encoded)
	decoded, err := c.Decode(len(chunk), encoded)
	require.NoError(t, err)
	require.Equal(t, chunk, decoded)
}

func TestNoCompressDecodeLengthMismatch(t *testing.T) {
	c := NoCompress{}
	_, err := c.Decode(5, []byte("xx"))
	require.Error(t, err)
	var ierr *sdferrors.IntegrityError
	require.ErrorAs(t, err, &ierr)
}

func TestZstdRoundTripNoDictionary(t *testing.T) {
	codec, err := New(algospec.Spec{Algorithm: "zstd"}, nil)
	require.NoError(t, err)
	chunk := []byte("the quick brown fox jumps over the lazy dog, repeatedly, repeatedly, repeatedly")
	encoded, err := codec.Encode(chunk)
	require.NoError(t, err)
	decoded, err := codec.Decode(len(chunk), encoded)
	require.NoError(t, err)
	require.Equal(t, chunk, decoded)
}

func TestZstdRoundTripWithDictionary(t *testing.T) {
	dict := make([]byte, 4096)
	for i := range dict {
		dict[i] = byte(i)
	}
	codec, err := New(algospec.Spec{Algorithm: "zstd", Params: map[string]any{"level": uint64(5)}}, dict)
	require.NoError(t, err)
	chunk := append([]byte("chunk body referencing the dictionary: "), dict[:128]...)
	encoded, err := codec.Encode(chunk)
	require.NoError(t, err)
	decoded, err := codec.Decode(len(chunk), encoded)
	require.NoError(t, err)
	require.Equal(t, chunk, decoded)
}

func TestNewUnsupportedAlgorithm(t *testing.T) {
	_, err := New(algospec.Spec{Algorithm: "lz4"}, nil)
	require.Error(t, err)
}

func TestZstdSpecRoundTrip(t *testing.T) {
	codec, err := New(algospec.Spec{Algorithm: "zstd", Params: map[string]any{"level": uint64(7)}}, nil)
	require.NoError(t, err)
	require.Equal(t, "zstd level:0x07", algospec.Join(codec.Spec()))
}
