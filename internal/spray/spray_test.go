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

package spray

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spraydryfs/spraydryfs/internal/algospec"
)

func collect(t *testing.T, c Chunker, data []byte) (offsets []int64, chunks [][]byte) {
	t.Helper()
	for off, chunk := range c.Chunks(data) {
		offsets = append(offsets, off)
		chunks = append(chunks, append([]byte(nil), chunk...))
	}
	return offsets, chunks
}

func TestFixedChunkerSplitsExactMultiple(t *testing.T) {
	data := make([]byte, 20)
	for i := range data {
		data[i] = byte(i)
	}
	f := NewFixed(5)
	offsets, chunks := collect(t, f, data)
	require.Equal(t, []int64{0, 5, 10, 15}, offsets)
	for _, c := range chunks {
		require.Len(t, c, 5)
	}
}

func TestFixedChunkerLastChunkShort(t *testing.T) {
	data := make([]byte, 12)
	f := NewFixed(5)
	offsets, chunks := collect(t, f, data)
	require.Equal(t, []int64{0, 5, 10}, offsets)
	require.Len(t, chunks[2], 2)
}

func TestFixedChunkerEmptyInput(t *testing.T) {
	f := NewFixed(5)
	offsets, _ := collect(t, f, nil)
	require.Empty(t, offsets)
}

func TestFixedChunkerDefaultSize(t *testing.T) {
	f := NewFixed(0)
	data := make([]byte, DefaultFixedSize+1)
	offsets, _ := collect(t, f, data)
	require.Equal(t, []int64{0, int64(DefaultFixedSize)}, offsets)
}

// TestCRC32ChunkerContiguousCover checks the structural invariant that
// must hold for any parameters: chunks cover [0, len(data)) in
// ascending, non-overlapping, contiguous order.
func TestCRC32ChunkerContiguousCover(t *testing.T) {
	data := make([]byte, 5000)
	for i := range data {
		data[i] = byte(i * 7 % 251)
	}
	c := NewCRC32(DefaultInitializer, DefaultCutoff, DefaultMin, DefaultMax)
	offsets, chunks := collect(t, c, data)
	require.NotEmpty(t, offsets)
	var cursor int64
	for i, off := range offsets {
		require.Equal(t, cursor, off)
		require.LessOrEqual(t, len(chunks[i]), int(DefaultMax))
		cursor += int64(len(chunks[i]))
	}
	require.Equal(t, int64(len(data)), cursor)
}

// TestCRC32ChunkerMinForcesFixedSizeCuts uses a cutoff that is always
// satisfied (rolling < cutoff is true for any crc32 value short of the
// maximum uint32), isolating the Min/Max sub-splitting behaviour into a
// deterministic fixed-size-like split.
func TestCRC32ChunkerMinForcesFixedSizeCuts(t *testing.T) {
	data := make([]byte, 10)
	for i := range data {
		data[i] = byte(i)
	}
	c := NewCRC32(0, 0xffffffff, 4, 100)
	offsets, chunks := collect(t, c, data)
	require.Equal(t, []int64{0, 4, 8}, offsets)
	require.Len(t, chunks[0], 4)
	require.Len(t, chunks[1], 4)
	require.Len(t, chunks[2], 2)
}

// TestCRC32ChunkerMaxSubSplits forces a single large cut region to be
// broken into Max-sized pieces once Min is satisfied.
func TestCRC32ChunkerMaxSubSplits(t *testing.T) {
	data := make([]byte, 10)
	c := NewCRC32(0, 0xffffffff, 9, 3)
	offsets, chunks := collect(t, c, data)
	// border=0, cut fires at position=9 (9-0>=9); region [0,9) splits
	// into ceil(9/3)=3 pieces of length 3, then a trailing [9,10).
	require.Equal(t, []int64{0, 3, 6, 9}, offsets)
	require.Len(t, chunks[0], 3)
	require.Len(t, chunks[1], 3)
	require.Len(t, chunks[2], 3)
	require.Len(t, chunks[3], 1)
}

func TestNewUnsupportedAlgorithm(t *testing.T) {
	_, err := New(algospec.Spec{Algorithm: "unknown"})
	require.Error(t, err)
}

func TestNewBuildsFromSpec(t *testing.T) {
	c, err := New(algospec.Spec{Algorithm: "fixed", Params: map[string]any{"size": uint64(8)}})
	require.NoError(t, err)
	offsets, _ := collect(t, c, make([]byte, 16))
	require.Equal(t, []int64{0, 8}, offsets)
}
