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

package algospec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitJoinRoundTrip(t *testing.T) {
	cases := []string{
		"fixed size:0x2000",
		"crc32 cutoff:0x000a0000 initializer:0xfacade00 max:0x4000 min:0x0800",
		"nocompress",
		"zstd level:0x03",
	}
	for _, s := range cases {
		spec, err := Split(s)
		require.NoError(t, err)
		require.Equal(t, s, Join(spec))
	}
}

func TestSplitKeysAreSortedOnJoin(t *testing.T) {
	spec, err := Split("crc32 min:0x0800 cutoff:0x000a0000 max:0x4000 initializer:0xfacade00")
	require.NoError(t, err)
	require.Equal(t, "crc32 cutoff:0x000a0000 initializer:0xfacade00 max:0x4000 min:0x0800", Join(spec))
}

func TestSplitLiteralStringValue(t *testing.T) {
	spec, err := Split("custom mode:strict")
	require.NoError(t, err)
	require.Equal(t, "strict", spec.Params["mode"])
	require.Equal(t, "custom mode:strict", Join(spec))
}

func TestSplitRejectsEmptyString(t *testing.T) {
	_, err := Split("")
	require.Error(t, err)
}

func TestSplitRejectsMalformedToken(t *testing.T) {
	_, err := Split("fixed size")
	require.Error(t, err)
}

func TestHexEvenDigitCount(t *testing.T) {
	spec := Spec{Algorithm: "x", Params: map[string]any{"v": uint64(0xa)}}
	require.Equal(t, "x v:0x0a", Join(spec))
}

func TestUintAndStringAccessors(t *testing.T) {
	spec, err := Split("crc32 cutoff:0x000a0000")
	require.NoError(t, err)
	require.Equal(t, uint64(0x000a0000), Uint(spec, "cutoff", 0))
	require.Equal(t, uint64(42), Uint(spec, "missing", 42))
	require.Equal(t, "fallback", String(spec, "missing", "fallback"))
}
