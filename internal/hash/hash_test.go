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

package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFactoriesProduceStableDigests(t *testing.T) {
	for _, f := range []Factory{Blake3, Blake2b256, XXH3, SHA256} {
		a := f.New().Update([]byte("abc")).Sum()
		b := f.New().Update([]byte("ab")).Update([]byte("c")).Sum()
		require.Equal(t, a, b, "%s: incremental update must match single update", f.Name())
		require.NotEmpty(t, a)
	}
}

func TestByName(t *testing.T) {
	f, ok := ByName("blake3")
	require.True(t, ok)
	require.Equal(t, Blake3, f)

	_, ok = ByName("not-a-real-algorithm")
	require.False(t, ok)
}

func TestBlake3Clone(t *testing.T) {
	h := Blake3.New()
	h.Update([]byte("prefix-"))
	clone := h.Clone()
	h.Update([]byte("a"))
	clone.Update([]byte("b"))
	require.NotEqual(t, h.Sum(), clone.Sum())
}

func TestDifferentAlgorithmsDisagree(t *testing.T) {
	require.NotEqual(t, Blake3.New().Update([]byte("x")).Sum(), XXH3.New().Update([]byte("x")).Sum())
}
