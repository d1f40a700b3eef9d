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

// Package algospec parses and emits the "algorithm k1:v1 k2:v2 ..."
// spec strings stored in the rehydrate table's chunking and algorithm
// columns.
package algospec

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spraydryfs/spraydryfs/internal/sdferrors"
)

// Spec is a parsed "algo k:v ..." string. Params values are either a
// uint64 (hex-encoded in the source string) or a string, matching the
// original's "0x-prefixed means hex int, else literal string" rule.
type Spec struct {
	Algorithm string
	Params    map[string]any
}

// Split parses a spec string of the form "algo key:value key:value ...".
// Values beginning with "0x" parse as hex integers; anything else is
// kept as a literal string.
func Split(s string) (Spec, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Spec{}, sdferrors.NewConfigError("empty algorithm spec string", nil)
	}
	out := Spec{Algorithm: fields[0], Params: make(map[string]any, len(fields)-1)}
	for _, f := range fields[1:] {
		k, v, ok := strings.Cut(f, ":")
		if !ok {
			return Spec{}, sdferrors.NewConfigError(fmt.Sprintf("malformed key:value token %q", f), nil)
		}
		if strings.HasPrefix(v, "0x") {
			n, err := strconv.ParseUint(v[2:], 16, 64)
			if err != nil {
				return Spec{}, sdferrors.NewConfigError(fmt.Sprintf("malformed hex value %q for key %q", v, k), err)
			}
			out.Params[k] = n
			continue
		}
		out.Params[k] = v
	}
	return out, nil
}

// Join renders a Spec back into its canonical form: keys emitted in
// sorted order, integer values as lowercase hex zero-padded to a
// power-of-two byte width (0x0a, 0x0800, 0x000a0000, ...), so the digit
// count is always even.
func Join(s Spec) string {
	keys := make([]string, 0, len(s.Params))
	for k := range s.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, s.Algorithm)
	for _, k := range keys {
		parts = append(parts, k+":"+formatValue(s.Params[k]))
	}
	return strings.Join(parts, " ")
}

func formatValue(v any) string {
	switch n := v.(type) {
	case uint64:
		return hexEven(n)
	case int:
		return hexEven(uint64(n))
	case int64:
		return hexEven(uint64(n))
	case string:
		return n
	default:
		return fmt.Sprintf("%v", n)
	}
}

func hexEven(n uint64) string {
	h := strconv.FormatUint(n, 16)
	width := 2
	for width < len(h) {
		width *= 2
	}
	return "0x" + strings.Repeat("0", width-len(h)) + h
}

// Uint extracts a uint64 parameter, applying def when absent.
func Uint(s Spec, key string, def uint64) uint64 {
	v, ok := s.Params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case uint64:
		return n
	case string:
		parsed, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// String extracts a string parameter, applying def when absent.
func String(s Spec, key string, def string) string {
	v, ok := s.Params[key]
	if !ok {
		return def
	}
	if str, ok := v.(string); ok {
		return str
	}
	return def
}
