// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package varint provides the shared unsigned-varint framing used for chunk
// headers, chunksinfo blocks and temp-run records. It plays the role the
// biogo/hts internal package plays for BAI/tabix index reading and writing:
// one small, shared codec the format-specific packages build on instead of
// each hand-rolling its own length prefixes.
package varint

import (
	"encoding/binary"
	"fmt"
)

// Append encodes v as an unsigned varint and appends it to dst.
func Append(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// Take decodes a varint from the front of b and returns the value and the
// remaining bytes.
func Take(b []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, nil, fmt.Errorf("varint: invalid or truncated varint")
	}
	return v, b[n:], nil
}

// Len returns the number of bytes Append would add for v, without
// allocating.
func Len(v uint64) int {
	n := 1
	for v >= 0x80 {
		n++
		v >>= 7
	}
	return n
}
