// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package indexer

import (
	"bufio"
	"encoding/binary"
)

// readUvarintByte reads a single uvarint from br, returning io.EOF
// (unwrapped) when br is exhausted before any byte of the varint is read,
// matching binary.ReadUvarint's contract and letting callers distinguish
// "run exhausted" from "run truncated mid-record".
func readUvarintByte(br *bufio.Reader) (uint64, error) {
	return binary.ReadUvarint(br)
}
