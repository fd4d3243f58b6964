// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compression implements the seven integer codecs used to encode
// posting-list streams: VariableByte, Unary, Gamma, BitPacking, Simple16,
// PForDelta and EliasFano. Each encodes a sequence of non-negative
// integers, reports its encoded bit length without necessarily
// materializing the encoding, and decodes back the original sequence given
// the count of values it holds (the count itself is carried by the chunk
// header, not by the stream).
//
// Codecs are dispatched through a tagged variant (ID -> Codec) rather than
// through a deeper interface hierarchy, so the BitLength pre-check used for
// per-chunk codec selection stays a flat, monomorphic map lookup.
package compression

import "errors"

var errTruncated = errors.New("compression: truncated stream")

// ID is the stable, one-byte wire identifier for a codec.
type ID uint8

const (
	VariableByte ID = 0
	Unary        ID = 1
	Gamma        ID = 2
	BitPacking   ID = 3
	Simple16     ID = 4
	PForDelta    ID = 5
	EliasFano    ID = 6
	Invalid      ID = 255
)

func (id ID) String() string {
	switch id {
	case VariableByte:
		return "VariableByte"
	case Unary:
		return "Unary"
	case Gamma:
		return "Gamma"
	case BitPacking:
		return "BitPacking"
	case Simple16:
		return "Simple16"
	case PForDelta:
		return "PForDelta"
	case EliasFano:
		return "EliasFano"
	default:
		return "Invalid"
	}
}

// Codec encodes and decodes a sequence of non-negative integers.
//
// Unary, Gamma and EliasFano require values drawn from different domains
// than VariableByte/BitPacking/Simple16/PForDelta (see each codec's doc
// comment); where a shift is required it is applied and inverted inside
// the codec itself, so from the caller's side every Codec accepts and
// returns plain non-negative uint32 sequences.
type Codec interface {
	ID() ID
	// Encode appends the encoding of xs to dst and returns the result.
	Encode(dst []byte, xs []uint32) []byte
	// Decode decodes exactly n values from b.
	Decode(b []byte, n int) ([]uint32, error)
	// BitLength returns the exact encoded length of xs in bits.
	BitLength(xs []uint32) int
}

var registry = map[ID]Codec{
	VariableByte: variableByteCodec{},
	Unary:        unaryCodec{},
	Gamma:        gammaCodec{},
	BitPacking:   bitPackingCodec{},
	Simple16:     simple16Codec{},
	PForDelta:    pforDeltaCodec{},
	EliasFano:    eliasFanoCodec{},
}

// ForID returns the Codec registered for id.
func ForID(id ID) (Codec, bool) {
	c, ok := registry[id]
	return c, ok
}

// Precedence is the fixed tie-break order used when two or more candidate
// codecs produce the same bit length for a stream: the leftmost id wins.
// It is preserved literally for bit-exact compatibility with existing
// sealed indexes and must never be reordered.
var Precedence = []ID{PForDelta, Simple16, VariableByte, BitPacking, Gamma, Unary, EliasFano}

func precedenceRank(id ID) int {
	for i, p := range Precedence {
		if p == id {
			return i
		}
	}
	return len(Precedence)
}

// Select returns the candidate id minimizing measure(id), breaking ties by
// Precedence. When candidates is empty, it returns VariableByte, the
// configured default.
func Select(candidates []ID, measure func(ID) int) (ID, int) {
	if len(candidates) == 0 {
		c, _ := ForID(VariableByte)
		return VariableByte, c.BitLength(nil)
	}
	best := candidates[0]
	bestBits := measure(best)
	for _, id := range candidates[1:] {
		bits := measure(id)
		if bits < bestBits || (bits == bestBits && precedenceRank(id) < precedenceRank(best)) {
			best, bestBits = id, bits
		}
	}
	return best, bestBits
}
