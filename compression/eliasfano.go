// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"math/bits"

	"github.com/gustingonzalez/irmulticompression/internal/varint"
)

// eliasFanoCodec encodes a strictly monotonically increasing sequence in
// roughly n*(2+ceil(log2(U/n))) bits, split into a
// low part (L fixed bits per value) and a high part (unary-coded gaps
// between successive values' high bits). The assembler applies EliasFano
// to absolute doc-ids within a chunk, never to d-gaps.
//
// The payload is [max:varint][high_byte_len:varint][high bits][low bits];
// the low-bit width L is not stored, it is recomputed from (max, n) by the
// same formula on both sides.
type eliasFanoCodec struct{}

func (eliasFanoCodec) ID() ID { return EliasFano }

// efLowWidth returns the number of low bits per value for a strictly
// increasing sequence of n values with maximum max.
func efLowWidth(n int, max uint32) uint {
	if n == 0 || max == 0 {
		return 0
	}
	q := uint64(max) / uint64(n)
	if q == 0 {
		return 0
	}
	return uint(bits.Len64(q)) - 1
}

func (eliasFanoCodec) Encode(dst []byte, xs []uint32) []byte {
	n := len(xs)
	var max uint32
	if n > 0 {
		max = xs[n-1]
	}
	dst = varint.Append(dst, uint64(max))
	if n == 0 {
		return dst
	}
	l := efLowWidth(n, max)
	var lowMask uint32
	if l > 0 {
		lowMask = uint32(1)<<l - 1
	}

	hw := &bitWriter{}
	var prevH uint32
	for _, x := range xs {
		h := x >> l
		gap := h - prevH
		for i := uint32(0); i < gap; i++ {
			hw.writeBit(0)
		}
		hw.writeBit(1)
		prevH = h
	}
	highBytes := hw.bytes()

	lw := &bitWriter{}
	if l > 0 {
		for _, x := range xs {
			lw.writeBits(uint64(x&lowMask), l)
		}
	}
	lowBytes := lw.bytes()

	dst = varint.Append(dst, uint64(len(highBytes)))
	dst = append(dst, highBytes...)
	dst = append(dst, lowBytes...)
	return dst
}

func (eliasFanoCodec) Decode(b []byte, n int) ([]uint32, error) {
	maxV, rest, err := varint.Take(b)
	if err != nil {
		return nil, errTruncated
	}
	if n == 0 {
		return nil, nil
	}
	max := uint32(maxV)
	l := efLowWidth(n, max)

	highByteLen, rest, err := varint.Take(rest)
	if err != nil {
		return nil, errTruncated
	}
	if uint64(len(rest)) < highByteLen {
		return nil, errTruncated
	}
	highBytes := rest[:highByteLen]
	lowBytes := rest[highByteLen:]

	hr := &bitReader{b: highBytes}
	out := make([]uint32, n)
	var h uint32
	for i := 0; i < n; i++ {
		var gap uint32
		for {
			bit, err := hr.readBit()
			if err != nil {
				return nil, errTruncated
			}
			if bit == 1 {
				break
			}
			gap++
		}
		h += gap
		out[i] = h << l
	}

	if l > 0 {
		lr := &bitReader{b: lowBytes}
		for i := range out {
			v, err := lr.readBits(l)
			if err != nil {
				return nil, errTruncated
			}
			out[i] |= uint32(v)
		}
	}
	return out, nil
}

func (eliasFanoCodec) BitLength(xs []uint32) int {
	n := len(xs)
	var max uint32
	if n > 0 {
		max = xs[n-1]
	}
	total := varint.Len(uint64(max)) * 8
	if n == 0 {
		return total
	}
	l := efLowWidth(n, max)
	highBits := n + int(max>>l)
	highBytes := (highBits + 7) / 8
	total += varint.Len(uint64(highBytes)) * 8
	total += highBytes * 8
	lowBytes := (n*int(l) + 7) / 8
	total += lowBytes * 8
	return total
}
