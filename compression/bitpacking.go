// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import "math/bits"

// bitPackingCodec stores every value in a fixed width computed as
// ceil(log2(max+1)) bits, with the width recorded once as a single header
// byte rather than repeated per value. It performs
// best when the values in a chunk are uniformly sized.
type bitPackingCodec struct{}

func (bitPackingCodec) ID() ID { return BitPacking }

func bitPackingWidth(xs []uint32) uint {
	var max uint32
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if max == 0 {
		return 0
	}
	return uint(bits.Len32(max))
}

func (bitPackingCodec) Encode(dst []byte, xs []uint32) []byte {
	width := bitPackingWidth(xs)
	dst = append(dst, byte(width))
	if width == 0 {
		return dst
	}
	w := &bitWriter{}
	for _, x := range xs {
		w.writeBits(uint64(x), width)
	}
	return append(dst, w.bytes()...)
}

func (bitPackingCodec) Decode(b []byte, n int) ([]uint32, error) {
	if len(b) < 1 {
		return nil, errTruncated
	}
	width := uint(b[0])
	out := make([]uint32, n)
	if width == 0 {
		return out, nil
	}
	r := &bitReader{b: b[1:]}
	for i := 0; i < n; i++ {
		v, err := r.readBits(width)
		if err != nil {
			return nil, errTruncated
		}
		out[i] = uint32(v)
	}
	return out, nil
}

func (bitPackingCodec) BitLength(xs []uint32) int {
	width := bitPackingWidth(xs)
	// Width byte plus the packed values, zero-padded to a byte boundary.
	return 8 + (len(xs)*int(width)+7)/8*8
}
