// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import "math/bits"

// gammaCodec writes the unary-coded bit length of x+1 followed by the
// binary tail of x+1 with its leading one dropped. Like Unary,
// Gamma requires a positive domain and shifts by +1 internally.
type gammaCodec struct{}

func (gammaCodec) ID() ID { return Gamma }

func (gammaCodec) Encode(dst []byte, xs []uint32) []byte {
	w := &bitWriter{}
	for _, x := range xs {
		p := uint64(x) + 1
		b := uint(bits.Len64(p))
		for i := uint(0); i < b-1; i++ {
			w.writeBit(0)
		}
		w.writeBit(1)
		if b > 1 {
			w.writeBits(p, b-1)
		}
	}
	return append(dst, w.bytes()...)
}

func (gammaCodec) Decode(b []byte, n int) ([]uint32, error) {
	r := &bitReader{b: b}
	out := make([]uint32, 0, n)
	for len(out) < n {
		length := uint(1)
		for {
			bit, err := r.readBit()
			if err != nil {
				return nil, errTruncated
			}
			if bit == 1 {
				break
			}
			length++
		}
		var tail uint64
		if length > 1 {
			var err error
			tail, err = r.readBits(length - 1)
			if err != nil {
				return nil, errTruncated
			}
		}
		p := uint64(1)<<(length-1) | tail
		out = append(out, uint32(p-1))
	}
	return out, nil
}

func (gammaCodec) BitLength(xs []uint32) int {
	total := 0
	for _, x := range xs {
		b := bits.Len64(uint64(x) + 1)
		total += 2*b - 1
	}
	// Encode pads the final byte with zero bits.
	return (total + 7) / 8 * 8
}
