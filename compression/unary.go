// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

// unaryCodec encodes a value v as v zero bits followed by a one bit. Unary
// requires a positive domain, so each value is shifted by +1 internally
// before encoding and the inverse shift is applied on decode -- callers
// still pass plain non-negative
// uint32s.
type unaryCodec struct{}

func (unaryCodec) ID() ID { return Unary }

func (unaryCodec) Encode(dst []byte, xs []uint32) []byte {
	w := &bitWriter{}
	for _, x := range xs {
		for i := uint32(0); i < x; i++ {
			w.writeBit(0)
		}
		w.writeBit(1)
	}
	return append(dst, w.bytes()...)
}

func (unaryCodec) Decode(b []byte, n int) ([]uint32, error) {
	r := &bitReader{b: b}
	out := make([]uint32, 0, n)
	for len(out) < n {
		count := uint32(0)
		for {
			bit, err := r.readBit()
			if err != nil {
				return nil, errTruncated
			}
			if bit == 1 {
				break
			}
			count++
		}
		out = append(out, count)
	}
	return out, nil
}

func (unaryCodec) BitLength(xs []uint32) int {
	total := 0
	for _, x := range xs {
		total += int(x) + 1
	}
	// Encode pads the final byte with zero bits.
	return (total + 7) / 8 * 8
}
