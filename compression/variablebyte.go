// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

// variableByteCodec packs each integer into 7-bit groups, one group per
// byte, high bit set on every byte but the last. It accepts any
// non-negative uint32, and is the configured default codec for both
// streams when no candidate set is configured.
type variableByteCodec struct{}

func (variableByteCodec) ID() ID { return VariableByte }

func variableByteLen(x uint32) int {
	n := 1
	for x >= 0x80 {
		n++
		x >>= 7
	}
	return n
}

func (variableByteCodec) Encode(dst []byte, xs []uint32) []byte {
	for _, x := range xs {
		for x >= 0x80 {
			dst = append(dst, byte(x&0x7f)|0x80)
			x >>= 7
		}
		dst = append(dst, byte(x))
	}
	return dst
}

func (variableByteCodec) Decode(b []byte, n int) ([]uint32, error) {
	out := make([]uint32, 0, n)
	pos := 0
	for len(out) < n {
		var x uint32
		shift := uint(0)
		for {
			if pos >= len(b) {
				return nil, errTruncated
			}
			bb := b[pos]
			pos++
			x |= uint32(bb&0x7f) << shift
			if bb&0x80 == 0 {
				break
			}
			shift += 7
		}
		out = append(out, x)
	}
	if pos != len(b) {
		return nil, errTruncated
	}
	return out, nil
}

func (variableByteCodec) BitLength(xs []uint32) int {
	total := 0
	for _, x := range xs {
		total += variableByteLen(x)
	}
	return total * 8
}
