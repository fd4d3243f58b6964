// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"github.com/gustingonzalez/irmulticompression/internal/varint"
)

// pforDeltaCodec chooses a base bit width b wide enough to hold at least
// 90% of a chunk's values inline; the rest are recorded as exceptions
// alongside their position. The payload layout is
// [b:u8][exception_count:varint][inline_len:varint][inline bits][exceptions].
type pforDeltaCodec struct{}

func (pforDeltaCodec) ID() ID { return PForDelta }

const pforDeltaCoverage = 9 // numerator of the 90% coverage threshold, /10

func pforBaseWidth(xs []uint32) uint {
	n := len(xs)
	if n == 0 {
		return 0
	}
	threshold := (pforDeltaCoverage*n + 9) / 10
	for b := uint(0); b < 32; b++ {
		limit := uint64(1) << b
		cnt := 0
		for _, x := range xs {
			if uint64(x) < limit {
				cnt++
			}
		}
		if cnt >= threshold {
			return b
		}
	}
	return 32
}

type pforException struct {
	pos int
	val uint32
}

func pforDeltaPayload(xs []uint32) []byte {
	width := pforBaseWidth(xs)
	var mask uint32
	if width > 0 && width < 32 {
		mask = uint32(1)<<width - 1
	} else if width >= 32 {
		mask = ^uint32(0)
	}

	var exceptions []pforException
	bw := &bitWriter{}
	for i, x := range xs {
		if width < 32 && x > mask {
			exceptions = append(exceptions, pforException{pos: i, val: x})
			if width > 0 {
				bw.writeBits(uint64(x&mask), width)
			}
		} else if width > 0 {
			bw.writeBits(uint64(x), width)
		}
	}
	inline := bw.bytes()

	payload := []byte{byte(width)}
	payload = varint.Append(payload, uint64(len(exceptions)))
	payload = varint.Append(payload, uint64(len(inline)))
	payload = append(payload, inline...)
	for _, e := range exceptions {
		payload = varint.Append(payload, uint64(e.pos))
		payload = varint.Append(payload, uint64(e.val))
	}
	return payload
}

func (pforDeltaCodec) Encode(dst []byte, xs []uint32) []byte {
	return append(dst, pforDeltaPayload(xs)...)
}

func (pforDeltaCodec) BitLength(xs []uint32) int {
	return len(pforDeltaPayload(xs)) * 8
}

func (pforDeltaCodec) Decode(b []byte, n int) ([]uint32, error) {
	if len(b) < 1 {
		return nil, errTruncated
	}
	width := uint(b[0])
	rest := b[1:]

	excCount, rest, err := varint.Take(rest)
	if err != nil {
		return nil, errTruncated
	}
	inlineLen, rest, err := varint.Take(rest)
	if err != nil {
		return nil, errTruncated
	}
	if uint64(len(rest)) < inlineLen {
		return nil, errTruncated
	}
	inline := rest[:inlineLen]
	rest = rest[inlineLen:]

	out := make([]uint32, n)
	if width > 0 {
		br := &bitReader{b: inline}
		for i := 0; i < n; i++ {
			v, err := br.readBits(width)
			if err != nil {
				return nil, errTruncated
			}
			out[i] = uint32(v)
		}
	}

	for i := uint64(0); i < excCount; i++ {
		var pos, val uint64
		pos, rest, err = varint.Take(rest)
		if err != nil {
			return nil, errTruncated
		}
		val, rest, err = varint.Take(rest)
		if err != nil {
			return nil, errTruncated
		}
		if int(pos) >= n {
			return nil, errTruncated
		}
		out[pos] = uint32(val)
	}
	if len(rest) != 0 {
		return nil, errTruncated
	}
	return out, nil
}
