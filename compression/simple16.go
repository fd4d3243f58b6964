// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import "encoding/binary"

// simple16Layout is one of the sixteen (count, width) splits a Simple16
// word can hold: count values of width bits each, count*width <= 28, with
// the remaining 4 of the word's 32 bits holding the selector.
type simple16Layout struct {
	count int
	width uint
}

// simple16Layouts is modeled on Anh & Moffat's Simple-16 scheme used
// widely for posting-list compression: a small, greedily-searched table of
// (count, width) splits, ordered by decreasing count so the packer always
// prefers the densest layout the next run of values fits in. The encoder
// and decoder agree on this table; nothing outside this file depends on
// its specific entries.
var simple16Layouts = []simple16Layout{
	{28, 1}, {14, 2}, {9, 3}, {7, 4}, {5, 5}, {4, 6}, {4, 7},
	{3, 8}, {3, 9}, {2, 10}, {2, 11}, {2, 12}, {2, 14},
	{1, 18}, {1, 21}, {1, 28},
}

// simple16Codec packs runs of small integers into 32-bit words, one of 16
// layouts selected per word and recorded in its upper 4 bits. Values
// that do not fit in 28 bits cannot be represented; such
// inputs make BitLength report an effectively infinite cost so Select
// never picks Simple16 for them.
type simple16Codec struct{}

func (simple16Codec) ID() ID { return Simple16 }

const simple16Overflow = 1 << 30

func fitsWidth(xs []uint32, width uint) bool {
	if width >= 32 {
		return true
	}
	limit := uint32(1) << width
	for _, x := range xs {
		if x >= limit {
			return false
		}
	}
	return true
}

// simple16Pack greedily packs xs into words, returning ok=false if some
// value cannot be represented by any layout (i.e. does not fit in 28 bits).
func simple16Pack(xs []uint32) (words []uint32, ok bool) {
	i := 0
	for i < len(xs) {
		placed := false
		for sel, l := range simple16Layouts {
			cnt := l.count
			if len(xs)-i < cnt {
				cnt = len(xs) - i
			}
			if fitsWidth(xs[i:i+cnt], l.width) {
				word := uint32(sel) << 28
				for j := 0; j < cnt; j++ {
					word |= xs[i+j] << (uint(j) * l.width)
				}
				words = append(words, word)
				i += cnt
				placed = true
				break
			}
		}
		if !placed {
			return nil, false
		}
	}
	return words, true
}

func (simple16Codec) Encode(dst []byte, xs []uint32) []byte {
	words, _ := simple16Pack(xs)
	for _, w := range words {
		dst = binary.LittleEndian.AppendUint32(dst, w)
	}
	return dst
}

func (simple16Codec) Decode(b []byte, n int) ([]uint32, error) {
	out := make([]uint32, 0, n)
	pos := 0
	for len(out) < n {
		if pos+4 > len(b) {
			return nil, errTruncated
		}
		word := binary.LittleEndian.Uint32(b[pos : pos+4])
		pos += 4
		sel := word >> 28
		if int(sel) >= len(simple16Layouts) {
			return nil, errTruncated
		}
		l := simple16Layouts[sel]
		mask := uint32(1)<<l.width - 1
		cnt := l.count
		if n-len(out) < cnt {
			cnt = n - len(out)
		}
		for j := 0; j < cnt; j++ {
			out = append(out, (word>>(uint(j)*l.width))&mask)
		}
	}
	if pos != len(b) {
		return nil, errTruncated
	}
	return out, nil
}

func (simple16Codec) BitLength(xs []uint32) int {
	words, ok := simple16Pack(xs)
	if !ok {
		return simple16Overflow
	}
	return len(words) * 32
}
