// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package postings

// Advance returns the index into skip of the first chunk whose LastDoc is
// >= target, searching exponentially outward from start and then binary
// searching the bracketed range as a galloping intersection cursor does. It
// returns len(skip) if no such chunk exists. start is the last chunk index
// a cursor was positioned at, so repeated calls with a monotonically
// increasing target never re-scan chunks already passed.
func Advance(skip []SkipEntry, start int, target uint32) int {
	n := len(skip)
	if start < 0 {
		start = 0
	}
	if start >= n {
		return n
	}
	if skip[start].LastDoc >= target {
		return start
	}

	lo := start
	step := 1
	hi := start
	for {
		hi = lo + step
		if hi >= n {
			hi = n
			break
		}
		if skip[hi].LastDoc >= target {
			break
		}
		lo = hi
		step *= 2
	}

	// Binary search the open interval (lo, hi] for the first entry with
	// LastDoc >= target.
	for lo+1 < hi {
		mid := lo + (hi-lo)/2
		if skip[mid].LastDoc >= target {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}
