// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/gustingonzalez/irmulticompression/chunk"
	"github.com/gustingonzalez/irmulticompression/postings"
)

type cursorState int

const (
	unopened cursorState = iota
	positioned
	exhausted
)

// Cursor walks one term's posting list chunk by chunk, decoding a chunk
// only when the skip table says it might hold the next relevant doc-id
// (state machine Unopened -> Positioned -> Exhausted).
type Cursor struct {
	info postings.TermChunksInfo
	f    *os.File
	size int64

	state      cursorState
	chunkIdx   int
	decoded    []chunk.Posting
	posInChunk int
	current    chunk.Posting

	// decodeCount counts chunk decodes, exposed so tests can assert the
	// evaluator skips whole chunks rather than linearly scanning.
	decodeCount int
}

func newCursor(info postings.TermChunksInfo, f *os.File, size int64) *Cursor {
	return &Cursor{info: info, f: f, size: size, chunkIdx: -1}
}

// ChunkCount returns the number of chunks in this term's posting list, a
// decode-free, monotonic proxy for list length used to order cursors
// shortest-first.
func (c *Cursor) ChunkCount() int { return len(c.info.Skip) }

// DecodeCount returns how many chunks this cursor has decoded so far.
func (c *Cursor) DecodeCount() int { return c.decodeCount }

// Current returns the posting the cursor is positioned at. ok is false
// unless the cursor is in the Positioned state.
func (c *Cursor) Current() (chunk.Posting, bool) {
	if c.state != positioned {
		return chunk.Posting{}, false
	}
	return c.current, true
}

// Advance moves the cursor to the smallest doc-id >= target, galloping
// past whole chunks via the skip table without decoding them. It returns
// false if no such doc-id exists (the cursor is now Exhausted).
func (c *Cursor) Advance(target uint32) (bool, error) {
	if c.state == exhausted {
		return false, nil
	}
	if c.state == positioned && c.current.DocID >= target {
		return true, nil
	}

	start := c.chunkIdx
	if c.state == unopened {
		start = 0
	}
	idx := postings.Advance(c.info.Skip, start, target)
	if idx >= len(c.info.Skip) {
		c.state = exhausted
		return false, nil
	}

	if idx != c.chunkIdx {
		if err := c.loadChunk(idx); err != nil {
			return false, err
		}
	}

	for ; c.posInChunk < len(c.decoded); c.posInChunk++ {
		if c.decoded[c.posInChunk].DocID >= target {
			c.current = c.decoded[c.posInChunk]
			c.state = positioned
			return true, nil
		}
	}
	// The skip table promised this chunk's last doc-id >= target; a chunk
	// exhausted without finding it means the sealed index is corrupt.
	return false, fmt.Errorf("index: chunk %d exhausted before reaching doc-id >= %d (IndexCorrupt)", idx, target)
}

// Next advances past the current posting and returns the following one,
// if any.
func (c *Cursor) Next() (bool, error) {
	if c.state != positioned {
		return false, nil
	}
	return c.Advance(c.current.DocID + 1)
}

func (c *Cursor) loadChunk(idx int) error {
	entry := c.info.Skip[idx]
	sr := io.NewSectionReader(c.f, entry.PostingsOffset, c.size-entry.PostingsOffset)
	postingsList, _, err := chunk.Read(bufio.NewReader(sr))
	if err != nil {
		return fmt.Errorf("index: failed to read chunk at offset %d: %v", entry.PostingsOffset, err)
	}
	c.decoded = postingsList
	c.posInChunk = 0
	c.chunkIdx = idx
	c.decodeCount++
	return nil
}
