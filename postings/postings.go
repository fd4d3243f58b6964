// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package postings assembles a term's full posting list into chunks,
// and reads/writes the per-term chunk metadata block of
// chunksinfo.bin: a skip table of (last_doc, postings_offset,
// docs_codec, freqs_codec) entries, one per chunk, in ascending doc-id
// order.
package postings

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gustingonzalez/irmulticompression/chunk"
	"github.com/gustingonzalez/irmulticompression/compression"
	"github.com/gustingonzalez/irmulticompression/internal/varint"
)

// SkipEntry is one chunk's skip-table row: the chunk's last doc-id, the
// absolute byte offset of its record in postings.bin, and the codec ids
// chosen for its two streams (carried here so the evaluator never has to
// decode a chunk just to learn which codec produced it).
type SkipEntry struct {
	LastDoc        uint32
	PostingsOffset int64
	DocsCodec      compression.ID
	FreqsCodec     compression.ID
}

// TermChunksInfo is the full chunksinfo.bin block for one term.
type TermChunksInfo struct {
	Skip []SkipEntry
}

// StatsSink optionally records one line per encoded chunk to the
// "statistics files" the driver may emit when a stream's candidate set
// has more than one entry: the term, the codec chosen for that chunk,
// and the stream's raw (pre-encoding) values. Either writer may be nil to
// skip that stream.
type StatsSink struct {
	Term  string
	Docs  io.Writer
	Freqs io.Writer
}

func writeStatsLine(w io.Writer, term string, codec compression.ID, values []uint32) error {
	if w == nil {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(term)
	sb.WriteByte('\t')
	sb.WriteString(codec.String())
	sb.WriteByte('\t')
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// Assemble splits postings into chunks of size chunkSize (0 meaning a
// single chunk holding the whole list), writes each chunk to w, and
// returns the resulting skip table. base is the absolute byte offset in
// postings.bin at which w begins writing. stats may be nil; when set, it
// receives one line per chunk per configured stream.
func Assemble(w io.Writer, postings []chunk.Posting, chunkSize int, cand chunk.Candidates, base int64, stats *StatsSink) (TermChunksInfo, int64, error) {
	if len(postings) == 0 {
		return TermChunksInfo{}, 0, fmt.Errorf("postings: cannot assemble an empty posting list")
	}
	size := chunkSize
	if size <= 0 {
		size = len(postings)
	}

	var info TermChunksInfo
	offset := base
	for start := 0; start < len(postings); start += size {
		end := start + size
		if end > len(postings) {
			end = len(postings)
		}
		part := postings[start:end]

		hdr, n, err := chunk.Write(w, part, cand)
		if err != nil {
			return TermChunksInfo{}, 0, fmt.Errorf("postings: failed to write chunk: %v", err)
		}
		info.Skip = append(info.Skip, SkipEntry{
			LastDoc:        hdr.LastDoc,
			PostingsOffset: offset,
			DocsCodec:      hdr.DocsCodec,
			FreqsCodec:     hdr.FreqsCodec,
		})
		offset += n

		if stats != nil && (stats.Docs != nil || stats.Freqs != nil) {
			gaps, freqs := chunk.Streams(part)
			docsValues := gaps
			if hdr.DocsCodec == compression.EliasFano {
				docsValues = make([]uint32, len(part))
				for i, p := range part {
					docsValues[i] = p.DocID
				}
			}
			if err := writeStatsLine(stats.Docs, stats.Term, hdr.DocsCodec, docsValues); err != nil {
				return TermChunksInfo{}, 0, fmt.Errorf("postings: failed to write docs statistics: %v", err)
			}
			if err := writeStatsLine(stats.Freqs, stats.Term, hdr.FreqsCodec, freqs); err != nil {
				return TermChunksInfo{}, 0, fmt.Errorf("postings: failed to write freqs statistics: %v", err)
			}
		}
	}
	return info, offset - base, nil
}

// WriteChunksInfo appends a term's chunksinfo.bin block to w in the
// layout:
//
//	[chunk_count:varint] (for each chunk: [last_doc][postings_offset][docs_codec:u8][freqs_codec:u8])
//
// It returns the number of bytes written, so callers can record the
// block's starting offset in vocabulary.txt before calling this.
func WriteChunksInfo(w io.Writer, info TermChunksInfo) (int64, error) {
	var buf []byte
	buf = varint.Append(buf, uint64(len(info.Skip)))
	for _, e := range info.Skip {
		buf = varint.Append(buf, uint64(e.LastDoc))
		buf = varint.Append(buf, uint64(e.PostingsOffset))
		buf = append(buf, byte(e.DocsCodec), byte(e.FreqsCodec))
	}
	n, err := w.Write(buf)
	if err != nil {
		return int64(n), fmt.Errorf("postings: failed to write chunksinfo block: %v", err)
	}
	return int64(n), nil
}

// ReadChunksInfo reads a single term's chunksinfo.bin block from r,
// positioned at the block's start offset. It validates that the skip
// table is strictly increasing in both last_doc and postings_offset
// and fails with IndexCorrupt otherwise.
func ReadChunksInfo(r *bufio.Reader) (TermChunksInfo, error) {
	count, err := readUvarint(r)
	if err != nil {
		return TermChunksInfo{}, fmt.Errorf("postings: failed to read chunk count: %v", err)
	}

	info := TermChunksInfo{Skip: make([]SkipEntry, 0, count)}
	var prevLast uint32
	var prevOffset int64 = -1
	for i := uint64(0); i < count; i++ {
		lastDoc, err := readUvarint(r)
		if err != nil {
			return TermChunksInfo{}, fmt.Errorf("postings: failed to read last_doc: %v", err)
		}
		offset, err := readUvarint(r)
		if err != nil {
			return TermChunksInfo{}, fmt.Errorf("postings: failed to read postings_offset: %v", err)
		}
		docsByte, err := r.ReadByte()
		if err != nil {
			return TermChunksInfo{}, fmt.Errorf("postings: failed to read docs codec id: %v", err)
		}
		freqsByte, err := r.ReadByte()
		if err != nil {
			return TermChunksInfo{}, fmt.Errorf("postings: failed to read freqs codec id: %v", err)
		}

		e := SkipEntry{
			LastDoc:        uint32(lastDoc),
			PostingsOffset: int64(offset),
			DocsCodec:      compression.ID(docsByte),
			FreqsCodec:     compression.ID(freqsByte),
		}
		if i > 0 && (e.LastDoc <= prevLast || e.PostingsOffset <= prevOffset) {
			return TermChunksInfo{}, fmt.Errorf("postings: skip table not strictly increasing (IndexCorrupt)")
		}
		prevLast, prevOffset = e.LastDoc, e.PostingsOffset
		info.Skip = append(info.Skip, e)
	}
	return info, nil
}

func readUvarint(r *bufio.Reader) (uint64, error) {
	return binary.ReadUvarint(r)
}
