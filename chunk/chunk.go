// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chunk implements the single-chunk wire format: a fixed-size
// partition of a posting list encoded as independent, per-stream
// codec-selected docs and freqs payloads, plus a small header recording
// enough to decode and to verify integrity without re-reading adjacent
// chunks.
package chunk

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gustingonzalez/irmulticompression/compression"
	"github.com/gustingonzalez/irmulticompression/internal/varint"
)

// Posting is a single (doc id, term frequency) pair.
type Posting struct {
	DocID uint32
	TF    uint32
}

// Header describes one encoded chunk as recorded at the start of its
// record in postings.bin.
type Header struct {
	PostingCount int
	FirstDoc     uint32
	LastDoc      uint32
	DocsCodec    compression.ID
	FreqsCodec   compression.ID
}

// Candidates configures which codecs are eligible for each stream. A nil
// or empty slice for either stream means VariableByte only, the default
// when no candidate set is configured.
type Candidates struct {
	Docs  []compression.ID
	Freqs []compression.ID
}

// Streams returns the d-gap sequence and the raw tf sequence for postings:
// the first docs value is the chunk's first absolute doc-id, every
// following value is the gap from its predecessor. It is used both by
// Write and, when statistics emission is enabled, by the posting list
// assembler.
func Streams(postings []Posting) (gaps, freqs []uint32) {
	gaps = make([]uint32, len(postings))
	freqs = make([]uint32, len(postings))
	var prev uint32
	for i, p := range postings {
		if i == 0 {
			gaps[i] = p.DocID
		} else {
			gaps[i] = p.DocID - prev
		}
		prev = p.DocID
		freqs[i] = p.TF
	}
	return gaps, freqs
}

func absoluteDocIDs(postings []Posting) []uint32 {
	out := make([]uint32, len(postings))
	for i, p := range postings {
		out[i] = p.DocID
	}
	return out
}

// Write encodes postings (sorted and strictly increasing by DocID) as a
// single chunk and writes it to w in the layout:
//
//	[posting_count][first_doc][last_doc][docs_codec][freqs_codec]
//	[docs_bytes_len][freqs_bytes_len][docs_payload][freqs_payload]
//
// EliasFano is special-cased for the docs stream: when selected, it is
// applied to the absolute doc-ids rather than the d-gaps, because it is
// only meaningful over a monotonically increasing sequence. Write returns
// the chunk's Header and the number of bytes written.
func Write(w io.Writer, postings []Posting, cand Candidates) (Header, int64, error) {
	if len(postings) == 0 {
		return Header{}, 0, fmt.Errorf("chunk: cannot write an empty chunk")
	}
	gaps, freqs := Streams(postings)
	absolute := absoluteDocIDs(postings)

	docsCand := cand.Docs
	if len(docsCand) == 0 {
		docsCand = []compression.ID{compression.VariableByte}
	}
	freqsCand := cand.Freqs
	if len(freqsCand) == 0 {
		freqsCand = []compression.ID{compression.VariableByte}
	}

	docsID, _ := compression.Select(docsCand, func(id compression.ID) int {
		c, _ := compression.ForID(id)
		if id == compression.EliasFano {
			return c.BitLength(absolute)
		}
		return c.BitLength(gaps)
	})
	docsCodec, _ := compression.ForID(docsID)
	docsInput := gaps
	if docsID == compression.EliasFano {
		docsInput = absolute
	}
	docsBytes := docsCodec.Encode(nil, docsInput)

	freqsID, _ := compression.Select(freqsCand, func(id compression.ID) int {
		c, _ := compression.ForID(id)
		return c.BitLength(freqs)
	})
	freqsCodec, _ := compression.ForID(freqsID)
	freqsBytes := freqsCodec.Encode(nil, freqs)

	hdr := Header{
		PostingCount: len(postings),
		FirstDoc:     postings[0].DocID,
		LastDoc:      postings[len(postings)-1].DocID,
		DocsCodec:    docsID,
		FreqsCodec:   freqsID,
	}

	var buf []byte
	buf = varint.Append(buf, uint64(hdr.PostingCount))
	buf = varint.Append(buf, uint64(hdr.FirstDoc))
	buf = varint.Append(buf, uint64(hdr.LastDoc))
	buf = append(buf, byte(hdr.DocsCodec), byte(hdr.FreqsCodec))
	buf = varint.Append(buf, uint64(len(docsBytes)))
	buf = varint.Append(buf, uint64(len(freqsBytes)))
	buf = append(buf, docsBytes...)
	buf = append(buf, freqsBytes...)

	n, err := w.Write(buf)
	if err != nil {
		return Header{}, int64(n), fmt.Errorf("chunk: failed to write chunk: %v", err)
	}
	return hdr, int64(n), nil
}

// byteReader is the minimal surface chunk.Read needs from r: one byte at a
// time for varint decoding and bulk reads for the payloads. *os.File does
// not implement io.ByteReader, so a file must be wrapped (e.g. in a
// bufio.Reader) before it is passed in.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// Read decodes a single chunk from r, which must already be wrapped in
// something implementing io.ByteReader (e.g. bufio.Reader) and positioned
// at the start of a chunk record. It returns the decoded postings in
// ascending DocID order and the chunk Header.
func Read(r byteReader) ([]Posting, Header, error) {
	postingCount, err := readUvarint(r)
	if err != nil {
		return nil, Header{}, fmt.Errorf("chunk: failed to read posting count: %v", err)
	}
	firstDoc, err := readUvarint(r)
	if err != nil {
		return nil, Header{}, fmt.Errorf("chunk: failed to read first doc: %v", err)
	}
	lastDoc, err := readUvarint(r)
	if err != nil {
		return nil, Header{}, fmt.Errorf("chunk: failed to read last doc: %v", err)
	}
	docsCodecByte, err := r.ReadByte()
	if err != nil {
		return nil, Header{}, fmt.Errorf("chunk: failed to read docs codec id: %v", err)
	}
	freqsCodecByte, err := r.ReadByte()
	if err != nil {
		return nil, Header{}, fmt.Errorf("chunk: failed to read freqs codec id: %v", err)
	}
	docsLen, err := readUvarint(r)
	if err != nil {
		return nil, Header{}, fmt.Errorf("chunk: failed to read docs payload length: %v", err)
	}
	freqsLen, err := readUvarint(r)
	if err != nil {
		return nil, Header{}, fmt.Errorf("chunk: failed to read freqs payload length: %v", err)
	}

	docsBytes := make([]byte, docsLen)
	if _, err := io.ReadFull(r, docsBytes); err != nil {
		return nil, Header{}, fmt.Errorf("chunk: failed to read docs payload: %v", err)
	}
	freqsBytes := make([]byte, freqsLen)
	if _, err := io.ReadFull(r, freqsBytes); err != nil {
		return nil, Header{}, fmt.Errorf("chunk: failed to read freqs payload: %v", err)
	}

	hdr := Header{
		PostingCount: int(postingCount),
		FirstDoc:     uint32(firstDoc),
		LastDoc:      uint32(lastDoc),
		DocsCodec:    compression.ID(docsCodecByte),
		FreqsCodec:   compression.ID(freqsCodecByte),
	}

	docsCodec, ok := compression.ForID(hdr.DocsCodec)
	if !ok {
		return nil, Header{}, fmt.Errorf("chunk: unknown docs codec id %d (IndexCorrupt)", hdr.DocsCodec)
	}
	freqsCodec, ok := compression.ForID(hdr.FreqsCodec)
	if !ok {
		return nil, Header{}, fmt.Errorf("chunk: unknown freqs codec id %d (IndexCorrupt)", hdr.FreqsCodec)
	}

	docsDecoded, err := docsCodec.Decode(docsBytes, hdr.PostingCount)
	if err != nil {
		return nil, Header{}, fmt.Errorf("chunk: docs stream decode failed (IndexCorrupt): %v", err)
	}
	freqsDecoded, err := freqsCodec.Decode(freqsBytes, hdr.PostingCount)
	if err != nil {
		return nil, Header{}, fmt.Errorf("chunk: freqs stream decode failed (IndexCorrupt): %v", err)
	}
	if len(docsDecoded) != hdr.PostingCount || len(freqsDecoded) != hdr.PostingCount {
		return nil, Header{}, fmt.Errorf("chunk: stream length mismatch (IndexCorrupt)")
	}

	var docIDs []uint32
	if hdr.DocsCodec == compression.EliasFano {
		docIDs = docsDecoded
	} else {
		docIDs = make([]uint32, len(docsDecoded))
		var prev uint32
		for i, gap := range docsDecoded {
			if i == 0 {
				docIDs[i] = gap
			} else {
				docIDs[i] = prev + gap
			}
			prev = docIDs[i]
		}
	}

	postings := make([]Posting, hdr.PostingCount)
	for i := range postings {
		postings[i] = Posting{DocID: docIDs[i], TF: freqsDecoded[i]}
	}

	if hdr.PostingCount > 0 {
		if postings[0].DocID != hdr.FirstDoc || postings[hdr.PostingCount-1].DocID != hdr.LastDoc {
			return nil, Header{}, fmt.Errorf("chunk: decoded doc-id range does not match header (IndexCorrupt)")
		}
	}
	for i := 1; i < len(postings); i++ {
		if postings[i].DocID <= postings[i-1].DocID {
			return nil, Header{}, fmt.Errorf("chunk: doc-ids not strictly increasing (IndexCorrupt)")
		}
	}

	return postings, hdr, nil
}

func readUvarint(r io.ByteReader) (uint64, error) {
	return binary.ReadUvarint(r)
}
