// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chunk

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/gustingonzalez/irmulticompression/compression"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func mkPostings(docs, tfs []uint32) []Posting {
	ps := make([]Posting, len(docs))
	for i := range docs {
		ps[i] = Posting{DocID: docs[i], TF: tfs[i]}
	}
	return ps
}

func (s *S) TestWriteReadRoundTrip(c *check.C) {
	postings := mkPostings(
		[]uint32{3, 7, 8, 20, 21, 22, 1000},
		[]uint32{1, 1, 4, 2, 1, 9, 3},
	)

	var buf bytes.Buffer
	hdr, n, err := Write(&buf, postings, Candidates{})
	c.Assert(err, check.IsNil)
	c.Check(n, check.Equals, int64(buf.Len()))
	c.Check(hdr.PostingCount, check.Equals, len(postings))
	c.Check(hdr.FirstDoc, check.Equals, uint32(3))
	c.Check(hdr.LastDoc, check.Equals, uint32(1000))

	got, rhdr, err := Read(bufio.NewReader(&buf))
	c.Assert(err, check.IsNil)
	c.Check(got, check.DeepEquals, postings)
	c.Check(rhdr, check.DeepEquals, hdr)
}

func (s *S) TestWriteSelectsAmongCandidates(c *check.C) {
	postings := mkPostings(
		[]uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		[]uint32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	)
	cand := Candidates{
		Docs:  []compression.ID{compression.VariableByte, compression.Unary, compression.BitPacking},
		Freqs: []compression.ID{compression.VariableByte, compression.Unary},
	}
	var buf bytes.Buffer
	hdr, _, err := Write(&buf, postings, cand)
	c.Assert(err, check.IsNil)
	// Consecutive doc-ids produce all-ones gaps. Unary spends two bits on
	// each (20 bits, padded to 24) and BitPacking one bit each after its
	// width byte (8+10 bits, padded to 24); both beat VariableByte's 80
	// bits, and the tie goes to BitPacking by Precedence.
	c.Check(hdr.DocsCodec, check.Equals, compression.BitPacking)

	got, _, err := Read(bufio.NewReader(&buf))
	c.Assert(err, check.IsNil)
	c.Check(got, check.DeepEquals, postings)
}

func (s *S) TestWriteEliasFanoAppliesToAbsoluteDocIDs(c *check.C) {
	postings := mkPostings(
		[]uint32{10, 500, 1000, 1500, 2000, 100000},
		[]uint32{2, 1, 1, 3, 1, 1},
	)
	cand := Candidates{Docs: []compression.ID{compression.EliasFano}}
	var buf bytes.Buffer
	hdr, _, err := Write(&buf, postings, cand)
	c.Assert(err, check.IsNil)
	c.Check(hdr.DocsCodec, check.Equals, compression.EliasFano)

	got, _, err := Read(bufio.NewReader(&buf))
	c.Assert(err, check.IsNil)
	c.Check(got, check.DeepEquals, postings)
}

func (s *S) TestWriteRejectsEmptyChunk(c *check.C) {
	var buf bytes.Buffer
	_, _, err := Write(&buf, nil, Candidates{})
	c.Check(err, check.NotNil)
}

func (s *S) TestReadDetectsCorruptHeaderRange(c *check.C) {
	postings := mkPostings([]uint32{1, 2, 3}, []uint32{1, 1, 1})
	var buf bytes.Buffer
	_, _, err := Write(&buf, postings, Candidates{})
	c.Assert(err, check.IsNil)

	raw := buf.Bytes()
	// Corrupt the first_doc varint (second byte of the wire format) so the
	// header no longer matches the decoded stream.
	raw[1] = raw[1] + 1

	_, _, err = Read(bufio.NewReader(bytes.NewReader(raw)))
	c.Check(err, check.NotNil)
}

func (s *S) TestStreamsComputesGapsFromFirstDoc(c *check.C) {
	postings := mkPostings([]uint32{5, 9, 30}, []uint32{1, 2, 3})
	gaps, freqs := Streams(postings)
	c.Check(gaps, check.DeepEquals, []uint32{5, 4, 21})
	c.Check(freqs, check.DeepEquals, []uint32{1, 2, 3})
}
