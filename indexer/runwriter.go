// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package indexer

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/gustingonzalez/irmulticompression/chunk"
	"github.com/gustingonzalez/irmulticompression/internal/varint"
	"github.com/ulikunitz/xz"
)

// runWriter serializes a sorted stream of (term, postings) to a temp run
// file, lightly compressed with xz so the run stays small enough for
// merge streaming without paying for per-chunk codec selection, which
// only matters for the sealed postings file.
//
// Wire format per term: [term_len:varint][term bytes][posting_count:varint]
// (doc_id:varint, tf:varint) * posting_count.
type runWriter struct {
	f    *os.File
	xz   *xz.Writer
	bw   *bufio.Writer
	path string

	termCount int
	sawAny    bool
	firstDoc  uint32
	lastDoc   uint32
}

func newRunWriter(path string) (*runWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("indexer: failed to create temp run %s: %v", path, err)
	}
	xw, err := xz.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("indexer: failed to open xz writer for %s: %v", path, err)
	}
	return &runWriter{f: f, xz: xw, bw: bufio.NewWriter(xw), path: path}, nil
}

func (rw *runWriter) WriteTerm(term string, postings []chunk.Posting) error {
	var buf []byte
	buf = varint.Append(buf, uint64(len(term)))
	buf = append(buf, term...)
	buf = varint.Append(buf, uint64(len(postings)))
	for _, p := range postings {
		buf = varint.Append(buf, uint64(p.DocID))
		buf = varint.Append(buf, uint64(p.TF))
	}
	if _, err := rw.bw.Write(buf); err != nil {
		return fmt.Errorf("indexer: failed to write term %q to run %s: %v", term, rw.path, err)
	}
	rw.termCount++
	for _, p := range postings {
		if !rw.sawAny || p.DocID < rw.firstDoc {
			rw.firstDoc = p.DocID
		}
		if !rw.sawAny || p.DocID > rw.lastDoc {
			rw.lastDoc = p.DocID
		}
		rw.sawAny = true
	}
	return nil
}

// Close flushes and closes the run file, writes its manifest and returns
// it.
func (rw *runWriter) Close() (Manifest, error) {
	if err := rw.bw.Flush(); err != nil {
		return Manifest{}, fmt.Errorf("indexer: failed to flush run %s: %v", rw.path, err)
	}
	if err := rw.xz.Close(); err != nil {
		return Manifest{}, fmt.Errorf("indexer: failed to close xz stream for %s: %v", rw.path, err)
	}
	if err := rw.f.Close(); err != nil {
		return Manifest{}, fmt.Errorf("indexer: failed to close run file %s: %v", rw.path, err)
	}
	info, err := os.Stat(rw.path)
	if err != nil {
		return Manifest{}, fmt.Errorf("indexer: failed to stat run file %s: %v", rw.path, err)
	}
	m := Manifest{
		Path:      rw.path,
		TermCount: rw.termCount,
		ByteSize:  info.Size(),
		FirstDoc:  rw.firstDoc,
		LastDoc:   rw.lastDoc,
	}
	if err := writeManifest(m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// runReader reads back a run written by runWriter, one term at a time, in
// the same order it was written.
type runReader struct {
	f  *os.File
	xr *xz.Reader
	br *bufio.Reader
}

func newRunReader(path string) (*runReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("indexer: failed to open run %s: %v", path, err)
	}
	xr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("indexer: failed to open xz reader for %s: %v", path, err)
	}
	return &runReader{f: f, xr: xr, br: bufio.NewReader(xr)}, nil
}

// ReadTerm reads the next (term, postings) entry, returning io.EOF when
// the run is exhausted.
func (rr *runReader) ReadTerm() (string, []chunk.Posting, error) {
	termLen, err := readUvarintByte(rr.br)
	if err != nil {
		if err == io.EOF {
			return "", nil, io.EOF
		}
		return "", nil, fmt.Errorf("indexer: failed to read term length: %v", err)
	}
	termBytes := make([]byte, termLen)
	if _, err := io.ReadFull(rr.br, termBytes); err != nil {
		return "", nil, fmt.Errorf("indexer: failed to read term bytes: %v", err)
	}
	count, err := readUvarintByte(rr.br)
	if err != nil {
		return "", nil, fmt.Errorf("indexer: failed to read posting count: %v", err)
	}
	postings := make([]chunk.Posting, count)
	for i := range postings {
		docID, err := readUvarintByte(rr.br)
		if err != nil {
			return "", nil, fmt.Errorf("indexer: failed to read doc id: %v", err)
		}
		tf, err := readUvarintByte(rr.br)
		if err != nil {
			return "", nil, fmt.Errorf("indexer: failed to read tf: %v", err)
		}
		postings[i] = chunk.Posting{DocID: uint32(docID), TF: uint32(tf)}
	}
	return string(termBytes), postings, nil
}

func (rr *runReader) Close() error {
	return rr.f.Close()
}
