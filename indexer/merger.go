// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package indexer

import (
	"bufio"
	"container/heap"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gustingonzalez/irmulticompression/chunk"
	"github.com/gustingonzalez/irmulticompression/postings"
)

// runCursor tracks one temp run's current (term, postings) entry. It is
// the k-way merge analogue of bam.reader: advance pulls the next entry,
// err holds io.EOF once the run is drained.
type runCursor struct {
	runIdx int
	rr     *runReader
	term   string
	post   []chunk.Posting
	err    error
}

func (c *runCursor) advance() {
	c.term, c.post, c.err = c.rr.ReadTerm()
}

// Merger performs the single-threaded k-way merge: a priority
// queue keyed by each run's current term, popping every run tied on the
// minimum term and concatenating their postings (already globally sorted,
// since runs are assigned disjoint doc-id ranges in ascending order) before
// handing the combined list to the posting-list assembler.
type Merger struct {
	cursors   []*runCursor
	outDir    string
	chunkSize int
	cand      chunk.Candidates

	vocabFile      *os.File
	vocabWriter    *bufio.Writer
	chunksInfoFile *os.File
	postingsFile   *os.File

	docsStatsFile  *os.File
	freqsStatsFile *os.File

	postingsOffset   int64
	chunksInfoOffset int64
}

// NewMerger opens outDir's vocabulary.txt, chunksinfo.bin and
// postings.bin for writing and prepares a runReader per temp run listed
// in manifests, validating each manifest first.
func NewMerger(manifests []Manifest, outDir string, chunkSize int, cand chunk.Candidates) (*Merger, error) {
	for _, m := range manifests {
		if _, err := readManifest(m.Path); err != nil {
			return nil, err
		}
	}

	vocabFile, err := os.Create(filepath.Join(outDir, "vocabulary.txt"))
	if err != nil {
		return nil, fmt.Errorf("indexer: failed to create vocabulary.txt: %v", err)
	}
	chunksInfoFile, err := os.Create(filepath.Join(outDir, "chunksinfo.bin"))
	if err != nil {
		vocabFile.Close()
		return nil, fmt.Errorf("indexer: failed to create chunksinfo.bin: %v", err)
	}
	postingsFile, err := os.Create(filepath.Join(outDir, "postings.bin"))
	if err != nil {
		vocabFile.Close()
		chunksInfoFile.Close()
		return nil, fmt.Errorf("indexer: failed to create postings.bin: %v", err)
	}

	m := &Merger{
		outDir:         outDir,
		chunkSize:      chunkSize,
		cand:           cand,
		vocabFile:      vocabFile,
		vocabWriter:    bufio.NewWriter(vocabFile),
		chunksInfoFile: chunksInfoFile,
		postingsFile:   postingsFile,
	}

	// Statistics files are only emitted when the corresponding stream
	// actually has more than one candidate codec to choose among.
	if len(cand.Docs) > 1 {
		f, err := os.Create(filepath.Join(outDir, "encoder_docs_statistics.txt"))
		if err != nil {
			m.closeAll()
			return nil, fmt.Errorf("indexer: failed to create encoder_docs_statistics.txt: %v", err)
		}
		m.docsStatsFile = f
	}
	if len(cand.Freqs) > 1 {
		f, err := os.Create(filepath.Join(outDir, "encoder_freqs_statistics.txt"))
		if err != nil {
			m.closeAll()
			return nil, fmt.Errorf("indexer: failed to create encoder_freqs_statistics.txt: %v", err)
		}
		m.freqsStatsFile = f
	}

	for i, man := range manifests {
		rr, err := newRunReader(man.Path)
		if err != nil {
			m.closeAll()
			return nil, err
		}
		cur := &runCursor{runIdx: i, rr: rr}
		cur.advance()
		if cur.err != nil && cur.err != io.EOF {
			rr.Close()
			m.closeAll()
			return nil, fmt.Errorf("indexer: failed to read first term of %s (IntegrityError): %v", man.Path, cur.err)
		}
		if cur.err == io.EOF {
			// Empty run: nothing to contribute, leave it out of the heap.
			rr.Close()
			continue
		}
		m.cursors = append(m.cursors, cur)
	}

	heap.Init((*byTerm)(m))
	return m, nil
}

func (m *Merger) closeAll() {
	for _, c := range m.cursors {
		c.rr.Close()
	}
	m.vocabFile.Close()
	m.chunksInfoFile.Close()
	m.postingsFile.Close()
	if m.docsStatsFile != nil {
		m.docsStatsFile.Close()
	}
	if m.freqsStatsFile != nil {
		m.freqsStatsFile.Close()
	}
}

// Merge drains every run, writing the sealed vocabulary, chunksinfo and
// postings files, and returns their paths.
func (m *Merger) Merge() (collectionPaths [3]string, err error) {
	defer m.closeAll()

	for (*byTerm)(m).Len() > 0 {
		group := m.popTiedGroup()

		var full []chunk.Posting
		for _, c := range group {
			full = append(full, c.post...)
		}

		// Built with explicit nil checks rather than assigning the *os.File
		// fields directly: an unset *os.File boxed into the io.Writer
		// fields would compare non-nil and make the first Write fail with
		// os.ErrInvalid.
		stats := &postings.StatsSink{Term: group[0].term}
		if m.docsStatsFile != nil {
			stats.Docs = m.docsStatsFile
		}
		if m.freqsStatsFile != nil {
			stats.Freqs = m.freqsStatsFile
		}
		info, n, err := postings.Assemble(m.postingsFile, full, m.chunkSize, m.cand, m.postingsOffset, stats)
		if err != nil {
			return [3]string{}, err
		}
		m.postingsOffset += n

		startOffset := m.chunksInfoOffset
		written, err := postings.WriteChunksInfo(m.chunksInfoFile, info)
		if err != nil {
			return [3]string{}, err
		}
		m.chunksInfoOffset += written

		if _, err := fmt.Fprintf(m.vocabWriter, "%s\t%d\n", group[0].term, startOffset); err != nil {
			return [3]string{}, fmt.Errorf("indexer: failed to write vocabulary entry: %v", err)
		}

		for _, c := range group {
			c.advance()
			if c.err != nil && c.err != io.EOF {
				return [3]string{}, fmt.Errorf("indexer: truncated run (IntegrityError): %v", c.err)
			}
			if c.err == io.EOF {
				c.rr.Close()
				continue
			}
			heap.Push((*byTerm)(m), c)
		}
	}

	if err := m.vocabWriter.Flush(); err != nil {
		return [3]string{}, fmt.Errorf("indexer: failed to flush vocabulary.txt: %v", err)
	}
	if err := m.vocabFile.Close(); err != nil {
		return [3]string{}, fmt.Errorf("indexer: failed to close vocabulary.txt: %v", err)
	}
	if err := m.chunksInfoFile.Close(); err != nil {
		return [3]string{}, fmt.Errorf("indexer: failed to close chunksinfo.bin: %v", err)
	}
	if err := m.postingsFile.Close(); err != nil {
		return [3]string{}, fmt.Errorf("indexer: failed to close postings.bin: %v", err)
	}
	m.cursors = nil

	return [3]string{m.vocabFile.Name(), m.chunksInfoFile.Name(), m.postingsFile.Name()}, nil
}

// popTiedGroup pops every cursor whose current term equals the heap's
// minimum, in ascending runIdx order, matching the disjoint doc-id-range
// ordering the driver guarantees across workers.
func (m *Merger) popTiedGroup() []*runCursor {
	first := heap.Pop((*byTerm)(m)).(*runCursor)
	group := []*runCursor{first}
	for (*byTerm)(m).Len() > 0 && m.cursors[0].term == first.term {
		group = append(group, heap.Pop((*byTerm)(m)).(*runCursor))
	}
	return group
}

// byTerm adapts Merger to container/heap, ordering cursors by their
// current term and, to break ties deterministically, by runIdx.
type byTerm Merger

func (m *byTerm) Len() int { return len(m.cursors) }
func (m *byTerm) Less(i, j int) bool {
	a, b := m.cursors[i], m.cursors[j]
	if a.term != b.term {
		return a.term < b.term
	}
	return a.runIdx < b.runIdx
}
func (m *byTerm) Swap(i, j int) { m.cursors[i], m.cursors[j] = m.cursors[j], m.cursors[i] }
func (m *byTerm) Push(x interface{}) {
	m.cursors = append(m.cursors, x.(*runCursor))
}
func (m *byTerm) Pop() interface{} {
	old := m.cursors
	n := len(old)
	c := old[n-1]
	m.cursors = old[:n-1]
	return c
}
