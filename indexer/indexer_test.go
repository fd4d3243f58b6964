// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package indexer

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gustingonzalez/irmulticompression/chunk"
	"github.com/gustingonzalez/irmulticompression/compression"
	"github.com/gustingonzalez/irmulticompression/corpus"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func (s *S) TestRunWriterReaderRoundTrip(c *check.C) {
	dir := c.MkDir()
	path := filepath.Join(dir, "a.run")

	rw, err := newRunWriter(path)
	c.Assert(err, check.IsNil)
	c.Assert(rw.WriteTerm("alpha", []chunk.Posting{{DocID: 1, TF: 2}, {DocID: 3, TF: 1}}), check.IsNil)
	c.Assert(rw.WriteTerm("beta", []chunk.Posting{{DocID: 2, TF: 5}}), check.IsNil)
	manifest, err := rw.Close()
	c.Assert(err, check.IsNil)
	c.Check(manifest.TermCount, check.Equals, 2)
	c.Check(manifest.FirstDoc, check.Equals, uint32(1))
	c.Check(manifest.LastDoc, check.Equals, uint32(3))

	got, err := readManifest(path)
	c.Assert(err, check.IsNil)
	c.Check(got, check.DeepEquals, manifest)

	rr, err := newRunReader(path)
	c.Assert(err, check.IsNil)
	defer rr.Close()

	term, post, err := rr.ReadTerm()
	c.Assert(err, check.IsNil)
	c.Check(term, check.Equals, "alpha")
	c.Check(post, check.DeepEquals, []chunk.Posting{{DocID: 1, TF: 2}, {DocID: 3, TF: 1}})

	term, post, err = rr.ReadTerm()
	c.Assert(err, check.IsNil)
	c.Check(term, check.Equals, "beta")
	c.Check(post, check.DeepEquals, []chunk.Posting{{DocID: 2, TF: 5}})

	_, _, err = rr.ReadTerm()
	c.Check(err, check.Equals, io.EOF)
}

func (s *S) TestPartialIndexerFlushesSortedRuns(c *check.C) {
	dir := c.MkDir()
	docs := []corpus.Document{
		{Name: "d0", Tokens: []string{"alpha", "beta", "alpha"}},
		{Name: "d1", Tokens: []string{"beta", "gamma"}},
		{Name: "d2", Tokens: []string{"alpha", "gamma"}},
		{Name: "d3", Tokens: []string{"delta"}},
	}
	pi := NewPartialIndexer(PartialIndexerOptions{TempDir: dir, ResourcesFactor: 2, RunPrefix: "w0"})
	manifests, err := pi.Index(docs, 100)
	c.Assert(err, check.IsNil)
	c.Check(len(manifests) >= 1, check.Equals, true)

	seen := map[string][]chunk.Posting{}
	for _, m := range manifests {
		rr, err := newRunReader(m.Path)
		c.Assert(err, check.IsNil)
		for {
			term, post, err := rr.ReadTerm()
			if err != nil {
				break
			}
			seen[term] = append(seen[term], post...)
		}
		rr.Close()
	}
	c.Check(seen["alpha"], check.DeepEquals, []chunk.Posting{{DocID: 100, TF: 2}, {DocID: 102, TF: 1}})
	c.Check(seen["beta"], check.DeepEquals, []chunk.Posting{{DocID: 100, TF: 1}, {DocID: 101, TF: 1}})
	c.Check(seen["delta"], check.DeepEquals, []chunk.Posting{{DocID: 103, TF: 1}})
}

func (s *S) TestCreateIndexAndMergeEndToEnd(c *check.C) {
	corpusDir := c.MkDir()
	files := map[string]string{
		"d0.txt": "alpha beta alpha",
		"d1.txt": "beta gamma",
		"d2.txt": "alpha gamma delta",
	}
	for name, content := range files {
		c.Assert(os.WriteFile(filepath.Join(corpusDir, name), []byte(content), 0o644), check.IsNil)
	}

	outDir := filepath.Join(c.MkDir(), "out")
	status, err := CreateIndex(CreateOptions{
		CorpusDir:        corpusDir,
		Mode:             corpus.Text,
		OutDir:           outDir,
		ChunkSize:        0,
		MaxChildIndexers: 2,
		ResourcesFactor:  1,
	})
	c.Assert(err, check.IsNil)
	c.Check(status, check.Equals, StatusOK)

	for _, name := range sealedFiles {
		_, err := os.Stat(filepath.Join(outDir, name))
		c.Check(err, check.IsNil)
	}

	vocab, err := os.Open(filepath.Join(outDir, "vocabulary.txt"))
	c.Assert(err, check.IsNil)
	defer vocab.Close()
	sc := bufio.NewScanner(vocab)
	var terms []string
	for sc.Scan() {
		terms = append(terms, sc.Text())
	}
	// alpha, beta, delta, gamma in ascending order.
	c.Assert(len(terms) >= 1, check.Equals, true)
	var names []string
	for _, t := range terms {
		names = append(names, strings.SplitN(t, "\t", 2)[0])
	}
	c.Check(names, check.DeepEquals, []string{"alpha", "beta", "delta", "gamma"})

	// Second call with overwrite=false must detect the sealed index already
	// exists and do no further work.
	status, err = CreateIndex(CreateOptions{
		CorpusDir: corpusDir,
		Mode:      corpus.Text,
		OutDir:    outDir,
		Overwrite: false,
	})
	c.Assert(err, check.IsNil)
	c.Check(status, check.Equals, StatusAlreadyIndexed)
}

func (s *S) TestCreateIndexReuseTmpSkipsRevalidatedSlices(c *check.C) {
	corpusDir := c.MkDir()
	c.Assert(os.WriteFile(filepath.Join(corpusDir, "d0.txt"), []byte("alpha"), 0o644), check.IsNil)

	outDir := filepath.Join(c.MkDir(), "out")
	tempDir := filepath.Join(outDir, ".tmp")
	c.Assert(os.MkdirAll(tempDir, 0o755), check.IsNil)

	// Plant a run file for worker 0 as if a prior build had already
	// partial-indexed it, with a term the real corpus does not contain.
	// If ReuseTmp skips re-indexing, that planted term survives into the
	// sealed index instead of being overwritten by a fresh partial index.
	runPath := filepath.Join(tempDir, "run-0-0.run")
	rw, err := newRunWriter(runPath)
	c.Assert(err, check.IsNil)
	c.Assert(rw.WriteTerm("stale", []chunk.Posting{{DocID: 0, TF: 1}}), check.IsNil)
	_, err = rw.Close()
	c.Assert(err, check.IsNil)

	status, err := CreateIndex(CreateOptions{
		CorpusDir:        corpusDir,
		Mode:             corpus.Text,
		OutDir:           outDir,
		TempDir:          tempDir,
		MaxChildIndexers: 1,
		ReuseTmp:         true,
	})
	c.Assert(err, check.IsNil)
	c.Check(status, check.Equals, StatusOK)

	vocab, err := os.ReadFile(filepath.Join(outDir, "vocabulary.txt"))
	c.Assert(err, check.IsNil)
	c.Check(strings.Contains(string(vocab), "stale\t"), check.Equals, true)

	// The run file (and its manifest) survive a ReuseTmp build.
	_, err = os.Stat(runPath)
	c.Check(err, check.IsNil)
}

func (s *S) TestCreateIndexEmitsStatisticsOnlyWithMultipleCandidates(c *check.C) {
	corpusDir := c.MkDir()
	c.Assert(os.WriteFile(filepath.Join(corpusDir, "d0.txt"), []byte("alpha beta alpha"), 0o644), check.IsNil)

	outDir := filepath.Join(c.MkDir(), "out")
	status, err := CreateIndex(CreateOptions{
		CorpusDir: corpusDir,
		Mode:      corpus.Text,
		OutDir:    outDir,
		Candidates: chunk.Candidates{
			Docs:  []compression.ID{compression.VariableByte, compression.Gamma},
			Freqs: []compression.ID{compression.VariableByte},
		},
	})
	c.Assert(err, check.IsNil)
	c.Check(status, check.Equals, StatusOK)

	// Docs has two candidates: its statistics file is emitted.
	data, err := os.ReadFile(filepath.Join(outDir, "encoder_docs_statistics.txt"))
	c.Assert(err, check.IsNil)
	c.Check(len(data) > 0, check.Equals, true)
	c.Check(strings.Contains(string(data), "alpha\t"), check.Equals, true)

	// Freqs has a single candidate: no statistics file is written.
	_, err = os.Stat(filepath.Join(outDir, "encoder_freqs_statistics.txt"))
	c.Check(os.IsNotExist(err), check.Equals, true)
}

func (s *S) TestCreateIndexMissingCorpus(c *check.C) {
	status, err := CreateIndex(CreateOptions{
		CorpusDir: filepath.Join(c.MkDir(), "missing"),
		OutDir:    filepath.Join(c.MkDir(), "out"),
	})
	c.Assert(err, check.IsNil)
	c.Check(status, check.Equals, StatusCollectionNonExistent)
}

func (s *S) TestSplitSlicesPreservesOrderAndBases(c *check.C) {
	docs := make([]corpus.Document, 7)
	for i := range docs {
		docs[i] = corpus.Document{Name: string(rune('a' + i))}
	}
	slices, bases := splitSlices(docs, 3)
	c.Assert(len(slices), check.Equals, 3)
	c.Check(len(slices[0])+len(slices[1])+len(slices[2]), check.Equals, 7)
	c.Check(bases[0], check.Equals, uint32(0))
	c.Check(bases[1], check.Equals, uint32(len(slices[0])))
	c.Check(bases[2], check.Equals, uint32(len(slices[0])+len(slices[1])))
}
