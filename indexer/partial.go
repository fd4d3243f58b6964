// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package indexer

import (
	"fmt"
	"sort"

	"github.com/gustingonzalez/irmulticompression/chunk"
	"github.com/gustingonzalez/irmulticompression/corpus"
)

// PartialIndexerOptions configures a single worker's in-memory budget.
type PartialIndexerOptions struct {
	// TempDir is the directory temp run files are written to.
	TempDir string
	// ResourcesFactor controls how many temp runs a worker's slice is
	// split into: the slice is flushed every len(slice)/ResourcesFactor
	// documents. The default, 4, keeps a worker's resident term map small
	// without flushing so often that run files proliferate.
	ResourcesFactor int
	// RunPrefix names this worker's run files: "<RunPrefix>-<n>.run".
	RunPrefix string
}

// PartialIndexer builds an in-memory term -> postings map over one
// worker's disjoint slice of the corpus, flushing sorted runs to disk as
// its budget is exceeded. Workers do not share state; the doc-id range
// each one is given is assigned by the driver before any worker starts.
type PartialIndexer struct {
	opts PartialIndexerOptions
}

func NewPartialIndexer(opts PartialIndexerOptions) *PartialIndexer {
	if opts.ResourcesFactor <= 0 {
		opts.ResourcesFactor = 4
	}
	return &PartialIndexer{opts: opts}
}

// Index consumes docs (already tokenized), whose doc-ids are
// docIDBase, docIDBase+1, ..., and returns the manifests of the temp
// runs it flushed.
func (p *PartialIndexer) Index(docs []corpus.Document, docIDBase uint32) ([]Manifest, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	flushEvery := len(docs) / p.opts.ResourcesFactor
	if flushEvery <= 0 {
		flushEvery = len(docs)
	}

	terms := map[string][]chunk.Posting{}
	var manifests []Manifest
	runIndex := 0

	flush := func() error {
		if len(terms) == 0 {
			return nil
		}
		path := fmt.Sprintf("%s/%s-%d.run", p.opts.TempDir, p.opts.RunPrefix, runIndex)
		runIndex++
		m, err := p.flushRun(path, terms)
		if err != nil {
			return err
		}
		manifests = append(manifests, m)
		terms = map[string][]chunk.Posting{}
		return nil
	}

	for i, doc := range docs {
		docID := docIDBase + uint32(i)
		tf := map[string]uint32{}
		for _, tok := range doc.Tokens {
			tf[tok]++
		}
		if len(tf) > 0 {
			toks := make([]string, 0, len(tf))
			for tok := range tf {
				toks = append(toks, tok)
			}
			sort.Strings(toks)
			for _, tok := range toks {
				terms[tok] = append(terms[tok], chunk.Posting{DocID: docID, TF: tf[tok]})
			}
		}

		if (i+1)%flushEvery == 0 && i != len(docs)-1 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return manifests, nil
}

func (p *PartialIndexer) flushRun(path string, terms map[string][]chunk.Posting) (Manifest, error) {
	ordered := make([]string, 0, len(terms))
	for t := range terms {
		ordered = append(ordered, t)
	}
	sort.Strings(ordered)

	rw, err := newRunWriter(path)
	if err != nil {
		return Manifest{}, err
	}
	for _, t := range ordered {
		if err := rw.WriteTerm(t, terms[t]); err != nil {
			return Manifest{}, err
		}
	}
	return rw.Close()
}
