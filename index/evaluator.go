// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"github.com/gustingonzalez/irmulticompression/corpus"
	"golang.org/x/exp/slices"
)

// Browser evaluates Boolean AND queries over a mounted Index.
type Browser struct {
	idx *Index
}

// NewBrowser returns a Browser over idx.
func NewBrowser(idx *Index) *Browser {
	return &Browser{idx: idx}
}

// Browse tokenizes query the same way documents were tokenized, resolves
// each term to a cursor, and returns the ordered doc-ids satisfying the
// conjunction of all terms. A term absent from the vocabulary makes the
// whole query return an empty result without raising an error.
func (b *Browser) Browse(query string) ([]uint32, error) {
	tokens := corpus.Tokenize([]byte(query))
	if len(tokens) == 0 {
		return nil, nil
	}

	cursors := make([]*Cursor, 0, len(tokens))
	for _, t := range tokens {
		cur, err := b.idx.Resolve(t)
		if err == ErrTermNotFound {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		cursors = append(cursors, cur)
	}

	// Shortest list first minimizes the work the galloping intersection
	// below has to do.
	slices.SortFunc(cursors, func(a, b *Cursor) int { return a.ChunkCount() - b.ChunkCount() })

	return intersect(cursors)
}

// intersect performs the galloping AND intersection: maintain a
// candidate doc-id; advance every cursor to it; if any cursor
// overshoots, adopt its doc-id as the new candidate and restart from the
// first cursor.
func intersect(cursors []*Cursor) ([]uint32, error) {
	if len(cursors) == 0 {
		return nil, nil
	}

	ok, err := cursors[0].Advance(0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	first, _ := cursors[0].Current()
	candidate := first.DocID

	var results []uint32
	for {
		allMatch := true
		for _, cur := range cursors {
			ok, err := cur.Advance(candidate)
			if err != nil {
				return nil, err
			}
			if !ok {
				return results, nil
			}
			p, _ := cur.Current()
			if p.DocID > candidate {
				candidate = p.DocID
				allMatch = false
				break
			}
		}
		if !allMatch {
			continue
		}

		results = append(results, candidate)
		ok, err := cursors[0].Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return results, nil
		}
		next, _ := cursors[0].Current()
		candidate = next.DocID
	}
}
