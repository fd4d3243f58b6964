// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package indexer implements the two-phase external indexing pipeline:
// parallel partial indexers writing sorted temp runs, followed by a
// single-threaded k-way merge that seals the on-disk index.
package indexer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gustingonzalez/irmulticompression/chunk"
	"github.com/gustingonzalez/irmulticompression/corpus"
)

// Status reports the outcome of CreateIndex.
type Status int

const (
	StatusOK Status = iota
	StatusAlreadyIndexed
	StatusCollectionNonExistent
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "Ok"
	case StatusAlreadyIndexed:
		return "Already_Indexed"
	case StatusCollectionNonExistent:
		return "Collection_Non_Existent"
	default:
		return "Unknown"
	}
}

// CreateOptions configures one call to CreateIndex.
type CreateOptions struct {
	CorpusDir  string
	Mode       corpus.Mode
	OutDir     string
	Overwrite  bool
	ChunkSize  int
	Candidates chunk.Candidates

	// MaxChildIndexers bounds partial-indexer parallelism, default 2.
	MaxChildIndexers int
	// ResourcesFactor is forwarded to each PartialIndexer.
	ResourcesFactor int
	// TempDir holds temp runs; defaults to OutDir+"/.tmp" if empty.
	TempDir string
	// ReuseTmp makes each worker reuse the temp runs a prior build left
	// for its slice when all of their manifests validate, instead of
	// re-indexing that slice, and leaves the temp runs in TempDir after a
	// successful build. Temp runs are left in place after a failed build
	// whether or not it is set.
	ReuseTmp bool
}

const defaultMaxChildIndexers = 2

// sealedFiles names the four files that make up a sealed index.
var sealedFiles = []string{"collection.txt", "vocabulary.txt", "chunksinfo.bin", "postings.bin"}

func sealedIndexExists(outDir string) bool {
	for _, name := range sealedFiles {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			return false
		}
	}
	return true
}

// CreateIndex builds a sealed index from opts.CorpusDir into opts.OutDir.
// It reads the corpus, assigns doc-ids, splits
// the corpus deterministically across up to MaxChildIndexers partial
// indexers run in parallel, and merges their temp runs into the four
// sealed files.
func CreateIndex(opts CreateOptions) (Status, error) {
	if opts.MaxChildIndexers <= 0 {
		opts.MaxChildIndexers = defaultMaxChildIndexers
	}
	if opts.TempDir == "" {
		opts.TempDir = filepath.Join(opts.OutDir, ".tmp")
	}

	if !opts.Overwrite && sealedIndexExists(opts.OutDir) {
		return StatusAlreadyIndexed, nil
	}

	docs, err := corpus.Read(opts.CorpusDir, opts.Mode)
	if err != nil {
		if err == corpus.ErrCollectionNonExistent {
			return StatusCollectionNonExistent, nil
		}
		return StatusCollectionNonExistent, err
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return StatusOK, fmt.Errorf("indexer: failed to create output directory: %v", err)
	}
	if err := os.MkdirAll(opts.TempDir, 0o755); err != nil {
		return StatusOK, fmt.Errorf("indexer: failed to create temp directory: %v", err)
	}

	if err := writeCollection(opts.OutDir, docs); err != nil {
		return StatusOK, err
	}

	slices, bases := splitSlices(docs, opts.MaxChildIndexers)

	manifests, err := runPartialIndexers(slices, bases, opts)
	if err != nil {
		return StatusOK, err
	}

	merger, err := NewMerger(manifests, opts.OutDir, opts.ChunkSize, opts.Candidates)
	if err != nil {
		return StatusOK, err
	}
	if _, err := merger.Merge(); err != nil {
		return StatusOK, err
	}

	if !opts.ReuseTmp {
		for _, m := range manifests {
			os.Remove(m.Path)
			os.Remove(manifestPath(m.Path))
		}
		os.Remove(opts.TempDir)
	}

	return StatusOK, nil
}

// splitSlices partitions docs into up to n contiguous, order-preserving
// slices and returns each slice's starting doc-id. Contiguity and order
// preservation are what let the merger treat concatenation in worker-id
// order as already-sorted.
func splitSlices(docs []corpus.Document, n int) ([][]corpus.Document, []uint32) {
	if n <= 0 {
		n = 1
	}
	if n > len(docs) {
		n = len(docs)
	}
	if n == 0 {
		return nil, nil
	}

	base := len(docs) / n
	rem := len(docs) % n

	var slices [][]corpus.Document
	var bases []uint32
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		slices = append(slices, docs[start:start+size])
		bases = append(bases, uint32(start))
		start += size
	}
	return slices, bases
}

// runPartialIndexers runs one PartialIndexer per slice, bounded by
// opts.MaxChildIndexers (here equal to len(slices), already capped by
// splitSlices), and collects every worker's manifests. The first worker
// error wins; the rest are allowed to finish their current slice before
// the driver returns it.
func runPartialIndexers(slices [][]corpus.Document, bases []uint32, opts CreateOptions) ([]Manifest, error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	perWorker := make([][]Manifest, len(slices))

	for i, slice := range slices {
		runPrefix := fmt.Sprintf("run-%d", i)

		if opts.ReuseTmp {
			if ms, ok := reusableManifests(opts.TempDir, runPrefix); ok {
				perWorker[i] = ms
				continue
			}
		}

		wg.Add(1)
		go func(i int, slice []corpus.Document, base uint32, runPrefix string) {
			defer wg.Done()
			pi := NewPartialIndexer(PartialIndexerOptions{
				TempDir:         opts.TempDir,
				ResourcesFactor: opts.ResourcesFactor,
				RunPrefix:       runPrefix,
			})
			ms, err := pi.Index(slice, base)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			perWorker[i] = ms
		}(i, slice, bases[i], runPrefix)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	// Flatten in worker order, not completion order: the merger's tie-break
	// relies on manifests appearing in ascending doc-id-range order.
	var manifests []Manifest
	for _, ms := range perWorker {
		manifests = append(manifests, ms...)
	}
	return manifests, nil
}

// reusableManifests looks in tempDir for run files left by a prior,
// aborted build under runPrefix and returns their manifests in ascending
// run-index order if every one of them validates. A missing or corrupt
// manifest for any matching run means the worker's slice must be
// re-indexed from scratch.
func reusableManifests(tempDir, runPrefix string) ([]Manifest, bool) {
	matches, err := filepath.Glob(filepath.Join(tempDir, runPrefix+"-*.run"))
	if err != nil || len(matches) == 0 {
		return nil, false
	}
	sort.Slice(matches, func(i, j int) bool { return runSuffix(matches[i]) < runSuffix(matches[j]) })

	manifests := make([]Manifest, 0, len(matches))
	for _, path := range matches {
		m, err := readManifest(path)
		if err != nil {
			return nil, false
		}
		manifests = append(manifests, m)
	}
	return manifests, true
}

// runSuffix extracts the trailing "-<n>.run" index so run files sort
// numerically rather than lexically (run-0-9.run before run-0-10.run).
func runSuffix(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".run")
	i := strings.LastIndexByte(base, '-')
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return 0
	}
	return n
}

// writeCollection writes collection.txt: line i is the external name of
// doc-id i.
func writeCollection(outDir string, docs []corpus.Document) error {
	f, err := os.Create(filepath.Join(outDir, "collection.txt"))
	if err != nil {
		return fmt.Errorf("indexer: failed to create collection.txt: %v", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, d := range docs {
		if _, err := fmt.Fprintln(w, d.Name); err != nil {
			return fmt.Errorf("indexer: failed to write collection.txt: %v", err)
		}
	}
	return w.Flush()
}
