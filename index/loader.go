// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package index mounts a sealed index and resolves query terms to
// posting-list cursors the evaluator walks.
package index

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gustingonzalez/irmulticompression/corpus"
	"github.com/gustingonzalez/irmulticompression/postings"
)

// ErrTermNotFound is returned by Resolve for a term absent from the
// vocabulary, and recovered by the evaluator.
var ErrTermNotFound = errors.New("index: term not found")

type vocabEntry struct {
	Term   string
	Offset int64
}

// chunksInfoSource abstracts the two chunks-info modes: reading a
// term's metadata block either from an
// in-memory copy of chunksinfo.bin or via a seek+read against the file on
// disk.
type chunksInfoSource interface {
	Read(offset int64) (postings.TermChunksInfo, error)
}

type memChunksInfoSource struct{ data []byte }

func (s memChunksInfoSource) Read(offset int64) (postings.TermChunksInfo, error) {
	if offset < 0 || offset >= int64(len(s.data)) {
		return postings.TermChunksInfo{}, fmt.Errorf("index: chunksinfo offset %d out of range (IndexCorrupt)", offset)
	}
	return postings.ReadChunksInfo(bufio.NewReader(bytes.NewReader(s.data[offset:])))
}

type diskChunksInfoSource struct {
	f    *os.File
	size int64
}

func (s diskChunksInfoSource) Read(offset int64) (postings.TermChunksInfo, error) {
	if offset < 0 || offset >= s.size {
		return postings.TermChunksInfo{}, fmt.Errorf("index: chunksinfo offset %d out of range (IndexCorrupt)", offset)
	}
	sr := io.NewSectionReader(s.f, offset, s.size-offset)
	return postings.ReadChunksInfo(bufio.NewReader(sr))
}

// Index is a mounted sealed index: the full vocabulary resident in
// memory, a name table resident in memory, and chunksinfo/postings access
// through chunksInfoSource and a shared postings.bin file handle. Either
// mode keeps postings.bin itself on disk.
type Index struct {
	names        []string
	vocab        []vocabEntry
	chunksInfo   chunksInfoSource
	postingsFile *os.File
	postingsSize int64

	chunksInfoFile *os.File
}

// Load mounts the sealed index rooted at dir.
// When chunksInfoInMemory is true, chunksinfo.bin is read into memory
// once; otherwise each Resolve performs a single seek+read against it.
func Load(dir string, chunksInfoInMemory bool) (*Index, error) {
	names, err := readLines(filepath.Join(dir, "collection.txt"))
	if err != nil {
		return nil, fmt.Errorf("index: failed to read collection.txt: %v", err)
	}

	vocab, err := readVocabulary(filepath.Join(dir, "vocabulary.txt"))
	if err != nil {
		return nil, err
	}

	postingsFile, err := os.Open(filepath.Join(dir, "postings.bin"))
	if err != nil {
		return nil, fmt.Errorf("index: failed to open postings.bin: %v", err)
	}
	postingsInfo, err := postingsFile.Stat()
	if err != nil {
		postingsFile.Close()
		return nil, fmt.Errorf("index: failed to stat postings.bin: %v", err)
	}

	idx := &Index{
		names:        names,
		vocab:        vocab,
		postingsFile: postingsFile,
		postingsSize: postingsInfo.Size(),
	}

	chunksInfoPath := filepath.Join(dir, "chunksinfo.bin")
	if chunksInfoInMemory {
		data, err := os.ReadFile(chunksInfoPath)
		if err != nil {
			postingsFile.Close()
			return nil, fmt.Errorf("index: failed to read chunksinfo.bin: %v", err)
		}
		idx.chunksInfo = memChunksInfoSource{data: data}
		return idx, nil
	}

	f, err := os.Open(chunksInfoPath)
	if err != nil {
		postingsFile.Close()
		return nil, fmt.Errorf("index: failed to open chunksinfo.bin: %v", err)
	}
	info, err := f.Stat()
	if err != nil {
		postingsFile.Close()
		f.Close()
		return nil, fmt.Errorf("index: failed to stat chunksinfo.bin: %v", err)
	}
	idx.chunksInfoFile = f
	idx.chunksInfo = diskChunksInfoSource{f: f, size: info.Size()}
	return idx, nil
}

// Close releases the file handles held open by a loaded index.
func (idx *Index) Close() error {
	var firstErr error
	if err := idx.postingsFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if idx.chunksInfoFile != nil {
		if err := idx.chunksInfoFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Name returns the external name for docID, or "" if docID is out of
// range.
func (idx *Index) Name(docID uint32) string {
	if int(docID) >= len(idx.names) {
		return ""
	}
	return idx.names[docID]
}

// Resolve looks up term in the vocabulary and returns a fresh, Unopened
// cursor over its posting list.
func (idx *Index) Resolve(term string) (*Cursor, error) {
	i := sort.Search(len(idx.vocab), func(i int) bool { return idx.vocab[i].Term >= term })
	if i >= len(idx.vocab) || idx.vocab[i].Term != term {
		return nil, ErrTermNotFound
	}
	info, err := idx.chunksInfo.Read(idx.vocab[i].Offset)
	if err != nil {
		return nil, err
	}
	return newCursor(info, idx.postingsFile, idx.postingsSize), nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := corpus.ScanLines(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func readVocabulary(path string) ([]vocabEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: failed to open vocabulary.txt: %v", err)
	}
	defer f.Close()

	var vocab []vocabEntry
	sc := corpus.ScanLines(f)
	for sc.Scan() {
		line := sc.Text()
		tab := strings.LastIndexByte(line, '\t')
		if tab < 0 {
			return nil, fmt.Errorf("index: malformed vocabulary.txt line %q (IndexCorrupt)", line)
		}
		offset, err := strconv.ParseInt(line[tab+1:], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("index: malformed vocabulary.txt offset %q (IndexCorrupt): %v", line, err)
		}
		vocab = append(vocab, vocabEntry{Term: line[:tab], Offset: offset})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("index: failed to read vocabulary.txt: %v", err)
	}
	return vocab, nil
}
