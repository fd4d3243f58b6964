// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package corpus reads a directory of input files into an ordered sequence
// of documents, each assigned a name and a token stream. Two reading
// modes are supported: Text, where each file is one
// document, and Trec, where each <DOC>...</DOC> region of each file is one
// document.
package corpus

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"unicode"
)

// Mode selects how files under a corpus directory are split into
// documents.
type Mode int

const (
	// Text treats each file as a single document; the external name is
	// the file's base name.
	Text Mode = iota
	// Trec treats each <DOC>...</DOC> region as a document, named by the
	// contents of its <DOCNO> tag.
	Trec
)

// Document is one corpus document, already split into tokens.
type Document struct {
	Name   string
	Tokens []string
}

// ErrCollectionNonExistent reports a missing or unreadable corpus
// directory.
var ErrCollectionNonExistent = fmt.Errorf("corpus: collection directory does not exist")

// Read walks dir in deterministic (lexical) file order and returns every
// document it contains, in the order they should receive doc-ids.
func Read(dir string, mode Mode) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCollectionNonExistent
		}
		return nil, fmt.Errorf("corpus: failed to read collection directory: %v", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var docs []Document
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("corpus: failed to read %s: %v", path, err)
		}
		switch mode {
		case Trec:
			trecDocs, err := parseTrec(data)
			if err != nil {
				return nil, fmt.Errorf("corpus: failed to parse %s: %v", path, err)
			}
			docs = append(docs, trecDocs...)
		default:
			docs = append(docs, Document{Name: name, Tokens: Tokenize(data)})
		}
	}
	return docs, nil
}

// Tokenize lowercases text and splits it on runs of non-alphanumeric
// bytes. It is the core's default tokenizer; a
// driver is free to substitute its own, since the core only requires that
// tokens be comparable byte strings.
func Tokenize(text []byte) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range string(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur = append(cur, unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

var (
	docOpen   = []byte("<DOC>")
	docClose  = []byte("</DOC>")
	docnoOpen = []byte("<DOCNO>")
)

// parseTrec splits data into documents delimited by <DOC>...</DOC>,
// naming each by the text of its <DOCNO> tag.
func parseTrec(data []byte) ([]Document, error) {
	var docs []Document
	rest := data
	for {
		start := bytes.Index(rest, docOpen)
		if start < 0 {
			break
		}
		rest = rest[start+len(docOpen):]
		end := bytes.Index(rest, docClose)
		if end < 0 {
			return nil, fmt.Errorf("corpus: unterminated <DOC> region")
		}
		body := rest[:end]
		rest = rest[end+len(docClose):]

		name, tokenSrc := body, body
		if no := bytes.Index(body, docnoOpen); no >= 0 {
			nameStart := body[no+len(docnoOpen):]
			nameEnd := bytes.IndexByte(nameStart, '<')
			if nameEnd < 0 {
				nameEnd = len(nameStart)
			}
			name = bytes.TrimSpace(nameStart[:nameEnd])
			tokenSrc = body
		}
		docs = append(docs, Document{Name: string(name), Tokens: Tokenize(tokenSrc)})
	}
	return docs, nil
}

// ScanLines exposes the bufio.Scanner setup used for collection.txt and
// vocabulary.txt, both line-oriented. It is shared so every
// reader of those files agrees on line-length limits.
func ScanLines(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return sc
}
