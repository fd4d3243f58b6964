// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command idxtool builds and queries a compressed inverted index over a
// plain-text or TREC-formatted corpus.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gustingonzalez/irmulticompression/chunk"
	"github.com/gustingonzalez/irmulticompression/compression"
	"github.com/gustingonzalez/irmulticompression/corpus"
	"github.com/gustingonzalez/irmulticompression/index"
	"github.com/gustingonzalez/irmulticompression/indexer"
	"github.com/kortschak/utter"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "query":
		runQuery(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: idxtool <build|query|stats> [flags]")
}

func parseCodecList(s string) []compression.ID {
	if s == "" {
		return nil
	}
	var ids []compression.ID
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case "variablebyte":
			ids = append(ids, compression.VariableByte)
		case "unary":
			ids = append(ids, compression.Unary)
		case "gamma":
			ids = append(ids, compression.Gamma)
		case "bitpacking":
			ids = append(ids, compression.BitPacking)
		case "simple16":
			ids = append(ids, compression.Simple16)
		case "pfordelta":
			ids = append(ids, compression.PForDelta)
		case "eliasfano":
			ids = append(ids, compression.EliasFano)
		default:
			log.Fatalf("idxtool: unknown codec %q", name)
		}
	}
	return ids
}

func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	corpusDir := fs.String("corpus", "", "corpus directory")
	outDir := fs.String("out", "", "output directory for the sealed index")
	trec := fs.Bool("trec", false, "parse the corpus as TREC-formatted documents")
	chunkSize := fs.Int("chunk", 0, "posting list chunk size (0 = single chunk)")
	overwrite := fs.Bool("overwrite", false, "overwrite an existing sealed index")
	maxChildIndexers := fs.Int("workers", 0, "max parallel partial indexers (0 = default)")
	resourcesFactor := fs.Int("resources-factor", 0, "partial index flush frequency (0 = default)")
	docsCodecs := fs.String("docs-codecs", "", "comma-separated docs-stream codec candidates")
	freqsCodecs := fs.String("freqs-codecs", "", "comma-separated freqs-stream codec candidates")
	reuseTmp := fs.Bool("reuse-tmp", false, "reuse temp runs left by a failed prior build")
	fs.Parse(args)

	if *corpusDir == "" || *outDir == "" {
		log.Fatal("idxtool: -corpus and -out are required")
	}

	mode := corpus.Text
	if *trec {
		mode = corpus.Trec
	}

	status, err := indexer.CreateIndex(indexer.CreateOptions{
		CorpusDir: *corpusDir,
		Mode:      mode,
		OutDir:    *outDir,
		Overwrite: *overwrite,
		ChunkSize: *chunkSize,
		Candidates: chunk.Candidates{
			Docs:  parseCodecList(*docsCodecs),
			Freqs: parseCodecList(*freqsCodecs),
		},
		MaxChildIndexers: *maxChildIndexers,
		ResourcesFactor:  *resourcesFactor,
		ReuseTmp:         *reuseTmp,
	})
	if err != nil {
		log.Fatalf("idxtool: build failed: %v", err)
	}
	switch status {
	case indexer.StatusOK:
		fmt.Println("Ok")
	case indexer.StatusAlreadyIndexed:
		fmt.Println("Already_Indexed")
		os.Exit(1)
	case indexer.StatusCollectionNonExistent:
		fmt.Println("Collection_Non_Existent")
		os.Exit(1)
	}
}

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	indexDir := fs.String("index", "", "sealed index directory")
	chunksInfoInMemory := fs.Bool("chunksinfo-in-memory", true, "hold chunksinfo.bin resident in memory")
	dump := fs.Bool("dump", false, "dump the matched doc-ids as Go values via kortschak/utter")
	fs.Parse(args)

	if *indexDir == "" || fs.NArg() == 0 {
		log.Fatal("idxtool: -index and a query string are required")
	}

	idx, err := index.Load(*indexDir, *chunksInfoInMemory)
	if err != nil {
		log.Fatalf("idxtool: failed to load index: %v", err)
	}
	defer idx.Close()

	query := strings.Join(fs.Args(), " ")
	docIDs, err := index.NewBrowser(idx).Browse(query)
	if err != nil {
		log.Fatalf("idxtool: query failed: %v", err)
	}

	if *dump {
		utter.Dump(docIDs)
		return
	}
	for _, id := range docIDs {
		fmt.Println(idx.Name(id))
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	indexDir := fs.String("index", "", "sealed index directory")
	fs.Parse(args)

	if *indexDir == "" {
		log.Fatal("idxtool: -index is required")
	}

	for _, name := range []string{"collection.txt", "vocabulary.txt", "chunksinfo.bin", "postings.bin"} {
		info, err := os.Stat(*indexDir + "/" + name)
		if err != nil {
			log.Fatalf("idxtool: %v", err)
		}
		fmt.Printf("%-16s %d bytes\n", name, info.Size())
	}
}
