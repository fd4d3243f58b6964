// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package indexer

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Manifest is a partial indexer's report on one temp run: term count, byte
// size and doc-id range. The merger uses it to detect a truncated run
// left behind by a worker crash.
type Manifest struct {
	Path      string
	TermCount int
	ByteSize  int64
	FirstDoc  uint32
	LastDoc   uint32
}

func manifestPath(runPath string) string { return runPath + ".manifest" }

// writeManifest persists m as manifestPath(m.Path), a single tab-separated
// line, so a crashed worker leaves either no manifest (easy to detect) or
// one disagreeing with the run file's actual size.
func writeManifest(m Manifest) error {
	line := fmt.Sprintf("%d\t%d\t%d\t%d\n", m.TermCount, m.ByteSize, m.FirstDoc, m.LastDoc)
	if err := os.WriteFile(manifestPath(m.Path), []byte(line), 0o644); err != nil {
		return fmt.Errorf("indexer: failed to write manifest for %s: %v", m.Path, err)
	}
	return nil
}

// readManifest reads back a manifest written by writeManifest and validates
// it against the actual size of the run file on disk, surfacing a
// mismatch or a missing manifest as an IntegrityError.
func readManifest(runPath string) (Manifest, error) {
	f, err := os.Open(manifestPath(runPath))
	if err != nil {
		return Manifest{}, fmt.Errorf("indexer: missing manifest for %s (IntegrityError): %v", runPath, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return Manifest{}, fmt.Errorf("indexer: empty manifest for %s (IntegrityError)", runPath)
	}
	fields := strings.Split(sc.Text(), "\t")
	if len(fields) != 4 {
		return Manifest{}, fmt.Errorf("indexer: malformed manifest for %s (IntegrityError)", runPath)
	}
	termCount, err1 := strconv.Atoi(fields[0])
	byteSize, err2 := strconv.ParseInt(fields[1], 10, 64)
	firstDoc, err3 := strconv.ParseUint(fields[2], 10, 32)
	lastDoc, err4 := strconv.ParseUint(fields[3], 10, 32)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return Manifest{}, fmt.Errorf("indexer: malformed manifest fields for %s (IntegrityError)", runPath)
	}
	m := Manifest{Path: runPath, TermCount: termCount, ByteSize: byteSize, FirstDoc: uint32(firstDoc), LastDoc: uint32(lastDoc)}

	info, err := os.Stat(runPath)
	if err != nil {
		return Manifest{}, fmt.Errorf("indexer: missing run file %s (IntegrityError): %v", runPath, err)
	}
	if info.Size() != m.ByteSize {
		return Manifest{}, fmt.Errorf("indexer: run file %s size %d does not match manifest %d (IntegrityError)", runPath, info.Size(), m.ByteSize)
	}
	return m, nil
}
