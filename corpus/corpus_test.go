// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func (s *S) TestTokenizeLowercasesAndSplits(c *check.C) {
	toks := Tokenize([]byte("Hello, World! foo_bar 123baz"))
	c.Check(toks, check.DeepEquals, []string{"hello", "world", "foo", "bar", "123baz"})
}

func (s *S) TestTokenizeEmpty(c *check.C) {
	c.Check(Tokenize(nil), check.IsNil)
	c.Check(Tokenize([]byte("   ...   ")), check.IsNil)
}

func (s *S) TestReadTextMode(c *check.C) {
	dir := c.MkDir()
	c.Assert(os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha beta"), 0o644), check.IsNil)
	c.Assert(os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta gamma"), 0o644), check.IsNil)

	docs, err := Read(dir, Text)
	c.Assert(err, check.IsNil)
	c.Assert(docs, check.HasLen, 2)
	c.Check(docs[0].Name, check.Equals, "a.txt")
	c.Check(docs[0].Tokens, check.DeepEquals, []string{"alpha", "beta"})
	c.Check(docs[1].Name, check.Equals, "b.txt")
}

func (s *S) TestReadMissingDirectory(c *check.C) {
	_, err := Read(filepath.Join(c.MkDir(), "missing"), Text)
	c.Check(err, check.Equals, ErrCollectionNonExistent)
}

func (s *S) TestReadTrecMode(c *check.C) {
	dir := c.MkDir()
	content := "<DOC>\n<DOCNO> doc1 </DOCNO>\nsome body text\n</DOC>\n" +
		"<DOC>\n<DOCNO> doc2 </DOCNO>\nmore words here\n</DOC>\n"
	c.Assert(os.WriteFile(filepath.Join(dir, "corpus.trec"), []byte(content), 0o644), check.IsNil)

	docs, err := Read(dir, Trec)
	c.Assert(err, check.IsNil)
	c.Assert(docs, check.HasLen, 2)
	c.Check(docs[0].Name, check.Equals, "doc1")
	c.Check(docs[1].Name, check.Equals, "doc2")
}
