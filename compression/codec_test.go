// Copyright ©2024 The irmulticompression Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compression

import (
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

var roundTripCases = [][]uint32{
	nil,
	{0},
	{0, 0, 0},
	{1, 2, 3, 4, 5},
	{0, 1, 2, 3, 100, 1000, 100000},
	{5, 5, 5, 5, 5, 5, 5, 5},
	{1 << 20, 1 << 21, 1<<21 + 1},
}

func (s *S) TestVariableByteRoundTrip(c *check.C) { checkRoundTrip(c, variableByteCodec{}) }
func (s *S) TestUnaryRoundTrip(c *check.C)        { checkRoundTrip(c, unaryCodec{}) }
func (s *S) TestGammaRoundTrip(c *check.C)        { checkRoundTrip(c, gammaCodec{}) }
func (s *S) TestBitPackingRoundTrip(c *check.C)   { checkRoundTrip(c, bitPackingCodec{}) }
func (s *S) TestSimple16RoundTrip(c *check.C)     { checkRoundTrip(c, simple16Codec{}) }
func (s *S) TestPForDeltaRoundTrip(c *check.C)    { checkRoundTrip(c, pforDeltaCodec{}) }

func checkRoundTrip(c *check.C, codec Codec) {
	for _, xs := range roundTripCases {
		enc := codec.Encode(nil, xs)
		bits := codec.BitLength(xs)
		c.Check(len(enc)*8, check.Equals, bits, check.Commentf("codec=%s xs=%v", codec.ID(), xs))

		got, err := codec.Decode(enc, len(xs))
		c.Assert(err, check.IsNil, check.Commentf("codec=%s xs=%v", codec.ID(), xs))
		if len(xs) == 0 {
			c.Check(len(got), check.Equals, 0, check.Commentf("codec=%s", codec.ID()))
		} else {
			c.Check(got, check.DeepEquals, xs, check.Commentf("codec=%s", codec.ID()))
		}
	}
}

// EliasFano additionally requires its input be strictly increasing, so it
// gets its own case set rather than sharing roundTripCases.
func (s *S) TestEliasFanoRoundTrip(c *check.C) {
	cases := [][]uint32{
		nil,
		{0},
		{0, 1, 2, 3, 4},
		{5, 100, 1000, 1000000},
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}
	codec := eliasFanoCodec{}
	for _, xs := range cases {
		enc := codec.Encode(nil, xs)
		bits := codec.BitLength(xs)
		c.Check(len(enc)*8, check.Equals, bits, check.Commentf("xs=%v", xs))

		got, err := codec.Decode(enc, len(xs))
		c.Assert(err, check.IsNil)
		if len(xs) == 0 {
			c.Check(len(got), check.Equals, 0)
		} else {
			c.Check(got, check.DeepEquals, xs)
		}
	}
}

func (s *S) TestSelectPrecedenceTieBreak(c *check.C) {
	// Two candidates reporting equal bit length must resolve to the one
	// earlier in Precedence, regardless of argument order.
	id, _ := Select([]ID{Unary, PForDelta}, func(ID) int { return 42 })
	c.Check(id, check.Equals, PForDelta)

	id, _ = Select([]ID{BitPacking, Gamma}, func(ID) int { return 7 })
	c.Check(id, check.Equals, BitPacking)
}

func (s *S) TestSelectPicksMinimum(c *check.C) {
	costs := map[ID]int{VariableByte: 100, BitPacking: 10, Gamma: 50}
	id, bits := Select([]ID{VariableByte, BitPacking, Gamma}, func(i ID) int { return costs[i] })
	c.Check(id, check.Equals, BitPacking)
	c.Check(bits, check.Equals, 10)
}

func (s *S) TestSelectEmptyCandidatesDefaultsToVariableByte(c *check.C) {
	id, _ := Select(nil, nil)
	c.Check(id, check.Equals, VariableByte)
}
