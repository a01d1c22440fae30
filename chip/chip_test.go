package chip

import (
	"errors"
	"strings"
	"testing"

	"github.com/carbocation/gseaprep"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type chipSuite struct{}

var _ = check.Suite(&chipSuite{})

func (s *chipSuite) TestRead(c *check.C) {
	in := "Probe Set ID\tGene Symbol\tGene Title\n" +
		"P1\tTP53\ttumor protein p53\n" +
		"P2\tTP53\ttumor protein p53 (dup title)\n" +
		"P3\t\t\n" +
		"P4\tNA\tunmapped\n" +
		"P1\tTP53\tlast wins\n"
	m, err := Read(strings.NewReader(in), "test.chip")
	c.Assert(err, check.IsNil)
	c.Check(len(m), check.Equals, 4)
	c.Check(m["P1"], check.Equals, Annotation{Symbol: "TP53", Title: "last wins"})

	_, ok := m.Lookup("P3")
	c.Check(ok, check.Equals, false)
	_, ok = m.Lookup("P4")
	c.Check(ok, check.Equals, false)
	_, ok = m.Lookup("missing")
	c.Check(ok, check.Equals, false)
	a, ok := m.Lookup("P2")
	c.Check(ok, check.Equals, true)
	c.Check(a.Symbol, check.Equals, "TP53")
}

func (s *chipSuite) TestColumnOrder(c *check.C) {
	in := "ID\tGene Title\tExtra\tGene Symbol\nP9\tkinase\tx\tEGFR\n"
	m, err := Read(strings.NewReader(in), "reordered.chip")
	c.Assert(err, check.IsNil)
	c.Check(m["P9"], check.Equals, Annotation{Symbol: "EGFR", Title: "kinase"})
}

func (s *chipSuite) TestMissingColumns(c *check.C) {
	_, err := Read(strings.NewReader("ID\tGene Symbol\nP1\tTP53\n"), "bad.chip")
	var fe *gseaprep.FormatError
	c.Check(errors.As(err, &fe), check.Equals, true)
	c.Check(fe.Path, check.Equals, "bad.chip")
}
