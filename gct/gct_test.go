package gct

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/gseaprep"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type gctSuite struct{}

var _ = check.Suite(&gctSuite{})

const smallGCT = "#1.2\n" +
	"3\t2\n" +
	"NAME\tDescription\tS1\tS2\n" +
	"P1\tfirst probe\t1.5\t-2\n" +
	"P2\tsecond probe\tNA\t4e-3\n" +
	"P3\tna\t0\t\n"

func (s *gctSuite) TestReadGCT(c *check.C) {
	m, dialect, err := Read(strings.NewReader(smallGCT), "small.gct")
	c.Assert(err, check.IsNil)
	c.Check(dialect, check.Equals, DialectGCT)
	c.Check(m.RowIDs, check.DeepEquals, []string{"P1", "P2", "P3"})
	c.Check(m.ColIDs, check.DeepEquals, []string{"S1", "S2"})
	c.Check(m.Descriptions, check.DeepEquals, []string{"first probe", "second probe", "na"})
	c.Check(m.At(0, 0), check.Equals, 1.5)
	c.Check(m.At(0, 1), check.Equals, -2.0)
	c.Check(math.IsNaN(m.At(1, 0)), check.Equals, true)
	c.Check(m.At(1, 1), check.Equals, 0.004)
	c.Check(math.IsNaN(m.At(2, 1)), check.Equals, true)
	c.Check(m.Missing(), check.Equals, 2)
}

func (s *gctSuite) TestStatedDimensionsMismatch(c *check.C) {
	in := strings.Replace(smallGCT, "3\t2", "4\t2", 1)
	_, _, err := Read(strings.NewReader(in), "bad.gct")
	c.Assert(err, check.NotNil)
	var fe *gseaprep.FormatError
	c.Check(errors.As(err, &fe), check.Equals, true)
	c.Check(fe.Path, check.Equals, "bad.gct")
	c.Check(err, check.ErrorMatches, `.*stated dimensions 4 x 2.*`)
}

func (s *gctSuite) TestLongRow(c *check.C) {
	in := "#1.2\n1\t1\nNAME\tDescription\tS1\nP1\td\t1\t2\n"
	_, _, err := Read(strings.NewReader(in), "long.gct")
	c.Check(err, check.ErrorMatches, `format error in long.gct at line 4: .*`)
}

func (s *gctSuite) TestNonNumeric(c *check.C) {
	in := "#1.2\n1\t1\nNAME\tDescription\tS1\nP1\td\thigh\n"
	_, _, err := Read(strings.NewReader(in), "word.gct")
	c.Check(err, check.ErrorMatches, `.*"high".*not numeric.*`)
}

func (s *gctSuite) TestDuplicateRows(c *check.C) {
	in := "#1.2\n2\t1\nNAME\tDescription\tS1\nP1\td\t1\nP1\td\t2\n"
	_, _, err := Read(strings.NewReader(in), "dup.gct")
	c.Check(err, check.ErrorMatches, `.*duplicate row identifier "P1".*`)
}

func (s *gctSuite) TestReadPlainWithDescription(c *check.C) {
	in := "Gene\tS1\tDESCRIPTION\tS2\nTP53\t1\ttumor protein\t2\nBRCA1\t3\tbreast cancer\t4\n"
	m, dialect, err := Read(strings.NewReader(in), "plain.txt")
	c.Assert(err, check.IsNil)
	c.Check(dialect, check.Equals, DialectPlain)
	c.Check(m.ColIDs, check.DeepEquals, []string{"S1", "S2"})
	c.Check(m.Descriptions, check.DeepEquals, []string{"tumor protein", "breast cancer"})
	c.Check(m.Row(1), check.DeepEquals, []float64{3, 4})
}

func (s *gctSuite) TestReadPlainWithoutDescription(c *check.C) {
	in := "Gene,S1,S2\nTP53,1,2\nBRCA1,3,4\nEGFR,5,6\n"
	m, _, err := Read(strings.NewReader(in), "plain.csv")
	c.Assert(err, check.IsNil)
	c.Check(m.ColIDs, check.DeepEquals, []string{"S1", "S2"})
	c.Check(m.Descriptions, check.IsNil)
	c.Check(m.Description(2), check.Equals, "EGFR")
	c.Check(m.At(2, 1), check.Equals, 6.0)
}

func (s *gctSuite) TestReadRanked(c *check.C) {
	m, err := ReadRanked(strings.NewReader("TP53\t2.5\nBRCA1\t-1\n"), "list.rnk")
	c.Assert(err, check.IsNil)
	c.Check(m.ColIDs, check.DeepEquals, []string{RankedColumnName})
	c.Check(m.Values, check.DeepEquals, []float64{2.5, -1})

	m, err = ReadRanked(strings.NewReader("#\tA\tB\nTP53\t1\t2\n"), "multi.rnk")
	c.Assert(err, check.IsNil)
	c.Check(m.ColIDs, check.DeepEquals, []string{"A", "B"})

	_, err = ReadRanked(strings.NewReader("TP53\t1\nBRCA1\t1\t2\n"), "ragged.rnk")
	c.Check(err, check.NotNil)
}

func (s *gctSuite) TestRoundTrip(c *check.C) {
	m, err := New(
		[]string{"G1", "G2", "G3"},
		[]string{"A", "B"},
		[]float64{1, 2.25, -3.5e-7, math.NaN(), 1e10, 0},
		[]string{"one", "two", "three"},
	)
	c.Assert(err, check.IsNil)

	var buf bytes.Buffer
	c.Assert(Write(&buf, m), check.IsNil)
	c.Check(strings.HasPrefix(buf.String(), "#1.2\n3\t2\nNAME\tDescription\tA\tB\n"), check.Equals, true)

	got, dialect, err := Read(&buf, "roundtrip.gct")
	c.Assert(err, check.IsNil)
	c.Check(dialect, check.Equals, DialectGCT)
	c.Check(got.RowIDs, check.DeepEquals, m.RowIDs)
	c.Check(got.ColIDs, check.DeepEquals, m.ColIDs)
	c.Check(got.Descriptions, check.DeepEquals, m.Descriptions)
	for i, v := range m.Values {
		if math.IsNaN(v) {
			c.Check(math.IsNaN(got.Values[i]), check.Equals, true)
			continue
		}
		c.Check(got.Values[i], check.Equals, v)
	}
}

func (s *gctSuite) TestRoundTripQuotedFields(c *check.C) {
	m, err := New(
		[]string{`"G1"`, `G2"x`, "G3"},
		[]string{`"A"`, "B"},
		[]float64{1, 2, 3, 4, 5, 6},
		[]string{`"5' nucleotidase`, "plain, with comma", "other"},
	)
	c.Assert(err, check.IsNil)

	var buf bytes.Buffer
	c.Assert(Write(&buf, m), check.IsNil)
	got, _, err := Read(&buf, "quoted.gct")
	c.Assert(err, check.IsNil)
	c.Check(got.RowIDs, check.DeepEquals, m.RowIDs)
	c.Check(got.ColIDs, check.DeepEquals, m.ColIDs)
	c.Check(got.Descriptions, check.DeepEquals, m.Descriptions)
	c.Check(got.Values, check.DeepEquals, m.Values)

	buf.Reset()
	c.Assert(WriteTable(&buf, m), check.IsNil)
	got, dialect, err := Read(&buf, "quoted.txt")
	c.Assert(err, check.IsNil)
	c.Check(dialect, check.Equals, DialectPlain)
	c.Check(got.RowIDs, check.DeepEquals, m.RowIDs)
	c.Check(got.ColIDs, check.DeepEquals, m.ColIDs)
	c.Check(got.Values, check.DeepEquals, m.Values)
}

func (s *gctSuite) TestWriteRejectsDescriptionMismatch(c *check.C) {
	m := &Matrix{
		RowIDs:       []string{"G1", "G2"},
		ColIDs:       []string{"A"},
		Values:       []float64{1, 2},
		Descriptions: []string{"only one"},
	}
	var buf bytes.Buffer
	err := Write(&buf, m)
	c.Check(err, check.ErrorMatches, `.*Number of row descriptions \(1\) not equal to number of row names \(2\).*`)
	c.Check(buf.Len(), check.Equals, 0)
}

func (s *gctSuite) TestWriteTable(c *check.C) {
	m, err := New([]string{"G1"}, []string{"A", "B"}, []float64{1, math.NaN()}, []string{"desc"})
	c.Assert(err, check.IsNil)
	var buf bytes.Buffer
	c.Assert(WriteTable(&buf, m), check.IsNil)
	c.Check(buf.String(), check.Equals, "Name\tA\tB\nG1\t1\t\n")
}

func (s *gctSuite) TestWriteFile(c *check.C) {
	dir := c.MkDir()
	m, err := New([]string{"G1"}, []string{"A"}, []float64{7}, nil)
	c.Assert(err, check.IsNil)

	path, err := WriteFile(filepath.Join(dir, "out"), m)
	c.Assert(err, check.IsNil)
	c.Check(path, check.Equals, filepath.Join(dir, "out.gct"))

	data, err := os.ReadFile(path)
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, "#1.2\n1\t1\nNAME\tDescription\tA\nG1\tNA\t7\n")
}

func (s *gctSuite) TestReorderDoesNotAlias(c *check.C) {
	m, err := New([]string{"G1", "G2"}, []string{"A", "B", "C"}, []float64{1, 2, 3, 4, 5, 6}, nil)
	c.Assert(err, check.IsNil)

	r, err := m.ReorderColumns([]int{2, 0, 1})
	c.Assert(err, check.IsNil)
	c.Check(r.ColIDs, check.DeepEquals, []string{"C", "A", "B"})
	c.Check(r.Row(1), check.DeepEquals, []float64{6, 4, 5})

	r.Values[0] = 100
	c.Check(m.Values[0], check.Equals, 1.0)

	_, err = m.ReorderColumns([]int{0, 0, 1})
	c.Check(err, check.NotNil)

	sub, err := m.SelectColumns([]string{"B"})
	c.Assert(err, check.IsNil)
	c.Check(sub.Values, check.DeepEquals, []float64{2, 5})
}
