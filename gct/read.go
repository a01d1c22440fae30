package gct

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/gseaprep"
	"github.com/carbocation/pfx"
)

// Dialect identifies which on-disk layout a matrix was read from.
type Dialect int

const (
	DialectPlain Dialect = iota
	DialectGCT
	DialectRanked
)

func (d Dialect) String() string {
	switch d {
	case DialectGCT:
		return "gct"
	case DialectRanked:
		return "rnk"
	}
	return "plain"
}

// Column positions in the preamble dialect
const (
	ColName int = iota
	ColDescription
	ColFirstSample
)

// RankedColumnName names the value column of a ranked list without a header.
const RankedColumnName = "Preranked Metric"

// Read parses an expression matrix, choosing the dialect from the content: a
// first line starting with "#1." selects the GCT preamble dialect, anything
// else is read as a plain matrix. name is only used in error messages.
func Read(r io.Reader, name string) (*Matrix, Dialect, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, DialectPlain, pfx.Err(err)
	}

	if bytes.HasPrefix(bytes.TrimLeft(data, "\ufeff"), []byte("#1.")) {
		m, err := ReadGCT(bytes.NewReader(data), name)
		return m, DialectGCT, err
	}

	m, err := ReadPlain(bytes.NewReader(data), delimiterFor(data), name)
	return m, DialectPlain, err
}

// ReadGCT parses the preamble dialect: "#1.2", then "<rows>\t<cols>", then a
// NAME/Description header. The stated counts must agree with the body.
func ReadGCT(r io.Reader, name string) (*Matrix, error) {
	cr := newReader(r, '\t')

	version, err := cr.Read()
	if err != nil {
		return nil, formatErr(name, 1, "missing #1.2 version line: %v", err)
	}
	if !strings.HasPrefix(strings.TrimPrefix(version[0], "\ufeff"), "#1.") {
		return nil, formatErr(name, 1, "expected a #1.2 version line, found %q", version[0])
	}

	dims, err := cr.Read()
	if err != nil {
		return nil, formatErr(name, 2, "missing dimension line: %v", err)
	}
	dims = trimTrailingEmpty(dims)
	if len(dims) < 2 {
		return nil, formatErr(name, 2, "expected <rows>\\t<columns>, found %q", strings.Join(dims, "\t"))
	}
	nRows, err := strconv.Atoi(strings.TrimSpace(dims[0]))
	if err != nil {
		return nil, formatErr(name, 2, "row count %q is not an integer", dims[0])
	}
	nCols, err := strconv.Atoi(strings.TrimSpace(dims[1]))
	if err != nil {
		return nil, formatErr(name, 2, "column count %q is not an integer", dims[1])
	}

	header, err := cr.Read()
	if err != nil {
		return nil, formatErr(name, 3, "missing header line: %v", err)
	}
	header = trimTrailingEmpty(header)
	if len(header) < ColFirstSample {
		return nil, formatErr(name, 3, "header must start with NAME and Description, found %q", strings.Join(header, "\t"))
	}

	m := &Matrix{
		ColIDs:       append([]string(nil), header[ColFirstSample:]...),
		RowIDs:       make([]string, 0, nRows),
		Values:       make([]float64, 0, nRows*len(header[ColFirstSample:])),
		Descriptions: make([]string, 0, nRows),
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, formatErr(name, 0, "%v", err)
		}
		line, _ := cr.FieldPos(0)

		if len(rec) < ColFirstSample {
			return nil, formatErr(name, line, "row has %d fields, expected at least %d", len(rec), ColFirstSample)
		}
		values, err := parseValues(rec[ColFirstSample:], len(m.ColIDs))
		if err != nil {
			return nil, formatErr(name, line, "%v", err)
		}

		m.RowIDs = append(m.RowIDs, rec[ColName])
		m.Descriptions = append(m.Descriptions, rec[ColDescription])
		m.Values = append(m.Values, values...)
	}

	if m.NRows() != nRows || m.NCols() != nCols {
		return nil, formatErr(name, 2, "stated dimensions %d x %d do not match the parsed body %d x %d", nRows, nCols, m.NRows(), m.NCols())
	}

	if err := m.Validate(); err != nil {
		return nil, withName(err, name)
	}

	return m, nil
}

// ReadPlain parses a delimited table whose first column holds identifiers. A
// column named "description" (any case) is split out into the row
// descriptions; without one, the descriptions are the identifiers themselves.
func ReadPlain(r io.Reader, delim rune, name string) (*Matrix, error) {
	cr := newReader(r, delim)

	header, err := cr.Read()
	if err != nil {
		return nil, formatErr(name, 1, "missing header line: %v", err)
	}
	header = trimTrailingEmpty(header)
	if len(header) < 1 {
		return nil, formatErr(name, 1, "empty header line")
	}

	descCol := -1
	for j := 1; j < len(header); j++ {
		if strings.EqualFold(strings.TrimSpace(header[j]), "description") {
			descCol = j
			break
		}
	}

	// Source column of each sample column
	sampleCols := make([]int, 0, len(header))
	m := &Matrix{}
	for j := 1; j < len(header); j++ {
		if j == descCol {
			continue
		}
		sampleCols = append(sampleCols, j)
		m.ColIDs = append(m.ColIDs, header[j])
	}

	width := len(header)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, formatErr(name, 0, "%v", err)
		}
		line, _ := cr.FieldPos(0)

		if len(rec) > width {
			if extra := trimTrailingEmpty(rec[width:]); len(extra) > 0 {
				return nil, formatErr(name, line, "row has %d fields, header has %d", len(rec), width)
			}
			rec = rec[:width]
		}

		row := make([]string, len(sampleCols))
		for k, j := range sampleCols {
			if j < len(rec) {
				row[k] = rec[j]
			}
		}
		values, err := parseValues(row, len(sampleCols))
		if err != nil {
			return nil, formatErr(name, line, "%v", err)
		}

		m.RowIDs = append(m.RowIDs, rec[0])
		m.Values = append(m.Values, values...)
		if descCol >= 0 {
			desc := ""
			if descCol < len(rec) {
				desc = rec[descCol]
			}
			m.Descriptions = append(m.Descriptions, desc)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, withName(err, name)
	}

	return m, nil
}

// ReadRanked parses a headerless ranked list: an identifier followed by one or
// more values. A line starting with '#' names the value columns; otherwise the
// single value column is called RankedColumnName.
func ReadRanked(r io.Reader, name string) (*Matrix, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pfx.Err(err)
	}
	cr := newReader(bytes.NewReader(data), delimiterFor(data))

	m := &Matrix{}
	width := -1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, formatErr(name, 0, "%v", err)
		}
		line, _ := cr.FieldPos(0)
		rec = trimTrailingEmpty(rec)
		if len(rec) == 0 {
			continue
		}

		if strings.HasPrefix(rec[0], "#") {
			if m.ColIDs != nil {
				return nil, formatErr(name, line, "more than one header line")
			}
			m.ColIDs = append([]string(nil), rec[1:]...)
			continue
		}

		if width < 0 {
			width = len(rec)
		}
		if len(rec) != width || width < 2 {
			return nil, formatErr(name, line, "row has %d fields, expected %d", len(rec), width)
		}
		values, err := parseValues(rec[1:], width-1)
		if err != nil {
			return nil, formatErr(name, line, "%v", err)
		}
		m.RowIDs = append(m.RowIDs, rec[0])
		m.Values = append(m.Values, values...)
	}

	if m.ColIDs == nil {
		m.ColIDs = []string{RankedColumnName}
	}
	if width > 0 && len(m.ColIDs) != width-1 {
		return nil, formatErr(name, 0, "header names %d columns but rows carry %d values", len(m.ColIDs), width-1)
	}

	if err := m.Validate(); err != nil {
		return nil, withName(err, name)
	}

	return m, nil
}

// ParseValue parses one matrix cell. Blank cells and the usual missing-value
// tokens become NaN.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "#n/a", "n/a":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseValues parses fields into exactly width values, padding short rows with
// NaN.
func parseValues(fields []string, width int) ([]float64, error) {
	if len(fields) > width {
		if extra := trimTrailingEmpty(fields[width:]); len(extra) > 0 {
			return nil, fmt.Errorf("row has %d values, expected %d", len(fields), width)
		}
		fields = fields[:width]
	}

	out := make([]float64, width)
	for j := range out {
		if j >= len(fields) {
			out[j] = math.NaN()
			continue
		}
		v, err := ParseValue(fields[j])
		if err != nil {
			return nil, fmt.Errorf("value %q in column %d is not numeric", fields[j], j+1)
		}
		out[j] = v
	}
	return out, nil
}

func newReader(r io.Reader, delim rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// delimiterFor returns tab unless the first line has no tab and the content
// looks comma-delimited.
func delimiterFor(data []byte) rune {
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}
	if bytes.IndexByte(first, '\t') >= 0 {
		return '\t'
	}
	if gseaprep.DetermineDelimiter(bytes.NewReader(data)) == ',' {
		return ','
	}
	return '\t'
}

func trimTrailingEmpty(rec []string) []string {
	for len(rec) > 0 && strings.TrimSpace(rec[len(rec)-1]) == "" {
		rec = rec[:len(rec)-1]
	}
	return rec
}

func formatErr(name string, line int, format string, args ...interface{}) error {
	return &gseaprep.FormatError{Path: name, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func withName(err error, name string) error {
	if fe, ok := err.(*gseaprep.FormatError); ok && fe.Path == "" {
		fe.Path = name
	}
	return err
}
