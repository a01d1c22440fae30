package gct

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/gseaprep"
	"github.com/carbocation/pfx"
)

// Version is the preamble marker written by Write.
const Version = "#1.2"

// Write serializes m in the preamble dialect. Descriptions are required to
// line up with the rows; a matrix without descriptions is written with NA in
// the Description column. Fields holding quotes are quoted the way Read
// expects, so identifiers survive a round trip unchanged.
func Write(w io.Writer, m *Matrix) error {
	if err := m.Validate(); err != nil {
		return err
	}

	cw := newWriter(w)
	cw.Write([]string{Version})
	cw.Write([]string{strconv.Itoa(m.NRows()), strconv.Itoa(m.NCols())})
	cw.Write(append([]string{"NAME", "Description"}, m.ColIDs...))

	for i, id := range m.RowIDs {
		desc := "NA"
		if m.Descriptions != nil {
			desc = m.Descriptions[i]
		}
		cw.Write(rowRecord(m, i, id, desc))
	}

	cw.Flush()
	return pfx.Err(cw.Error())
}

// WriteTable serializes m as a plain table: a Name column followed by the
// samples, with no description column.
func WriteTable(w io.Writer, m *Matrix) error {
	if err := m.Validate(); err != nil {
		return err
	}

	cw := newWriter(w)
	cw.Write(append([]string{"Name"}, m.ColIDs...))
	for i, id := range m.RowIDs {
		cw.Write(rowRecord(m, i, id))
	}

	cw.Flush()
	return pfx.Err(cw.Error())
}

// WriteFile writes m in the preamble dialect to path, appending .gct if the
// path does not already end with it. It returns the path actually written.
func WriteFile(path string, m *Matrix) (string, error) {
	path = CheckExtension(gseaprep.ExpandHome(path), ".gct")

	f, err := os.Create(path)
	if err != nil {
		return "", pfx.Err(err)
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return "", err
	}

	return path, pfx.Err(f.Close())
}

// CheckExtension appends ext to path unless path already ends with it.
func CheckExtension(path, ext string) string {
	if strings.HasSuffix(path, ext) {
		return path
	}
	return path + ext
}

// FormatValue renders one cell. NaN is written as an empty cell.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return cw
}

// rowRecord is the leading fields followed by the formatted values of row i.
func rowRecord(m *Matrix, i int, lead ...string) []string {
	n := m.NCols()
	rec := make([]string, 0, len(lead)+n)
	rec = append(rec, lead...)
	for _, v := range m.Values[i*n : (i+1)*n] {
		rec = append(rec, FormatValue(v))
	}
	return rec
}
