package geneset

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/gseaprep"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

// Opener opens a gene set database by path.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// Reader parses one gene set database.
type Reader func(r io.Reader, name string) (*Collection, error)

// Readers maps a file extension (without compression suffix) to its parser.
var Readers = map[string]Reader{
	"gmt": ReadGMT,
	"gmx": ReadGMX,
	"txt": ReadGMX,
	"tsv": ReadGMX,
}

// ReadFiles reads every path in order and merges the results. A set defined in
// more than one file takes its members from the last file.
func ReadFiles(ctx context.Context, opener Opener, paths []string) (*Collection, error) {
	out := NewCollection()
	for _, path := range paths {
		c, err := ReadFile(ctx, opener, path)
		if err != nil {
			return nil, err
		}
		out.Merge(c)
	}
	return out, nil
}

// ReadFile reads one gene set database, choosing the parser by extension.
func ReadFile(ctx context.Context, opener Opener, path string) (*Collection, error) {
	read, ok := Readers[gseaprep.Ext(path)]
	if !ok {
		return nil, &gseaprep.LookupError{Path: path, Key: gseaprep.Ext(path), Msg: "unrecognized gene set file extension; expected gmt, gmx, txt or tsv"}
	}

	rc, err := opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	c, err := read(rc, path)
	if err != nil {
		return nil, err
	}
	log.Debugf("%s: read %d gene sets", path, c.Len())

	return c, nil
}

// ReadGMT parses the row-oriented format: one set per line as name,
// description, then members, separated by tabs.
func ReadGMT(r io.Reader, name string) (*Collection, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	out := NewCollection()
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if fields[0] == "" {
			return nil, &gseaprep.FormatError{Path: name, Line: line, Msg: "gene set has no name"}
		}
		if len(fields) < 2 {
			return nil, &gseaprep.FormatError{Path: name, Line: line, Msg: fmt.Sprintf("gene set %q has no description column", fields[0])}
		}

		out.Add(NewSet(fields[0], fields[1], fields[2:]))
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}

// ReadGMX parses the column-oriented format: the header names the sets, the
// first non-blank cell of each column is its description and the remaining
// non-blank cells are members. Columns with no content are skipped.
func ReadGMX(r io.Reader, name string) (*Collection, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return NewCollection(), nil
	} else if err != nil {
		return nil, &gseaprep.FormatError{Path: name, Line: 1, Msg: err.Error()}
	}

	columns := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, &gseaprep.FormatError{Path: name, Msg: err.Error()}
		}
		for j, cell := range rec {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if j >= len(header) {
				line, _ := cr.FieldPos(j)
				return nil, &gseaprep.FormatError{Path: name, Line: line, Msg: fmt.Sprintf("value %q is outside the %d named columns", cell, len(header))}
			}
			columns[j] = append(columns[j], cell)
		}
	}

	out := NewCollection()
	for j, setName := range header {
		setName = strings.TrimSpace(setName)
		cells := columns[j]
		if len(cells) == 0 {
			continue
		}
		if setName == "" {
			return nil, &gseaprep.FormatError{Path: name, Line: 1, Msg: fmt.Sprintf("column %d has members but no gene set name", j+1)}
		}

		out.Add(NewSet(setName, cells[0], cells[1:]))
	}

	return out, nil
}

// ReadList reads a newline-separated list of gene set database paths.
func ReadList(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var out []string
	for scanner.Scan() {
		if p := strings.TrimSpace(scanner.Text()); p != "" {
			out = append(out, p)
		}
	}
	return out, pfx.Err(scanner.Err())
}
