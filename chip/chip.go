// Package chip reads probe-to-gene annotation (.chip) files.
package chip

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/gseaprep"
	log "github.com/sirupsen/logrus"
)

const (
	SymbolColumn = "Gene Symbol"
	TitleColumn  = "Gene Title"
)

// Annotation is the gene a probe maps to. An empty Symbol means the probe is
// unmapped.
type Annotation struct {
	Symbol string
	Title  string
}

// Map is keyed by probe identifier.
type Map map[string]Annotation

// Lookup returns the annotation of probe and whether it maps to a gene.
func (m Map) Lookup(probe string) (Annotation, bool) {
	a, ok := m[probe]
	return a, ok && a.Symbol != ""
}

// Read parses a tab-delimited chip file. The first column is the probe key and
// the header must contain Gene Symbol and Gene Title. Duplicate probes are
// tolerated: the last occurrence wins.
func Read(r io.Reader, name string) (Map, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, &gseaprep.FormatError{Path: name, Line: 1, Msg: fmt.Sprintf("missing header line: %v", err)}
	}

	symbolCol, titleCol := -1, -1
	for j, h := range header {
		switch strings.TrimSpace(h) {
		case SymbolColumn:
			symbolCol = j
		case TitleColumn:
			titleCol = j
		}
	}
	if symbolCol < 1 || titleCol < 1 {
		return nil, &gseaprep.FormatError{Path: name, Line: 1, Msg: fmt.Sprintf("header must contain %q and %q after the probe column", SymbolColumn, TitleColumn)}
	}

	out := make(Map)
	duplicates := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, &gseaprep.FormatError{Path: name, Msg: err.Error()}
		}

		probe := strings.TrimSpace(rec[0])
		if probe == "" {
			continue
		}

		a := Annotation{}
		if symbolCol < len(rec) {
			a.Symbol = cleanCell(rec[symbolCol])
		}
		if titleCol < len(rec) {
			a.Title = cleanCell(rec[titleCol])
		}

		if _, exists := out[probe]; exists {
			duplicates++
		}
		out[probe] = a
	}

	if duplicates > 0 {
		log.Warnf("%s: %d duplicate probe identifiers; the last annotation of each was kept", name, duplicates)
	}
	log.Debugf("%s: read %d probe annotations", name, len(out))

	return out, nil
}

// cleanCell maps the usual missing-value tokens to the empty string.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "na", "nan", "null", "#n/a", "n/a", "---":
		return ""
	}
	return s
}
