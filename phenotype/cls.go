// Package phenotype reads class (.cls) files and binds their per-sample class
// codes to the columns of an expression matrix.
package phenotype

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/gseaprep"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
)

type Dialect int

const (
	// Categorical files name their classes on line 2 and give one class name
	// per sample on line 3.
	Categorical Dialect = iota
	// Numeric files carry a single label on line 2 and one numeric code per
	// sample on line 3.
	Numeric
)

func (d Dialect) String() string {
	if d == Numeric {
		return "numeric"
	}
	return "categorical"
}

// NumericNames are the class names assumed for numeric files.
var NumericNames = map[int]string{0: "Pos", 1: "Neg"}

// Entry is one sample's class: the token as written in the file and the
// class code it resolved to.
type Entry struct {
	Label string
	Code  float64
}

// Phenotypes is the parsed content of a class file, in file order.
type Phenotypes struct {
	Dialect Dialect
	Names   map[int]string
	Entries []Entry
}

// Codes returns the class code of every entry.
func (p *Phenotypes) Codes() []float64 {
	out := make([]float64, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Code
	}
	return out
}

// FormatCode renders a class code the way it is written to the engine: whole
// numbers without a decimal point.
func FormatCode(code float64) string {
	return strconv.FormatFloat(code, 'g', -1, 64)
}

// Read parses a class file. A first line containing "numeric" selects the
// numeric dialect; anything else is categorical. In the categorical dialect a
// line 3 token that is not a declared class name causes every token to be
// read as an integer class code instead.
func Read(r io.Reader, name string) (*Phenotypes, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	lines := make([]string, 0, 3)
	for len(lines) < 3 && scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, pfx.Err(err)
	}
	if len(lines) < 3 {
		return nil, &gseaprep.FormatError{Path: name, Line: len(lines) + 1, Msg: fmt.Sprintf("class files need 3 lines, found %d", len(lines))}
	}

	var p *Phenotypes
	var err error
	if strings.Contains(lines[0], "numeric") {
		p, err = readNumeric(lines, name)
	} else {
		p, err = readCategorical(lines, name)
	}
	if err != nil {
		return nil, err
	}

	log.Debugf("%s: %s class file with %d samples", name, p.Dialect, len(p.Entries))

	return p, nil
}

func readNumeric(lines []string, name string) (*Phenotypes, error) {
	labelFields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(lines[1]), "#"))
	if len(labelFields) == 0 {
		return nil, &gseaprep.FormatError{Path: name, Line: 2, Msg: "numeric class files need a label on line 2"}
	}
	label := labelFields[0]

	tokens := strings.Fields(lines[2])
	p := &Phenotypes{
		Dialect: Numeric,
		Names:   copyNames(NumericNames),
		Entries: make([]Entry, 0, len(tokens)),
	}
	for k, tok := range tokens {
		code, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, &gseaprep.FormatError{Path: name, Line: 3, Msg: fmt.Sprintf("value %q for sample %d is not numeric", tok, k+1)}
		}
		if math.IsNaN(code) || math.IsInf(code, 0) {
			return nil, &gseaprep.FormatError{Path: name, Line: 3, Msg: fmt.Sprintf("value %q for sample %d is not a finite class code", tok, k+1)}
		}
		p.Entries = append(p.Entries, Entry{Label: label, Code: code})
	}

	return p, nil
}

func readCategorical(lines []string, name string) (*Phenotypes, error) {
	header := strings.TrimSpace(lines[1])
	if !strings.HasPrefix(header, "#") {
		return nil, &gseaprep.FormatError{Path: name, Line: 2, Msg: "expected class names after a leading #"}
	}

	names := make(map[int]string)
	index := make(map[string]int)
	for _, tok := range strings.Fields(strings.TrimPrefix(header, "#")) {
		if _, exists := index[tok]; exists {
			continue
		}
		index[tok] = len(names)
		names[len(names)] = tok
	}

	tokens := strings.Fields(lines[2])

	// Line 1 is "<samples> <classes> 1"; only the sample count is checked.
	if counts := strings.Fields(lines[0]); len(counts) > 0 {
		if n, err := strconv.Atoi(counts[0]); err == nil && n != len(tokens) {
			return nil, &gseaprep.FormatError{Path: name, Line: 1, Msg: fmt.Sprintf("header declares %d samples but line 3 has %d", n, len(tokens))}
		}
	}

	p := &Phenotypes{
		Dialect: Categorical,
		Names:   names,
		Entries: make([]Entry, 0, len(tokens)),
	}

	resolved := true
	for _, tok := range tokens {
		code, ok := index[tok]
		if !ok {
			resolved = false
			break
		}
		p.Entries = append(p.Entries, Entry{Label: tok, Code: float64(code)})
	}
	if resolved {
		return p, nil
	}

	p.Entries = p.Entries[:0]
	for _, tok := range tokens {
		code, err := strconv.Atoi(tok)
		if err != nil {
			return nil, &gseaprep.LookupError{Path: name, Key: tok, Msg: "not a declared class name and not an integer class code"}
		}
		p.Entries = append(p.Entries, Entry{Label: tok, Code: float64(code)})
	}

	return p, nil
}

func copyNames(in map[int]string) map[int]string {
	out := make(map[int]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
