// Package collapse aggregates a probe-level expression matrix into a
// gene-level one using a chip annotation, and records which probes folded
// into each gene.
//
// Each sample column is aggregated independently. For absmax this means the
// value kept in one column may come from a different probe than the value
// kept in the next column.
package collapse

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/carbocation/gseaprep/chip"
	"github.com/carbocation/gseaprep/gct"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	log "github.com/sirupsen/logrus"
)

// NoSymbolMapping is how the provenance of unmapped probes is labelled.
const NoSymbolMapping = "No Symbol Mapping"

// Mapping lists the probes that were folded into one gene. The entry for
// probes without a gene symbol has Mapped == false.
type Mapping struct {
	Symbol string
	Mapped bool
	IDs    []string
}

// Label is the gene symbol, or NoSymbolMapping for the unmapped entry.
func (m Mapping) Label() string {
	if !m.Mapped {
		return NoSymbolMapping
	}
	return m.Symbol
}

// Display joins the probe identifiers with commas.
func (m Mapping) Display() string {
	return strings.Join(m.IDs, ",")
}

// Result is a collapsed matrix plus its provenance. InputLength is the number
// of rows of the probe-level matrix; CollapseLength is the number of genes.
type Result struct {
	Matrix         *gct.Matrix
	Mappings       []Mapping
	InputLength    int
	CollapseLength int
}

// Unmapped returns the probes that had no gene symbol.
func (r *Result) Unmapped() []string {
	for _, m := range r.Mappings {
		if !m.Mapped {
			return m.IDs
		}
	}
	return nil
}

// Collapse groups the rows of m by their gene symbol in annotations and
// aggregates every sample column with the named method. Rows without a symbol
// are dropped from the matrix but reported in the provenance.
func Collapse(m *gct.Matrix, annotations chip.Map, method string) (*Result, error) {
	agg, err := Lookup(method)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	// Probe rows of each gene, in matrix order
	groups := make(map[string][]int)
	titles := make(map[string]string)
	var unmapped []string
	for i, probe := range m.RowIDs {
		a, ok := annotations.Lookup(probe)
		if !ok {
			unmapped = append(unmapped, probe)
			continue
		}
		if _, seen := groups[a.Symbol]; !seen {
			titles[a.Symbol] = a.Title
		}
		groups[a.Symbol] = append(groups[a.Symbol], i)
	}

	symbols := make([]string, 0, len(groups))
	for sym := range groups {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	nCols := m.NCols()
	out := &gct.Matrix{
		RowIDs:       symbols,
		ColIDs:       append([]string(nil), m.ColIDs...),
		Values:       make([]float64, 0, len(symbols)*nCols),
		Descriptions: make([]string, 0, len(symbols)),
	}
	mappings := make([]Mapping, 0, len(symbols)+1)

	column := make([]float64, 0, 8)
	for _, sym := range symbols {
		rows := groups[sym]
		for j := 0; j < nCols; j++ {
			column = column[:0]
			for _, i := range rows {
				if v := m.At(i, j); !math.IsNaN(v) {
					column = append(column, v)
				}
			}
			if len(column) == 0 {
				out.Values = append(out.Values, math.NaN())
				continue
			}
			out.Values = append(out.Values, agg(column))
		}
		out.Descriptions = append(out.Descriptions, titles[sym])

		ids := make([]string, 0, len(rows))
		for _, i := range rows {
			ids = append(ids, m.RowIDs[i])
		}
		sort.Strings(ids)
		mappings = append(mappings, Mapping{Symbol: sym, Mapped: true, IDs: ids})
	}

	if len(unmapped) > 0 {
		sort.Strings(unmapped)
		mappings = append(mappings, Mapping{IDs: unmapped})
		log.Warnf("%d of %d dataset identifiers had no gene symbol in the chip and were dropped", len(unmapped), m.NRows())
	}

	log.WithFields(log.Fields{
		"method": strings.ToLower(method),
		"input":  m.NRows(),
		"genes":  len(symbols),
	}).Info("collapsed dataset")

	return &Result{
		Matrix:         out,
		Mappings:       mappings,
		InputLength:    m.NRows(),
		CollapseLength: len(symbols),
	}, nil
}

type mappingRow struct {
	Symbol string `csv:"Gene Symbol"`
	IDs    string `csv:"Dataset ID(s)"`
}

// WriteMappings writes the provenance as a tab-delimited table with the
// columns Gene Symbol and Dataset ID(s).
func WriteMappings(w io.Writer, mappings []Mapping) error {
	rows := make([]*mappingRow, 0, len(mappings))
	for _, m := range mappings {
		rows = append(rows, &mappingRow{Symbol: m.Label(), IDs: m.Display()})
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	return pfx.Err(gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)))
}
