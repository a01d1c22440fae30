// Package gct reads and writes gene expression matrices: the GCT format with
// its #1.2 preamble, plain tab-delimited matrices, and headerless ranked
// (.rnk) lists.
package gct

import (
	"fmt"
	"math"

	"github.com/carbocation/gseaprep"
)

// Matrix is a dense expression matrix. Values are stored row-major and a
// missing measurement is NaN. Descriptions is either nil or holds one
// free-text annotation per row.
type Matrix struct {
	RowIDs       []string
	ColIDs       []string
	Values       []float64
	Descriptions []string
}

// New builds a matrix and validates it.
func New(rowIDs, colIDs []string, values []float64, descriptions []string) (*Matrix, error) {
	m := &Matrix{
		RowIDs:       rowIDs,
		ColIDs:       colIDs,
		Values:       values,
		Descriptions: descriptions,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the shape and identity invariants of the matrix.
func (m *Matrix) Validate() error {
	if len(m.Values) != len(m.RowIDs)*len(m.ColIDs) {
		return &gseaprep.FormatError{Msg: fmt.Sprintf("matrix has %d values but %d rows and %d columns", len(m.Values), len(m.RowIDs), len(m.ColIDs))}
	}
	if m.Descriptions != nil && len(m.Descriptions) != len(m.RowIDs) {
		return &gseaprep.FormatError{Msg: fmt.Sprintf("Number of row descriptions (%d) not equal to number of row names (%d).", len(m.Descriptions), len(m.RowIDs))}
	}
	if dup, ok := firstDuplicate(m.RowIDs); ok {
		return &gseaprep.FormatError{Msg: fmt.Sprintf("duplicate row identifier %q", dup)}
	}
	if dup, ok := firstDuplicate(m.ColIDs); ok {
		return &gseaprep.FormatError{Msg: fmt.Sprintf("duplicate column identifier %q", dup)}
	}
	return nil
}

func (m *Matrix) NRows() int { return len(m.RowIDs) }

func (m *Matrix) NCols() int { return len(m.ColIDs) }

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.Values[i*len(m.ColIDs)+j]
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	n := len(m.ColIDs)
	return append([]float64(nil), m.Values[i*n:(i+1)*n]...)
}

// RowIndex maps row identifiers to their positions.
func (m *Matrix) RowIndex() map[string]int {
	out := make(map[string]int, len(m.RowIDs))
	for i, id := range m.RowIDs {
		out[id] = i
	}
	return out
}

// Description returns the annotation of row i, or the row identifier when the
// matrix carries no descriptions.
func (m *Matrix) Description(i int) string {
	if m.Descriptions == nil {
		return m.RowIDs[i]
	}
	return m.Descriptions[i]
}

// Copy returns a deep copy.
func (m *Matrix) Copy() *Matrix {
	out := &Matrix{
		RowIDs: append([]string(nil), m.RowIDs...),
		ColIDs: append([]string(nil), m.ColIDs...),
		Values: append([]float64(nil), m.Values...),
	}
	if m.Descriptions != nil {
		out.Descriptions = append([]string(nil), m.Descriptions...)
	}
	return out
}

// ReorderColumns returns a new matrix whose column k is column order[k] of m.
// order must be a permutation of the column positions.
func (m *Matrix) ReorderColumns(order []int) (*Matrix, error) {
	n := len(m.ColIDs)
	if len(order) != n {
		return nil, fmt.Errorf("column order has %d entries, matrix has %d columns", len(order), n)
	}
	seen := make([]bool, n)
	for _, j := range order {
		if j < 0 || j >= n || seen[j] {
			return nil, fmt.Errorf("column order %v is not a permutation of %d columns", order, n)
		}
		seen[j] = true
	}

	return m.pick(order), nil
}

// SelectColumns returns a new matrix holding the named columns in the given
// order.
func (m *Matrix) SelectColumns(ids []string) (*Matrix, error) {
	pos := make(map[string]int, len(m.ColIDs))
	for j, id := range m.ColIDs {
		pos[id] = j
	}
	order := make([]int, 0, len(ids))
	for _, id := range ids {
		j, ok := pos[id]
		if !ok {
			return nil, fmt.Errorf("column %q is not in the matrix", id)
		}
		order = append(order, j)
	}
	return m.pick(order), nil
}

// pick copies the columns at the given positions into a new matrix.
func (m *Matrix) pick(order []int) *Matrix {
	n := len(m.ColIDs)
	out := &Matrix{
		RowIDs: append([]string(nil), m.RowIDs...),
		ColIDs: make([]string, len(order)),
		Values: make([]float64, len(m.RowIDs)*len(order)),
	}
	if m.Descriptions != nil {
		out.Descriptions = append([]string(nil), m.Descriptions...)
	}
	for k, j := range order {
		out.ColIDs[k] = m.ColIDs[j]
	}
	for i := range m.RowIDs {
		for k, j := range order {
			out.Values[i*len(order)+k] = m.Values[i*n+j]
		}
	}
	return out
}

// Missing counts the NaN cells.
func (m *Matrix) Missing() int {
	n := 0
	for _, v := range m.Values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

func firstDuplicate(ids []string) (string, bool) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, exists := seen[id]; exists {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}
