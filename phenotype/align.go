package phenotype

import (
	"fmt"
	"sort"

	"github.com/carbocation/gseaprep"
	"github.com/carbocation/gseaprep/gct"
)

// Aligned binds each phenotype entry to a sample of an expression matrix.
// Samples[i] carries Entries[i].
type Aligned struct {
	Dialect Dialect
	Names   map[int]string
	Samples []string
	Entries []Entry
}

// Align binds p to the columns of m positionally. The counts must match
// exactly; there is no fallback to a common subset of samples.
func Align(m *gct.Matrix, p *Phenotypes) (*Aligned, error) {
	if len(p.Entries) != m.NCols() {
		return nil, &gseaprep.CardinalityError{Phenotypes: len(p.Entries), Samples: m.NCols()}
	}

	return &Aligned{
		Dialect: p.Dialect,
		Names:   copyNames(p.Names),
		Samples: append([]string(nil), m.ColIDs...),
		Entries: append([]Entry(nil), p.Entries...),
	}, nil
}

func (a *Aligned) copy() *Aligned {
	return &Aligned{
		Dialect: a.Dialect,
		Names:   copyNames(a.Names),
		Samples: append([]string(nil), a.Samples...),
		Entries: append([]Entry(nil), a.Entries...),
	}
}

// Codes returns the class code of every sample.
func (a *Aligned) Codes() []float64 {
	out := make([]float64, len(a.Entries))
	for i, e := range a.Entries {
		out[i] = e.Code
	}
	return out
}

// Reverse returns a copy with class codes 0 and 1 exchanged and the names of
// those two classes swapped. Other codes are left alone.
func (a *Aligned) Reverse() *Aligned {
	out := a.copy()
	for i, e := range out.Entries {
		switch e.Code {
		case 0:
			out.Entries[i].Code = 1
		case 1:
			out.Entries[i].Code = 0
		}
	}

	n0, ok0 := a.Names[0]
	n1, ok1 := a.Names[1]
	delete(out.Names, 0)
	delete(out.Names, 1)
	if ok1 {
		out.Names[0] = n1
	}
	if ok0 {
		out.Names[1] = n0
	}

	return out
}

// CanonicalOrder returns a copy whose samples are stably sorted by class
// code, along with the permutation applied: position k of the result was
// position order[k] of a.
func (a *Aligned) CanonicalOrder() (*Aligned, []int) {
	order := make([]int, len(a.Entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return a.Entries[order[x]].Code < a.Entries[order[y]].Code
	})

	out := a.copy()
	for k, i := range order {
		out.Samples[k] = a.Samples[i]
		out.Entries[k] = a.Entries[i]
	}

	return out, order
}

// ReindexMatrix returns a copy of m whose columns follow a.Samples. Every
// sample of a must be a column of m and vice versa.
func (a *Aligned) ReindexMatrix(m *gct.Matrix) (*gct.Matrix, error) {
	if len(a.Samples) != m.NCols() {
		return nil, &gseaprep.CardinalityError{Phenotypes: len(a.Samples), Samples: m.NCols()}
	}
	out, err := m.SelectColumns(a.Samples)
	if err != nil {
		return nil, &gseaprep.FormatError{Msg: fmt.Sprintf("cannot reorder dataset columns to the phenotype order: %v", err)}
	}
	return out, nil
}

// MatchesColumns reports whether the matrix columns are in sample order.
func (a *Aligned) MatchesColumns(m *gct.Matrix) bool {
	if len(a.Samples) != m.NCols() {
		return false
	}
	for j, id := range m.ColIDs {
		if a.Samples[j] != id {
			return false
		}
	}
	return true
}
