package collapse

import (
	"math"
	"sort"
	"strings"

	"github.com/carbocation/gseaprep"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Method reduces the non-missing values of one sample column, across every
// probe of a gene, to a single value. It is never called with an empty slice.
type Method func(values []float64) float64

// Methods is the registry of collapse methods, keyed by lower-case name.
var Methods = map[string]Method{
	"sum":    floats.Sum,
	"mean":   func(v []float64) float64 { return stat.Mean(v, nil) },
	"median": median,
	"max":    floats.Max,
	"absmax": absMax,
}

// MethodNames lists the registered method names, sorted.
func MethodNames() string {
	names := make([]string, 0, len(Methods))
	for m := range Methods {
		names = append(names, m)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}

// Lookup resolves a method name case-insensitively.
func Lookup(name string) (Method, error) {
	m, ok := Methods[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, &gseaprep.ConfigError{
			Field: "collapse",
			Value: name,
			Msg:   "unrecognized collapse method; valid methods are " + MethodNames(),
		}
	}
	return m, nil
}

func median(v []float64) float64 {
	out, err := stats.Median(stats.Float64Data(v))
	if err != nil {
		return math.NaN()
	}
	return out
}

// absMax returns the value of greatest magnitude, keeping its sign. Ties keep
// the earliest value.
func absMax(v []float64) float64 {
	best := v[0]
	for _, x := range v[1:] {
		if math.Abs(x) > math.Abs(best) {
			best = x
		}
	}
	return best
}
