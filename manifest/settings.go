package manifest

import (
	"bytes"
	"encoding/json"

	"github.com/carbocation/gseaprep"
	"gopkg.in/guregu/null.v3"
)

// Mode selects the engine subcommand and the shape of the manifest.
type Mode string

const (
	// Standard compares two phenotype classes.
	Standard Mode = "standard"
	// DataRank scores each sample on its own and needs no phenotypes.
	DataRank Mode = "data-rank"
)

// Settings is the record passed to the engine as gsea_settings.json. Fields
// are opaque here; only their presence is checked, and absent fields are left
// out of the JSON.
type Settings struct {
	NumberOfPermutations          null.Int
	Permutation                   null.String
	Metric                        null.String
	Algorithm                     null.String
	Weight                        null.Float
	Exponent                      null.Float
	MaximumGeneSetSize            null.Int
	MinimumGeneSetSize            null.Int
	RemoveGeneSetGenes            null.Bool
	RandomSeed                    null.Int
	NumberOfJobs                  null.Int
	NumberOfExtremeGeneSetsToPlot null.Int
	NumberOfSetsToPlot            null.Int
	GeneSetsToPlot                []string
}

type settingsField struct {
	key   string
	valid bool
	value interface{}
}

// fields lists the settings in the order they are written.
func (s Settings) fields() []settingsField {
	return []settingsField{
		{"number_of_permutations", s.NumberOfPermutations.Valid, s.NumberOfPermutations.Int64},
		{"permutation", s.Permutation.Valid, s.Permutation.String},
		{"metric", s.Metric.Valid, s.Metric.String},
		{"algorithm", s.Algorithm.Valid, s.Algorithm.String},
		{"weight", s.Weight.Valid, s.Weight.Float64},
		{"exponent", s.Exponent.Valid, s.Exponent.Float64},
		{"maximum_gene_set_size", s.MaximumGeneSetSize.Valid, s.MaximumGeneSetSize.Int64},
		{"minimum_gene_set_size", s.MinimumGeneSetSize.Valid, s.MinimumGeneSetSize.Int64},
		{"remove_gene_set_genes", s.RemoveGeneSetGenes.Valid, s.RemoveGeneSetGenes.Bool},
		{"random_seed", s.RandomSeed.Valid, s.RandomSeed.Int64},
		{"number_of_jobs", s.NumberOfJobs.Valid, s.NumberOfJobs.Int64},
		{"number_of_extreme_gene_sets_to_plot", s.NumberOfExtremeGeneSetsToPlot.Valid, s.NumberOfExtremeGeneSetsToPlot.Int64},
		{"number_of_sets_to_plot", s.NumberOfSetsToPlot.Valid, s.NumberOfSetsToPlot.Int64},
		{"gene_sets_to_plot", true, genesToPlot(s.GeneSetsToPlot)},
	}
}

func genesToPlot(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

// Required lists the keys the engine needs in each mode.
var Required = map[Mode][]string{
	Standard: {
		"number_of_permutations",
		"permutation",
		"metric",
		"algorithm",
		"weight",
		"maximum_gene_set_size",
		"minimum_gene_set_size",
		"remove_gene_set_genes",
		"random_seed",
		"number_of_jobs",
		"number_of_extreme_gene_sets_to_plot",
	},
	DataRank: {
		"algorithm",
		"exponent",
		"maximum_gene_set_size",
		"minimum_gene_set_size",
		"remove_gene_set_genes",
		"number_of_jobs",
		"number_of_sets_to_plot",
	},
}

// Validate checks that every key the mode requires is present.
func (s Settings) Validate(mode Mode) error {
	required, ok := Required[mode]
	if !ok {
		return &gseaprep.ConfigError{Field: "mode", Value: string(mode), Msg: "expected standard or data-rank"}
	}

	present := make(map[string]bool)
	for _, f := range s.fields() {
		present[f.key] = f.valid
	}
	for _, key := range required {
		if !present[key] {
			return &gseaprep.ConfigError{Field: key, Msg: "required setting is missing for " + string(mode) + " mode"}
		}
	}

	return nil
}

// MarshalJSON writes the present settings as one object, in a fixed order.
func (s Settings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	for _, f := range s.fields() {
		if !f.valid {
			continue
		}
		value, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(f.key)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
		n++
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
