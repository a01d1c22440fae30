package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/gseaprep"
	"github.com/carbocation/gseaprep/collapse"
	"github.com/carbocation/gseaprep/gct"
	"github.com/carbocation/gseaprep/geneset"
	"github.com/carbocation/gseaprep/phenotype"
	"gopkg.in/check.v1"
	"gopkg.in/guregu/null.v3"
)

func Test(t *testing.T) { check.TestingT(t) }

type manifestSuite struct{}

var _ = check.Suite(&manifestSuite{})

func standardSettings() Settings {
	return Settings{
		NumberOfPermutations:          null.IntFrom(1000),
		Permutation:                   null.StringFrom("sample"),
		Metric:                        null.StringFrom("signal_to_noise"),
		Algorithm:                     null.StringFrom("ks"),
		Weight:                        null.FloatFrom(1),
		MaximumGeneSetSize:            null.IntFrom(500),
		MinimumGeneSetSize:            null.IntFrom(15),
		RemoveGeneSetGenes:            null.BoolFrom(true),
		RandomSeed:                    null.IntFrom(42),
		NumberOfJobs:                  null.IntFrom(1),
		NumberOfExtremeGeneSetsToPlot: null.IntFrom(25),
	}
}

func dataRankSettings() Settings {
	return Settings{
		Algorithm:          null.StringFrom("ks"),
		Exponent:           null.FloatFrom(0.75),
		MaximumGeneSetSize: null.IntFrom(500),
		MinimumGeneSetSize: null.IntFrom(15),
		RemoveGeneSetGenes: null.BoolFrom(true),
		NumberOfJobs:       null.IntFrom(2),
		NumberOfSetsToPlot: null.IntFrom(25),
	}
}

func standardInputs(c *check.C) *RunInputs {
	m, err := gct.New([]string{"A", "B"}, []string{"S2", "S1"}, []float64{1, 2, 3, 4}, nil)
	c.Assert(err, check.IsNil)
	a, err := phenotype.Align(m, &phenotype.Phenotypes{
		Names:   map[int]string{0: "ctl", 1: "case"},
		Entries: []phenotype.Entry{{Label: "ctl", Code: 0}, {Label: "case", Code: 1}},
	})
	c.Assert(err, check.IsNil)

	raw := geneset.NewCollection()
	raw.Add(geneset.NewSet("SET1", "d", []string{"A", "B", "Z"}))
	raw.Add(geneset.NewSet("SET2", "d", []string{"Z"}))
	filtered, sizes := geneset.RestrictToUniverse(raw, m.RowIDs)

	return &RunInputs{
		Mode:          Standard,
		Matrix:        m,
		Phenotypes:    a,
		RawSets:       raw,
		FilteredSets:  filtered.Subset([]string{"SET1"}),
		FilteredSizes: sizes,
		Settings:      standardSettings(),
		Summary:       Summary{InputLength: 2},
	}
}

func (s *manifestSuite) TestSettingsValidate(c *check.C) {
	c.Check(standardSettings().Validate(Standard), check.IsNil)
	c.Check(dataRankSettings().Validate(DataRank), check.IsNil)

	err := dataRankSettings().Validate(Standard)
	var ce *gseaprep.ConfigError
	c.Assert(errors.As(err, &ce), check.Equals, true)
	c.Check(ce.Field, check.Equals, "number_of_permutations")

	c.Check(standardSettings().Validate(Mode("bogus")), check.NotNil)
}

func (s *manifestSuite) TestSettingsJSON(c *check.C) {
	data, err := json.Marshal(dataRankSettings())
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, `{"algorithm":"ks","exponent":0.75,"maximum_gene_set_size":500,"minimum_gene_set_size":15,"remove_gene_set_genes":true,"number_of_jobs":2,"number_of_sets_to_plot":25,"gene_sets_to_plot":[]}`)
}

func (s *manifestSuite) TestWriteStandard(c *check.C) {
	dir := c.MkDir()
	in := standardInputs(c)
	in.Mappings = []collapse.Mapping{{Symbol: "A", Mapped: true, IDs: []string{"p1", "p2"}}}

	man, err := Write(dir, in)
	c.Assert(err, check.IsNil)
	c.Check(man.Dir, check.Equals, filepath.Join(dir, "input"))
	c.Check(man.Files(), check.HasLen, 7)

	data, err := os.ReadFile(man.GeneBySample)
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, "Name\tS2\tS1\nA\t1\t2\nB\t3\t4\n")

	data, err = os.ReadFile(man.TargetBySample)
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, "S2\tS1\n0\t1\n")

	var filtered map[string][]string
	data, err = os.ReadFile(man.FilteredSets)
	c.Assert(err, check.IsNil)
	c.Assert(json.Unmarshal(data, &filtered), check.IsNil)
	c.Check(filtered, check.DeepEquals, map[string][]string{"SET1": {"A", "B"}})

	var raw map[string][]string
	data, err = os.ReadFile(man.RawSets)
	c.Assert(err, check.IsNil)
	c.Assert(json.Unmarshal(data, &raw), check.IsNil)
	c.Check(raw["SET1"], check.DeepEquals, []string{"A", "B", "Z"})
	c.Check(raw["SET2"], check.DeepEquals, []string{"Z"})

	var settings map[string]interface{}
	data, err = os.ReadFile(man.Settings)
	c.Assert(err, check.IsNil)
	c.Assert(json.Unmarshal(data, &settings), check.IsNil)
	c.Check(settings["random_seed"], check.Equals, 42.0)
	_, hasExponent := settings["exponent"]
	c.Check(hasExponent, check.Equals, false)

	data, err = os.ReadFile(man.Mappings)
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, "Gene Symbol\tDataset ID(s)\nA\tp1,p2\n")

	var summary Summary
	data, err = os.ReadFile(man.Summary)
	c.Assert(err, check.IsNil)
	c.Assert(json.Unmarshal(data, &summary), check.IsNil)
	c.Check(summary.RunID, check.Not(check.Equals), "")
	c.Check(summary.Genes, check.Equals, 2)
	c.Check(summary.FilteredGeneSets, check.Equals, 1)
	c.Check(*summary.RandomSeed, check.Equals, int64(42))
	c.Check(summary.Files, check.HasLen, 7)
}

func (s *manifestSuite) TestWriteRejectsColumnOrder(c *check.C) {
	in := standardInputs(c)
	m, err := in.Matrix.ReorderColumns([]int{1, 0})
	c.Assert(err, check.IsNil)
	in.Matrix = m

	_, err = Write(c.MkDir(), in)
	var fe *gseaprep.FormatError
	c.Check(errors.As(err, &fe), check.Equals, true)
}

func (s *manifestSuite) TestWriteDataRank(c *check.C) {
	in := standardInputs(c)
	in.Mode = DataRank
	in.Phenotypes = nil
	in.Settings = dataRankSettings()

	man, err := Write(c.MkDir(), in)
	c.Assert(err, check.IsNil)
	c.Check(man.TargetBySample, check.Equals, "")
	c.Check(man.Mappings, check.Equals, "")
	c.Check(man.Files(), check.HasLen, 5)

	args, err := Engine{}.Args(man, "/out")
	c.Assert(err, check.IsNil)
	c.Check(args, check.DeepEquals, []string{"data-rank", man.Settings, man.GeneBySample, man.FilteredSets, "/out"})
}

func (s *manifestSuite) TestEngineRun(c *check.C) {
	dir := c.MkDir()
	man, err := Write(dir, standardInputs(c))
	c.Assert(err, check.IsNil)

	args, err := Engine{}.Args(man, dir)
	c.Assert(err, check.IsNil)
	c.Check(args, check.DeepEquals, []string{"standard", man.Settings, man.FilteredSets, man.TargetBySample, man.GeneBySample, dir})

	script := filepath.Join(dir, "fake-engine")
	c.Assert(os.WriteFile(script, []byte("#!/bin/sh\nfor last; do :; done\necho \"$@\" > \"$last/called\"\necho ignored\n"), 0755), check.IsNil)
	c.Assert(Engine{Path: script}.Run(context.Background(), man, dir), check.IsNil)

	called, err := os.ReadFile(filepath.Join(dir, "called"))
	c.Assert(err, check.IsNil)
	c.Check(strings.TrimSpace(string(called)), check.Equals, strings.Join(args, " "))

	failing := filepath.Join(dir, "failing-engine")
	c.Assert(os.WriteFile(failing, []byte("#!/bin/sh\necho boom >&2\nexit 3\n"), 0755), check.IsNil)
	err = Engine{Path: failing}.Run(context.Background(), man, dir)
	c.Check(err, check.ErrorMatches, `.*boom`)
}
