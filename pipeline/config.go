package pipeline

import (
	"encoding/json"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/carbocation/gseaprep"
	"github.com/carbocation/gseaprep/collapse"
	"github.com/carbocation/gseaprep/manifest"
	"github.com/carbocation/pfx"
	log "github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"
)

const (
	// NoCollapse leaves the dataset at its original identifiers.
	NoCollapse = "none"
	// SeedTimestamp derives the seed from the wall clock.
	SeedTimestamp = "timestamp"
	// DefaultMinGenes is the dataset size below which a run is refused unless
	// Override is set.
	DefaultMinGenes = 10000
)

// Config is the complete description of one run.
type Config struct {
	ConfigPath string `json:"-"`

	Mode    manifest.Mode `json:"mode"`
	Dataset string        `json:"dataset"`
	Chip    string        `json:"chip"`
	CLS     string        `json:"cls"`

	// GeneSets names gene set databases directly; GeneSetList names a file
	// listing more of them, one per line.
	GeneSets    []string `json:"gene_sets"`
	GeneSetList string   `json:"gsdb"`

	Collapse string `json:"collapse"`
	Reverse  bool   `json:"reverse"`

	Permutations   int      `json:"nperm"`
	Permutation    string   `json:"perm"`
	Metric         string   `json:"metric"`
	Algorithm      string   `json:"alg"`
	Weight         float64  `json:"weight"`
	Exponent       float64  `json:"exponent"`
	Min            int      `json:"min"`
	Max            int      `json:"max"`
	SeedSpec       string   `json:"seed"`
	NPlot          int      `json:"nplot"`
	CPU            int      `json:"cpu"`
	GeneSetsToPlot []string `json:"gene_sets_to_plot"`

	Override bool `json:"override"`
	MinGenes int  `json:"min_genes"`

	OutDir    string `json:"out_dir"`
	Engine    string `json:"engine"`
	RunEngine bool   `json:"run_engine"`

	// Seed is resolved once from SeedSpec and reused for the whole run.
	Seed null.Int `json:"-"`
}

// DefaultConfig returns the defaults for mode.
func DefaultConfig(mode manifest.Mode) Config {
	return Config{
		Mode:         mode,
		Collapse:     NoCollapse,
		Permutations: 1000,
		Permutation:  "sample",
		Weight:       1.0,
		Exponent:     1.0,
		Min:          15,
		Max:          500,
		SeedSpec:     SeedTimestamp,
		NPlot:        25,
		CPU:          1,
		MinGenes:     DefaultMinGenes,
		OutDir:       ".",
		Engine:       manifest.DefaultEngine,
		RunEngine:    true,
	}
}

// ParseJSONConfigFromPath decodes the JSON file at path over base, so keys
// missing from the file keep their base values.
func ParseJSONConfigFromPath(path string, base Config) (Config, error) {
	out := base
	out.ConfigPath = path

	f, err := os.Open(gseaprep.ExpandHome(path))
	if err != nil {
		return out, pfx.Err(err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		if e, ok := err.(*json.SyntaxError); ok {
			log.Errorf("%s: syntax error at byte offset %d", path, e.Offset)
		}
		return out, pfx.Err(err)
	}

	// Interpret ~ if present
	out.ConfigPath = gseaprep.ExpandHome(out.ConfigPath)
	out.Dataset = gseaprep.ExpandHome(out.Dataset)
	out.Chip = gseaprep.ExpandHome(out.Chip)
	out.CLS = gseaprep.ExpandHome(out.CLS)
	out.GeneSetList = gseaprep.ExpandHome(out.GeneSetList)
	out.OutDir = gseaprep.ExpandHome(out.OutDir)
	for i, p := range out.GeneSets {
		out.GeneSets[i] = gseaprep.ExpandHome(p)
	}

	return out, nil
}

// Collapsing reports whether the dataset is to be collapsed with a chip.
func (c Config) Collapsing() bool {
	return c.Collapse != "" && !strings.EqualFold(c.Collapse, NoCollapse)
}

// Validate checks the settings that must be known before any input is read.
func (c Config) Validate() error {
	switch c.Mode {
	case manifest.Standard:
		if c.CLS == "" {
			return &gseaprep.ConfigError{Field: "cls", Msg: "standard mode needs a class file"}
		}
	case manifest.DataRank:
	default:
		return &gseaprep.ConfigError{Field: "mode", Value: string(c.Mode), Msg: "expected standard or data-rank"}
	}

	if c.Dataset == "" {
		return &gseaprep.ConfigError{Field: "dataset", Msg: "no expression dataset given"}
	}
	if len(c.GeneSets) == 0 && c.GeneSetList == "" {
		return &gseaprep.ConfigError{Field: "gsdb", Msg: "no gene set databases given"}
	}

	if c.Collapsing() {
		if _, err := collapse.Lookup(c.Collapse); err != nil {
			return err
		}
		if c.Chip == "" || strings.EqualFold(c.Chip, "none") {
			return &gseaprep.ConfigError{Field: "chip", Value: c.Chip, Msg: "collapsing needs a chip file"}
		}
	}

	if c.Min < 0 {
		return &gseaprep.ConfigError{Field: "min", Value: strconv.Itoa(c.Min), Msg: "minimum gene set size cannot be negative"}
	}
	if c.Max < c.Min {
		return &gseaprep.ConfigError{Field: "max", Value: strconv.Itoa(c.Max), Msg: "maximum gene set size is below the minimum"}
	}

	return nil
}

// ResolveSeed turns a seed setting into a number: "timestamp" uses now,
// anything else must parse as a number and is rounded half to even.
func ResolveSeed(setting string, now time.Time) (int64, error) {
	setting = strings.TrimSpace(setting)
	if setting == "" || strings.EqualFold(setting, SeedTimestamp) {
		return int64(math.RoundToEven(float64(now.UnixNano()) / float64(time.Second))), nil
	}

	v, err := strconv.ParseFloat(setting, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &gseaprep.ConfigError{Field: "seed", Value: setting, Msg: `expected "timestamp" or a number`}
	}

	return int64(math.RoundToEven(v)), nil
}

// WithSeed returns a copy of c with Seed resolved, unless it already is.
func (c Config) WithSeed(now time.Time) (Config, error) {
	if c.Seed.Valid {
		return c, nil
	}
	seed, err := ResolveSeed(c.SeedSpec, now)
	if err != nil {
		return c, err
	}
	c.Seed = null.IntFrom(seed)
	return c, nil
}

// Settings builds the engine settings record for the configured mode.
func (c Config) Settings() manifest.Settings {
	s := manifest.Settings{
		Algorithm:          null.NewString(c.Algorithm, c.Algorithm != ""),
		MaximumGeneSetSize: null.IntFrom(int64(c.Max)),
		MinimumGeneSetSize: null.IntFrom(int64(c.Min)),
		RemoveGeneSetGenes: null.BoolFrom(true),
		NumberOfJobs:       null.IntFrom(int64(c.CPU)),
		GeneSetsToPlot:     c.GeneSetsToPlot,
	}

	switch c.Mode {
	case manifest.Standard:
		s.NumberOfPermutations = null.IntFrom(int64(c.Permutations))
		s.Permutation = null.NewString(c.Permutation, c.Permutation != "")
		s.Metric = null.NewString(c.Metric, c.Metric != "")
		s.Weight = null.FloatFrom(c.Weight)
		s.RandomSeed = c.Seed
		s.NumberOfExtremeGeneSetsToPlot = null.IntFrom(int64(c.NPlot))
	case manifest.DataRank:
		s.Exponent = null.FloatFrom(c.Exponent)
		s.NumberOfSetsToPlot = null.IntFrom(int64(c.NPlot))
	}

	return s
}

// MinSetSize is the smallest passing gene set size. Data-rank runs never keep
// empty sets.
func (c Config) MinSetSize() int {
	if c.Mode == manifest.DataRank && c.Min < 1 {
		return 1
	}
	return c.Min
}
