// Package manifest writes the prepared inputs of a run into the fixed file
// layout the enrichment engine reads, and invokes the engine on them.
package manifest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/gseaprep"
	"github.com/carbocation/gseaprep/collapse"
	"github.com/carbocation/gseaprep/gct"
	"github.com/carbocation/gseaprep/geneset"
	"github.com/carbocation/gseaprep/phenotype"
	"github.com/carbocation/pfx"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Fixed file names inside the input directory
const (
	InputDir           = "input"
	GeneBySampleFile   = "gene_by_sample.tsv"
	TargetBySampleFile = "target_by_sample.tsv"
	RawSetsFile        = "raw_set_to_genes.json"
	FilteredSetsFile   = "filtered_set_to_genes.json"
	SettingsFile       = "gsea_settings.json"
	MappingsFile       = "collapse_dataset_mapping_details.tsv"
	SummaryFile        = "run_summary.json"
)

// RunInputs is everything a run hands to the engine. It is built once and not
// modified after it is written.
type RunInputs struct {
	Mode Mode

	Matrix *gct.Matrix
	// Phenotypes is nil in data-rank mode.
	Phenotypes *phenotype.Aligned

	RawSets       *geneset.Collection
	FilteredSets  *geneset.Collection
	FilteredSizes map[string]int

	Settings Settings

	// Mappings is set only when the dataset was collapsed.
	Mappings []collapse.Mapping

	Summary Summary
}

// Summary records the counts of a run in run_summary.json.
type Summary struct {
	RunID            string   `json:"run_id"`
	Mode             Mode     `json:"mode"`
	InputLength      int      `json:"input_length"`
	CollapseLength   int      `json:"collapse_length,omitempty"`
	Genes            int      `json:"genes"`
	Samples          int      `json:"samples"`
	RawGeneSets      int      `json:"raw_gene_sets"`
	FilteredGeneSets int      `json:"filtered_gene_sets"`
	RandomSeed       *int64   `json:"random_seed,omitempty"`
	Files            []string `json:"files"`
}

// Validate checks the inputs against the mode before anything is written.
func (in *RunInputs) Validate() error {
	if in.Matrix == nil {
		return fmt.Errorf("no dataset to write")
	}
	if err := in.Matrix.Validate(); err != nil {
		return err
	}
	if in.RawSets == nil || in.FilteredSets == nil {
		return fmt.Errorf("no gene sets to write")
	}
	if err := in.Settings.Validate(in.Mode); err != nil {
		return err
	}

	if in.Mode == Standard {
		if in.Phenotypes == nil {
			return &gseaprep.ConfigError{Field: "cls", Msg: "standard mode needs phenotypes"}
		}
		if !in.Phenotypes.MatchesColumns(in.Matrix) {
			return &gseaprep.FormatError{Path: TargetBySampleFile, Msg: "dataset columns are not in phenotype sample order"}
		}
	}

	return nil
}

// Manifest holds the paths that Write produced.
type Manifest struct {
	Mode           Mode
	Dir            string
	GeneBySample   string
	TargetBySample string
	RawSets        string
	FilteredSets   string
	Settings       string
	Mappings       string
	Summary        string
}

// Files lists every file written, in the order they were written.
func (m *Manifest) Files() []string {
	var out []string
	for _, p := range []string{m.GeneBySample, m.TargetBySample, m.RawSets, m.FilteredSets, m.Settings, m.Mappings, m.Summary} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Write creates dir/input and writes every manifest file into it.
func Write(dir string, in *RunInputs) (*Manifest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	inputDir := filepath.Join(gseaprep.ExpandHome(dir), InputDir)
	if err := os.MkdirAll(inputDir, 0755); err != nil {
		return nil, pfx.Err(err)
	}

	man := &Manifest{Mode: in.Mode, Dir: inputDir}
	path := func(name string) string { return filepath.Join(inputDir, name) }

	man.GeneBySample = path(GeneBySampleFile)
	if err := writeFile(man.GeneBySample, func(w *bufio.Writer) error { return gct.WriteTable(w, in.Matrix) }); err != nil {
		return nil, err
	}

	if in.Mode == Standard {
		man.TargetBySample = path(TargetBySampleFile)
		if err := writeFile(man.TargetBySample, func(w *bufio.Writer) error { return writeTarget(w, in.Phenotypes) }); err != nil {
			return nil, err
		}
	}

	man.RawSets = path(RawSetsFile)
	if err := writeJSON(man.RawSets, in.RawSets); err != nil {
		return nil, err
	}

	man.FilteredSets = path(FilteredSetsFile)
	if err := writeJSON(man.FilteredSets, in.FilteredSets); err != nil {
		return nil, err
	}

	man.Settings = path(SettingsFile)
	if err := writeJSON(man.Settings, in.Settings); err != nil {
		return nil, err
	}

	if in.Mappings != nil {
		man.Mappings = path(MappingsFile)
		if err := writeFile(man.Mappings, func(w *bufio.Writer) error { return collapse.WriteMappings(w, in.Mappings) }); err != nil {
			return nil, err
		}
	}

	summary := in.Summary
	if summary.RunID == "" {
		summary.RunID = uuid.New().String()
	}
	summary.Mode = in.Mode
	summary.Genes = in.Matrix.NRows()
	summary.Samples = in.Matrix.NCols()
	summary.RawGeneSets = in.RawSets.Len()
	summary.FilteredGeneSets = in.FilteredSets.Len()
	if in.Settings.RandomSeed.Valid {
		seed := in.Settings.RandomSeed.Int64
		summary.RandomSeed = &seed
	}
	man.Summary = path(SummaryFile)
	for _, p := range man.Files() {
		summary.Files = append(summary.Files, filepath.Base(p))
	}
	if err := writeJSON(man.Summary, summary); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"run":           summary.RunID,
		"genes":         summary.Genes,
		"samples":       summary.Samples,
		"gene_sets":     summary.RawGeneSets,
		"passing_sets":  summary.FilteredGeneSets,
		"input_dir":     inputDir,
		"files_written": len(summary.Files),
	}).Info("wrote manifest")

	return man, nil
}

// writeTarget writes the sample identifiers on one line and their class codes
// on the next, in the same order.
func writeTarget(w *bufio.Writer, a *phenotype.Aligned) error {
	codes := make([]string, len(a.Entries))
	for i, e := range a.Entries {
		codes[i] = phenotype.FormatCode(e.Code)
	}

	if _, err := fmt.Fprintf(w, "%s\n%s\n", strings.Join(a.Samples, "\t"), strings.Join(codes, "\t")); err != nil {
		return pfx.Err(err)
	}
	return nil
}

func writeFile(path string, write func(w *bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return pfx.Err(err)
	}

	log.Debugf("wrote %s", path)

	return pfx.Err(f.Close())
}

func writeJSON(path string, v interface{}) error {
	return writeFile(path, func(w *bufio.Writer) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return pfx.Err(err)
		}
		w.Write(data)
		w.WriteString("\n")
		return nil
	})
}
