// Package pipeline assembles a run: it resolves the dataset, optionally
// collapses it, checks it, aligns phenotypes, filters gene sets and hands the
// result to the manifest writer and the engine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carbocation/gseaprep"
	"github.com/carbocation/gseaprep/chip"
	"github.com/carbocation/gseaprep/collapse"
	"github.com/carbocation/gseaprep/gct"
	"github.com/carbocation/gseaprep/geneset"
	"github.com/carbocation/gseaprep/manifest"
	"github.com/carbocation/gseaprep/phenotype"
	log "github.com/sirupsen/logrus"
)

// ErrTooFewGenes matches the error returned when a dataset has fewer rows than
// Config.MinGenes.
var ErrTooFewGenes = errors.New("too few genes in dataset")

// TooFewGenesError reports a dataset judged too small to be a full
// expression profile.
type TooFewGenesError struct {
	Genes     int
	Min       int
	Collapsed bool
}

func (e *TooFewGenesError) Error() string {
	cause := "collapse dataset may need to be run with an appropriate chip file"
	if e.Collapsed {
		cause = "there was possibly a problem with the chip selected for collapse dataset"
	}
	return fmt.Sprintf("only %d genes were identified in the dataset (minimum %d). Either the dataset did not contain all expressed genes, or %s. If this was intentional, set override to bypass this check, but this is not recommended", e.Genes, e.Min, cause)
}

func (e *TooFewGenesError) Is(target error) bool { return target == ErrTooFewGenes }

// CheckGeneCount refuses datasets with fewer than cfg.MinGenes rows, or only
// warns about them when cfg.Override is set.
func CheckGeneCount(genes int, collapsed bool, cfg Config) error {
	if genes >= cfg.MinGenes {
		return nil
	}
	if cfg.Override {
		log.Warnf("Only %d genes were identified in the dataset, but the override is set. Continuing as-is; the input dataset should include all expressed genes.", genes)
		return nil
	}
	return &TooFewGenesError{Genes: genes, Min: cfg.MinGenes, Collapsed: collapsed}
}

// Prepare builds the inputs of one run from cfg and the dataset source.
func Prepare(ctx context.Context, cfg Config, opener Opener, src Source) (*manifest.RunInputs, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg, err := cfg.WithSeed(time.Now())
	if err != nil {
		return nil, err
	}

	ds, err := src.Resolve(ctx, opener)
	if err != nil {
		return nil, err
	}

	if cfg.Collapsing() && ds.Collapse == nil {
		annotations, err := ReadChip(ctx, opener, cfg.Chip)
		if err != nil {
			return nil, err
		}
		res, err := collapse.Collapse(ds.Matrix, annotations, cfg.Collapse)
		if err != nil {
			return nil, err
		}
		ds = &Dataset{Matrix: res.Matrix, Collapse: res, InputLength: res.InputLength}
	}

	if err := CheckGeneCount(ds.Matrix.NRows(), ds.Collapse != nil, cfg); err != nil {
		return nil, err
	}

	in := &manifest.RunInputs{
		Mode:     cfg.Mode,
		Matrix:   ds.Matrix,
		Settings: cfg.Settings(),
		Summary: manifest.Summary{
			InputLength: ds.InputLength,
		},
	}
	if ds.Collapse != nil {
		in.Mappings = ds.Collapse.Mappings
		in.Summary.CollapseLength = ds.Collapse.CollapseLength
	}

	if cfg.Mode == manifest.Standard {
		m, aligned, err := alignPhenotypes(ctx, cfg, opener, ds.Matrix)
		if err != nil {
			return nil, err
		}
		in.Matrix = m
		in.Phenotypes = aligned
	}

	paths, err := geneSetPaths(ctx, cfg, opener)
	if err != nil {
		return nil, err
	}
	raw, err := geneset.ReadFiles(ctx, opener, paths)
	if err != nil {
		return nil, err
	}
	restricted, sizes := geneset.RestrictToUniverse(raw, in.Matrix.RowIDs)
	passing, err := geneset.SelectBySize(sizes, cfg.MinSetSize(), cfg.Max)
	if err != nil {
		return nil, err
	}
	in.RawSets = raw
	in.FilteredSets = restricted.Subset(passing)
	in.FilteredSizes = sizes

	log.WithFields(log.Fields{
		"gene_sets": raw.Len(),
		"passing":   len(passing),
		"min":       cfg.MinSetSize(),
		"max":       cfg.Max,
	}).Info("filtered gene sets to the dataset")

	return in, nil
}

// Run prepares the inputs, writes the manifest under cfg.OutDir and, if
// cfg.RunEngine is set, runs the engine on it.
func Run(ctx context.Context, cfg Config, opener Opener, src Source) (*manifest.Manifest, error) {
	in, err := Prepare(ctx, cfg, opener, src)
	if err != nil {
		return nil, err
	}

	man, err := manifest.Write(cfg.OutDir, in)
	if err != nil {
		return nil, err
	}

	if cfg.RunEngine {
		if err := (manifest.Engine{Path: cfg.Engine}).Run(ctx, man, gseaprep.ExpandHome(cfg.OutDir)); err != nil {
			return man, err
		}
	}

	return man, nil
}

func alignPhenotypes(ctx context.Context, cfg Config, opener Opener, m *gct.Matrix) (*gct.Matrix, *phenotype.Aligned, error) {
	rc, err := opener.Open(ctx, cfg.CLS)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	p, err := phenotype.Read(rc, cfg.CLS)
	if err != nil {
		return nil, nil, err
	}

	aligned, err := phenotype.Align(m, p)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Reverse {
		aligned = aligned.Reverse()
		log.Infof("reversed phenotypes: class 0 is now %q", aligned.Names[0])
	}
	aligned, _ = aligned.CanonicalOrder()

	reordered, err := aligned.ReindexMatrix(m)
	if err != nil {
		return nil, nil, err
	}

	return reordered, aligned, nil
}

func geneSetPaths(ctx context.Context, cfg Config, opener Opener) ([]string, error) {
	paths := append([]string(nil), cfg.GeneSets...)
	if cfg.GeneSetList == "" {
		return paths, nil
	}

	rc, err := opener.Open(ctx, cfg.GeneSetList)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	listed, err := geneset.ReadList(rc)
	if err != nil {
		return nil, err
	}

	paths = append(paths, listed...)

	return paths, nil
}

// ReadChip opens and parses a chip file.
func ReadChip(ctx context.Context, opener Opener, path string) (chip.Map, error) {
	rc, err := opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return chip.Read(rc, path)
}
