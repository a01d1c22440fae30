package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/carbocation/gseaprep/collapse"
	"github.com/carbocation/gseaprep/manifest"
	"github.com/carbocation/gseaprep/pipeline"
	log "github.com/sirupsen/logrus"
)

// listFlag collects comma-separated values across repeated flags. The first
// use on the command line replaces any value loaded from a config file.
type listFlag struct {
	values *[]string
	set    bool
}

func (f *listFlag) String() string {
	if f.values == nil {
		return ""
	}
	return strings.Join(*f.values, ",")
}

func (f *listFlag) Set(s string) error {
	if !f.set {
		*f.values = nil
		f.set = true
	}
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*f.values = append(*f.values, v)
		}
	}
	return nil
}

type runOptions struct {
	configPath string
	debug      bool
}

// bindFlags registers the flags of mode against cfg, using cfg's current
// values as the defaults.
func bindFlags(flags *flag.FlagSet, mode manifest.Mode, cfg *pipeline.Config, opts *runOptions) {
	flags.StringVar(&opts.configPath, "config", opts.configPath, "JSON `file` of run settings; flags given on the command line override it")
	flags.BoolVar(&opts.debug, "debug", opts.debug, "log per-file detail")

	flags.StringVar(&cfg.Dataset, "dataset", cfg.Dataset, "expression dataset `file` (.gct, plain tab-delimited matrix, or .rnk); local, ~/ or gs://")
	flags.StringVar(&cfg.Chip, "chip", cfg.Chip, "chip `file` mapping probes to gene symbols, used when -collapse is not none")
	flags.StringVar(&cfg.Collapse, "collapse", cfg.Collapse, "collapse method: none, "+collapse.MethodNames())
	flags.Var(&listFlag{values: &cfg.GeneSets}, "gs", "gene set database `files` (.gmt, .gmx), comma-separated or repeated")
	flags.StringVar(&cfg.GeneSetList, "gsdb", cfg.GeneSetList, "`file` listing gene set databases, one per line")
	flags.StringVar(&cfg.Algorithm, "alg", cfg.Algorithm, "enrichment algorithm passed to the engine, e.g. ks")
	flags.IntVar(&cfg.Min, "min", cfg.Min, "minimum gene set size after restricting to the dataset")
	flags.IntVar(&cfg.Max, "max", cfg.Max, "maximum gene set size after restricting to the dataset")
	flags.IntVar(&cfg.NPlot, "nplot", cfg.NPlot, "number of gene sets the engine should plot")
	flags.IntVar(&cfg.CPU, "cpu", cfg.CPU, "job count passed to the engine")
	flags.Var(&listFlag{values: &cfg.GeneSetsToPlot}, "plot", "gene set `names` the engine should always plot")
	flags.BoolVar(&cfg.Override, "ogllv", cfg.Override, "override the gene list length validation and continue with a small dataset")
	flags.IntVar(&cfg.MinGenes, "min-genes", cfg.MinGenes, "datasets with fewer rows than this are refused unless -ogllv is set")
	flags.StringVar(&cfg.OutDir, "out", cfg.OutDir, "output `directory`; engine inputs go to its input/ subdirectory")
	flags.StringVar(&cfg.Engine, "engine", cfg.Engine, "engine `executable`")
	flags.BoolVar(&cfg.RunEngine, "run-engine", cfg.RunEngine, "run the engine after writing its inputs")

	switch mode {
	case manifest.Standard:
		flags.StringVar(&cfg.CLS, "cls", cfg.CLS, "phenotype `file` (.cls)")
		flags.BoolVar(&cfg.Reverse, "reverse", cfg.Reverse, "swap phenotype classes 0 and 1")
		flags.IntVar(&cfg.Permutations, "nperm", cfg.Permutations, "number of permutations")
		flags.StringVar(&cfg.Permutation, "perm", cfg.Permutation, "permutation mode: sample or set")
		flags.StringVar(&cfg.Metric, "metric", cfg.Metric, "gene ranking metric passed to the engine")
		flags.Float64Var(&cfg.Weight, "weight", cfg.Weight, "enrichment statistic weight")
		flags.StringVar(&cfg.SeedSpec, "seed", cfg.SeedSpec, `random seed, or "timestamp"`)
	case manifest.DataRank:
		flags.Float64Var(&cfg.Exponent, "exponent", cfg.Exponent, "enrichment statistic exponent")
	}
}

// parseRunFlags parses args into a Config. When -config names a file, args are
// parsed a second time over the file's values so that only the flags actually
// given override it.
func parseRunFlags(prog string, mode manifest.Mode, args []string, stderr io.Writer) (pipeline.Config, runOptions, error) {
	opts := runOptions{}
	cfg := pipeline.DefaultConfig(mode)

	flags := flag.NewFlagSet(prog, flag.ContinueOnError)
	flags.SetOutput(stderr)
	bindFlags(flags, mode, &cfg, &opts)
	if err := flags.Parse(args); err != nil {
		return cfg, opts, err
	}
	if flags.NArg() > 0 {
		return cfg, opts, fmt.Errorf("unexpected arguments: %v", flags.Args())
	}
	if opts.configPath == "" {
		return cfg, opts, nil
	}

	fileCfg, err := pipeline.ParseJSONConfigFromPath(opts.configPath, pipeline.DefaultConfig(mode))
	if err != nil {
		return cfg, opts, err
	}
	fileCfg.Mode = mode

	flags = flag.NewFlagSet(prog, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	bindFlags(flags, mode, &fileCfg, &opts)
	if err := flags.Parse(args); err != nil {
		return cfg, opts, err
	}

	return fileCfg, opts, nil
}

type runCommand struct {
	mode manifest.Mode
}

func (cmd *runCommand) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()

	cfg, opts, err := parseRunFlags(prog, cmd.mode, args, stderr)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	if opts.debug {
		log.SetLevel(log.DebugLevel)
	}

	opener := &lazyOpener{}
	defer opener.Close()

	man, err := pipeline.Run(context.Background(), cfg, opener, pipeline.FromPath(cfg.Dataset))
	if err != nil {
		return 1
	}

	for _, p := range man.Files() {
		fmt.Fprintln(stdout, p)
	}
	return 0
}

type collapseCommand struct{}

func (cmd *collapseCommand) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()

	flags := flag.NewFlagSet(prog, flag.ContinueOnError)
	flags.SetOutput(stderr)
	dataset := flags.String("dataset", "", "probe-level expression dataset `file`")
	chipPath := flags.String("chip", "", "chip `file` mapping probes to gene symbols")
	method := flags.String("collapse", "max", "collapse method: "+collapse.MethodNames())
	out := flags.String("out", "", "output `prefix`; writes <prefix>.gct and <prefix>_mapping_details.tsv")
	debug := flags.Bool("debug", false, "log per-file detail")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	}
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	if *dataset == "" || *chipPath == "" || *out == "" {
		flags.Usage()
		err = fmt.Errorf("-dataset, -chip and -out are required")
		return 2
	}

	opener := &lazyOpener{}
	defer opener.Close()

	res, err := pipeline.CollapseToFiles(context.Background(), opener, *dataset, *chipPath, *method, *out)
	if err != nil {
		return 1
	}

	fmt.Fprintln(stdout, res.GCT)
	fmt.Fprintln(stdout, res.Mappings)
	return 0
}
