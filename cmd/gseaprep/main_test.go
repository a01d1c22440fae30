package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/gseaprep/manifest"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type cmdSuite struct{}

var _ = check.Suite(&cmdSuite{})

func (s *cmdSuite) TestFlagsOverrideConfigFile(c *check.C) {
	dir := c.MkDir()
	conf := filepath.Join(dir, "run.json")
	c.Assert(os.WriteFile(conf, []byte(`{"dataset": "file.gct", "min": 5, "max": 50, "gene_sets": ["a.gmt", "b.gmt"], "metric": "snr"}`), 0644), check.IsNil)

	cfg, opts, err := parseRunFlags("standard", manifest.Standard, []string{"-config", conf, "-max", "80", "-gs", "c.gmt"}, io.Discard)
	c.Assert(err, check.IsNil)
	c.Check(opts.configPath, check.Equals, conf)
	c.Check(cfg.Dataset, check.Equals, "file.gct")
	c.Check(cfg.Min, check.Equals, 5)
	c.Check(cfg.Max, check.Equals, 80)
	c.Check(cfg.Metric, check.Equals, "snr")
	c.Check(cfg.GeneSets, check.DeepEquals, []string{"c.gmt"})
	c.Check(cfg.Mode, check.Equals, manifest.Standard)
}

func (s *cmdSuite) TestFlagsWithoutConfig(c *check.C) {
	cfg, _, err := parseRunFlags("data-rank", manifest.DataRank, []string{"-gs", "a.gmt,b.gmx", "-gs", "c.gmt", "-exponent", "0.5"}, io.Discard)
	c.Assert(err, check.IsNil)
	c.Check(cfg.GeneSets, check.DeepEquals, []string{"a.gmt", "b.gmx", "c.gmt"})
	c.Check(cfg.Exponent, check.Equals, 0.5)
	c.Check(cfg.Min, check.Equals, 15)

	_, _, err = parseRunFlags("data-rank", manifest.DataRank, []string{"-cls", "x.cls"}, io.Discard)
	c.Check(err, check.NotNil)
}

func (s *cmdSuite) TestCollapseCommand(c *check.C) {
	dir := c.MkDir()
	dataset := filepath.Join(dir, "probes.gct")
	chipPath := filepath.Join(dir, "probes.chip")
	c.Assert(os.WriteFile(dataset, []byte("#1.2\n3\t1\nNAME\tDescription\tS1\nP1\tna\t1\nP2\tna\t2\nP3\tna\t3\n"), 0644), check.IsNil)
	c.Assert(os.WriteFile(chipPath, []byte("ID\tGene Symbol\tGene Title\nP1\tTP53\tp53\nP2\tTP53\tp53\nP3\tTP53\tp53\n"), 0644), check.IsNil)

	var stdout, stderr bytes.Buffer
	code := handler.RunCommand("gseaprep", []string{"collapse", "-dataset", dataset, "-chip", chipPath, "-collapse", "sum", "-out", filepath.Join(dir, "genes")}, nil, &stdout, &stderr)
	c.Assert(code, check.Equals, 0, check.Commentf("%s", stderr.String()))
	c.Check(strings.Split(strings.TrimSpace(stdout.String()), "\n"), check.DeepEquals, []string{
		filepath.Join(dir, "genes.gct"),
		filepath.Join(dir, "genes_mapping_details.tsv"),
	})

	data, err := os.ReadFile(filepath.Join(dir, "genes.gct"))
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, "#1.2\n1\t1\nNAME\tDescription\tS1\nTP53\tp53\t6\n")

	stdout.Reset()
	code = handler.RunCommand("gseaprep", []string{"collapse", "-dataset", dataset, "-chip", chipPath, "-collapse", "mode", "-out", filepath.Join(dir, "bad")}, nil, &stdout, &stderr)
	c.Check(code, check.Equals, 1)
}

func (s *cmdSuite) TestStandardCommandWritesInputs(c *check.C) {
	dir := c.MkDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		c.Assert(os.WriteFile(p, []byte(content), 0644), check.IsNil)
		return p
	}
	dataset := write("genes.txt", "Name\tDescription\tA\tB\nG1\tx\t1\t2\nG2\ty\t3\t4\n")
	cls := write("ab.cls", "2 2 1\n# hi lo\nlo hi\n")
	gmt := write("sets.gmt", "S\td\tG1\tG2\n")

	var stdout, stderr bytes.Buffer
	code := handler.RunCommand("gseaprep", []string{"standard",
		"-dataset", dataset, "-cls", cls, "-gs", gmt,
		"-metric", "snr", "-alg", "ks", "-min", "1", "-seed", "3",
		"-ogllv", "-run-engine=false", "-out", dir,
	}, nil, &stdout, &stderr)
	c.Assert(code, check.Equals, 0, check.Commentf("%s", stderr.String()))

	target, err := os.ReadFile(filepath.Join(dir, "input", manifest.TargetBySampleFile))
	c.Assert(err, check.IsNil)
	c.Check(string(target), check.Equals, "B\tA\n0\t1\n")
	c.Check(strings.Count(stdout.String(), "\n"), check.Equals, 6)
}
