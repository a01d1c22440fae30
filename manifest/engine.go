package manifest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/carbocation/gseaprep"
	log "github.com/sirupsen/logrus"
)

// DefaultEngine is the executable run when Engine.Path is empty.
const DefaultEngine = "gsea"

// Engine runs the external enrichment program on a written manifest. Its
// standard output is discarded; only the files it writes to the output
// directory matter.
type Engine struct {
	Path string
}

func (e Engine) path() string {
	if e.Path == "" {
		return DefaultEngine
	}
	return e.Path
}

// Args returns the positional arguments for the manifest's mode.
func (e Engine) Args(m *Manifest, outDir string) ([]string, error) {
	outDir = gseaprep.ExpandHome(outDir)

	switch m.Mode {
	case Standard:
		return []string{string(Standard), m.Settings, m.FilteredSets, m.TargetBySample, m.GeneBySample, outDir}, nil
	case DataRank:
		return []string{string(DataRank), m.Settings, m.GeneBySample, m.FilteredSets, outDir}, nil
	}

	return nil, &gseaprep.ConfigError{Field: "mode", Value: string(m.Mode), Msg: "expected standard or data-rank"}
}

// Run executes the engine and waits for it to finish. On failure the error
// carries whatever the engine wrote to stderr.
func (e Engine) Run(ctx context.Context, m *Manifest, outDir string) error {
	args, err := e.Args(m, outDir)
	if err != nil {
		return err
	}

	log.Infof("running %s %s", e.path(), strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path(), args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", e.path(), args[0], err, strings.TrimSpace(stderr.String()))
	}

	return nil
}
