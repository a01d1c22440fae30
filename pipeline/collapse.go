package pipeline

import (
	"context"
	"os"
	"strings"

	"github.com/carbocation/gseaprep"
	"github.com/carbocation/gseaprep/collapse"
	"github.com/carbocation/gseaprep/gct"
	"github.com/carbocation/pfx"
)

// CollapseOutput names the files written by CollapseToFiles.
type CollapseOutput struct {
	Result   *collapse.Result
	GCT      string
	Mappings string
}

// CollapseToFiles collapses the dataset at datasetPath with the chip at
// chipPath and writes <out>.gct plus <out>_mapping_details.tsv.
func CollapseToFiles(ctx context.Context, opener Opener, datasetPath, chipPath, method, out string) (*CollapseOutput, error) {
	if _, err := collapse.Lookup(method); err != nil {
		return nil, err
	}

	m, err := ReadMatrix(ctx, opener, datasetPath)
	if err != nil {
		return nil, err
	}
	annotations, err := ReadChip(ctx, opener, chipPath)
	if err != nil {
		return nil, err
	}

	res, err := collapse.Collapse(m, annotations, method)
	if err != nil {
		return nil, err
	}

	gctPath, err := gct.WriteFile(out, res.Matrix)
	if err != nil {
		return nil, err
	}

	mappingPath := strings.TrimSuffix(gctPath, ".gct") + "_mapping_details.tsv"
	f, err := os.Create(gseaprep.ExpandHome(mappingPath))
	if err != nil {
		return nil, pfx.Err(err)
	}
	if err := collapse.WriteMappings(f, res.Mappings); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, pfx.Err(err)
	}

	return &CollapseOutput{Result: res, GCT: gctPath, Mappings: mappingPath}, nil
}
