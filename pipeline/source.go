package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/carbocation/gseaprep"
	"github.com/carbocation/gseaprep/collapse"
	"github.com/carbocation/gseaprep/gct"
	log "github.com/sirupsen/logrus"
)

// Opener opens an input by path.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

type sourceKind int

const (
	sourcePath sourceKind = iota
	sourceMatrix
	sourceCollapse
)

// Source is where a run's expression dataset comes from: a file, a matrix
// already in memory, or the result of an earlier collapse. Build one with
// FromPath, FromMatrix or FromCollapse.
type Source struct {
	kind   sourceKind
	path   string
	matrix *gct.Matrix
	result *collapse.Result
}

func FromPath(path string) Source { return Source{kind: sourcePath, path: path} }

func FromMatrix(m *gct.Matrix) Source { return Source{kind: sourceMatrix, matrix: m} }

func FromCollapse(r *collapse.Result) Source { return Source{kind: sourceCollapse, result: r} }

func (s Source) String() string {
	switch s.kind {
	case sourceMatrix:
		return "in-memory matrix"
	case sourceCollapse:
		return "collapsed matrix"
	}
	return s.path
}

// Dataset is a resolved Source. Collapse is set when the matrix came from a
// collapse, and InputLength counts the rows before any collapse.
type Dataset struct {
	Matrix      *gct.Matrix
	Collapse    *collapse.Result
	InputLength int
}

// Resolve reads or unwraps the source into a Dataset. A ".rnk" path is read as
// a ranked list; any other path has its dialect detected from its content.
func (s Source) Resolve(ctx context.Context, opener Opener) (*Dataset, error) {
	switch s.kind {
	case sourceMatrix:
		if s.matrix == nil {
			return nil, fmt.Errorf("nil matrix source")
		}
		if err := s.matrix.Validate(); err != nil {
			return nil, err
		}
		return &Dataset{Matrix: s.matrix, InputLength: s.matrix.NRows()}, nil

	case sourceCollapse:
		if s.result == nil || s.result.Matrix == nil {
			return nil, fmt.Errorf("nil collapse source")
		}
		return &Dataset{Matrix: s.result.Matrix, Collapse: s.result, InputLength: s.result.InputLength}, nil
	}

	m, err := ReadMatrix(ctx, opener, s.path)
	if err != nil {
		return nil, err
	}
	return &Dataset{Matrix: m, InputLength: m.NRows()}, nil
}

// ReadMatrix opens and parses an expression dataset.
func ReadMatrix(ctx context.Context, opener Opener, path string) (*gct.Matrix, error) {
	rc, err := opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if gseaprep.Ext(path) == "rnk" {
		m, err := gct.ReadRanked(rc, path)
		if err != nil {
			return nil, err
		}
		log.Infof("read ranked list %s: %d genes", path, m.NRows())
		return m, nil
	}

	m, dialect, err := gct.Read(rc, path)
	if err != nil {
		return nil, err
	}
	log.Infof("read %s dataset %s: %d rows, %d samples", dialect, path, m.NRows(), m.NCols())
	if missing := m.Missing(); missing > 0 {
		log.Warnf("%s: %d of %d values are missing", path, missing, len(m.Values))
	}

	return m, nil
}
