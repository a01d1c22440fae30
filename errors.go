package gseaprep

import (
	"fmt"
	"strings"
)

// FormatError reports a malformed or internally inconsistent input file, such
// as a GCT whose stated dimensions disagree with its body.
type FormatError struct {
	Path string
	Line int // 1-based; zero when the problem is not tied to a line
	Msg  string
}

func (e *FormatError) Error() string {
	b := strings.Builder{}
	b.WriteString("format error")
	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

// CardinalityError reports a phenotype vector whose length differs from the
// number of samples in the expression matrix.
type CardinalityError struct {
	Phenotypes int
	Samples    int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("the number of samples in the phenotype file (%d) did not match the number of samples in the dataset (%d)", e.Phenotypes, e.Samples)
}

// ConfigError reports an unusable run setting.
type ConfigError struct {
	Field string
	Value string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config error: %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("config error: %s=%q: %s", e.Field, e.Value, e.Msg)
}

// LookupError reports a key that could not be resolved: an unrecognized file
// extension or a class token that is neither a known class name nor a number.
type LookupError struct {
	Path string
	Key  string
	Msg  string
}

func (e *LookupError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("lookup error: %q: %s", e.Key, e.Msg)
	}
	return fmt.Sprintf("lookup error in %s: %q: %s", e.Path, e.Key, e.Msg)
}
