package compileinfo

import (
	"bytes"
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	info := fromBuildInfo(&debug.BuildInfo{
		GoVersion: "go1.18",
		Path:      "github.com/carbocation/gseaprep/cmd/gseaprep",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2022-11-10T19:32:47Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	if info.Commit != "abc123" || !info.Modified {
		t.Fatalf("unexpected %+v", info)
	}
	if s := info.String(); !strings.Contains(s, "commit abc123") || !strings.Contains(s, "modified") {
		t.Errorf("unexpected %q", s)
	}
}

func TestCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := (Command{}).RunCommand("version", nil, nil, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "This ") {
		t.Errorf("unexpected output %q", stdout.String())
	}

	if code := (Command{}).RunCommand("version", []string{"-bogus"}, nil, &stdout, &stderr); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}
