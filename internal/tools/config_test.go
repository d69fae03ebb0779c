package tools

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig_GitDiffFlags(t *testing.T) {
	cfg := DefaultConfig()

	want := []string{
		"git", "diff",
		"--ignore-cr-at-eol", "--ignore-all-space",
		"--ignore-blank-lines", "--ignore-space-change",
		"--no-index", "-U0",
	}
	if diff := cmp.Diff(want, cfg.GitDiff.Argv); diff != "" {
		t.Errorf("git diff argv mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultConfig_Timeouts(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  Duration
		want time.Duration
	}{
		{"javap", cfg.Javap.Timeout, 5 * time.Second},
		{"sootdiff", cfg.SootDiff.Timeout, 30 * time.Second},
		{"checkcast remover", cfg.Checkcast.Timeout, 60 * time.Second},
		{"pkgextractor", cfg.PkgExtract.Timeout, 60 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if time.Duration(tt.got) != tt.want {
				t.Errorf("timeout = %s, want %s", time.Duration(tt.got), tt.want)
			}
		})
	}
}

func TestLoadConfig_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	content := `
gumtree:
  argv: ["/opt/gumtree/bin/gumtree", "textdiff"]
sootdiff:
  timeout: "90s"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if diff := cmp.Diff([]string{"/opt/gumtree/bin/gumtree", "textdiff"}, cfg.GumTree.Argv); diff != "" {
		t.Errorf("gumtree argv not overridden (-want +got):\n%s", diff)
	}
	if got := time.Duration(cfg.SootDiff.Timeout); got != 90*time.Second {
		t.Errorf("sootdiff timeout = %s, want 90s", got)
	}
	// Untouched tools keep their defaults.
	if diff := cmp.Diff(DefaultConfig().Javap, cfg.Javap); diff != "" {
		t.Errorf("javap spec changed (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_BadTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	if err := os.WriteFile(path, []byte("javap:\n  timeout: \"soon\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for an unparsable timeout")
	}
}

func TestSpec_Invocation(t *testing.T) {
	spec := Spec{Argv: []string{"gumtree", "diff"}, Timeout: Duration(time.Minute)}
	inv := spec.Invocation("base.java", "dest.java")

	want := []string{"gumtree", "diff", "base.java", "dest.java"}
	if diff := cmp.Diff(want, inv.Argv); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
	if inv.Timeout != time.Minute {
		t.Errorf("timeout = %s, want 1m", inv.Timeout)
	}
}
