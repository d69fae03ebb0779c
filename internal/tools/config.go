package tools

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Spec is one tool's argv prefix and timeout. The file arguments of a
// concrete invocation are appended to Argv by the caller.
type Spec struct {
	Argv    []string `yaml:"argv"`
	Timeout Duration `yaml:"timeout"`
}

// Config names every external utility the evaluation engine consumes.
// Zero-value fields fall back to the defaults, so a config file only needs
// to override the tools that differ from the standard installation.
type Config struct {
	GitDiff      Spec `yaml:"git_diff"`
	GumTree      Spec `yaml:"gumtree"`
	TreeDistance Spec `yaml:"tree_distance"`
	PkgExtract   Spec `yaml:"pkgextractor"`
	Javap        Spec `yaml:"javap"`
	Checkcast    Spec `yaml:"checkcast_remover"`
	SootDiff     Spec `yaml:"sootdiff"`
}

// DefaultConfig returns the standard tool commands and the timeouts observed
// to be sufficient in practice: seconds for introspection, tens of seconds
// for canonicalization and equivalence checks.
func DefaultConfig() Config {
	return Config{
		GitDiff: Spec{
			Argv: []string{
				"git", "diff",
				"--ignore-cr-at-eol", "--ignore-all-space",
				"--ignore-blank-lines", "--ignore-space-change",
				"--no-index", "-U0",
			},
			Timeout: Duration(30 * time.Second),
		},
		GumTree:      Spec{Argv: []string{"gumtree", "diff"}, Timeout: Duration(60 * time.Second)},
		TreeDistance: Spec{Argv: []string{"spork", "compare"}, Timeout: Duration(60 * time.Second)},
		PkgExtract:   Spec{Argv: []string{"pkgextractor"}, Timeout: Duration(60 * time.Second)},
		Javap:        Spec{Argv: []string{"javap"}, Timeout: Duration(5 * time.Second)},
		Checkcast:    Spec{Argv: []string{"duplicate-checkcast-remover"}, Timeout: Duration(60 * time.Second)},
		SootDiff:     Spec{Argv: []string{"sootdiff"}, Timeout: Duration(30 * time.Second)},
	}
}

// LoadConfig reads a YAML tools config and overlays it on the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read tools config: %w", err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Config{}, fmt.Errorf("parse tools config: %w", err)
	}

	cfg := DefaultConfig()
	merge := func(dst *Spec, src Spec) {
		if len(src.Argv) > 0 {
			dst.Argv = src.Argv
		}
		if src.Timeout > 0 {
			dst.Timeout = src.Timeout
		}
	}
	merge(&cfg.GitDiff, overlay.GitDiff)
	merge(&cfg.GumTree, overlay.GumTree)
	merge(&cfg.TreeDistance, overlay.TreeDistance)
	merge(&cfg.PkgExtract, overlay.PkgExtract)
	merge(&cfg.Javap, overlay.Javap)
	merge(&cfg.Checkcast, overlay.Checkcast)
	merge(&cfg.SootDiff, overlay.SootDiff)

	return cfg, nil
}

// Invocation builds a full invocation from the spec plus trailing arguments.
func (s Spec) Invocation(args ...string) Invocation {
	argv := make([]string, 0, len(s.Argv)+len(args))
	argv = append(argv, s.Argv...)
	argv = append(argv, args...)
	return Invocation{Argv: argv, Timeout: time.Duration(s.Timeout)}
}

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse timeout %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
