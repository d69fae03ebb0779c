package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"mergebench/internal/evaluation"
)

// Manifest is the merge-result input boundary: one entry per completed
// merge attempt, produced by the merge-execution side.
type Manifest struct {
	Results []evaluation.MergeResult `yaml:"results" json:"results"`
}

// LoadManifestFromPath reads a results manifest (YAML or JSON). Format is
// detected by extension (.yaml/.yml/.json) or by content.
func LoadManifestFromPath(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := LoadManifest(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LoadManifest parses a manifest from bytes. ext is the file extension
// for the format hint; empty means detect from content.
func LoadManifest(data []byte, ext string) (*Manifest, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}

	var unmarshal func([]byte, any) error
	var label string
	switch {
	case ext == ".yaml":
		unmarshal, label = yamlUnmarshal, "yaml"
	case ext == ".json":
		unmarshal, label = json.Unmarshal, "json"
	case strings.HasPrefix(strings.TrimSpace(string(data)), "{"):
		unmarshal, label = json.Unmarshal, "json"
	default:
		unmarshal, label = yamlUnmarshal, "yaml"
	}

	var m Manifest
	if err := unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", label, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func yamlUnmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

func (m *Manifest) validate() error {
	for i, res := range m.Results {
		if _, err := evaluation.ParseOutcome(string(res.Outcome)); err != nil {
			return fmt.Errorf("manifest result %d: %w", i, err)
		}
		if res.MergeDir == "" || res.MergeCmd == "" {
			return fmt.Errorf("manifest result %d: merge_dir and merge_cmd are required", i)
		}
	}
	return nil
}
