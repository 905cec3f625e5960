package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ManifestName is the metadata file shipped at the root of a model artifact.
const ManifestName = "MLmodel"

// Manifest is the subset of the artifact manifest the server cares about:
// enough to confirm the artifact deserialized and to report what it is.
type Manifest struct {
	RunID        string                    `yaml:"run_id"`
	ArtifactPath string                    `yaml:"artifact_path"`
	Flavors      map[string]map[string]any `yaml:"flavors"`
}

// FlavorNames returns the manifest's flavor names, sorted.
func (m Manifest) FlavorNames() []string {
	names := make([]string, 0, len(m.Flavors))
	for k := range m.Flavors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ParseManifest reads and validates the manifest inside dir. A fetched
// artifact without a manifest, or with no flavors, is treated as a failed
// deserialization.
func ParseManifest(dir string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return m, fmt.Errorf("read model manifest: %w", err)
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse model manifest: %w", err)
	}
	if len(m.Flavors) == 0 {
		return m, fmt.Errorf("model manifest %s declares no flavors", filepath.Join(dir, ManifestName))
	}
	return m, nil
}
