// Package runinfo reads the run-info sidecar written by the training
// pipeline. The file is consumed read-only, once, at boot.
package runinfo

import (
	"encoding/json"
	"fmt"
	"os"
)

// Info is the resolved content of the sidecar.
type Info struct {
	// RunID of the training run that produced the artifact, if recorded.
	RunID string
	// ModelURI locating the model artifact.
	ModelURI string
	// Field is the sidecar field name that supplied ModelURI.
	Field string
}

// Load parses the sidecar at path and resolves the model URI by trying the
// given field names in order. Any failure here is fatal to startup: the
// server must not come up without a model location.
func Load(path string, fields []string) (Info, error) {
	if len(fields) == 0 {
		return Info{}, fmt.Errorf("no sidecar URI fields configured")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("read run info %s: %w", path, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return Info{}, fmt.Errorf("parse run info %s: %w", path, err)
	}
	info := Info{}
	if v, ok := raw["run_id"].(string); ok {
		info.RunID = v
	}
	for _, f := range fields {
		if v, ok := raw[f].(string); ok && v != "" {
			info.ModelURI = v
			info.Field = f
			return info, nil
		}
	}
	return Info{}, fmt.Errorf("run info %s has none of the model URI fields %v", path, fields)
}
