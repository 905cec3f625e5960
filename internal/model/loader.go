// Package model performs the blocking one-shot model preload: resolve the
// artifact URI from the run-info sidecar, fetch it out of the object store,
// validate its manifest, and bring up the scoring runtime. Any error aborts
// startup; there is no retry and no partial-degradation mode.
package model

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/runinfo"
	"inferd/internal/store"
)

// Fetcher is the slice of the object store client the loader needs.
type Fetcher interface {
	FetchPrefix(ctx context.Context, uri store.URI, destDir string) (int, error)
}

// PreloadConfig parameterizes the preload pass.
type PreloadConfig struct {
	RunInfoPath string
	URIFields   []string
	CacheDir    string
	RuntimeArgv []string
	// RuntimeURL attaches to an externally managed scoring server instead
	// of spawning one.
	RuntimeURL   string
	StartTimeout time.Duration
}

// Model is a fully loaded, servable model.
type Model struct {
	Info     runinfo.Info
	URI      store.URI
	Dir      string
	Manifest Manifest
	Runtime  Runtime
}

// Close shuts down the scoring runtime.
func (m *Model) Close() error {
	if m.Runtime != nil {
		return m.Runtime.Close()
	}
	return nil
}

// spawnRuntime is swappable in tests.
var spawnRuntime = Spawn

// Preload runs the whole load sequence. It blocks until the runtime is
// healthy or an error occurs.
func Preload(ctx context.Context, log zerolog.Logger, cfg PreloadConfig, f Fetcher) (*Model, error) {
	info, err := runinfo.Load(cfg.RunInfoPath, cfg.URIFields)
	if err != nil {
		return nil, err
	}
	uri, err := store.ParseURI(info.ModelURI)
	if err != nil {
		return nil, fmt.Errorf("model URI from field %q: %w", info.Field, err)
	}
	log.Info().Str("uri", uri.String()).Str("field", info.Field).Msg("loading model artifact")

	dir := filepath.Join(cfg.CacheDir, uri.Bucket, filepath.FromSlash(uri.Prefix))
	if _, err := f.FetchPrefix(ctx, uri, dir); err != nil {
		return nil, fmt.Errorf("fetch model artifact: %w", err)
	}
	manifest, err := ParseManifest(dir)
	if err != nil {
		return nil, err
	}
	log.Info().Strs("flavors", manifest.FlavorNames()).Msg("model manifest parsed")

	var rt Runtime
	if cfg.RuntimeURL != "" {
		rt, err = Attach(ctx, cfg.RuntimeURL, cfg.StartTimeout)
	} else {
		rt, err = spawnRuntime(ctx, SpawnConfig{
			Argv:         cfg.RuntimeArgv,
			ModelDir:     dir,
			StartTimeout: cfg.StartTimeout,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("start model runtime: %w", err)
	}
	runID := info.RunID
	if runID == "" {
		runID = manifest.RunID
	}
	log.Info().Str("run_id", runID).Msg("model loaded successfully")
	return &Model{Info: info, URI: uri, Dir: dir, Manifest: manifest, Runtime: rt}, nil
}

// RunID prefers the sidecar's run id, falling back to the manifest's.
func (m *Model) RunID() string {
	if m.Info.RunID != "" {
		return m.Info.RunID
	}
	return m.Manifest.RunID
}
