package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inferd/internal/common/fsutil"
	"inferd/internal/config"
	"inferd/internal/credentials"
	"inferd/internal/httpapi"
	"inferd/internal/model"
	"inferd/internal/store"
	"inferd/pkg/types"
)

// storeFetcher builds the object store client lazily, once the model URI's
// scheme is known, so one binary serves both gs:// and s3:// artifacts.
type storeFetcher struct {
	log zerolog.Logger
	cfg config.Config
}

func (f *storeFetcher) FetchPrefix(ctx context.Context, uri store.URI, destDir string) (int, error) {
	cli, err := store.New(ctx, f.log, store.Options{
		Endpoint:  endpointFor(f.cfg, uri.Scheme),
		Region:    f.cfg.StoreRegion,
		AccessKey: f.cfg.StoreAccess,
		SecretKey: f.cfg.StoreSecret,
	})
	if err != nil {
		return 0, err
	}
	return cli.FetchPrefix(ctx, uri, destDir)
}

func endpointFor(cfg config.Config, scheme string) string {
	if cfg.StoreEndpoint != "" {
		return cfg.StoreEndpoint
	}
	return store.DefaultEndpoint(scheme)
}

// app adapts the loaded model to the HTTP service interface.
type app struct {
	m       *model.Model
	started time.Time
}

func (a *app) Predict(ctx context.Context, params map[string]any) (float64, error) {
	return a.m.Runtime.Predict(ctx, params)
}

func (a *app) Status() types.StatusResponse {
	state := "loading"
	if a.m.Runtime.Ready() {
		state = "ready"
	}
	return types.StatusResponse{
		RunID:     a.m.RunID(),
		ModelURI:  a.m.URI.String(),
		State:     state,
		UptimeSec: int64(time.Since(a.started).Seconds()),
	}
}

func (a *app) Ready() bool { return a.m.Runtime.Ready() }

// probeStore exercises the credential with a trivial list against the
// artifact root. Failure is reported as a log line only, never fatal.
func probeStore(ctx context.Context, log zerolog.Logger, cfg config.Config) {
	if !cfg.ProbeStore || cfg.ArtifactRoot == "" {
		return
	}
	uri, err := store.ParseURI(cfg.ArtifactRoot)
	if err != nil {
		log.Warn().Err(err).Msg("store probe skipped: artifact root not parseable")
		return
	}
	cli, err := store.New(ctx, log, store.Options{
		Endpoint:  endpointFor(cfg, uri.Scheme),
		Region:    cfg.StoreRegion,
		AccessKey: cfg.StoreAccess,
		SecretKey: cfg.StoreSecret,
	})
	if err != nil {
		log.Warn().Err(err).Msg("store probe failed to build client")
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := cli.Probe(probeCtx, uri.Bucket); err != nil {
		log.Warn().Err(err).Str("bucket", uri.Bucket).Msg("store probe failed")
		return
	}
	log.Info().Str("bucket", uri.Bucket).Msg("store probe ok")
}

// runServe is the startup sequencer: credentials, probe, blocking model
// preload, then the HTTP server. Any error short of the two soft steps
// aborts startup with a non-zero exit.
func runServe(log zerolog.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	credPath, err := credentials.Materialize(log, cfg.CredentialsJSON, cfg.CredentialsFile, credentials.DefaultPath)
	if err != nil {
		return err
	}
	if credPath != "" {
		// exported for the scoring runtime subprocess and SDK default chain
		os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", credPath)
		cfg.CredentialsFile = credPath
	}

	probeStore(ctx, log, cfg)

	cacheDir, err := fsutil.EnsureDir(cfg.CacheDir)
	if err != nil {
		return err
	}
	cfg.CacheDir = cacheDir

	m, err := model.Preload(ctx, log, model.PreloadConfig{
		RunInfoPath: cfg.RunInfoPath,
		URIFields:   cfg.URIFields,
		CacheDir:    cfg.CacheDir,
		RuntimeArgv: cfg.RuntimeArgv(),
		RuntimeURL:  cfg.RuntimeURL,
	}, &storeFetcher{log: log, cfg: cfg})
	if err != nil {
		return err
	}
	defer m.Close()

	if len(cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{http.MethodGet, http.MethodPost}, []string{"Content-Type", "X-Log-Level"})
	}
	httpapi.SetLogger(log)
	httpapi.SetDefaultLogLevel(cfg.LogLevel)
	httpapi.SetBaseContext(ctx)
	mux := httpapi.NewMux(&app{m: m, started: time.Now()})
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

func buildConfig(configPath string) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", configPath, err)
		}
	}
	return config.FromEnv(cfg), nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

func main() {
	var configPath string
	var addr string

	root := &cobra.Command{
		Use:           "inferd",
		Short:         "Inference server: preloads a model artifact and serves predictions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Optional config file (.yaml/.json/.toml); env overrides it")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the startup sequence and serve HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return runServe(newLogger(cfg.LogLevel), cfg)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "HTTP listen address (defaults INFERD_ADDR or :7860)")
	root.AddCommand(serve)

	// bare invocation serves, matching the container entrypoint
	root.RunE = serve.RunE

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "inferd:", err)
		os.Exit(1)
	}
}
