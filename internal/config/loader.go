package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime parameter for both binaries. It is built once at
// process start; nothing outside this package reads the environment.
// Zero values mean "unspecified" and are replaced by defaults in FromEnv.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	RunInfoPath string `json:"run_info_path" yaml:"run_info_path" toml:"run_info_path"`
	CacheDir    string `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	// Runtime is the external scoring runtime command line, whitespace-split.
	Runtime string `json:"runtime" yaml:"runtime" toml:"runtime"`
	// RuntimeURL attaches to an already-running scoring server instead of
	// spawning Runtime.
	RuntimeURL string `json:"runtime_url" yaml:"runtime_url" toml:"runtime_url"`
	// URIFields is the ordered list of sidecar field names tried when
	// resolving the model URI.
	URIFields []string `json:"uri_fields" yaml:"uri_fields" toml:"uri_fields"`
	LogLevel  string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	// CORSOrigins enables CORS for the listed origins when non-empty.
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	// Object store.
	StoreEndpoint string `json:"store_endpoint" yaml:"store_endpoint" toml:"store_endpoint"`
	StoreRegion   string `json:"store_region" yaml:"store_region" toml:"store_region"`
	StoreAccess   string `json:"-" yaml:"-" toml:"-"`
	StoreSecret   string `json:"-" yaml:"-" toml:"-"`
	ProbeStore    bool   `json:"probe_store" yaml:"probe_store" toml:"probe_store"`

	// Cloud credentials. The JSON blob is env-only and never round-trips
	// through a config file.
	CredentialsJSON string `json:"-" yaml:"-" toml:"-"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file" toml:"credentials_file"`

	// Tracking server backend.
	PGUser       string `json:"-" yaml:"-" toml:"-"`
	PGPassword   string `json:"-" yaml:"-" toml:"-"`
	PGHost       string `json:"pg_host" yaml:"pg_host" toml:"pg_host"`
	PGPort       string `json:"pg_port" yaml:"pg_port" toml:"pg_port"`
	PGDatabase   string `json:"pg_database" yaml:"pg_database" toml:"pg_database"`
	ArtifactRoot string `json:"artifact_root" yaml:"artifact_root" toml:"artifact_root"`
}

// Defaults for unspecified values.
const (
	DefaultAddr        = ":7860"
	DefaultRunInfoPath = "reports/last_run_info.json"
	DefaultCacheDir    = "/tmp/inferd-models"
	DefaultURIFields   = "pipeline_model_uri,model_uri"
)

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil { return cfg, err }
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil { return cfg, err }
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// FromEnv overlays environment variables onto cfg and fills remaining
// defaults. This is the single place the environment is consulted.
func FromEnv(cfg Config) Config {
	cfg.Addr = envStr("INFERD_ADDR", strOr(cfg.Addr, DefaultAddr))
	cfg.RunInfoPath = envStr("RUN_INFO_PATH", strOr(cfg.RunInfoPath, DefaultRunInfoPath))
	cfg.CacheDir = envStr("INFERD_CACHE_DIR", strOr(cfg.CacheDir, DefaultCacheDir))
	cfg.Runtime = envStr("INFERD_RUNTIME", cfg.Runtime)
	cfg.RuntimeURL = envStr("INFERD_RUNTIME_URL", cfg.RuntimeURL)
	cfg.LogLevel = envStr("INFERD_LOG_LEVEL", strOr(cfg.LogLevel, "info"))
	if v := os.Getenv("INFERD_URI_FIELDS"); v != "" {
		cfg.URIFields = splitFields(v)
	}
	if len(cfg.URIFields) == 0 {
		cfg.URIFields = splitFields(DefaultURIFields)
	}
	if v := os.Getenv("INFERD_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitFields(v)
	}

	cfg.StoreEndpoint = envStr("INFERD_STORE_ENDPOINT", cfg.StoreEndpoint)
	cfg.StoreRegion = envStr("INFERD_STORE_REGION", strOr(cfg.StoreRegion, "auto"))
	cfg.StoreAccess = os.Getenv("INFERD_STORE_ACCESS_KEY")
	cfg.StoreSecret = os.Getenv("INFERD_STORE_SECRET_KEY")
	cfg.ProbeStore = envBool("INFERD_PROBE", cfg.ProbeStore)

	cfg.CredentialsJSON = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
	cfg.CredentialsFile = envStr("GOOGLE_APPLICATION_CREDENTIALS", cfg.CredentialsFile)

	cfg.PGUser = os.Getenv("POSTGRES_USER")
	cfg.PGPassword = os.Getenv("POSTGRES_PASSWORD")
	cfg.PGHost = envStr("POSTGRES_HOST", cfg.PGHost)
	cfg.PGPort = envStr("POSTGRES_PORT", cfg.PGPort)
	cfg.PGDatabase = envStr("POSTGRES_DB", cfg.PGDatabase)
	cfg.ArtifactRoot = envStr("ARTIFACT_ROOT", cfg.ArtifactRoot)
	return cfg
}

// RuntimeArgv returns the whitespace-split runtime command line.
func (c Config) RuntimeArgv() []string {
	return strings.Fields(c.Runtime)
}

func splitFields(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func strOr(v, def string) string {
	if v != "" { return v }
	return def
}

// Env helpers
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	s := strings.ToLower(v)
	return s == "1" || s == "true" || s == "yes"
}
