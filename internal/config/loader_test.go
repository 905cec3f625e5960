package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nrun_info_path: /tmp/info.json\ncache_dir: /tmp/c\nruntime: scoring-server --dir\nuri_fields: [model_uri]\n")
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":9999" || cfg.RunInfoPath != "/tmp/info.json" || cfg.CacheDir != "/tmp/c" || cfg.Runtime != "scoring-server --dir" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.URIFields) != 1 || cfg.URIFields[0] != "model_uri" {
		t.Fatalf("unexpected uri_fields: %v", cfg.URIFields)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","run_info_path":"/r.json","artifact_root":"gs://b/mlflow"}`)
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":7070" || cfg.RunInfoPath != "/r.json" || cfg.ArtifactRoot != "gs://b/mlflow" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nstore_endpoint=\"http://127.0.0.1:9000\"\nprobe_store=true\n")
	cfg, err := Load(p)
	if err != nil { t.Fatalf("load: %v", err) }
	if cfg.Addr != ":8081" || cfg.StoreEndpoint != "http://127.0.0.1:9000" || !cfg.ProbeStore {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil { t.Fatalf("expected error on empty path") }
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil { t.Fatalf("expected unsupported extension error") }
}

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"INFERD_ADDR", "RUN_INFO_PATH", "INFERD_CACHE_DIR", "INFERD_URI_FIELDS", "INFERD_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv(Config{})
	if cfg.Addr != DefaultAddr {
		t.Fatalf("addr default: %q", cfg.Addr)
	}
	if cfg.RunInfoPath != DefaultRunInfoPath {
		t.Fatalf("run info default: %q", cfg.RunInfoPath)
	}
	if len(cfg.URIFields) != 2 || cfg.URIFields[0] != "pipeline_model_uri" || cfg.URIFields[1] != "model_uri" {
		t.Fatalf("uri fields default: %v", cfg.URIFields)
	}
}

func TestFromEnvOverridesFile(t *testing.T) {
	t.Setenv("INFERD_ADDR", ":7999")
	t.Setenv("INFERD_URI_FIELDS", "model_uri, pipeline_model_uri")
	cfg := FromEnv(Config{Addr: ":1111", URIFields: []string{"pipeline_model_uri"}})
	if cfg.Addr != ":7999" {
		t.Fatalf("env should win: %q", cfg.Addr)
	}
	if len(cfg.URIFields) != 2 || cfg.URIFields[0] != "model_uri" {
		t.Fatalf("uri fields from env: %v", cfg.URIFields)
	}
}

func TestFromEnvRuntimeURL(t *testing.T) {
	t.Setenv("INFERD_RUNTIME_URL", "http://127.0.0.1:8090")
	cfg := FromEnv(Config{})
	if cfg.RuntimeURL != "http://127.0.0.1:8090" {
		t.Fatalf("runtime url: %q", cfg.RuntimeURL)
	}
}

func TestFromEnvCORSOrigins(t *testing.T) {
	t.Setenv("INFERD_CORS_ORIGINS", "https://a.example, https://b.example")
	cfg := FromEnv(Config{})
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://a.example" || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: %v", cfg.CORSOrigins)
	}
}

func TestRuntimeArgv(t *testing.T) {
	cfg := Config{Runtime: "  scoring-server   --model-dir "}
	argv := cfg.RuntimeArgv()
	if len(argv) != 2 || argv[0] != "scoring-server" || argv[1] != "--model-dir" {
		t.Fatalf("argv: %v", argv)
	}
	if got := (Config{}).RuntimeArgv(); len(got) != 0 {
		t.Fatalf("empty runtime argv: %v", got)
	}
}
