package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Runtime scores prediction requests. Implementations delegate to an
// external model-serving framework; this repository performs no inference
// of its own.
type Runtime interface {
	Predict(ctx context.Context, params map[string]any) (float64, error)
	Ready() bool
	Close() error
}

// httpRuntime forwards predictions to a scoring server over HTTP using the
// conventional /ping + /invocations surface.
type httpRuntime struct {
	baseURL    string
	httpClient *http.Client

	mu  sync.Mutex
	cmd *exec.Cmd // nil when attached to an externally managed server
}

// AttachRuntime connects to an already-running scoring server at baseURL.
func AttachRuntime(baseURL string) Runtime {
	// Timeout deliberately zero: callers pass context deadlines.
	return &httpRuntime{baseURL: strings.TrimRight(baseURL, "/"), httpClient: &http.Client{Timeout: 0}}
}

// Attach connects to an externally managed scoring server and waits until it
// answers /ping, mirroring the health gate Spawn applies to subprocesses.
func Attach(ctx context.Context, baseURL string, timeout time.Duration) (Runtime, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	rt := AttachRuntime(baseURL)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if rt.Ready() {
			return rt, nil
		}
		time.Sleep(250 * time.Millisecond)
	}
	return nil, fmt.Errorf("runtime at %s not healthy after %s", baseURL, timeout)
}

// SpawnConfig configures a subprocess-backed runtime.
type SpawnConfig struct {
	// Argv is the runtime command line. Placeholders {dir}, {host} and
	// {port} are substituted; when no {port} appears, --host/--port flags
	// are appended, and when no {dir} appears, the model dir is appended.
	Argv     []string
	ModelDir string
	Host     string
	// StartTimeout bounds the wait for the runtime's /ping to go healthy.
	StartTimeout time.Duration
}

// expandArgv resolves placeholders and fills in unreferenced parameters.
func expandArgv(cfg SpawnConfig, port int) []string {
	sawDir, sawPort := false, false
	out := make([]string, 0, len(cfg.Argv)+4)
	for _, a := range cfg.Argv {
		if strings.Contains(a, "{dir}") {
			sawDir = true
			a = strings.ReplaceAll(a, "{dir}", cfg.ModelDir)
		}
		if strings.Contains(a, "{host}") {
			a = strings.ReplaceAll(a, "{host}", cfg.Host)
		}
		if strings.Contains(a, "{port}") {
			sawPort = true
			a = strings.ReplaceAll(a, "{port}", strconv.Itoa(port))
		}
		out = append(out, a)
	}
	if !sawDir {
		out = append(out, cfg.ModelDir)
	}
	if !sawPort {
		out = append(out, "--host", cfg.Host, "--port", strconv.Itoa(port))
	}
	return out
}

func pickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, fmt.Errorf("pick port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// Spawn starts the external scoring runtime and waits until it answers /ping.
// Failure to start or to become healthy is returned to the caller; model
// preload treats it as fatal.
func Spawn(ctx context.Context, cfg SpawnConfig) (Runtime, error) {
	if len(cfg.Argv) == 0 {
		return nil, fmt.Errorf("no model runtime command configured")
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 60 * time.Second
	}
	port, err := pickFreePort(cfg.Host)
	if err != nil {
		return nil, err
	}
	argv := expandArgv(cfg, port)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start runtime %q: %w", argv[0], err)
	}
	rt := &httpRuntime{
		baseURL:    fmt.Sprintf("http://%s", net.JoinHostPort(cfg.Host, strconv.Itoa(port))),
		httpClient: &http.Client{Timeout: 0},
		cmd:        cmd,
	}
	deadline := time.Now().Add(cfg.StartTimeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			_ = rt.Close()
			return nil, ctx.Err()
		}
		if rt.Ready() {
			return rt, nil
		}
		time.Sleep(250 * time.Millisecond)
	}
	_ = rt.Close()
	return nil, fmt.Errorf("runtime %q not healthy after %s", argv[0], cfg.StartTimeout)
}

// Ready polls the runtime's /ping endpoint.
func (r *httpRuntime) Ready() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/ping", nil)
	if err != nil { return false }
	resp, err := r.httpClient.Do(req)
	if err != nil { return false }
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// invocationsResponse covers both response shapes scoring servers emit:
// {"predictions": [x]} or a bare [x].
func decodePrediction(body []byte) (float64, error) {
	var wrapped struct {
		Predictions []float64 `json:"predictions"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Predictions) > 0 {
		return wrapped.Predictions[0], nil
	}
	var bare []float64
	if err := json.Unmarshal(body, &bare); err == nil && len(bare) > 0 {
		return bare[0], nil
	}
	return 0, fmt.Errorf("unrecognized scoring response: %s", truncate(body, 256))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Predict forwards a single-record dataframe to /invocations.
func (r *httpRuntime) Predict(ctx context.Context, params map[string]any) (float64, error) {
	if len(params) == 0 {
		return 0, ErrBadInput("empty model params")
	}
	payload := map[string]any{"dataframe_records": []map[string]any{params}}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode invocation: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/invocations", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, ErrNotReady("model runtime unreachable: " + err.Error())
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		return 0, ErrBadInput(fmt.Sprintf("runtime rejected input: %s", truncate(b, 256)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("runtime http error: %s: %s", resp.Status, truncate(b, 256))
	}
	return decodePrediction(b)
}

// Close terminates the spawned runtime, if any. Best effort.
func (r *httpRuntime) Close() error {
	r.mu.Lock()
	cmd := r.cmd
	r.cmd = nil
	r.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}
	return nil
}
