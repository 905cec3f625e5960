package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func scoringStub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping":
			w.WriteHeader(http.StatusOK)
		case "/invocations":
			handler(w, r)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAttachRuntimePredict(t *testing.T) {
	srv := scoringStub(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Records []map[string]any `json:"dataframe_records"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode invocation: %v", err)
		}
		if len(body.Records) != 1 || body.Records[0]["bedrooms"] != float64(2) {
			t.Errorf("unexpected records: %v", body.Records)
		}
		json.NewEncoder(w).Encode(map[string]any{"predictions": []float64{2150.75}})
	})
	rt := AttachRuntime(srv.URL)
	if !rt.Ready() {
		t.Fatal("stub should report ready")
	}
	got, err := rt.Predict(context.Background(), map[string]any{"bedrooms": 2})
	if err != nil { t.Fatalf("predict: %v", err) }
	if got != 2150.75 {
		t.Fatalf("prediction = %v", got)
	}
}

func TestAttachRuntimePredictBareArray(t *testing.T) {
	srv := scoringStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[42.5]`))
	})
	rt := AttachRuntime(srv.URL)
	got, err := rt.Predict(context.Background(), map[string]any{"x": 1})
	if err != nil { t.Fatalf("predict: %v", err) }
	if got != 42.5 {
		t.Fatalf("prediction = %v", got)
	}
}

func TestAttachWaitsForHealthy(t *testing.T) {
	srv := scoringStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1.5]`))
	})
	rt, err := Attach(context.Background(), srv.URL, 5*time.Second)
	if err != nil { t.Fatalf("attach: %v", err) }
	got, err := rt.Predict(context.Background(), map[string]any{"x": 1})
	if err != nil { t.Fatalf("predict: %v", err) }
	if got != 1.5 {
		t.Fatalf("prediction = %v", got)
	}
}

func TestAttachTimesOutOnDeadServer(t *testing.T) {
	if _, err := Attach(context.Background(), "http://127.0.0.1:1", 10*time.Millisecond); err == nil {
		t.Fatal("expected timeout attaching to dead server")
	}
}

func TestPredictEmptyParams(t *testing.T) {
	rt := AttachRuntime("http://127.0.0.1:1")
	_, err := rt.Predict(context.Background(), nil)
	if !IsBadInput(err) {
		t.Fatalf("want bad input error, got %v", err)
	}
}

func TestPredictRuntimeRejects(t *testing.T) {
	srv := scoringStub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad column", http.StatusBadRequest)
	})
	rt := AttachRuntime(srv.URL)
	_, err := rt.Predict(context.Background(), map[string]any{"x": 1})
	if !IsBadInput(err) {
		t.Fatalf("want bad input error, got %v", err)
	}
}

func TestPredictUnreachable(t *testing.T) {
	rt := AttachRuntime("http://127.0.0.1:1")
	_, err := rt.Predict(context.Background(), map[string]any{"x": 1})
	if !IsNotReady(err) {
		t.Fatalf("want not-ready error, got %v", err)
	}
}

func TestDecodePredictionErrors(t *testing.T) {
	if _, err := decodePrediction([]byte(`{"predictions":[]}`)); err == nil {
		t.Fatal("expected error for empty predictions")
	}
	if _, err := decodePrediction([]byte(`"nope"`)); err == nil {
		t.Fatal("expected error for unrecognized shape")
	}
}

func TestExpandArgvPlaceholders(t *testing.T) {
	argv := expandArgv(SpawnConfig{
		Argv:     []string{"scoring-server", "-m", "{dir}", "--addr", "{host}:{port}"},
		ModelDir: "/cache/m",
		Host:     "127.0.0.1",
	}, 30001)
	want := []string{"scoring-server", "-m", "/cache/m", "--addr", "127.0.0.1:30001"}
	if len(argv) != len(want) {
		t.Fatalf("argv: %v", argv)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Fatalf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestExpandArgvAppendsDefaults(t *testing.T) {
	argv := expandArgv(SpawnConfig{
		Argv:     []string{"scoring-server"},
		ModelDir: "/cache/m",
		Host:     "127.0.0.1",
	}, 30002)
	want := []string{"scoring-server", "/cache/m", "--host", "127.0.0.1", "--port", "30002"}
	if len(argv) != len(want) {
		t.Fatalf("argv: %v", argv)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Fatalf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestSpawnNoCommand(t *testing.T) {
	if _, err := Spawn(context.Background(), SpawnConfig{}); err == nil {
		t.Fatal("expected error when no runtime command configured")
	}
}
