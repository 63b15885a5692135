package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/chuxorg/chux-travel/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testBackend struct {
	mu       sync.Mutex
	routes   map[string]string
	status   map[string]int
	requests []recordedRequest
}

// newTestBackend serves canned JSON per "METHOD /path". Unknown routes
// answer 404 with a detail payload.
func newTestBackend(t *testing.T) (*testBackend, string) {
	t.Helper()
	b := &testBackend{routes: map[string]string{}, status: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.Path

		b.mu.Lock()
		b.requests = append(b.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(raw)})
		body, ok := b.routes[key]
		status := b.status[key]
		b.mu.Unlock()

		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Project not found"}`))
			return
		}
		if status == 0 {
			status = http.StatusOK
		}
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return b, srv.URL
}

func (b *testBackend) on(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = body
	b.status[method+" "+path] = status
}

func (b *testBackend) recorded() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedRequest(nil), b.requests...)
}

// isolate points HOME at a fresh directory and clears TRAVEL_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		config.EnvBaseURL, config.EnvListen, config.EnvLogLevel,
		config.EnvLogFormat, config.EnvTimeout, config.EnvTracingEndpoint,
	} {
		t.Setenv(key, "")
	}
	return home
}

// runCLI executes the root command and returns what it wrote to stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("v1.2.3")
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeStateFile(t *testing.T, dir string, project int64) {
	t.Helper()

	stateDir := filepath.Join(dir, ".travel")
	data, err := json.Marshal(map[string]int64{"active_project": project})
	if err != nil {
		t.Fatalf("encode state: %v", err)
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		t.Fatalf("create state dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, "state.json"), append(data, '\n'), 0o600); err != nil {
		t.Fatalf("write state file: %v", err)
	}
}

func withCwd(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
}
