package cmd

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUseSavesActiveProject(t *testing.T) {
	home := isolate(t)
	backend, url := newTestBackend(t)
	backend.on(http.MethodGet, "/projects/3", http.StatusOK, `{"id":3,"name":"Chicago","status":"active"}`)

	out, err := runCLI(t, "", "--base-url", url, "use", "3")
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if out != "Active project set to #3 (Chicago).\n" {
		t.Fatalf("unexpected output: %q", out)
	}

	data, err := os.ReadFile(filepath.Join(home, ".travel", "state.json"))
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if !strings.Contains(string(data), `"active_project": 3`) {
		t.Fatalf("unexpected state file: %s", data)
	}

	out, err = runCLI(t, "", "--base-url", url, "current")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if out != "Active project: #3\n" {
		t.Fatalf("unexpected current output: %q", out)
	}
}

func TestUseUnknownProjectKeepsState(t *testing.T) {
	home := isolate(t)
	writeStateFile(t, home, 2)
	_, url := newTestBackend(t)

	_, err := runCLI(t, "", "--base-url", url, "use", "99")
	if err == nil || !strings.Contains(err.Error(), "404 Not Found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	id, err := loadActiveProject()
	if err != nil {
		t.Fatalf("loadActiveProject: %v", err)
	}
	if id != 2 {
		t.Fatalf("active project = %d, want 2", id)
	}
}

func TestCurrentWithoutActiveProject(t *testing.T) {
	home := isolate(t)
	withCwd(t, home)

	out, err := runCLI(t, "", "current")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if out != "No active project\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestActiveProjectFallsBackToWorkingDir(t *testing.T) {
	isolate(t)
	workdir := t.TempDir()
	withCwd(t, workdir)
	writeStateFile(t, workdir, 6)

	id, err := loadActiveProject()
	if err != nil {
		t.Fatalf("loadActiveProject: %v", err)
	}
	if id != 6 {
		t.Fatalf("active project = %d, want 6", id)
	}
}

func TestHomeStateWinsOverWorkingDir(t *testing.T) {
	home := isolate(t)
	workdir := t.TempDir()
	withCwd(t, workdir)
	writeStateFile(t, workdir, 6)
	writeStateFile(t, home, 4)

	id, err := resolveProject(0)
	if err != nil {
		t.Fatalf("resolveProject: %v", err)
	}
	if id != 4 {
		t.Fatalf("active project = %d, want 4", id)
	}
}

func TestReadActiveProjectInvalidState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write state: %v", err)
	}
	if _, err := readActiveProject(path); err == nil || !strings.Contains(err.Error(), "invalid state file") {
		t.Fatalf("expected invalid state error, got %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"active_project":-1}`), 0o600); err != nil {
		t.Fatalf("write state: %v", err)
	}
	if _, err := readActiveProject(path); err == nil {
		t.Fatal("expected error for negative id")
	}
}

func TestResolveProjectFlag(t *testing.T) {
	isolate(t)

	id, err := resolveProject(9)
	if err != nil || id != 9 {
		t.Fatalf("resolveProject(9) = %d, %v", id, err)
	}
	if _, err := resolveProject(-1); err == nil {
		t.Fatal("expected error for negative project id")
	}
}
