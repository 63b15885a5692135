package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chuxorg/chux-travel/internal/config"
)

type projectState struct {
	ActiveProject int64 `json:"active_project,omitempty"`
}

// loadActiveProject returns the active project id, or 0 when none is set.
// ~/.travel/state.json wins over ./.travel/state.json.
func loadActiveProject() (int64, error) {
	path, err := statePath()
	if err != nil {
		return 0, err
	}

	id, err := readActiveProject(path)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return 0, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return 0, fmt.Errorf("resolve working dir: %w", err)
	}
	id, err = readActiveProject(filepath.Join(wd, ".travel", "state.json"))
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	return id, err
}

func readActiveProject(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, os.ErrNotExist
		}
		return 0, fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return 0, nil
	}

	var state projectState
	if err := json.Unmarshal(data, &state); err != nil {
		return 0, fmt.Errorf("invalid state file: %w", err)
	}
	if state.ActiveProject < 0 {
		return 0, fmt.Errorf("invalid state file: negative project id %d", state.ActiveProject)
	}
	return state.ActiveProject, nil
}

func saveActiveProject(id int64) error {
	path, err := statePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(projectState{ActiveProject: id}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return config.WriteFileAtomic(path, append(data, '\n'))
}

// resolveProject picks the --project flag value or the active project.
func resolveProject(flagValue int64) (int64, error) {
	if flagValue > 0 {
		return flagValue, nil
	}
	if flagValue < 0 {
		return 0, fmt.Errorf("invalid project id: %d", flagValue)
	}
	id, err := loadActiveProject()
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("no active project set (use 'travel use <id>' or --project)")
	}
	return id, nil
}

func statePath() (string, error) {
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.json"), nil
}
