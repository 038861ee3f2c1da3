package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"snakerl/internal/env"
	"snakerl/internal/policy"
)

// SaveArtifact writes a trained policy to a JSON file
func SaveArtifact(path string, a *policy.Artifact) error {
	if a == nil {
		return fmt.Errorf("save artifact %s: no artifact", path)
	}
	return writeJSON(path, a)
}

// LoadArtifact reads a policy written by SaveArtifact
func LoadArtifact(path string) (*policy.Artifact, error) {
	var a policy.Artifact
	if err := readJSON(path, &a); err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	return &a, nil
}

// SaveTrace writes an episode trace for later playback
func SaveTrace(path string, t *env.Trace) error {
	if t == nil {
		return fmt.Errorf("save trace %s: no trace", path)
	}
	return writeJSON(path, t)
}

// LoadTrace reads a trace written by SaveTrace
func LoadTrace(path string) (*env.Trace, error) {
	var t env.Trace
	if err := readJSON(path, &t); err != nil {
		return nil, fmt.Errorf("load trace: %w", err)
	}
	if _, err := t.GameConfig(); err != nil {
		return nil, fmt.Errorf("load trace %s: %w", path, err)
	}
	return &t, nil
}

// writeJSON creates the parent directory and writes v indented
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return fmt.Errorf("%s: offset %d: %w", path, syntaxErr.Offset, err)
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
