// Package manifest records what a doxyhook run did, so later runs and the
// status command can tell which sources the published HTML was built from.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNotFound is returned by Read when no manifest has been written yet.
var ErrNotFound = errors.New("manifest not found")

// RunManifest is a complete record of one run's inputs, steps and outputs.
type RunManifest struct {
	ID         string       `json:"id"`
	Mode       string       `json:"mode"`
	Project    string       `json:"project,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
	Source     Source       `json:"source"`
	Steps      []StepRecord `json:"steps"`
	OutputDir  string       `json:"output_dir"`
	Outcome    string       `json:"outcome"`
	DurationMS int64        `json:"duration_ms"`
	Version    string       `json:"doxyhook_version,omitempty"`
	// Inputs is InputsHash as computed when the run finished.
	Inputs string `json:"inputs_hash,omitempty"`
}

// Source identifies the sources the HTML was generated from.
type Source struct {
	Dir    string `json:"dir"`
	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// StepRecord captures one executed step.
type StepRecord struct {
	Name       string `json:"name"`
	Command    string `json:"command,omitempty"`
	ExitCode   *int   `json:"exit_code,omitempty"`
	Result     string `json:"result"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// ToJSON serializes the manifest to JSON.
func (m *RunManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*RunManifest, error) {
	var m RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// InputsHash is a deterministic hash of the source commit and the commands
// that ran. Two runs with the same hash produced HTML from identical inputs.
func (m *RunManifest) InputsHash() (string, error) {
	commands := make([]string, 0, len(m.Steps))
	for _, s := range m.Steps {
		if s.Command != "" {
			commands = append(commands, s.Command)
		}
	}
	data, err := json.Marshal(struct {
		Commit   string   `json:"commit"`
		Commands []string `json:"commands"`
	}{Commit: m.Source.Commit, Commands: commands})
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}

// Write stores the manifest at path atomically.
func Write(path string, m *RunManifest) error {
	data, err := m.ToJSON()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("install manifest: %w", err)
	}
	return nil
}

// Read loads the manifest at path, returning ErrNotFound when absent.
func Read(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromJSON(data)
}
