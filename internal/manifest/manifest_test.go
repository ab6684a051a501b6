package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func sample() *RunManifest {
	return &RunManifest{
		ID:        "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
		Mode:      "hosted",
		Project:   "tinymt-cpp",
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Source:    Source{Dir: "/src", Commit: "abc123", Branch: "main"},
		Steps: []StepRecord{
			{Name: "configure", Command: "cmake -S .. -B .. -DBUILD_TESTING=OFF", ExitCode: intPtr(0), Result: "success", DurationMS: 1200},
			{Name: "build", Command: "cmake --build .. --target doc", ExitCode: intPtr(0), Result: "success", DurationMS: 5300},
			{Name: "ensure_output", Result: "success"},
			{Name: "relocate", Result: "success"},
		},
		OutputDir:  "html_extra/doxygen",
		Outcome:    "success",
		DurationMS: 6600,
	}
}

func TestManifestRoundTripOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".doxyhook", "manifest.json")
	m := sample()

	if err := Write(path, m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.ID != m.ID || got.Source.Commit != "abc123" || len(got.Steps) != 4 {
		t.Fatalf("unexpected manifest after round trip: %+v", got)
	}
	if got.Steps[2].ExitCode != nil {
		t.Errorf("filesystem steps must not carry an exit code")
	}
	if *got.Steps[1].ExitCode != 0 {
		t.Errorf("expected build exit code 0")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the manifest in its directory, found %d entries", len(entries))
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFromJSONInvalid(t *testing.T) {
	if _, err := FromJSON([]byte("{")); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestInputsHash(t *testing.T) {
	a := sample()
	b := sample()
	b.ID = "other"
	b.Timestamp = time.Now()
	b.Steps[0].DurationMS = 99

	ha, err := a.InputsHash()
	if err != nil {
		t.Fatal(err)
	}
	hb, _ := b.InputsHash()
	if ha != hb {
		t.Error("hash must ignore ids, timestamps and durations")
	}

	b.Source.Commit = "def456"
	hc, _ := b.InputsHash()
	if ha == hc {
		t.Error("hash must change with the source commit")
	}
}
