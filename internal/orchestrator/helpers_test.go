package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doxyhook/internal/buildsys"
	"git.home.luguber.info/inful/doxyhook/internal/config"
	"git.home.luguber.info/inful/doxyhook/internal/fsops"
	"git.home.luguber.info/inful/doxyhook/internal/gitinfo"
	"git.home.luguber.info/inful/doxyhook/internal/metrics"
)

// project lays out a source tree with a docs/ directory, the way a Sphinx
// documentation directory sits next to the top-level CMakeLists.txt.
type project struct {
	root string
	docs string
}

func newProject(t *testing.T) project {
	t.Helper()
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "CMakeLists.txt"), []byte("project(demo)\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "conf.py"), []byte("project = 'demo'\n"), 0o644))
	return project{root: root, docs: docs}
}

// loadConfig loads the configuration the way the CLI does, with the given
// value for HOSTED_BUILD (nil means unset).
func (p project) loadConfig(t *testing.T, hosted *string) *config.Config {
	t.Helper()
	lookup := func(key string) (string, bool) {
		if key == "HOSTED_BUILD" && hosted != nil {
			return *hosted, true
		}
		return "", false
	}
	cfg, err := config.LoadWithOptions("", config.LoadOptions{WorkDir: p.docs, Lookup: lookup})
	require.NoError(t, err)
	return cfg
}

func strPtr(s string) *string { return &s }

// eventLog is shared between the fake runner and the recording filesystem so
// tests can assert the interleaving of invocations and filesystem mutations.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) count(e string) int {
	n := 0
	for _, got := range l.all() {
		if got == e {
			n++
		}
	}
	return n
}

// fakeRunner stands in for cmake. Build can emit the Doxygen output tree.
type fakeRunner struct {
	log *eventLog
	// htmlDir, when set, receives index.html on a successful build.
	htmlDir string
	// xmlDir, when set, receives index.xml on a successful build.
	xmlDir string

	configureExits []int // consumed per call; last value repeats
	buildExit      int
	configureErr   error

	configureReqs []buildsys.ConfigureRequest
	buildReqs     []buildsys.BuildRequest
}

func (f *fakeRunner) Configure(ctx context.Context, req buildsys.ConfigureRequest) (buildsys.Result, error) {
	f.log.add("configure")
	f.configureReqs = append(f.configureReqs, req)
	res := buildsys.Result{Command: buildsys.Command{Name: "cmake", Args: buildsys.ConfigureArgs(req)}}
	if f.configureErr != nil {
		res.ExitCode = -1
		return res, f.configureErr
	}
	if n := len(f.configureExits); n > 0 {
		res.ExitCode = f.configureExits[0]
		if n > 1 {
			f.configureExits = f.configureExits[1:]
		}
	}
	if res.ExitCode != 0 {
		res.Stderr = "CMake Error: could not find Doxygen\n"
	}
	return res, ctx.Err()
}

func (f *fakeRunner) Build(ctx context.Context, req buildsys.BuildRequest) (buildsys.Result, error) {
	f.log.add("build")
	f.buildReqs = append(f.buildReqs, req)
	res := buildsys.Result{
		Command:  buildsys.Command{Name: "cmake", Args: buildsys.BuildArgs(req)},
		ExitCode: f.buildExit,
		Duration: time.Millisecond,
	}
	if f.buildExit != 0 {
		return res, nil
	}
	if f.htmlDir != "" {
		if err := os.MkdirAll(f.htmlDir, 0o755); err != nil {
			return res, err
		}
		if err := os.WriteFile(filepath.Join(f.htmlDir, "index.html"), []byte("<html></html>"), 0o644); err != nil {
			return res, err
		}
	}
	if f.xmlDir != "" {
		if err := os.MkdirAll(f.xmlDir, 0o755); err != nil {
			return res, err
		}
		if err := os.WriteFile(filepath.Join(f.xmlDir, "index.xml"), []byte("<doxygenindex/>"), 0o644); err != nil {
			return res, err
		}
	}
	return res, nil
}

// recordingFS logs every call and delegates to the host filesystem.
type recordingFS struct {
	fsops.OS
	log *eventLog
}

func (r recordingFS) Exists(path string) (bool, error) {
	r.log.add("exists " + path)
	return r.OS.Exists(path)
}

func (r recordingFS) EnsureDir(dir string) error {
	r.log.add("mkdir " + dir)
	return r.OS.EnsureDir(dir)
}

func (r recordingFS) Move(src, dst string) error {
	r.log.add("move " + src + " " + dst)
	return r.OS.Move(src, dst)
}

func (r recordingFS) Replace(src, dst string) error {
	r.log.add("replace " + src + " " + dst)
	return r.OS.Replace(src, dst)
}

func (r recordingFS) RemoveAll(path string) error {
	r.log.add("rmrf " + path)
	return r.OS.RemoveAll(path)
}

// countingRecorder tallies run outcomes and retries.
type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes map[metrics.OutcomeLabel]int
	retries  map[string]int
	steps    map[string]metrics.ResultLabel
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		outcomes: map[metrics.OutcomeLabel]int{},
		retries:  map[string]int{},
		steps:    map[string]metrics.ResultLabel{},
	}
}

func (c *countingRecorder) IncRunOutcome(_ string, o metrics.OutcomeLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[o]++
}

func (c *countingRecorder) IncStepRetry(step string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries[step]++
}

func (c *countingRecorder) IncStepResult(step string, r metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps[step] = r
}

func noRepository(string) (gitinfo.Head, error) {
	return gitinfo.Head{}, gitinfo.ErrNotRepository
}

// snapshot lists every path under root, relative to it.
func snapshot(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(root, func(path string, _ os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		paths = append(paths, rel)
		return nil
	})
	require.NoError(t, err)
	return paths
}
