package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doxyhook/internal/config"
	ferrors "git.home.luguber.info/inful/doxyhook/internal/foundation/errors"
	"git.home.luguber.info/inful/doxyhook/internal/gitinfo"
	"git.home.luguber.info/inful/doxyhook/internal/manifest"
	"git.home.luguber.info/inful/doxyhook/internal/metrics"
	"git.home.luguber.info/inful/doxyhook/internal/orchestrator"
)

// fakeCMake is a cmake stand-in: `--build` writes html/index.html into the
// directory it runs in, anything else just records its arguments.
const fakeCMake = `#!/bin/sh
echo "$@" >> invocations.log
if [ "$1" = "--build" ]; then
  mkdir -p html
  echo "<html></html>" > html/index.html
fi
`

// setupProject creates <root>/docs with a doxyhook.yaml pointing at a fake cmake.
func setupProject(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-ins need a POSIX shell")
	}
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))

	script := filepath.Join(root, "fake-cmake")
	require.NoError(t, os.WriteFile(script, []byte(fakeCMake), 0o755)) // #nosec G306 -- test script must be executable

	cfg := fmt.Sprintf("project: demo\ncmake:\n  binary: %s\n", script)
	require.NoError(t, os.WriteFile(filepath.Join(docs, config.DefaultFileName), []byte(cfg), 0o644))
	return docs
}

func TestPrepareCmd_Hosted(t *testing.T) {
	docs := setupProject(t)
	t.Setenv("HOSTED_BUILD", "True")
	metricsFile := filepath.Join(t.TempDir(), "doxyhook.prom")

	cli := &CLI{WorkDir: docs, MetricsFile: metricsFile}
	cmd := &PrepareCmd{Quiet: true}
	require.NoError(t, cmd.Run(&Global{}, cli))

	assert.FileExists(t, filepath.Join(docs, "html_extra", "doxygen", "index.html"))
	assert.NoDirExists(t, filepath.Join(docs, "html"))

	log, err := os.ReadFile(filepath.Join(docs, "invocations.log"))
	require.NoError(t, err)
	assert.Equal(t, "-S .. -B .. -DBUILD_TESTING=OFF\n--build .. --target doc\n", string(log))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `doxyhook_run_outcomes_total{mode="hosted",outcome="success"} 1`)
	assert.Contains(t, string(prom), "doxyhook_step_duration_seconds")
}

func TestPrepareCmd_NotHosted(t *testing.T) {
	docs := setupProject(t)
	t.Setenv("HOSTED_BUILD", "true")

	cli := &CLI{WorkDir: docs}
	require.NoError(t, (&PrepareCmd{Quiet: true}).Run(&Global{}, cli))

	assert.NoDirExists(t, filepath.Join(docs, "html_extra"))
	assert.NoFileExists(t, filepath.Join(docs, "invocations.log"))
}

func TestPrepareCmd_MissingBinary(t *testing.T) {
	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, config.DefaultFileName),
		[]byte("cmake:\n  binary: doxyhook-no-such-cmake\n"), 0o644))
	t.Setenv("HOSTED_BUILD", "True")

	err := (&PrepareCmd{Quiet: true}).Run(&Global{}, &CLI{WorkDir: docs})
	require.Error(t, err)

	adapter := ferrors.NewCLIErrorAdapter(false, slog.Default())
	assert.Equal(t, 8, adapter.ExitCodeFor(err))
	assert.Contains(t, adapter.FormatError(err), "(step configure)")
}

func TestPrepareCmd_ExplicitConfigMissing(t *testing.T) {
	docs := t.TempDir()
	err := (&PrepareCmd{}).Run(&Global{}, &CLI{WorkDir: docs, Config: "missing.yaml"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLocalCmd(t *testing.T) {
	docs := setupProject(t)
	// The local build tree is ../build/docs; the fake writes html/ relative to
	// the directory it runs in, so pre-stage the tree the doc target produces.
	out := filepath.Join(filepath.Dir(docs), "build", "docs", "docs")
	for _, d := range []string{"html", "xml"} {
		require.NoError(t, os.MkdirAll(filepath.Join(out, d), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(out, d, "index."+d), []byte("x"), 0o644))
	}

	require.NoError(t, (&LocalCmd{Quiet: true}).Run(&Global{}, &CLI{WorkDir: docs}))

	assert.FileExists(t, filepath.Join(docs, "html_extra", "doxygen", "index.html"))
	assert.FileExists(t, filepath.Join(docs, "xml", "index.xml"))
	log, err := os.ReadFile(filepath.Join(docs, "invocations.log"))
	require.NoError(t, err)
	assert.Equal(t, "-S .. -B ../build/docs -DBUILD_TESTING=OFF\n--build ../build/docs --target doc\n", string(log))
}

func TestStatusCmd_JSON(t *testing.T) {
	docs := setupProject(t)
	t.Setenv("HOSTED_BUILD", "True")
	require.NoError(t, (&PrepareCmd{Quiet: true}).Run(&Global{}, &CLI{WorkDir: docs}))

	var buf bytes.Buffer
	cmd := &StatusCmd{Format: "json", out: &buf}
	require.NoError(t, cmd.Run(&Global{}, &CLI{WorkDir: docs}))

	var st orchestrator.StatusReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &st))
	assert.True(t, st.Hosted)
	assert.True(t, st.OutputExists)
	require.NotNil(t, st.LastRun)
	assert.Equal(t, "success", st.LastRun.Outcome)
	assert.Len(t, st.LastRun.Steps, 4)
}

func TestStatusCmd_Text(t *testing.T) {
	docs := setupProject(t)
	t.Setenv("HOSTED_BUILD", "")

	var buf bytes.Buffer
	cmd := &StatusCmd{Format: "text", out: &buf}
	require.NoError(t, cmd.Run(&Global{}, &CLI{WorkDir: docs}))

	assert.Contains(t, buf.String(), `Hosted build:  false (HOSTED_BUILD="")`)
	assert.Contains(t, buf.String(), "Last run:      none")
}

func TestWriteStatusText_LastRunAndHead(t *testing.T) {
	st := orchestrator.StatusReport{
		HostedVariable: "HOSTED_BUILD",
		HostedSet:      true,
		HostedValue:    "True",
		Hosted:         true,
		OutputDir:      "docs/html_extra/doxygen",
		OutputExists:   true,
		LastRun: &manifest.RunManifest{
			ID:      "run-1",
			Mode:    "hosted",
			Outcome: "success",
			Source:  manifest.Source{Commit: "1111111111111111111111111111111111111111"},
			Inputs:  "abc123",
		},
		Head:  &gitinfo.Head{Commit: "2222222222222222222222222222222222222222", Branch: "main"},
		Stale: true,
	}

	var buf bytes.Buffer
	require.NoError(t, writeStatusText(&buf, st))

	out := buf.String()
	assert.Contains(t, out, "Inputs hash:   abc123")
	assert.Contains(t, out, "Source HEAD:   22222222 (main)")
	assert.Contains(t, out, "Output is stale")
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	cli := &CLI{WorkDir: dir}

	require.NoError(t, (&InitCmd{Project: "tinymt"}).Run(&Global{}, cli))
	path := filepath.Join(dir, config.DefaultFileName)
	require.FileExists(t, path)

	cfg, err := config.LoadWithOptions("", config.LoadOptions{WorkDir: dir, Lookup: func(string) (string, bool) { return "", false }})
	require.NoError(t, err)
	assert.Equal(t, "tinymt", cfg.Project)
	assert.Equal(t, "READTHEDOCS", cfg.Hosted.EnvVar)

	err = (&InitCmd{}).Run(&Global{}, cli)
	require.Error(t, err)
	require.NoError(t, (&InitCmd{Force: true}).Run(&Global{}, cli))
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, ok := ParseLogLevel(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseLogLevel("loud")
	assert.False(t, ok)
}

func TestLogReport_LevelFollowsOutcome(t *testing.T) {
	cases := []struct {
		outcome metrics.OutcomeLabel
		want    string
	}{
		{metrics.OutcomeSuccess, `level=INFO msg="Doxygen HTML ready"`},
		{metrics.OutcomeDegraded, `level=WARN msg="Doxygen HTML incomplete"`},
	}
	for _, c := range cases {
		t.Run(string(c.outcome), func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			logReport(logger, orchestrator.Report{RunID: "r1", Outcome: c.outcome, OutputDir: "html_extra/doxygen"})

			assert.Contains(t, buf.String(), c.want)
			assert.Contains(t, buf.String(), "outcome="+string(c.outcome))
		})
	}
}
