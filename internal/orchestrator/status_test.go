package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doxyhook/internal/gitinfo"
)

func TestStatusBeforeAnyRun(t *testing.T) {
	h := newHarness(t, nil)
	before := snapshot(t, h.p.root)

	st, err := h.orch.Status()
	require.NoError(t, err)

	assert.Equal(t, "HOSTED_BUILD", st.HostedVariable)
	assert.False(t, st.HostedSet)
	assert.False(t, st.Hosted)
	assert.False(t, st.OutputExists)
	assert.Nil(t, st.LastRun)
	assert.Nil(t, st.Head)
	assert.False(t, st.Stale)
	assert.Equal(t, before, snapshot(t, h.p.root))
}

func TestStatusDetectsStaleOutput(t *testing.T) {
	h := newHarness(t, strPtr("True"))
	h.orch.readHead = func(string) (gitinfo.Head, error) {
		return gitinfo.Head{Commit: "1111111111111111111111111111111111111111", Branch: "main"}, nil
	}

	_, err := h.orch.Prepare(context.Background())
	require.NoError(t, err)

	st, err := h.orch.Status()
	require.NoError(t, err)
	assert.True(t, st.Hosted)
	assert.True(t, st.OutputExists)
	require.NotNil(t, st.LastRun)
	assert.Equal(t, "main", st.LastRun.Source.Branch)
	assert.False(t, st.Stale)

	h.orch.readHead = func(string) (gitinfo.Head, error) {
		return gitinfo.Head{Commit: "2222222222222222222222222222222222222222"}, nil
	}
	st, err = h.orch.Status()
	require.NoError(t, err)
	assert.True(t, st.Stale)
}

func TestStatusCorruptManifest(t *testing.T) {
	h := newHarness(t, nil)
	path := filepath.Join(h.p.docs, ".doxyhook", "manifest.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := h.orch.Status()
	require.Error(t, err)
}
