package orchestrator

import (
	"errors"

	ferrors "git.home.luguber.info/inful/doxyhook/internal/foundation/errors"
	"git.home.luguber.info/inful/doxyhook/internal/gitinfo"
	"git.home.luguber.info/inful/doxyhook/internal/manifest"
)

// StatusReport describes the current state of the output and the last run.
type StatusReport struct {
	HostedVariable string `json:"hosted_variable"`
	HostedValue    string `json:"hosted_value,omitempty"`
	HostedSet      bool   `json:"hosted_set"`
	Hosted         bool   `json:"hosted"`

	OutputDir    string `json:"output_dir"`
	OutputExists bool   `json:"output_exists"`

	ManifestPath string                `json:"manifest_path"`
	LastRun      *manifest.RunManifest `json:"last_run,omitempty"`

	Head *gitinfo.Head `json:"head,omitempty"`
	// Stale is true when the last run was built from a different commit than HEAD.
	Stale bool `json:"stale"`
}

// Status inspects the output directory, the last run manifest and the source
// HEAD. It never mutates anything.
func (o *Orchestrator) Status() (StatusReport, error) {
	st := StatusReport{
		HostedVariable: o.cfg.Env.Variable,
		HostedValue:    o.cfg.Env.Value,
		HostedSet:      o.cfg.Env.Set,
		Hosted:         o.cfg.IsHosted(),
		OutputDir:      o.cfg.TargetDir(),
		ManifestPath:   o.cfg.Resolve(o.cfg.Manifest.Path),
	}

	exists, err := o.fs.Exists(st.OutputDir)
	if err != nil {
		return st, ferrors.FileSystemError("failed to inspect output directory").
			WithCause(err).
			WithContext("path", st.OutputDir).
			Build()
	}
	st.OutputExists = exists

	last, err := manifest.Read(st.ManifestPath)
	switch {
	case err == nil:
		st.LastRun = last
	case errors.Is(err, manifest.ErrNotFound):
	default:
		return st, ferrors.FileSystemError("failed to read run manifest").
			WithCause(err).
			WithContext("path", st.ManifestPath).
			Build()
	}

	if head, err := o.readHead(o.cfg.Resolve(o.cfg.CMake.SourceDir)); err == nil {
		st.Head = &head
	}

	if st.LastRun != nil && st.Head != nil && st.LastRun.Source.Commit != "" {
		st.Stale = st.LastRun.Source.Commit != st.Head.Commit
	}
	return st, nil
}
