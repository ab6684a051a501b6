package orchestrator

import (
	"git.home.luguber.info/inful/doxyhook/internal/buildsys"
	"git.home.luguber.info/inful/doxyhook/internal/config"
	"git.home.luguber.info/inful/doxyhook/internal/fsops"
	"git.home.luguber.info/inful/doxyhook/internal/metrics"
	"git.home.luguber.info/inful/doxyhook/internal/retry"
)

// RunState carries the collaborators and settings shared by the stages of one run.
type RunState struct {
	RunID    string
	Mode     Mode
	Config   *config.Config
	Runner   buildsys.Runner
	FS       fsops.FS
	Retry    retry.Policy
	Recorder metrics.Recorder
}
