package config

import (
	"time"

	"git.home.luguber.info/inful/doxyhook/internal/hostenv"
)

// Default values mirror the layout of a Sphinx docs/ directory sitting next to
// the top-level CMakeLists.txt.
const (
	DefaultCMakeBinary   = "cmake"
	DefaultSourceDir     = ".."
	DefaultBuildDir      = ".."
	DefaultTarget        = "doc"
	DefaultExtraDir      = "html_extra"
	DefaultSubdir        = "doxygen"
	DefaultGeneratedHTML = "html"
	DefaultLocalBuildDir = "../build/docs"
	DefaultDocsSubdir    = "docs"
	DefaultXMLDir        = "xml"
	DefaultManifestPath  = ".doxyhook/manifest.json"
	DefaultDebounce      = 300 * time.Millisecond
)

// DefaultWatchPaths are watched by `doxyhook watch` when none are configured.
var DefaultWatchPaths = []string{"../include"}

// DefaultCMakeOptions are passed as -D flags at configure time. Tests are
// switched off since only the doc target is needed. User options are merged
// over them key by key.
func DefaultCMakeOptions() map[string]string {
	return map[string]string{"BUILD_TESTING": "OFF"}
}

// ApplyDefaults fills every unset field.
func ApplyDefaults(cfg *Config) {
	if cfg.Hosted.EnvVar == "" {
		cfg.Hosted.EnvVar = hostenv.DefaultVariable
	}

	if cfg.CMake.Binary == "" {
		cfg.CMake.Binary = DefaultCMakeBinary
	}
	if cfg.CMake.SourceDir == "" {
		cfg.CMake.SourceDir = DefaultSourceDir
	}
	if cfg.CMake.BuildDir == "" {
		cfg.CMake.BuildDir = DefaultBuildDir
	}
	if cfg.CMake.Target == "" {
		cfg.CMake.Target = DefaultTarget
	}
	if cfg.CMake.Options == nil {
		cfg.CMake.Options = map[string]string{}
	}
	for k, v := range DefaultCMakeOptions() {
		if _, set := cfg.CMake.Options[k]; !set {
			cfg.CMake.Options[k] = v
		}
	}

	if cfg.Output.ExtraDir == "" {
		cfg.Output.ExtraDir = DefaultExtraDir
	}
	if cfg.Output.Subdir == "" {
		cfg.Output.Subdir = DefaultSubdir
	}
	if cfg.Output.GeneratedHTML == "" {
		cfg.Output.GeneratedHTML = DefaultGeneratedHTML
	}

	if cfg.Local.BuildDir == "" {
		cfg.Local.BuildDir = DefaultLocalBuildDir
	}
	if cfg.Local.DocsSubdir == "" {
		cfg.Local.DocsSubdir = DefaultDocsSubdir
	}
	if cfg.Local.XMLDir == "" {
		cfg.Local.XMLDir = DefaultXMLDir
	}

	if p := NormalizeFailurePolicy(string(cfg.Failure.Policy)); p != "" {
		cfg.Failure.Policy = p
	} else if cfg.Failure.Policy == "" {
		cfg.Failure.Policy = FailFast
	}
	if m := NormalizeRetryBackoff(string(cfg.Failure.Retry.Mode)); m != "" {
		cfg.Failure.Retry.Mode = m
	} else if cfg.Failure.Retry.Mode == "" {
		cfg.Failure.Retry.Mode = RetryBackoffLinear
	}

	if cfg.Manifest.Path == "" {
		cfg.Manifest.Path = DefaultManifestPath
	}

	if len(cfg.Watch.Paths) == 0 {
		cfg.Watch.Paths = append([]string(nil), DefaultWatchPaths...)
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}
}

// Default returns a fully defaulted configuration anchored at workDir.
func Default(workDir string) *Config {
	cfg := &Config{Project: "project", WorkDir: workDir}
	ApplyDefaults(cfg)
	return cfg
}
