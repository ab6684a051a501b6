package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/doxyhook/internal/hostenv"
)

// DefaultFileName is looked up in the working directory when no -c flag is given.
const DefaultFileName = "doxyhook.yaml"

// Config represents the doxyhook configuration.
type Config struct {
	Project  string         `yaml:"project"`
	Hosted   HostedConfig   `yaml:"hosted"`
	CMake    CMakeConfig    `yaml:"cmake"`
	Output   OutputConfig   `yaml:"output"`
	Local    LocalConfig    `yaml:"local"`
	Failure  FailureConfig  `yaml:"failure"`
	Manifest ManifestConfig `yaml:"manifest"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Watch    WatchConfig    `yaml:"watch"`

	// WorkDir anchors every relative path. It is the directory the enclosing
	// documentation build runs in (the Sphinx conf.py directory).
	WorkDir string `yaml:"-"`

	// Env is the hosted-build detection, resolved once during Load.
	Env hostenv.Detection `yaml:"-"`
}

// HostedConfig selects the environment variable that marks a hosted build.
type HostedConfig struct {
	EnvVar string `yaml:"env_var"`
}

// CMakeConfig describes the external build system invocations.
type CMakeConfig struct {
	Binary    string            `yaml:"binary"`
	SourceDir string            `yaml:"source_dir"`
	BuildDir  string            `yaml:"build_dir"`
	Target    string            `yaml:"target"`
	Options   map[string]string `yaml:"options,omitempty"`
	// Timeout bounds each invocation; zero means wait forever.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// OutputConfig describes where pre-rendered HTML ends up.
type OutputConfig struct {
	ExtraDir      string `yaml:"extra_dir"`
	Subdir        string `yaml:"subdir"`
	GeneratedHTML string `yaml:"generated_html"`
}

// LocalConfig drives the developer workflow (`doxyhook local`).
type LocalConfig struct {
	BuildDir   string `yaml:"build_dir"`
	DocsSubdir string `yaml:"docs_subdir"`
	XMLDir     string `yaml:"xml_dir"`
}

// FailureConfig controls how external step failures are handled.
type FailureConfig struct {
	Policy FailurePolicy `yaml:"policy"`
	Retry  RetryConfig   `yaml:"retry"`
}

// RetryConfig configures backoff for external process steps.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode,omitempty"`
	Initial    time.Duration    `yaml:"initial,omitempty"`
	Max        time.Duration    `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries"`
}

// ManifestConfig controls the run manifest written after a successful run.
type ManifestConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// MetricsConfig controls Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// WatchConfig drives `doxyhook watch`.
type WatchConfig struct {
	Paths    []string      `yaml:"paths"`
	Debounce time.Duration `yaml:"debounce"`
	Interval time.Duration `yaml:"interval,omitempty"`
}

// TargetDir is the final directory holding the relocated HTML (html_extra/doxygen).
func (c *Config) TargetDir() string {
	return c.Resolve(filepath.Join(c.Output.ExtraDir, c.Output.Subdir))
}

// ExtraDir is the parent directory handed to the documentation tool as a static path.
func (c *Config) ExtraDir() string {
	return c.Resolve(c.Output.ExtraDir)
}

// GeneratedHTMLDir is where the doc target leaves its HTML.
func (c *Config) GeneratedHTMLDir() string {
	return c.Resolve(c.Output.GeneratedHTML)
}

// Resolve anchors a relative path at WorkDir.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.WorkDir == "" {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}

// IsHosted reports whether the hosted-build branch is enabled.
func (c *Config) IsHosted() bool {
	return c.Env.Hosted
}

// LoadOptions tweak Load for tests and embedding.
type LoadOptions struct {
	// WorkDir defaults to the process working directory.
	WorkDir string
	// Lookup defaults to os.LookupEnv.
	Lookup hostenv.LookupFunc
}

// Load reads configuration from path. An empty path means DefaultFileName in
// the working directory, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	return LoadWithOptions(path, LoadOptions{})
}

// LoadWithOptions is Load with explicit working directory and env lookup.
func LoadWithOptions(path string, opts LoadOptions) (*Config, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errRuntime("resolve working directory", err)
		}
		workDir = wd
	}

	lookup := withEnvFiles(opts.Lookup, readEnvFiles(workDir))

	cfg := &Config{}
	explicit := path != ""
	if !explicit {
		path = filepath.Join(workDir, DefaultFileName)
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.Expand(string(data), expandLookup(lookup))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, errConfig("failed to parse configuration", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// no file: run purely on defaults
	case os.IsNotExist(err):
		return nil, errConfig("configuration file not found", path, err)
	default:
		return nil, errConfig("failed to read configuration", path, err)
	}

	cfg.WorkDir = workDir
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	cfg.Env = hostenv.Detect(lookup, cfg.Hosted.EnvVar)
	return cfg, nil
}

func expandLookup(lookup hostenv.LookupFunc) func(string) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return func(key string) string {
		v, _ := lookup(key)
		return v
	}
}
