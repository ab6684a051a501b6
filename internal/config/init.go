package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/doxyhook/internal/foundation/errors"
)

const initHeader = `# doxyhook configuration.
#
# Relative paths are resolved against the directory doxyhook runs in, normally
# the Sphinx docs/ directory. Point html_extra_path at output.extra_dir.
`

// Init writes an example configuration file.
func Init(configPath, project string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.NewError(ferrors.CategoryConfig, "configuration file already exists (use --force to overwrite)").
			UserAction().
			WithContext("path", configPath).
			Build()
	}

	example := Default("")
	if project != "" {
		example.Project = project
	}
	example.Hosted.EnvVar = "READTHEDOCS"

	var buf bytes.Buffer
	buf.WriteString(initHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(example); err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create config directory").Build()
		}
	}
	if err := os.WriteFile(configPath, buf.Bytes(), 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write configuration file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
