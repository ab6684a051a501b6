package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/doxyhook/internal/foundation/errors"
)

// Validate checks a defaulted configuration for values no run could succeed with.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateCMake(); err != nil {
		return err
	}
	if err := cv.validateOutput(); err != nil {
		return err
	}
	if err := cv.validateFailure(); err != nil {
		return err
	}
	return cv.validateWatch()
}

func (cv *configurationValidator) validateCMake() error {
	c := cv.config.CMake
	if strings.TrimSpace(c.Target) == "" {
		return invalid("cmake.target", c.Target, "must not be empty")
	}
	if c.Timeout < 0 {
		return invalid("cmake.timeout", c.Timeout, "must not be negative")
	}
	for k := range c.Options {
		if k == "" || strings.ContainsAny(k, "= \t") {
			return invalid("cmake.options", k, "option names must be non-empty and contain no '=' or whitespace")
		}
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	o := cv.config.Output
	if filepath.IsAbs(o.Subdir) || strings.Contains(filepath.ToSlash(o.Subdir), "..") {
		return invalid("output.subdir", o.Subdir, "must be a relative path inside output.extra_dir")
	}
	if filepath.Clean(o.GeneratedHTML) == filepath.Clean(filepath.Join(o.ExtraDir, o.Subdir)) {
		return invalid("output.generated_html", o.GeneratedHTML, "must differ from the relocation target")
	}
	return nil
}

func (cv *configurationValidator) validateFailure() error {
	f := cv.config.Failure
	switch f.Policy {
	case FailFast, FailContinue:
	default:
		return invalid("failure.policy", f.Policy, "must be fail_fast or continue")
	}
	switch f.Retry.Mode {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return invalid("failure.retry.mode", f.Retry.Mode, "must be fixed, linear or exponential")
	}
	if f.Retry.MaxRetries < 0 {
		return invalid("failure.retry.max_retries", f.Retry.MaxRetries, "must not be negative")
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	if cv.config.Watch.Interval < 0 {
		return invalid("watch.interval", cv.config.Watch.Interval, "must not be negative")
	}
	return nil
}

func invalid(field string, value any, reason string) error {
	return ferrors.ValidationError(fmt.Sprintf("invalid %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", fmt.Sprint(value)).
		Build()
}

func errConfig(message, path string, cause error) error {
	return ferrors.ConfigError(message).WithContext("path", path).WithCause(cause).Build()
}

func errRuntime(message string, cause error) error {
	return ferrors.RuntimeError(message).WithCause(cause).Build()
}
