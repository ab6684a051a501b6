// Package errors provides the classified error primitives used across doxyhook.
//
// A ClassifiedError carries a category (config, process, filesystem, ...), a
// severity, a retry hint and a small context map. The CLIErrorAdapter turns
// them into exit codes and user-facing messages.
//
// Example usage:
//
//	err := errors.ProcessError("cmake build failed").
//		WithContext("step", "build").
//		WithContext("exit_code", 2).
//		WithCause(runErr).
//		Build()
package errors
