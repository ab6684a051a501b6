package buildsys

import "errors"

var (
	// ErrBinaryNotFound indicates the build-system executable was not found on PATH.
	ErrBinaryNotFound = errors.New("build system binary not found")
	// ErrExecutionFailed indicates the process ran and exited non-zero.
	ErrExecutionFailed = errors.New("build system execution failed")
	// ErrTimeout indicates the process was killed after cmake.timeout elapsed.
	ErrTimeout = errors.New("build system execution timed out")
)
