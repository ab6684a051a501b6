package buildsys

import (
	"strings"
	"time"
)

// Command is a fully resolved process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// String renders the command the way a user would type it.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the outcome of one external invocation. ExitCode is -1 when the
// process never started or was killed by a signal.
type Result struct {
	Command  Command
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports a zero exit code.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// OutputTail returns the last n lines of stderr, or stdout when stderr is
// empty. Used to attach a short diagnostic to classified errors.
func (r Result) OutputTail(n int) string {
	out := strings.TrimRight(r.Stderr, "\n")
	if out == "" {
		out = strings.TrimRight(r.Stdout, "\n")
	}
	if out == "" || n <= 0 {
		return ""
	}
	lines := strings.Split(out, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
