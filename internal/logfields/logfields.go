package logfields

import (
	"log/slog"
	"strings"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyMode       = "mode"
	KeyStep       = "step"
	KeyCommand    = "command"
	KeyExitCode   = "exit_code"
	KeyAttempt    = "attempt"
	KeyPath       = "path"
	KeySource     = "source"
	KeyTarget     = "target"
	KeyDurationMS = "duration_ms"
	KeyOutcome    = "outcome"
	KeyReason     = "reason"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Target(p string) slog.Attr       { return slog.String(KeyTarget, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }

// Command renders an argv as a single space-joined string.
func Command(name string, args []string) slog.Attr {
	return slog.String(KeyCommand, strings.TrimSpace(name+" "+strings.Join(args, " ")))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
