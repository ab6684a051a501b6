package config

import "strings"

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RetryBackoffFixed):
		return RetryBackoffFixed
	case string(RetryBackoffLinear):
		return RetryBackoffLinear
	case string(RetryBackoffExponential):
		return RetryBackoffExponential
	default:
		return ""
	}
}

// FailurePolicy decides what happens after an external step fails.
type FailurePolicy string

const (
	// FailFast stops at the first failing step and reports a classified error.
	FailFast FailurePolicy = "fail_fast"
	// FailContinue logs the failure and runs the remaining steps anyway.
	FailContinue FailurePolicy = "continue"
)

// NormalizeFailurePolicy maps user input to a policy, returning empty string for unknown.
func NormalizeFailurePolicy(raw string) FailurePolicy {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, "-", "_"))) {
	case string(FailFast):
		return FailFast
	case string(FailContinue):
		return FailContinue
	default:
		return ""
	}
}
