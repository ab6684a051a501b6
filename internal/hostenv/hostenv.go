// Package hostenv detects whether doxyhook runs inside a hosted documentation
// build (a CI service such as Read the Docs) as opposed to a developer machine.
//
// The flag is resolved once, at configuration load, and then passed around as
// a plain value. Nothing downstream reads the process environment again.
package hostenv

import "os"

// DefaultVariable is the environment variable consulted when none is configured.
const DefaultVariable = "HOSTED_BUILD"

// EnabledValue is the only value that turns the hosted branch on. Matching is
// exact and case-sensitive: "true", "1" or "TRUE" all count as false.
const EnabledValue = "True"

// LookupFunc matches the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Detection records how the hosted flag was resolved.
type Detection struct {
	Variable string
	Value    string
	Set      bool
	Hosted   bool
}

// Detect resolves the hosted flag from the given lookup. An empty variable
// name falls back to DefaultVariable; a nil lookup falls back to os.LookupEnv.
func Detect(lookup LookupFunc, variable string) Detection {
	if variable == "" {
		variable = DefaultVariable
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, set := lookup(variable)
	return Detection{
		Variable: variable,
		Value:    value,
		Set:      set,
		Hosted:   set && value == EnabledValue,
	}
}
