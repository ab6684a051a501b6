// Package buildsys invokes the external build system (CMake) that renders the
// Doxygen HTML. Every invocation produces a typed Result carrying the exit
// code and captured output, so callers decide whether a failure stops the run.
package buildsys
