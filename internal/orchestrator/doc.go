// Package orchestrator places pre-rendered Doxygen HTML where the enclosing
// documentation build expects it.
//
// Prepare is the hook run by hosted documentation builds. It is gated on the
// hosted-build flag and on the absence of the output directory, and otherwise
// runs four stages in order: configure, build, ensure_output and relocate.
// Local reproduces the manual developer workflow into a separate build tree.
// Status inspects the last run without mutating anything.
package orchestrator
