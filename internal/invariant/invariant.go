// Package invariant reports programmer-error preconditions.
//
// Builds tagged ebbdebug panic on a violated precondition so the bug surfaces
// at its source. Release builds log the violation and let the caller clamp.
package invariant

import (
	"fmt"

	"github.com/bethropolis/ebb/internal/logger"
)

// Check reports a violated precondition when ok is false.
// It returns ok so callers can write `if !invariant.Check(...) { clamp }`.
func Check(ok bool, format string, args ...interface{}) bool {
	if ok {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if strict {
		panic("invariant violated: " + msg)
	}
	logger.Warnf("invariant violated: %s", msg)
	return false
}

// Strict reports whether violations panic in this build.
func Strict() bool { return strict }
