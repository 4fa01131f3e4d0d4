package peephole

import "fmt"

// InconsistentGraphError is returned when IRCode.IsConsistentGraph (§3
// Invariants 1-3) fails at entry or exit of the pass, or when a phase's
// debug-mode assertion fails (see AssertionError). §7 treats
// this as an unsatisfiable-precondition programmer error: the caller is
// expected to abort the whole compilation rather than attempt repair. A
// library has no business calling os.Exit itself, so we return this error
// type instead and let the host decide.
type InconsistentGraphError struct {
	MethodID string
	When     string // "entry", "exit" or "phase"
	Cause    error
}

func (e *InconsistentGraphError) Error() string {
	return fmt.Sprintf("peephole: inconsistent CFG for method %q at %s: %v", e.MethodID, e.When, e.Cause)
}

func (e *InconsistentGraphError) Unwrap() error { return e.Cause }

// AssertionError marks a violation of a debug-only contract that a phase
// checks internally (e.g. P1's positional contract, §4.3) rather than one of
// the graph-wide structural invariants IRCode.IsConsistentGraph checks.
// These are only ever raised when regalloc.Options.Debug is set, and
// Optimize recovers them into a returned error rather than letting them
// crash the process.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string { return e.Msg }

func assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(&AssertionError{Msg: fmt.Sprintf(format, args...)})
	}
}
