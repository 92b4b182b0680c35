package vm

import "archlab/arm26emu/internal/armerr"

// errInvalidInstruction wraps a decode-time or operand-restriction
// violation as a host-observable error (§7). These never occur for a
// well-formed instruction stream produced by a real assembler; they
// exist for instruction words a caller hand-assembles incorrectly
// (UNPREDICTABLE register combinations this core chooses to reject
// rather than silently misbehave on).
func errInvalidInstruction(message string) error {
	return armerr.New(armerr.InvalidArgument, "vm", message)
}

// errInvalidState reports a host-observable precondition failure that
// is not about a single instruction word, e.g. a malformed memory-map
// configuration supplied by the caller.
func errInvalidState(message string) error {
	return armerr.New(armerr.InvalidState, "vm", message)
}

// bugDetected panics with an internal-invariant error (§7): the caller
// did something the facade should have already prevented, or this core
// reached a state its own invariants say is unreachable.
func bugDetected(message string) {
	panic(armerr.New(armerr.BugDetected, "vm", message))
}
