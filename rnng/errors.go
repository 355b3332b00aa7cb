package rnng

import "fmt"

// InvariantError describes a broken parser invariant: a forbidden action applied, a
// Reduce without enough stack entries or without an open nonterminal, or a bad handle.
// The engine panics with it; correct use of ValidActions never triggers one.
type InvariantError struct {
	Op     string
	Handle Handle
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("rnng: %s on state %d: %s", e.Op, e.Handle, e.Detail)
}

func violate(op string, h Handle, format string, args ...any) {
	panic(&InvariantError{Op: op, Handle: h, Detail: fmt.Sprintf(format, args...)})
}

// ReplayError reports the first action of a reference sequence that cannot be applied.
type ReplayError struct {
	Step   int
	Action string
	Reason string
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay: action %d (%s): %s", e.Step, e.Action, e.Reason)
}
