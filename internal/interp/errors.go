package interp

import "fmt"

// TypeError reports a value used in a way its kind does not support
// (calling a non-callable, arithmetic on a non-number, ...).
type TypeError struct {
	Msg  string
	Line int
}

func (e *TypeError) Error() string { return fmt.Sprintf("line %d: type error: %s", e.Line, e.Msg) }

// ValueError reports a value of the right kind but an invalid content
// (wrong argument count, non-integer list index, ...).
type ValueError struct {
	Msg  string
	Line int
}

func (e *ValueError) Error() string { return fmt.Sprintf("line %d: value error: %s", e.Line, e.Msg) }
