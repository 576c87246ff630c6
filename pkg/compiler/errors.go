package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedName is returned when a variable read or procedure call
	// names something bound nowhere in the scope chain.
	ErrUnresolvedName = errors.New("unresolved name")

	// ErrDivisionByZero is the arithmetic fault raised by "/" and "mod".
	ErrDivisionByZero = errors.New("division by zero")

	// ErrArgumentCount is returned when a call supplies a different number of
	// arguments than the procedure declares parameters.
	ErrArgumentCount = errors.New("wrong number of arguments")

	// ErrNotImplemented marks a construct the code generator cannot translate.
	ErrNotImplemented = errors.New("not implemented")

	// ErrStackImbalance means the generator's push/pop accounting did not
	// return to zero at the end of a procedure.
	ErrStackImbalance = errors.New("unbalanced stack")
)

// ScanError reports a character the lexer could not turn into a token.
type ScanError struct {
	Line int
	Msg  string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("line %d: scan error: %s", e.Line, e.Msg)
}

// SyntaxError reports a token that does not fit the grammar at the current
// position.
type SyntaxError struct {
	Line     int
	Expected string
	Found    string
	Snippet  string // trimmed source line, when available
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("line %d: expected %q but found %q", e.Line, e.Expected, e.Found)
	if e.Snippet != "" {
		msg += "\n  |> " + e.Snippet
	}
	return msg
}
