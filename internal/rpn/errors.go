package rpn

import (
	"errors"
	"fmt"
)

// Configuration errors.
var (
	// ErrOperatorConflict is returned when an operator table extension collides
	// with an existing symbol or is otherwise unusable.
	ErrOperatorConflict = errors.New("operator conflict")
)

// Parse errors, always wrapped in *ParseError.
var (
	ErrUnmatchedClose = errors.New("unmatched ')'")
	ErrUnmatchedOpen  = errors.New("unmatched '('")
	ErrLiteralRange   = errors.New("integer literal out of range")
)

// Evaluation errors, always wrapped in *EvalError.
var (
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrTrailingOperands = errors.New("operands left on stack")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrOverflow         = errors.New("integer overflow")
)

// Resolver facade errors.
var (
	ErrNotParsed      = errors.New("repeat requested before any expression was parsed")
	ErrRepeatMismatch = errors.New("repeat requested for a different expression")
)

// ParseError reports a malformed infix expression.
type ParseError struct {
	Expr string
	Pos  int // byte offset of the offending character, or len(Expr) at end of input
	Err  error
}

// Error returns the error string representation for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("rpn: parse %q at %d: %v", e.Expr, e.Pos, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *ParseError) Unwrap() error { return e.Err }

// EvalError reports a failure while evaluating an RPN sequence.
type EvalError struct {
	Op  string // operator being applied; empty for end-of-sequence checks
	Err error
}

// Error returns the error string representation for EvalError.
func (e *EvalError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("rpn: evaluate: %v", e.Err)
	}
	return fmt.Sprintf("rpn: evaluate %q: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *EvalError) Unwrap() error { return e.Err }

// recoverable reports whether lenient mode may swallow err. Arithmetic faults
// and hook failures are never swallowed.
func recoverable(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return true
	}
	return errors.Is(err, ErrStackUnderflow) || errors.Is(err, ErrTrailingOperands)
}
