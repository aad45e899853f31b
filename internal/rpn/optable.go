// Package rpn converts infix integer expressions to Reverse Polish Notation
// and evaluates them, delegating operators it does not know to a pluggable Hook.
package rpn

import (
	"fmt"
	"sort"
)

// Bracket is the sentinel entry every OperatorTable carries. It has the lowest
// precedence so no operator ever pops it off the conversion stack.
const Bracket = "("

// Base precedence levels.
const (
	PrecBracket   = 0
	PrecAdditive  = 30
	PrecMultiply  = 50
	PrecPower     = 70
	PrecFactorial = 80
)

// OperatorTable maps an operator symbol to its precedence. Higher binds tighter.
//
// Invariant: Bracket is always present with PrecBracket.
// Invariant: a table is never mutated after construction; With returns a copy.
type OperatorTable struct {
	prec map[string]int
}

// DefaultOperators returns the base arithmetic table.
//
// Postcondition: the table holds ( - + / * % C c ^ !.
func DefaultOperators() OperatorTable {
	return OperatorTable{prec: map[string]int{
		Bracket: PrecBracket,
		"-":     PrecAdditive,
		"+":     PrecAdditive,
		"/":     PrecMultiply,
		"*":     PrecMultiply,
		"%":     PrecMultiply,
		"C":     PrecMultiply,
		"c":     PrecMultiply,
		"^":     PrecPower,
		"!":     PrecFactorial,
	}}
}

// Precedence reports the precedence of op and whether op is in the table.
func (t OperatorTable) Precedence(op string) (int, bool) {
	p, ok := t.prec[op]
	return p, ok
}

// IsOperator reports whether op is an evaluable operator. The bracket sentinel
// is in the table but is not an operator.
func (t OperatorTable) IsOperator(op string) bool {
	_, ok := t.prec[op]
	return ok && op != Bracket
}

// With returns a copy of t extended by extra.
//
// Precondition: every key in extra is a single non-digit, non-bracket character
// absent from t, and every precedence is > PrecBracket.
// Postcondition: returns the extended table, or an error wrapping
// ErrOperatorConflict naming the first offending symbol in sorted order.
func (t OperatorTable) With(extra map[string]int) (OperatorTable, error) {
	out := OperatorTable{prec: make(map[string]int, len(t.prec)+len(extra))}
	for k, v := range t.prec {
		out.prec[k] = v
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, op := range keys {
		p := extra[op]
		switch {
		case len(op) != 1:
			return OperatorTable{}, fmt.Errorf("%w: %q must be a single character", ErrOperatorConflict, op)
		case op == "(" || op == ")":
			return OperatorTable{}, fmt.Errorf("%w: %q is a bracket", ErrOperatorConflict, op)
		case isDigit(op[0]):
			return OperatorTable{}, fmt.Errorf("%w: %q is a digit", ErrOperatorConflict, op)
		case p <= PrecBracket:
			return OperatorTable{}, fmt.Errorf("%w: %q precedence %d must be > %d", ErrOperatorConflict, op, p, PrecBracket)
		}
		if existing, ok := out.prec[op]; ok {
			return OperatorTable{}, fmt.Errorf("%w: %q already has precedence %d", ErrOperatorConflict, op, existing)
		}
		out.prec[op] = p
	}
	return out, nil
}

// MustWith is With that panics on error. Useful for package-level tables.
func (t OperatorTable) MustWith(extra map[string]int) OperatorTable {
	out, err := t.With(extra)
	if err != nil {
		panic("rpn: MustWith failed: " + err.Error())
	}
	return out
}

// Symbols returns the evaluable operator symbols in ascending order.
func (t OperatorTable) Symbols() []string {
	out := make([]string, 0, len(t.prec))
	for k := range t.prec {
		if k != Bracket {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
