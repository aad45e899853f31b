// Package dice extends the rpn resolver with the non-deterministic dice
// operator: NdM rolls N M-sided dice and sums them.
package dice

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/gamzia/internal/rpn"
)

// PrecDice binds tighter than factorial and exponentiation.
const PrecDice = 90

// DefaultMaxDice caps the number of dice a single operator application rolls.
const DefaultMaxDice = 1_000_000

var (
	// ErrInvalidSides is returned when a die has fewer than one side.
	ErrInvalidSides = errors.New("dice: die must have at least one side")
	// ErrTooManyDice is returned when a roll exceeds the configured maximum.
	ErrTooManyDice = errors.New("dice: too many dice")
)

// Operators returns the default operator table extended with d and D.
func Operators() rpn.OperatorTable {
	return rpn.DefaultOperators().MustWith(map[string]int{"d": PrecDice, "D": PrecDice})
}

// IsDiceOp reports whether op is a dice operator.
func IsDiceOp(op string) bool {
	return op == "d" || op == "D"
}

// RollResult holds the audit trail for a single resolution.
type RollResult struct {
	Expression string // original infix expression, e.g. "2d6+3"
	RPN        string // diagnostic postfix form, e.g. "2 6 d 3 +"
	Total      int64
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → 2 6 d 3 + = 12"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %s = %d", r.Expression, r.RPN, r.Total)
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
