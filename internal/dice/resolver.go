package dice

import (
	"fmt"

	"github.com/cory-johannsen/gamzia/internal/rpn"
)

// Hook is the rpn.Hook that rolls dice for d and D.
//
// Invariant: the base calculator contributes 0 for dice operators, so the
// value pushed for NdM is exactly the sum rolled here.
type Hook struct {
	src     Source
	maxDice int64
}

// NewHook creates a dice hook drawing from src.
//
// Precondition: src must be non-nil. maxDice <= 0 selects DefaultMaxDice.
func NewHook(src Source, maxDice int64) *Hook {
	if src == nil {
		panic("dice: NewHook called with nil Source")
	}
	if maxDice <= 0 {
		maxDice = DefaultMaxDice
	}
	return &Hook{src: src, maxDice: maxDice}
}

// Calculate returns the sum of left rolls of a right-sided die for dice
// operators and 0 for anything else. A non-positive count rolls nothing.
func (h *Hook) Calculate(left, right int64, op string) (int64, error) {
	if !IsDiceOp(op) {
		return 0, nil
	}
	if right < 1 {
		return 0, fmt.Errorf("%w: %dd%d", ErrInvalidSides, left, right)
	}
	if left > h.maxDice {
		return 0, fmt.Errorf("%w: %d exceeds %d", ErrTooManyDice, left, h.maxDice)
	}
	sides := int(right)
	if int64(sides) != right {
		return 0, fmt.Errorf("%w: %d sides", ErrInvalidSides, right)
	}

	var sum int64
	for i := int64(0); i < left; i++ {
		next, err := rpn.AddChecked(sum, int64(h.src.Intn(sides))+1)
		if err != nil {
			return 0, fmt.Errorf("%w: %dd%d", err, left, right)
		}
		sum = next
	}
	return sum, nil
}

// Options configures NewResolver.
type Options struct {
	// MaxDice caps dice per roll; 0 selects DefaultMaxDice.
	MaxDice int64
	// Lenient enables rpn.WithLenient.
	Lenient bool
}

// NewResolver returns an rpn.Resolver that understands d and D, rolling with
// its own Hook over src.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a resolver with an empty expression cache.
func NewResolver(src Source, opts Options) *rpn.Resolver {
	ropts := []rpn.Option{
		rpn.WithOperators(Operators()),
		rpn.WithHook(NewHook(src, opts.MaxDice)),
	}
	if opts.Lenient {
		ropts = append(ropts, rpn.WithLenient())
	}
	return rpn.NewResolver(ropts...)
}

// Factory returns a constructor of independent dice resolvers, one per
// worker index, each rolling from its own source.
func Factory(sources SourceFactory, opts Options) func(worker int) *rpn.Resolver {
	return func(worker int) *rpn.Resolver {
		return NewResolver(sources(worker), opts)
	}
}
