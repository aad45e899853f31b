package dice

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/gamzia/internal/rpn"
)

// Roller wraps a dice-aware resolver and logger to provide logged rolling.
// All rolls are logged at debug level with expression, rpn, and total.
//
// A Roller inherits the resolver's single-goroutine restriction.
type Roller struct {
	resolver *rpn.Resolver
	logger   *zap.Logger
}

// NewLoggedRoller creates a Roller that resolves with a fresh dice resolver
// over src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, opts Options, logger *zap.Logger) *Roller {
	return &Roller{resolver: NewResolver(src, opts), logger: logger}
}

// Roll parses and evaluates expr and logs the result at debug level.
//
// Postcondition: result logged; returns RollResult or error.
func (r *Roller) Roll(expr string) (RollResult, error) {
	return r.roll(expr, false)
}

// Again re-evaluates the most recently rolled expression without re-parsing.
//
// Precondition: a previous Roll succeeded in parsing.
func (r *Roller) Again() (RollResult, error) {
	cached := r.resolver.Expression()
	if cached == nil {
		return RollResult{}, rpn.ErrNotParsed
	}
	return r.roll(cached.Source(), true)
}

// Resolver exposes the underlying resolver.
func (r *Roller) Resolver() *rpn.Resolver { return r.resolver }

func (r *Roller) roll(expr string, repeat bool) (RollResult, error) {
	total, err := r.resolver.Resolve(expr, repeat)
	if err != nil {
		r.logger.Debug("dice roll failed",
			zap.String("expression", expr),
			zap.Bool("repeat", repeat),
			zap.Error(err),
		)
		return RollResult{}, err
	}
	result := RollResult{
		Expression: expr,
		RPN:        r.resolver.RPN(),
		Total:      total,
	}
	if r.resolver.Failed() {
		result.RPN = ""
		r.logger.Warn("dice roll resolved leniently",
			zap.String("expression", expr),
			zap.Error(r.resolver.Err()),
		)
	}
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.String("rpn", result.RPN),
		zap.Bool("repeat", repeat),
		zap.Int64("total", result.Total),
	)
	return result, nil
}
