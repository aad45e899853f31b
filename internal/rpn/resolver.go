package rpn

// Option configures a Resolver.
type Option func(*Resolver)

// WithOperators replaces the DefaultOperators table.
func WithOperators(t OperatorTable) Option {
	return func(r *Resolver) { r.ops = t }
}

// WithHook installs the operator hook used by the evaluator.
func WithHook(h Hook) Option {
	return func(r *Resolver) { r.hook = h }
}

// WithLenient enables best-effort mode: malformed brackets, missing operands
// and leftover operands resolve to 0 with Failed reporting true instead of
// returning an error. Division by zero, overflow and hook errors are always
// returned.
func WithLenient() Option {
	return func(r *Resolver) { r.lenient = true }
}

// Resolver is the parse-and-evaluate facade. It caches the last successfully
// parsed Expression so stochastic expressions can be re-evaluated without
// re-parsing.
//
// A Resolver is not safe for concurrent use; give each goroutine its own.
type Resolver struct {
	ops     OperatorTable
	hook    Hook
	lenient bool

	eval   *Evaluator
	cached *Expression

	failed  bool
	lastErr error
}

// NewResolver creates a Resolver over DefaultOperators and NoOpHook unless
// overridden by opts.
//
// Postcondition: Returns a non-nil Resolver with no cached expression.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{ops: DefaultOperators()}
	for _, opt := range opts {
		opt(r)
	}
	r.eval = NewEvaluator(r.hook)
	return r
}

// Resolve evaluates expression.
//
// With repeat false the expression is parsed, cached, and evaluated. With
// repeat true the cached Expression is re-evaluated without parsing; it must
// have been parsed from the same text.
//
// Postcondition: a failed call, whether in parsing or evaluation, leaves the
// cached Expression untouched. Only a successful call replaces it.
func (r *Resolver) Resolve(expression string, repeat bool) (int64, error) {
	r.failed, r.lastErr = false, nil

	var expr *Expression
	if repeat {
		switch {
		case r.cached == nil:
			return r.fail(ErrNotParsed)
		case r.cached.source != expression:
			return r.fail(ErrRepeatMismatch)
		}
		expr = r.cached
	} else {
		parsed, err := Parse(expression, r.ops)
		if err != nil {
			return r.fail(err)
		}
		expr = parsed
	}

	v, err := r.eval.Evaluate(expr)
	if err != nil {
		return r.fail(err)
	}
	r.cached = expr
	return v, nil
}

// Repeat re-evaluates the cached Expression.
func (r *Resolver) Repeat() (int64, error) {
	if r.cached == nil {
		return r.Resolve("", true)
	}
	return r.Resolve(r.cached.source, true)
}

// Parse converts expression with this resolver's operator table without
// touching the cache.
func (r *Resolver) Parse(expression string) (*Expression, error) {
	return Parse(expression, r.ops)
}

// Evaluate runs expr through this resolver's evaluator without touching the
// cache or the error flag.
func (r *Resolver) Evaluate(expr *Expression) (int64, error) {
	return r.eval.Evaluate(expr)
}

// Expression returns the cached Expression, or nil.
func (r *Resolver) Expression() *Expression { return r.cached }

// RPN returns the diagnostic rendering of the cached Expression, or "".
func (r *Resolver) RPN() string {
	if r.cached == nil {
		return ""
	}
	return r.cached.String()
}

// Operators returns the operator table.
func (r *Resolver) Operators() OperatorTable { return r.ops }

// Lenient reports whether best-effort mode is on.
func (r *Resolver) Lenient() bool { return r.lenient }

// Failed reports whether the last Resolve call failed, including failures
// lenient mode converted to 0.
func (r *Resolver) Failed() bool { return r.failed }

// Err returns the error behind the last failed Resolve, or nil.
func (r *Resolver) Err() error { return r.lastErr }

func (r *Resolver) fail(err error) (int64, error) {
	r.failed, r.lastErr = true, err
	if r.lenient && recoverable(err) {
		return 0, nil
	}
	return 0, err
}
