package rpn

// Hook computes an additional contribution for an operator application. The
// evaluator pushes Calculate(left, right, op) + hook(left, right, op), so a
// hook must return 0 for operators it does not recognise.
type Hook interface {
	Calculate(left, right int64, op string) (int64, error)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(left, right int64, op string) (int64, error)

// Calculate calls f.
func (f HookFunc) Calculate(left, right int64, op string) (int64, error) {
	return f(left, right, op)
}

// NoOpHook contributes nothing.
type NoOpHook struct{}

// Calculate always returns 0.
func (NoOpHook) Calculate(int64, int64, string) (int64, error) { return 0, nil }

// Evaluator walks RPN sequences with a reusable operand stack.
//
// An Evaluator is not safe for concurrent use.
type Evaluator struct {
	hook  Hook
	stack []int64
}

// NewEvaluator returns an Evaluator dispatching to hook. A nil hook is NoOpHook.
func NewEvaluator(hook Hook) *Evaluator {
	if hook == nil {
		hook = NoOpHook{}
	}
	return &Evaluator{hook: hook, stack: make([]int64, 0, 16)}
}

// Evaluate computes the value of expr.
//
// The operand stack is reset before every pass. '!' takes a single operand
// that serves as both left and right; every other operator pops two.
//
// Postcondition: exactly one operand remains and is returned, or an *EvalError
// is returned.
func (ev *Evaluator) Evaluate(expr *Expression) (int64, error) {
	ev.stack = ev.stack[:0]

	for _, t := range expr.tokens {
		if t.Kind == Literal {
			ev.stack = append(ev.stack, t.Value)
			continue
		}

		right, ok := ev.pop()
		if !ok {
			return 0, &EvalError{Op: t.Op, Err: ErrStackUnderflow}
		}
		left := right
		if t.Op != "!" {
			if left, ok = ev.pop(); !ok {
				return 0, &EvalError{Op: t.Op, Err: ErrStackUnderflow}
			}
		}

		base, err := Calculate(left, right, t.Op)
		if err != nil {
			return 0, &EvalError{Op: t.Op, Err: err}
		}
		extra, err := ev.hook.Calculate(left, right, t.Op)
		if err != nil {
			return 0, &EvalError{Op: t.Op, Err: err}
		}
		v, err := AddChecked(base, extra)
		if err != nil {
			return 0, &EvalError{Op: t.Op, Err: err}
		}
		ev.stack = append(ev.stack, v)
	}

	switch len(ev.stack) {
	case 0:
		return 0, &EvalError{Err: ErrStackUnderflow}
	case 1:
		return ev.stack[0], nil
	default:
		return 0, &EvalError{Err: ErrTrailingOperands}
	}
}

func (ev *Evaluator) pop() (int64, bool) {
	n := len(ev.stack)
	if n == 0 {
		return 0, false
	}
	v := ev.stack[n-1]
	ev.stack = ev.stack[:n-1]
	return v, true
}
