package rpn_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/gamzia/internal/rpn"
)

func resolve(t *testing.T, r *rpn.Resolver, expr string) int64 {
	t.Helper()
	v, err := r.Resolve(expr, false)
	require.NoError(t, err, expr)
	return v
}

func TestResolve_KnownValues(t *testing.T) {
	r := rpn.NewResolver()
	cases := map[string]int64{
		"(12+2^3)/10*8%5": 1,
		"1+2*3":           7,
		"1 + 2 * 3":       7,
		"(1+2)*3":         9,
		"5!":              120,
		"0!":              1,
		"-1!":             1,
		"5C2":             10,
		"2C5":             0,
		"10-4-3":          3,
		"100/10/5":        2,
		"2^3^2":           64,
		"3!+2":            8,
		"2^62":            4611686018427387904,
		"5--3":            8,
	}
	for expr, want := range cases {
		assert.Equal(t, want, resolve(t, r, expr), expr)
	}
}

func TestResolve_StrictErrors(t *testing.T) {
	r := rpn.NewResolver()
	cases := map[string]error{
		"(9*7": rpn.ErrUnmatchedOpen,
		"9*7)": rpn.ErrUnmatchedClose,
		"*":    rpn.ErrStackUnderflow,
		"":     rpn.ErrStackUnderflow,
		"1 2":  rpn.ErrTrailingOperands,
		"5/0":  rpn.ErrDivisionByZero,
		"5%0":  rpn.ErrDivisionByZero,
		"2^63": rpn.ErrOverflow,
		"21!":  rpn.ErrOverflow,
		"*oas": rpn.ErrStackUnderflow,
		"-(3)": rpn.ErrStackUnderflow,
	}
	for expr, want := range cases {
		v, err := r.Resolve(expr, false)
		assert.ErrorIs(t, err, want, expr)
		assert.Zero(t, v, expr)
		assert.True(t, r.Failed(), expr)
		assert.ErrorIs(t, r.Err(), want, expr)
	}
}

func TestResolve_ParseErrorType(t *testing.T) {
	_, err := rpn.NewResolver().Resolve("(9*7", false)
	var pe *rpn.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestResolve_LenientSwallowsMalformedInput(t *testing.T) {
	r := rpn.NewResolver(rpn.WithLenient())
	assert.True(t, r.Lenient())
	for _, expr := range []string{"(9*7", "9*7)", "*oas", "1 2", ""} {
		v, err := r.Resolve(expr, false)
		require.NoError(t, err, expr)
		assert.Zero(t, v, expr)
		assert.True(t, r.Failed(), expr)
		assert.Error(t, r.Err(), expr)
	}

	v, err := r.Resolve("2+2", false)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
	assert.False(t, r.Failed())
	assert.NoError(t, r.Err())
}

func TestResolve_LenientNeverSwallowsArithmeticFaults(t *testing.T) {
	r := rpn.NewResolver(rpn.WithLenient())
	_, err := r.Resolve("1/0", false)
	assert.ErrorIs(t, err, rpn.ErrDivisionByZero)
	_, err = r.Resolve("2^64", false)
	assert.ErrorIs(t, err, rpn.ErrOverflow)
}

func TestResolve_RepeatReusesCachedExpression(t *testing.T) {
	r := rpn.NewResolver()
	resolve(t, r, "(1+2)*3")
	before := r.RPN()
	assert.Equal(t, "1 2 + 3 *", before)

	for i := 0; i < 5; i++ {
		v, err := r.Resolve("(1+2)*3", true)
		require.NoError(t, err)
		assert.Equal(t, int64(9), v)
		assert.Equal(t, before, r.RPN())
	}

	v, err := r.Repeat()
	require.NoError(t, err)
	assert.Equal(t, int64(9), v)
}

func TestResolve_RepeatBeforeParse(t *testing.T) {
	r := rpn.NewResolver()
	_, err := r.Resolve("1+1", true)
	assert.ErrorIs(t, err, rpn.ErrNotParsed)
	_, err = r.Repeat()
	assert.ErrorIs(t, err, rpn.ErrNotParsed)
	assert.Nil(t, r.Expression())
	assert.Equal(t, "", r.RPN())
}

func TestResolve_RepeatDifferentExpression(t *testing.T) {
	r := rpn.NewResolver()
	resolve(t, r, "1+1")
	_, err := r.Resolve("2+2", true)
	assert.ErrorIs(t, err, rpn.ErrRepeatMismatch)
}

func TestResolve_EvaluationFailureKeepsCache(t *testing.T) {
	r := rpn.NewResolver()
	resolve(t, r, "6*7")
	_, err := r.Resolve("1/0", false)
	require.ErrorIs(t, err, rpn.ErrDivisionByZero)
	assert.Equal(t, "6 7 *", r.RPN())

	_, err = r.Resolve("1/0", true)
	assert.ErrorIs(t, err, rpn.ErrRepeatMismatch)

	fresh := rpn.NewResolver()
	_, err = fresh.Resolve("1/0", false)
	require.Error(t, err)
	assert.Nil(t, fresh.Expression())
}

func TestResolve_OverflowIsNeverLenient(t *testing.T) {
	r := rpn.NewResolver(rpn.WithLenient())
	for _, expr := range []string{
		"9223372036854775807+1",
		"0-9223372036854775807-2",
		"4611686018427387904*2",
		"(0-9223372036854775807-1)/(0-1)",
	} {
		_, err := r.Resolve(expr, false)
		assert.ErrorIs(t, err, rpn.ErrOverflow, expr)
	}
}

func TestResolve_FailureKeepsCache(t *testing.T) {
	r := rpn.NewResolver()
	resolve(t, r, "6*7")
	_, err := r.Resolve("(6*7", false)
	require.Error(t, err)
	assert.Equal(t, "6 7 *", r.RPN())

	v, err := r.Resolve("6*7", true)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	// Evaluation failures also leave the evaluator reusable.
	_, err = r.Resolve("1/0", false)
	require.Error(t, err)
	assert.Equal(t, int64(3), resolve(t, r, "1+2"))
}

func TestResolve_HookIsAdditive(t *testing.T) {
	var seen []string
	hook := rpn.HookFunc(func(left, right int64, op string) (int64, error) {
		seen = append(seen, op)
		if op == "+" {
			return 100, nil
		}
		return 0, nil
	})
	r := rpn.NewResolver(rpn.WithHook(hook))
	assert.Equal(t, int64(107), resolve(t, r, "1+2*3"))
	assert.Equal(t, []string{"*", "+"}, seen)
}

func TestResolve_HookOnlyOperator(t *testing.T) {
	ops := rpn.DefaultOperators().MustWith(map[string]int{"m": 60})
	hook := rpn.HookFunc(func(left, right int64, op string) (int64, error) {
		if op != "m" {
			return 0, nil
		}
		if left > right {
			return left, nil
		}
		return right, nil
	})
	r := rpn.NewResolver(rpn.WithOperators(ops), rpn.WithHook(hook))
	assert.Equal(t, int64(9), resolve(t, r, "3m9"))
	assert.Equal(t, int64(14), resolve(t, r, "2*3m7"))
}

func TestResolve_HookErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	r := rpn.NewResolver(rpn.WithLenient(), rpn.WithHook(rpn.HookFunc(func(int64, int64, string) (int64, error) {
		return 0, boom
	})))
	_, err := r.Resolve("1+1", false)
	assert.ErrorIs(t, err, boom)
	var ee *rpn.EvalError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "+", ee.Op)
}

func TestResolver_TwoStepAPI(t *testing.T) {
	r := rpn.NewResolver()
	e, err := r.Parse("4*5")
	require.NoError(t, err)
	v, err := r.Evaluate(e)
	require.NoError(t, err)
	assert.Equal(t, int64(20), v)
	assert.Nil(t, r.Expression(), "Parse must not populate the cache")
}

// Property: deterministic expressions resolve identically on every call.
func TestProperty_DeterministicWithoutHook(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(0, 50).Draw(rt, "a")
		b := rapid.IntRange(1, 50).Draw(rt, "b")
		c := rapid.IntRange(0, 6).Draw(rt, "c")
		op1 := rapid.SampledFrom([]string{"+", "-", "*", "/", "%", "C"}).Draw(rt, "op1")
		op2 := rapid.SampledFrom([]string{"+", "-", "*"}).Draw(rt, "op2")
		expr := rpn.Lit(int64(a)).String() + op1 + "(" + rpn.Lit(int64(b)).String() + op2 + rpn.Lit(int64(c)).String() + "!)"

		r := rpn.NewResolver()
		first, err1 := r.Resolve(expr, false)
		second, err2 := r.Resolve(expr, false)
		assert.Equal(rt, err1 == nil, err2 == nil)
		assert.Equal(rt, first, second)
	})
}

// Property: + and * agree with Go arithmetic for small operands.
func TestProperty_ArithmeticMatchesGo(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.Int64Range(0, 10000).Draw(rt, "a")
		b := rapid.Int64Range(0, 10000).Draw(rt, "b")
		c := rapid.Int64Range(1, 10000).Draw(rt, "c")
		expr := rpn.Lit(a).String() + "+" + rpn.Lit(b).String() + "*" + rpn.Lit(c).String()
		v, err := rpn.NewResolver().Resolve(expr, false)
		require.NoError(rt, err)
		assert.Equal(rt, a+b*c, v)
	})
}
