package rpn

import "math"

// Calculate applies the base integer arithmetic for op.
//
// Operators the base calculator does not know contribute 0 so a Hook result
// passes through unaltered.
//
// Postcondition: returns ErrDivisionByZero for a zero divisor of / or %, and
// ErrOverflow whenever a result leaves the int64 range.
func Calculate(left, right int64, op string) (int64, error) {
	switch op {
	case "+":
		return AddChecked(left, right)
	case "-":
		return subChecked(left, right)
	case "*":
		if v, ok := mulChecked(left, right); ok {
			return v, nil
		}
		return 0, ErrOverflow
	case "/":
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		if left == math.MinInt64 && right == -1 {
			return 0, ErrOverflow
		}
		return left / right, nil
	case "%":
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return left % right, nil
	case "^":
		return Pow(left, right)
	case "!":
		return Factorial(left)
	case "C", "c":
		return Choose(left, right)
	default:
		return 0, nil
	}
}

// Factorial returns x!. The factorial of a negative number is 1.
func Factorial(x int64) (int64, error) {
	product := int64(1)
	for ; x > 1; x-- {
		if product > math.MaxInt64/x {
			return 0, ErrOverflow
		}
		product *= x
	}
	return product, nil
}

// Choose returns the binomial coefficient n!/(r!(n-r)!), or 0 when n < r or
// r < 0. It multiplies and divides incrementally so intermediate values stay
// far below n!.
func Choose(n, r int64) (int64, error) {
	if n < r || r < 0 {
		return 0, nil
	}
	if r > n-r {
		r = n - r
	}
	result := int64(1)
	for i := int64(1); i <= r; i++ {
		// result*(n-r+i) is divisible by i at every step; once the common
		// factor g is removed, i/g divides n-r+i.
		g := gcd(result, i)
		a, f := result/g, (n-r+i)/(i/g)
		if f > math.MaxInt64/a {
			return 0, ErrOverflow
		}
		result = a * f
	}
	return result, nil
}

// Pow returns base^exp using exact integer exponentiation by squaring.
//
// A negative exponent truncates the rational result toward zero: 1 for base 1,
// ±1 for base -1, 0 otherwise; 0 raised to a negative power is
// ErrDivisionByZero.
func Pow(base, exp int64) (int64, error) {
	if exp < 0 {
		switch base {
		case 0:
			return 0, ErrDivisionByZero
		case 1:
			return 1, nil
		case -1:
			if exp%2 == 0 {
				return 1, nil
			}
			return -1, nil
		default:
			return 0, nil
		}
	}

	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			r, ok := mulChecked(result, base)
			if !ok {
				return 0, ErrOverflow
			}
			result = r
		}
		exp >>= 1
		if exp > 0 {
			b, ok := mulChecked(base, base)
			if !ok {
				return 0, ErrOverflow
			}
			base = b
		}
	}
	return result, nil
}

// AddChecked returns a+b, or ErrOverflow when the sum leaves the int64 range.
func AddChecked(a, b int64) (int64, error) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, ErrOverflow
	}
	return c, nil
}

func subChecked(a, b int64) (int64, error) {
	c := a - b
	if (b > 0 && c > a) || (b < 0 && c < a) {
		return 0, ErrOverflow
	}
	return c, nil
}

func mulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return c, true
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
