package rpn

import (
	"errors"
	"strconv"

	"github.com/edwingeng/deque"
)

// pending is an entry on the conversion stack.
type pending struct {
	op  string
	pos int
}

// Parse converts an infix expression to RPN using the shunting-yard algorithm.
//
// Digits accumulate into literals. Operators found in ops pop every stacked
// operator of greater or equal precedence, so all operators, ^ included,
// associate to the left. A '-' where an operand is expected and whose next
// significant character is a digit is folded into that literal as its sign.
// Characters that are neither digits, brackets nor operators are ignored.
//
// Postcondition: returns an immutable Expression, or a *ParseError wrapping
// ErrUnmatchedClose, ErrUnmatchedOpen or ErrLiteralRange.
func Parse(expr string, ops OperatorTable) (*Expression, error) {
	var (
		out           []Token
		stack         = deque.NewDeque()
		numStart      = -1
		negative      bool
		expectOperand = true
	)

	flush := func(end int) error {
		if numStart < 0 {
			return nil
		}
		text := expr[numStart:end]
		if negative {
			text = "-" + text
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return &ParseError{Expr: expr, Pos: numStart, Err: ErrLiteralRange}
			}
			return &ParseError{Expr: expr, Pos: numStart, Err: err}
		}
		out = append(out, Lit(v))
		numStart = -1
		negative = false
		return nil
	}

	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if isDigit(c) {
			if numStart < 0 {
				numStart = i
			}
			expectOperand = false
			continue
		}
		if err := flush(i); err != nil {
			return nil, err
		}

		sym := string(c)
		switch {
		case c == '(':
			stack.PushBack(pending{op: Bracket, pos: i})
			expectOperand = true

		case c == ')':
			found := false
			for !stack.Empty() {
				top := stack.PopBack().(pending)
				if top.op == Bracket {
					found = true
					break
				}
				out = append(out, Op(top.op))
			}
			if !found {
				return nil, &ParseError{Expr: expr, Pos: i, Err: ErrUnmatchedClose}
			}
			expectOperand = false

		case ops.IsOperator(sym):
			if c == '-' && expectOperand && signedLiteralFollows(expr, i+1, ops) {
				negative = true
				continue
			}
			prec, _ := ops.Precedence(sym)
			for !stack.Empty() {
				top := stack.Back().(pending)
				topPrec, _ := ops.Precedence(top.op)
				if topPrec < prec {
					break
				}
				stack.PopBack()
				out = append(out, Op(top.op))
			}
			stack.PushBack(pending{op: sym, pos: i})
			expectOperand = sym != "!"
		}
	}

	if err := flush(len(expr)); err != nil {
		return nil, err
	}
	for !stack.Empty() {
		top := stack.PopBack().(pending)
		if top.op == Bracket {
			return nil, &ParseError{Expr: expr, Pos: top.pos, Err: ErrUnmatchedOpen}
		}
		out = append(out, Op(top.op))
	}

	return &Expression{source: expr, tokens: out}, nil
}

// signedLiteralFollows reports whether the next character of expr from i that
// the converter does not ignore is a digit.
func signedLiteralFollows(expr string, i int, ops OperatorTable) bool {
	for ; i < len(expr); i++ {
		c := expr[i]
		switch {
		case isDigit(c):
			return true
		case c == '(' || c == ')' || ops.IsOperator(string(c)):
			return false
		}
	}
	return false
}
