package rpn

import (
	"strconv"
	"strings"
)

// TokenKind distinguishes literals from operators.
type TokenKind uint8

const (
	// Literal is an integer operand.
	Literal TokenKind = iota + 1
	// Operator is an operator symbol from the OperatorTable.
	Operator
)

// Token is one element of an RPN sequence.
type Token struct {
	Kind  TokenKind
	Value int64  // set when Kind == Literal
	Op    string // set when Kind == Operator
}

// Lit returns a literal token.
func Lit(v int64) Token { return Token{Kind: Literal, Value: v} }

// Op returns an operator token.
func Op(op string) Token { return Token{Kind: Operator, Op: op} }

// String renders the token as it appears in diagnostic RPN output.
func (t Token) String() string {
	if t.Kind == Literal {
		return strconv.FormatInt(t.Value, 10)
	}
	return t.Op
}

// Expression is a parsed RPN sequence. It is immutable and safe to share
// between goroutines; each Evaluator keeps its own operand stack.
type Expression struct {
	source string
	tokens []Token
}

// NewExpression builds an Expression directly from postfix tokens.
func NewExpression(source string, tokens []Token) *Expression {
	cp := make([]Token, len(tokens))
	copy(cp, tokens)
	return &Expression{source: source, tokens: cp}
}

// Source returns the infix text the expression was parsed from.
func (e *Expression) Source() string { return e.source }

// Len returns the number of tokens.
func (e *Expression) Len() int { return len(e.tokens) }

// Tokens returns a copy of the RPN sequence.
func (e *Expression) Tokens() []Token {
	cp := make([]Token, len(e.tokens))
	copy(cp, e.tokens)
	return cp
}

// String returns the space-separated RPN rendering, e.g. "1 2 3 * +".
func (e *Expression) String() string {
	parts := make([]string, len(e.tokens))
	for i, t := range e.tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
