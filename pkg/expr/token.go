// Package expr implements the arithmetic expression tokenizer, parser and
// evaluator. It handles numbers, + - * / ^, unary minus, parentheses and
// implicit multiplication between adjacent parenthesized groups.
//
// A complete expression must consume the whole input: trailing tokens such
// as the ")" in "2)" or the "(3)" in "2(3)" are rejected with
// InvalidOperator rather than silently ignored. Implicit multiplication
// only applies between two parenthesized groups, as in "(2)(3)".
//
// Nesting of parentheses and unary minus is limited to MaxNesting levels so
// that hostile input fails with an error instead of exhausting the stack.
package expr

import "strconv"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenAdd      TokenType = iota // +
	TokenSubtract                  // -
	TokenMultiply                  // *
	TokenDivide                    // /
	TokenCaret                     // ^
	TokenLParen                    // (
	TokenRParen                    // )
	TokenNum                       // number literal
	TokenEOF                       // end of expression
)

// Token represents a single lexical token.
type Token struct {
	Type  TokenType
	Value float64 // parsed number (for TokenNum)
	Pos   int     // byte offset in source
}

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenAdd:
		return "Add"
	case TokenSubtract:
		return "Subtract"
	case TokenMultiply:
		return "Multiply"
	case TokenDivide:
		return "Divide"
	case TokenCaret:
		return "Caret"
	case TokenLParen:
		return "LeftParen"
	case TokenRParen:
		return "RightParen"
	case TokenNum:
		return "Num"
	case TokenEOF:
		return "EOF"
	default:
		return "Unknown"
	}
}

// Symbol returns the source text of an operator or parenthesis token type.
func (t TokenType) Symbol() string {
	switch t {
	case TokenAdd:
		return "+"
	case TokenSubtract:
		return "-"
	case TokenMultiply:
		return "*"
	case TokenDivide:
		return "/"
	case TokenCaret:
		return "^"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	default:
		return ""
	}
}

func (t Token) String() string {
	if t.Type == TokenNum {
		return "Num(" + strconv.FormatFloat(t.Value, 'f', -1, 64) + ")"
	}
	return t.Type.String()
}

// Precedence is the binding strength of an operator. Values are strictly
// ordered; a higher value binds tighter.
type Precedence int

const (
	PrecDefaultZero Precedence = iota
	PrecAddSub
	PrecMulDiv
	PrecPower
	PrecNegative
)

func (p Precedence) String() string {
	switch p {
	case PrecDefaultZero:
		return "DefaultZero"
	case PrecAddSub:
		return "AddSub"
	case PrecMulDiv:
		return "MulDiv"
	case PrecPower:
		return "Power"
	case PrecNegative:
		return "Negative"
	default:
		return "Precedence(" + strconv.Itoa(int(p)) + ")"
	}
}

// Precedence returns the binary-operator precedence of the token type.
// Non-operators report PrecDefaultZero, which ends any operator loop.
func (t TokenType) Precedence() Precedence {
	switch t {
	case TokenAdd, TokenSubtract:
		return PrecAddSub
	case TokenMultiply, TokenDivide:
		return PrecMulDiv
	case TokenCaret:
		return PrecPower
	default:
		return PrecDefaultZero
	}
}
