package expr

import (
	"errors"
	"strings"
	"unicode"
)

// MaxNesting bounds how deeply parentheses and unary minus may nest.
const MaxNesting = 10000

// Parser is a precedence-climbing recursive descent parser. It holds one
// token of lookahead, refilled from the lexer on demand.
type Parser struct {
	lexer   *Lexer
	current Token
	depth   int
}

// NewParser creates a parser over input and pulls the first token. Empty
// input has no expression and fails with InvalidOperator.
func NewParser(input string) (*Parser, error) {
	p := &Parser{lexer: NewLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.current.Type == TokenEOF {
		return nil, newInvalidOperator("empty expression")
	}
	return p, nil
}

// Parse parses the whole input into an AST. Tokens left over after a
// complete expression, as in "2)" or "2(3)", are rejected.
func (p *Parser) Parse() (Node, error) {
	node, err := p.generateAST(PrecDefaultZero)
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, newInvalidOperator("unexpected %s at position %d", p.current, p.current.Pos)
	}
	return node, nil
}

// advance pulls the next token into current.
func (p *Parser) advance() error {
	tok, ok, err := p.lexer.Next()
	if err != nil {
		var lexErr *LexError
		if errors.As(err, &lexErr) {
			return &ParseError{Kind: InvalidOperator, Detail: lexErr.Error(), Err: lexErr}
		}
		return &ParseError{Kind: InvalidOperator, Detail: err.Error(), Err: err}
	}
	if !ok {
		return newInvalidOperator("no more tokens")
	}
	p.current = tok
	return nil
}

// expect consumes a token of the expected type or returns an error.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return newInvalidOperator("expected %s, got %s", tt, p.current)
	}
	return p.advance()
}

// generateAST parses a primary and then folds in every binary operator that
// binds tighter than minPrec. Each right-hand side is parsed at the
// operator's own precedence, so chains of equal precedence fold left:
// 2^3^2 is (2^3)^2.
func (p *Parser) generateAST(minPrec Precedence) (Node, error) {
	left, err := p.parseNumber()
	if err != nil {
		return nil, err
	}

	for minPrec < p.current.Type.Precedence() {
		if p.current.Type == TokenEOF {
			break
		}
		left, err = p.parseBinary(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

// parseBinary consumes the current operator and parses its right operand.
func (p *Parser) parseBinary(left Node) (Node, error) {
	op := p.current.Type
	switch op {
	case TokenAdd, TokenSubtract, TokenMultiply, TokenDivide, TokenCaret:
	default:
		return nil, newInvalidOperator("please enter a valid operator, got %s", p.current)
	}

	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.generateAST(op.Precedence())
	if err != nil {
		return nil, err
	}
	return &BinaryNode{Op: op, Left: left, Right: right}, nil
}

// parseNumber parses a primary: a number, a negation or a parenthesized
// group.
func (p *Parser) parseNumber() (Node, error) {
	tok := p.current

	if tok.Type == TokenSubtract || tok.Type == TokenLParen {
		p.depth++
		defer func() { p.depth-- }()
		if p.depth > MaxNesting {
			return nil, newInvalidOperator("expression nested deeper than %d levels at position %d", MaxNesting, tok.Pos)
		}
	}

	switch tok.Type {
	case TokenSubtract:
		if err := p.advance(); err != nil {
			return nil, err
		}
		// Negative binds tighter than every binary operator: -2^2 is (-2)^2.
		operand, err := p.generateAST(PrecNegative)
		if err != nil {
			return nil, err
		}
		return &NegativeNode{Operand: operand}, nil
	case TokenNum:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &NumNode{Value: tok.Value}, nil
	case TokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.generateAST(PrecDefaultZero)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		// (a)(b) is implicit multiplication.
		if p.current.Type == TokenLParen {
			right, err := p.generateAST(PrecMulDiv)
			if err != nil {
				return nil, err
			}
			return &BinaryNode{Op: TokenMultiply, Left: inner, Right: right}, nil
		}
		return inner, nil
	case TokenEOF:
		return nil, newUnableToParse("unable to parse: unexpected end of expression")
	default:
		return nil, newInvalidOperator("unexpected %q at position %d, expected a number or '('", tok.Type.Symbol(), tok.Pos)
	}
}

// ParseExpression strips all whitespace from line and parses it.
func ParseExpression(line string) (Node, error) {
	p, err := NewParser(stripWhitespace(line))
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
