package expr

import (
	"errors"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes an arithmetic expression one token at a time. It is
// finite and cannot be restarted: after the EOF token every call to Next
// reports exhaustion.
type Lexer struct {
	input string
	pos   int
	done  bool
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token. ok is false once the EOF token has already
// been returned. Whitespace between tokens is skipped.
func (l *Lexer) Next() (tok Token, ok bool, err error) {
	if l.done {
		return Token{}, false, nil
	}

	l.skipWhitespace()

	if l.pos >= len(l.input) {
		l.done = true
		return Token{Type: TokenEOF, Pos: l.pos}, true, nil
	}

	ch := l.input[l.pos]

	if isDigit(ch) {
		tok, err := l.readNumber()
		if err != nil {
			return Token{}, false, err
		}
		return tok, true, nil
	}

	var tt TokenType
	switch ch {
	case '+':
		tt = TokenAdd
	case '-':
		tt = TokenSubtract
	case '*':
		tt = TokenMultiply
	case '/':
		tt = TokenDivide
	case '^':
		tt = TokenCaret
	case '(':
		tt = TokenLParen
	case ')':
		tt = TokenRParen
	default:
		r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
		return Token{}, false, &LexError{Text: string(r), Pos: l.pos}
	}
	l.pos++
	return Token{Type: tt, Pos: l.pos - 1}, true, nil
}

// Tokenize drains the lexer and returns all remaining tokens, EOF included.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, ok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// readNumber reads a maximal run of digits and decimal points. The run must
// be a valid float literal, so "1.2.3" is rejected rather than split.
func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.pos++
	}

	raw := l.input[start:l.pos]
	f, err := strconv.ParseFloat(raw, 64)
	// Out-of-range literals saturate to Inf like any other float overflow.
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Token{}, &LexError{Text: raw, Pos: start, Number: true}
	}
	return Token{Type: TokenNum, Value: f, Pos: start}, nil
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += size
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
