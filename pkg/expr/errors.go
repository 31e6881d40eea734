package expr

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	// InvalidOperator: an operator, parenthesis or token sequence is
	// syntactically unexpected, including premature end of input.
	InvalidOperator ErrorKind = iota + 1
	// UnableToParse: a token cannot start or complete a sub-expression, or
	// evaluation could not be completed.
	UnableToParse
)

// String returns the machine-readable reason used by the HTTP and gRPC
// surfaces.
func (k ErrorKind) String() string {
	switch k {
	case InvalidOperator:
		return "INVALID_OPERATOR"
	case UnableToParse:
		return "UNABLE_TO_PARSE"
	default:
		return "UNKNOWN"
	}
}

// KindFromString is the inverse of ErrorKind.String. It returns 0 for
// unknown reasons.
func KindFromString(s string) ErrorKind {
	switch s {
	case "INVALID_OPERATOR":
		return InvalidOperator
	case "UNABLE_TO_PARSE":
		return UnableToParse
	default:
		return 0
	}
}

// Sentinels for errors.Is. A *ParseError matches the sentinel of its kind.
var (
	ErrInvalidOperator = &ParseError{Kind: InvalidOperator}
	ErrUnableToParse   = &ParseError{Kind: UnableToParse}
)

// ParseError is the single error type returned by parsing and evaluation.
type ParseError struct {
	Kind   ErrorKind
	Detail string
	Err    error // underlying cause, e.g. a *LexError
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	switch e.Kind {
	case UnableToParse:
		return "Error in evaluating: " + e.Detail
	default:
		return "Invalid operator: " + e.Detail
	}
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *ParseError of the same kind. A target
// with a detail only matches the exact detail.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Detail == "" || t.Detail == e.Detail
}

func newInvalidOperator(format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: InvalidOperator, Detail: fmt.Sprintf(format, args...)}
}

func newUnableToParse(format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: UnableToParse, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a *ParseError anywhere in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// LexError indicates a character or literal the lexer cannot tokenize.
type LexError struct {
	// Text is the offending character, or the whole literal for numbers.
	Text string
	// Pos is the byte offset of Text in the input.
	Pos int
	// Number is set when Text looked like a number but did not parse.
	Number bool
}

func (err *LexError) Error() string {
	pos := "position " + strconv.Itoa(err.Pos)
	if err.Number {
		return "invalid number " + strconv.Quote(err.Text) + " at " + pos
	}
	return "unexpected character " + strconv.Quote(err.Text) + " at " + pos
}
