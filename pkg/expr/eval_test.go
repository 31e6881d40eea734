package expr

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalNodes(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want float64
	}{
		{"num", &NumNode{Value: 2.5}, 2.5},
		{"negative", &NegativeNode{Operand: &NumNode{Value: 3}}, -3},
		{"add", &BinaryNode{Op: TokenAdd, Left: &NumNode{Value: 1}, Right: &NumNode{Value: 2}}, 3},
		{"subtract", &BinaryNode{Op: TokenSubtract, Left: &NumNode{Value: 1}, Right: &NumNode{Value: 2}}, -1},
		{"multiply", &BinaryNode{Op: TokenMultiply, Left: &NumNode{Value: 4}, Right: &NumNode{Value: 2}}, 8},
		{"divide", &BinaryNode{Op: TokenDivide, Left: &NumNode{Value: 1}, Right: &NumNode{Value: 4}}, 0.25},
		{"caret", &BinaryNode{Op: TokenCaret, Left: &NumNode{Value: 9}, Right: &NumNode{Value: 0.5}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalFloatingPointSemantics(t *testing.T) {
	tests := []struct {
		input string
		check func(float64) bool
	}{
		{"1/0", func(v float64) bool { return math.IsInf(v, 1) }},
		{"-1/0", func(v float64) bool { return math.IsInf(v, -1) }},
		{"0/0", math.IsNaN},
		{"(-8)^(1/3)", math.IsNaN},
		{"0^-1", func(v float64) bool { return math.IsInf(v, 1) }},
		{"2^0.5", func(v float64) bool { return v == math.Sqrt2 }},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Evaluate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.check(got), "got %v", got)
		})
	}
}

type bogusNode struct{}

func (bogusNode) nodeType() string { return "Bogus" }
func (bogusNode) String() string   { return "bogus" }

func TestEvalUnknownNode(t *testing.T) {
	_, err := Eval(bogusNode{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnableToParse))

	_, err = Eval(nil)
	assert.True(t, errors.Is(err, ErrUnableToParse))

	_, err = Eval(&BinaryNode{Op: TokenLParen, Left: &NumNode{Value: 1}, Right: &NumNode{Value: 1}})
	assert.True(t, errors.Is(err, ErrUnableToParse))

	// Failures deep in the tree propagate unchanged.
	_, err = Eval(&NegativeNode{Operand: &BinaryNode{Op: TokenAdd, Left: &NumNode{}, Right: bogusNode{}}})
	assert.EqualError(t, err, "Error in evaluating: unsupported expression node type: expr.bogusNode")
}

func TestFormatResult(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{5, "5"},
		{-5, "-5"},
		{0.5, "0.5"},
		{1e21, "1000000000000000000000"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatResult(tt.in))
		})
	}
}
