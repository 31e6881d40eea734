package expr

import (
	"math"
	"strconv"
)

// Eval reduces an AST to a single value. Arithmetic follows IEEE 754:
// division by zero gives ±Inf or NaN and Caret uses math.Pow, so a negative
// base with a fractional exponent yields NaN. Eval only fails for nodes the
// parser never produces.
func Eval(node Node) (float64, error) {
	switch n := node.(type) {
	case *NumNode:
		return n.Value, nil
	case *NegativeNode:
		v, err := Eval(n.Operand)
		if err != nil {
			return 0, err
		}
		return -v, nil
	case *BinaryNode:
		return evalBinary(n)
	case nil:
		return 0, newUnableToParse("unable to evaluate an empty expression")
	default:
		return 0, newUnableToParse("unsupported expression node type: %T", node)
	}
}

func evalBinary(n *BinaryNode) (float64, error) {
	left, err := Eval(n.Left)
	if err != nil {
		return 0, err
	}
	right, err := Eval(n.Right)
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case TokenAdd:
		return left + right, nil
	case TokenSubtract:
		return left - right, nil
	case TokenMultiply:
		return left * right, nil
	case TokenDivide:
		return left / right, nil
	case TokenCaret:
		return math.Pow(left, right), nil
	default:
		return 0, newUnableToParse("unsupported binary operator: %s", n.Op)
	}
}

// Evaluate strips whitespace from line, parses it and evaluates the result.
// The first error from any stage is returned as a *ParseError.
func Evaluate(line string) (float64, error) {
	node, err := ParseExpression(line)
	if err != nil {
		return 0, err
	}
	return Eval(node)
}

// FormatResult renders a result for display: integral values without a
// fraction, and inf, -inf or NaN for the non-finite values.
func FormatResult(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}
