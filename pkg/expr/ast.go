package expr

import (
	"strconv"

	"github.com/alecthomas/repr"
)

// Node is the interface for all expression AST nodes. Trees are built once
// by the parser and never mutated afterwards.
type Node interface {
	nodeType() string
	// String renders the subtree as an s-expression, e.g. (+ 2 (* 3 4)).
	String() string
}

// NumNode is a number literal.
type NumNode struct {
	Value float64
}

func (n *NumNode) nodeType() string { return "Num" }

func (n *NumNode) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// BinaryNode is one of Add, Subtract, Multiply, Divide or Caret.
type BinaryNode struct {
	Op    TokenType
	Left  Node
	Right Node
}

func (n *BinaryNode) nodeType() string { return n.Op.String() }

func (n *BinaryNode) String() string {
	return "(" + n.Op.Symbol() + " " + n.Left.String() + " " + n.Right.String() + ")"
}

// NegativeNode is unary minus.
type NegativeNode struct {
	Operand Node
}

func (n *NegativeNode) nodeType() string { return "Negative" }

func (n *NegativeNode) String() string {
	return "(neg " + n.Operand.String() + ")"
}

// NodeType returns the variant name of a node: Num, Add, Subtract,
// Multiply, Divide, Caret or Negative.
func NodeType(n Node) string {
	if n == nil {
		return ""
	}
	return n.nodeType()
}

// Dump renders the full tree structure for diagnostics.
func Dump(n Node) string {
	return repr.String(n, repr.Indent("  "), repr.OmitEmpty(false))
}
