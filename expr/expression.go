package expr

import "fmt"

// Expression is an immutable tree of operators, column references, and
// literal values representing a boolean or value-producing formula.
//
// Expressions carry no type information beyond the kind of their literals.
// Column existence and operand type compatibility are the responsibility of
// whatever evaluates the expression against a schema, not of the tree.
//
// The closed set of implementations is Literal, Column, BinaryOp, and
// UnaryOp. Every non-leaf node exclusively owns its children: combinators
// always allocate a new root and never mutate or share subtrees.
type Expression interface {
	// String renders the expression for display. The output is lossy and
	// not guaranteed to round-trip through a parser: only OR is
	// parenthesized, every other operator renders bare infix.
	String() string

	expressionMarker()
}

// Literal is a scalar literal leaf.
type Literal struct {
	Value Scalar
}

// Column is a reference to a column by name. Only single-level names are
// meaningful to the data-skipping compiler; dotted paths are not resolved.
type Column struct {
	Name string
}

// BinaryOp applies a binary operator to two subtrees.
type BinaryOp struct {
	Op    BinaryOperator
	Left  Expression
	Right Expression
}

// UnaryOp applies a unary operator to one subtree.
type UnaryOp struct {
	Op      UnaryOperator
	Operand Expression
}

func (*Literal) expressionMarker()  {}
func (*Column) expressionMarker()   {}
func (*BinaryOp) expressionMarker() {}
func (*UnaryOp) expressionMarker()  {}

// NewColumn creates a column reference.
func NewColumn(name string) *Column { return &Column{Name: name} }

// NewLiteral creates a literal leaf from a scalar value.
func NewLiteral(value Scalar) *Literal { return &Literal{Value: value} }

// Binary combines two expressions under the given operator, taking
// ownership of both operands.
func Binary(op BinaryOperator, left, right Expression) *BinaryOp {
	return &BinaryOp{Op: op, Left: left, Right: right}
}

// Unary wraps an expression under the given unary operator.
func Unary(op UnaryOperator, operand Expression) *UnaryOp {
	return &UnaryOp{Op: op, Operand: operand}
}

// Eq creates the comparison left = right.
func Eq(left, right Expression) *BinaryOp { return Binary(OpEqual, left, right) }

// Ne creates the comparison left != right.
func Ne(left, right Expression) *BinaryOp { return Binary(OpNotEqual, left, right) }

// Lt creates the comparison left < right.
func Lt(left, right Expression) *BinaryOp { return Binary(OpLessThan, left, right) }

// LtEq creates the comparison left <= right.
func LtEq(left, right Expression) *BinaryOp { return Binary(OpLessThanOrEqual, left, right) }

// Gt creates the comparison left > right.
func Gt(left, right Expression) *BinaryOp { return Binary(OpGreaterThan, left, right) }

// GtEq creates the comparison left >= right.
func GtEq(left, right Expression) *BinaryOp { return Binary(OpGreaterThanOrEqual, left, right) }

// And creates the conjunction left AND right.
func And(left, right Expression) *BinaryOp { return Binary(OpAnd, left, right) }

// Or creates the disjunction left OR right.
func Or(left, right Expression) *BinaryOp { return Binary(OpOr, left, right) }

// Add creates the arithmetic expression left + right.
func Add(left, right Expression) *BinaryOp { return Binary(OpPlus, left, right) }

// Sub creates the arithmetic expression left - right.
func Sub(left, right Expression) *BinaryOp { return Binary(OpMinus, left, right) }

// Mul creates the arithmetic expression left * right.
func Mul(left, right Expression) *BinaryOp { return Binary(OpMultiply, left, right) }

// Div creates the arithmetic expression left / right.
func Div(left, right Expression) *BinaryOp { return Binary(OpDivide, left, right) }

// Not negates an expression.
func Not(operand Expression) *UnaryOp { return Unary(OpNot, operand) }

// IsNull creates the test operand IS NULL.
func IsNull(operand Expression) *UnaryOp { return Unary(OpIsNull, operand) }

func (e *Literal) String() string { return e.Value.String() }

func (e *Column) String() string { return fmt.Sprintf("Column(%s)", e.Name) }

func (e *BinaryOp) String() string {
	if e.Op == OpOr {
		// OR is the only operator rendered with parentheses.
		return fmt.Sprintf("(%s OR %s)", e.Left, e.Right)
	}
	return fmt.Sprintf("%s %s %s", e.Left, e.Op, e.Right)
}

func (e *UnaryOp) String() string {
	switch e.Op {
	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", e.Operand)
	default:
		return fmt.Sprintf("NOT %s", e.Operand)
	}
}

// References returns the distinct column names reachable from the
// expression. The result is deduplicated and its order is unspecified.
//
// The traversal uses an explicit work stack so arbitrarily deep trees
// cannot overflow the call stack.
func References(e Expression) []string {
	var names []string
	seen := make(map[string]struct{})

	stack := []Expression{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := cur.(type) {
		case *Column:
			if _, ok := seen[n.Name]; !ok {
				seen[n.Name] = struct{}{}
				names = append(names, n.Name)
			}
		case *BinaryOp:
			stack = append(stack, n.Left, n.Right)
		case *UnaryOp:
			stack = append(stack, n.Operand)
		}
	}
	return names
}
