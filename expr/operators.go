package expr

// BinaryOperator identifies a binary operation in an expression tree.
type BinaryOperator int

const (
	// Logical
	OpAnd BinaryOperator = iota
	OpOr
	// Arithmetic
	OpPlus
	OpMinus
	OpMultiply
	OpDivide
	// Comparison
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpEqual
	OpNotEqual
)

// String returns the canonical display token for the operator.
func (op BinaryOperator) String() string {
	switch op {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpLessThan:
		return "<"
	case OpLessThanOrEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterThanOrEqual:
		return ">="
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	default:
		return "UNKNOWN"
	}
}

// UnaryOperator identifies a unary operation in an expression tree.
type UnaryOperator int

const (
	OpNot UnaryOperator = iota
	OpIsNull
)

// String returns the canonical display token for the operator.
func (op UnaryOperator) String() string {
	switch op {
	case OpNot:
		return "NOT"
	case OpIsNull:
		return "IS NULL"
	default:
		return "UNKNOWN"
	}
}
