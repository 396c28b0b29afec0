package engine

import (
	"log/slog"

	"github.com/hugr-lab/dataskip-go/expr"
	"github.com/hugr-lab/dataskip-go/internal/recovery"
)

// ExpressionState is the call-scoped registry an external engine builds
// a predicate against. Builder calls are side-effect-only: each returns
// a Handle into the state, and binary/variadic builders consume their
// input handles.
//
// A state serves exactly one BuildPredicate invocation. It is not safe
// for concurrent or re-entrant use; that is a documented contract, not
// an enforced one.
type ExpressionState struct {
	exprs *handleSet[expr.Expression]
}

func newExpressionState() *ExpressionState {
	return &ExpressionState{exprs: newHandleSet[expr.Expression]()}
}

// Column registers a column reference leaf.
func (s *ExpressionState) Column(name string) Handle {
	return s.exprs.insert(expr.NewColumn(name))
}

// LiteralString registers a string literal leaf.
func (s *ExpressionState) LiteralString(v string) Handle {
	return s.exprs.insert(expr.NewLiteral(expr.String(v)))
}

// LiteralInteger registers a 32-bit integer literal leaf.
func (s *ExpressionState) LiteralInteger(v int32) Handle {
	return s.exprs.insert(expr.NewLiteral(expr.Integer(v)))
}

// LiteralLong registers a 64-bit integer literal leaf.
func (s *ExpressionState) LiteralLong(v int64) Handle {
	return s.exprs.insert(expr.NewLiteral(expr.Long(v)))
}

// Binary consumes both input handles and registers the combined node.
// If either input is absent (invalid, already consumed, or never
// issued) the result is InvalidHandle. Inputs are single-use: a
// consumed handle stays consumed even when the other side is absent.
func (s *ExpressionState) Binary(op expr.BinaryOperator, a, b Handle) Handle {
	left, okLeft := s.exprs.take(a)
	right, okRight := s.exprs.take(b)
	if !okLeft || !okRight {
		return InvalidHandle
	}
	return s.exprs.insert(expr.Binary(op, left, right))
}

// Unary consumes the input handle and registers the wrapped node.
func (s *ExpressionState) Unary(op expr.UnaryOperator, a Handle) Handle {
	operand, ok := s.exprs.take(a)
	if !ok {
		return InvalidHandle
	}
	return s.exprs.insert(expr.Unary(op, operand))
}

// LessThan registers left < right.
func (s *ExpressionState) LessThan(a, b Handle) Handle {
	return s.Binary(expr.OpLessThan, a, b)
}

// LessThanOrEqual registers left <= right.
func (s *ExpressionState) LessThanOrEqual(a, b Handle) Handle {
	return s.Binary(expr.OpLessThanOrEqual, a, b)
}

// GreaterThan registers left > right.
func (s *ExpressionState) GreaterThan(a, b Handle) Handle {
	return s.Binary(expr.OpGreaterThan, a, b)
}

// GreaterThanOrEqual registers left >= right.
func (s *ExpressionState) GreaterThanOrEqual(a, b Handle) Handle {
	return s.Binary(expr.OpGreaterThanOrEqual, a, b)
}

// Equal registers left = right.
func (s *ExpressionState) Equal(a, b Handle) Handle {
	return s.Binary(expr.OpEqual, a, b)
}

// NotEqual registers left != right.
func (s *ExpressionState) NotEqual(a, b Handle) Handle {
	return s.Binary(expr.OpNotEqual, a, b)
}

// Not registers the negation of the operand.
func (s *ExpressionState) Not(a Handle) Handle {
	return s.Unary(expr.OpNot, a)
}

// IsNull registers the null test of the operand.
func (s *ExpressionState) IsNull(a Handle) Handle {
	return s.Unary(expr.OpIsNull, a)
}

// HandleIterator is the pull-sequence the variadic And builder drains.
// Next reports the next child handle and whether one was produced.
type HandleIterator interface {
	Next() (Handle, bool)
}

// HandleSlice adapts a fixed handle list to a HandleIterator.
type HandleSlice struct {
	handles []Handle
	pos     int
}

// NewHandleSlice creates an iterator over the given handles.
func NewHandleSlice(handles []Handle) *HandleSlice {
	return &HandleSlice{handles: handles}
}

func (it *HandleSlice) Next() (Handle, bool) {
	if it.pos >= len(it.handles) {
		return InvalidHandle, false
	}
	h := it.handles[it.pos]
	it.pos++
	return h, true
}

// And drains the iterator and conjoins the children it resolves.
// Children that fail to resolve are skipped, not fatal. Zero valid
// children produce InvalidHandle; one valid child is returned without a
// wrapping node; two or more fold into a left-associated AND chain in
// sequence order.
func (s *ExpressionState) And(it HandleIterator) Handle {
	var acc expr.Expression
	for {
		h, more := it.Next()
		if !more {
			break
		}
		child, ok := s.exprs.take(h)
		if !ok {
			continue
		}
		if acc == nil {
			acc = child
			continue
		}
		acc = expr.And(acc, child)
	}
	if acc == nil {
		return InvalidHandle
	}
	return s.exprs.insert(acc)
}

// Predicate is the caller's side of the construction protocol: Visit
// walks the caller's native predicate representation, issuing builder
// calls against the state, and returns the root handle (InvalidHandle
// when no usable predicate could be assembled).
type Predicate interface {
	Visit(state *ExpressionState) Handle
}

// PredicateFunc adapts a plain function to the Predicate interface.
type PredicateFunc func(state *ExpressionState) Handle

func (f PredicateFunc) Visit(state *ExpressionState) Handle { return f(state) }

// BuildPredicate runs the construction protocol: it creates a fresh
// call-scoped state, invokes the caller's Visit, and takes the root
// handle out of the state. A false result means no usable predicate was
// produced: the root handle was invalid, never issued, already
// consumed, or the callback panicked (the panic is recovered and
// logged, never propagated).
func BuildPredicate(p Predicate) (expr.Expression, bool) {
	state := newExpressionState()
	root, err := recovery.RecoverToValue(slog.Default(), "predicate visit", func() (Handle, error) {
		return p.Visit(state), nil
	})
	if err != nil {
		return nil, false
	}

	e, ok := state.exprs.take(root)
	if !ok {
		return nil, false
	}
	return e, true
}
