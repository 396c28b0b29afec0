package engine

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/hugr-lab/dataskip-go/expr"
	"github.com/hugr-lab/dataskip-go/internal/serialize"
)

// Wire node kinds. Values are part of the wire format and must not be
// renumbered.
const (
	wireColumn  = 1
	wireLiteral = 2
	wireBinary  = 3
	wireUnary   = 4
	wireAnd     = 5
)

// Wire scalar kinds.
const (
	wireInteger = 1
	wireLong    = 2
	wireString  = 3
)

// wireNode is the msgpack form of one expression node. AND chains are
// flattened into a single variadic node so the decoder exercises the
// variadic builder.
type wireNode struct {
	Kind     int        `msgpack:"k"`
	Name     string     `msgpack:"n,omitempty"`
	Scalar   int        `msgpack:"s,omitempty"`
	Int      int64      `msgpack:"i,omitempty"`
	Str      string     `msgpack:"t,omitempty"`
	Op       int        `msgpack:"o,omitempty"`
	Children []wireNode `msgpack:"c,omitempty"`
}

// EncodePredicate serializes an expression tree into the compressed
// envelope format used across the Flight boundary.
func EncodePredicate(e expr.Expression) ([]byte, error) {
	node, err := encodeNode(e)
	if err != nil {
		return nil, err
	}
	raw, err := msgpack.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("encoding predicate: %w", err)
	}
	return serialize.Pack(raw)
}

func encodeNode(e expr.Expression) (wireNode, error) {
	switch n := e.(type) {
	case *expr.Column:
		return wireNode{Kind: wireColumn, Name: n.Name}, nil
	case *expr.Literal:
		return encodeLiteral(n)
	case *expr.UnaryOp:
		child, err := encodeNode(n.Operand)
		if err != nil {
			return wireNode{}, err
		}
		return wireNode{Kind: wireUnary, Op: int(n.Op), Children: []wireNode{child}}, nil
	case *expr.BinaryOp:
		if n.Op == expr.OpAnd {
			return encodeAnd(n)
		}
		left, err := encodeNode(n.Left)
		if err != nil {
			return wireNode{}, err
		}
		right, err := encodeNode(n.Right)
		if err != nil {
			return wireNode{}, err
		}
		return wireNode{Kind: wireBinary, Op: int(n.Op), Children: []wireNode{left, right}}, nil
	default:
		return wireNode{}, fmt.Errorf("encoding predicate: unsupported node %T", e)
	}
}

// encodeAnd flattens a left-associated AND chain into one variadic
// node, matching the shape the And builder reconstructs.
func encodeAnd(root *expr.BinaryOp) (wireNode, error) {
	var conjuncts []expr.Expression
	var flatten func(e expr.Expression)
	flatten = func(e expr.Expression) {
		if b, ok := e.(*expr.BinaryOp); ok && b.Op == expr.OpAnd {
			flatten(b.Left)
			flatten(b.Right)
			return
		}
		conjuncts = append(conjuncts, e)
	}
	flatten(root)

	children := make([]wireNode, 0, len(conjuncts))
	for _, c := range conjuncts {
		node, err := encodeNode(c)
		if err != nil {
			return wireNode{}, err
		}
		children = append(children, node)
	}
	return wireNode{Kind: wireAnd, Children: children}, nil
}

func encodeLiteral(lit *expr.Literal) (wireNode, error) {
	switch v := lit.Value.(type) {
	case expr.Integer:
		return wireNode{Kind: wireLiteral, Scalar: wireInteger, Int: int64(v)}, nil
	case expr.Long:
		return wireNode{Kind: wireLiteral, Scalar: wireLong, Int: int64(v)}, nil
	case expr.String:
		return wireNode{Kind: wireLiteral, Scalar: wireString, Str: string(v)}, nil
	default:
		return wireNode{}, fmt.Errorf("encoding predicate: unsupported scalar %s", lit.Value.Kind())
	}
}

// DecodePredicate deserializes an encoded predicate and rebuilds the
// expression through the construction protocol, so wire input gets the
// same handle discipline as an in-process caller. A nil error with a
// false second result means the payload decoded but contained no
// usable predicate (unknown node kinds degrade softly).
func DecodePredicate(payload []byte) (expr.Expression, bool, error) {
	raw, err := serialize.Unpack(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decoding predicate: %w", err)
	}
	var root wireNode
	if err := msgpack.Unmarshal(raw, &root); err != nil {
		return nil, false, fmt.Errorf("decoding predicate: %w", err)
	}

	e, ok := BuildPredicate(PredicateFunc(func(state *ExpressionState) Handle {
		return buildNode(state, root)
	}))
	return e, ok, nil
}

func buildNode(state *ExpressionState, node wireNode) Handle {
	switch node.Kind {
	case wireColumn:
		return state.Column(node.Name)
	case wireLiteral:
		switch node.Scalar {
		case wireInteger:
			return state.LiteralInteger(int32(node.Int))
		case wireLong:
			return state.LiteralLong(node.Int)
		case wireString:
			return state.LiteralString(node.Str)
		default:
			return InvalidHandle
		}
	case wireUnary:
		if len(node.Children) != 1 {
			return InvalidHandle
		}
		return state.Unary(expr.UnaryOperator(node.Op), buildNode(state, node.Children[0]))
	case wireBinary:
		if len(node.Children) != 2 {
			return InvalidHandle
		}
		left := buildNode(state, node.Children[0])
		right := buildNode(state, node.Children[1])
		return state.Binary(expr.BinaryOperator(node.Op), left, right)
	case wireAnd:
		handles := make([]Handle, 0, len(node.Children))
		for _, child := range node.Children {
			handles = append(handles, buildNode(state, child))
		}
		return state.And(NewHandleSlice(handles))
	default:
		return InvalidHandle
	}
}
