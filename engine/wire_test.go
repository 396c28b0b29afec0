package engine

import (
	"testing"

	"github.com/hugr-lab/dataskip-go/expr"
)

func roundTrip(t *testing.T, e expr.Expression) expr.Expression {
	t.Helper()
	payload, err := EncodePredicate(e)
	if err != nil {
		t.Fatalf("EncodePredicate(%s): %v", e, err)
	}
	decoded, ok, err := DecodePredicate(payload)
	if err != nil {
		t.Fatalf("DecodePredicate(%s): %v", e, err)
	}
	if !ok {
		t.Fatalf("DecodePredicate(%s): no usable predicate", e)
	}
	return decoded
}

func TestPredicateRoundTrip(t *testing.T) {
	preds := []expr.Expression{
		expr.Lt(expr.NewColumn("x"), expr.NewLiteral(expr.Long(10))),
		expr.Eq(expr.NewColumn("s"), expr.NewLiteral(expr.String("foo"))),
		expr.GtEq(expr.NewColumn("x"), expr.NewLiteral(expr.Integer(2))),
		expr.Not(expr.IsNull(expr.NewColumn("x"))),
		expr.Or(
			expr.Gt(expr.NewColumn("x"), expr.NewLiteral(expr.Long(2))),
			expr.Lt(expr.NewColumn("x"), expr.NewLiteral(expr.Long(10))),
		),
		expr.And(
			expr.And(
				expr.GtEq(expr.NewColumn("x"), expr.NewLiteral(expr.Long(2))),
				expr.LtEq(expr.NewColumn("x"), expr.NewLiteral(expr.Long(10))),
			),
			expr.Eq(expr.NewColumn("y"), expr.NewLiteral(expr.Long(7))),
		),
	}
	for _, pred := range preds {
		decoded := roundTrip(t, pred)
		if decoded.String() != pred.String() {
			t.Errorf("round trip changed %s into %s", pred, decoded)
		}
	}
}

func TestDecodePredicateRejectsGarbage(t *testing.T) {
	if _, _, err := DecodePredicate([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestDecodePredicateUnknownKindDegradesSoftly(t *testing.T) {
	_, ok := BuildPredicate(PredicateFunc(func(s *ExpressionState) Handle {
		return buildNode(s, wireNode{Kind: 99})
	}))
	if ok {
		t.Fatal("unknown node kind must yield no predicate")
	}
}

func TestAndChainFlattensOnTheWire(t *testing.T) {
	pred := expr.And(
		expr.And(
			expr.GtEq(expr.NewColumn("x"), expr.NewLiteral(expr.Long(2))),
			expr.LtEq(expr.NewColumn("x"), expr.NewLiteral(expr.Long(10))),
		),
		expr.Eq(expr.NewColumn("y"), expr.NewLiteral(expr.Long(7))),
	)

	node, err := encodeNode(pred)
	if err != nil {
		t.Fatalf("encodeNode: %v", err)
	}
	if node.Kind != wireAnd {
		t.Fatalf("kind = %d, want variadic AND", node.Kind)
	}
	if len(node.Children) != 3 {
		t.Fatalf("children = %d, want 3 flattened conjuncts", len(node.Children))
	}
}
