// Package expr provides the expression value model for predicate pushdown:
// typed scalar literals, a closed set of binary and unary operators, and
// immutable expression trees built from combinators.
//
// Expressions are display-only formulas. The package performs no type
// checking; validating an expression against a schema is the job of the
// component that evaluates it (for file pruning, the dataskip compiler).
//
// Build predicates with the package-level combinators:
//
//	pred := expr.And(
//	    expr.GtEq(expr.NewColumn("x"), expr.NewLiteral(expr.Integer(2))),
//	    expr.LtEq(expr.NewColumn("x"), expr.NewLiteral(expr.Integer(10))),
//	)
//	fmt.Println(pred) // Column(x) >= 2 AND Column(x) <= 10
package expr
