// Package dataskip implements the predicate and statistics core of a
// table-format storage engine: row-level filter expressions, a compiler
// that turns them into conservative file-pruning predicates over per-file
// min/max column statistics, and a handle-based protocol that lets
// externally memory-managed engines build expressions and walk schemas
// without sharing ownership.
//
// The package is organized as:
//
//   - expr: scalar literals, operators, and immutable expression trees
//   - dataskip (this package): the data-skipping compiler and the Pruner
//     that applies compiled plans to file-action batches
//   - engine: the cross-boundary construction protocol and schema visitor
//   - flight: an Arrow Flight service exposing pruning to remote engines
//
// # Data skipping
//
// A statistics batch is an Arrow record with two nested struct columns,
// minValues and maxValues, one row per file. Compile derives a SkipPlan
// from a predicate; the plan is conservative: files it excludes provably
// contain no matching rows, while files with missing or inconclusive
// statistics are always kept.
//
//	pred := expr.Lt(expr.NewColumn("x"), expr.NewLiteral(expr.Long(10)))
//	plan, ok := dataskip.Compile(pred)
//	if ok {
//	    raw, err := plan.Eval(mem, statsBatch)
//	    ...
//	}
//
// Pruner wraps the full flow: it builds the statistics batch from per-file
// JSON payloads carried by the file-action batch, evaluates the plan, and
// filters the actions, logging file counts before and after.
//
// # Soft versus hard failure
//
// A predicate with no statistics-only form is not an error: Compile
// reports it with a false second result and the caller reads every file.
// Errors are reserved for evaluation: a referenced statistics column that
// is missing or carries an incompatible stored type.
package dataskip
