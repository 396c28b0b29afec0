package dataskip

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/dataskip-go/expr"
)

// Names of the two top-level struct columns every statistics batch carries.
const (
	MinValuesColumn = "minValues"
	MaxValuesColumn = "maxValues"
)

// SkipPlan is a compiled data-skipping predicate: a deferred computation
// that, evaluated against a statistics batch, yields one keep/exclude
// entry per file row.
//
// A plan is immutable after Compile and may be evaluated any number of
// times against different statistics batches; it captures no batch state.
type SkipPlan interface {
	// Eval produces the raw three-valued mask for the batch: true means
	// the file may contain matching rows, false means it provably cannot,
	// and a null entry means the statistics were absent or inconclusive.
	// Callers must coerce nulls with KeepMask before pruning.
	//
	// Eval returns an error when a referenced statistics column is missing
	// from the batch or its stored type is incompatible with the predicate
	// literal. The returned mask is owned by the caller (Release it).
	Eval(mem memory.Allocator, stats arrow.RecordBatch) (*array.Boolean, error)

	planMarker()
}

// Compile derives a conservative file-pruning plan from a row predicate.
//
// The second return value reports whether any statistics-only predicate
// could be derived at all. A false result is not an error: it means the
// predicate has no convertible shape and every file must be read.
//
// Structural rules, chosen so that pruning never discards a file that
// could match:
//
//   - AND: if both sides compile they are combined; if only one side
//     compiles the result is that side alone (dropping an unprovable
//     conjunct only widens the keep-set); if neither compiles, nothing.
//   - OR: both sides must compile. Dropping one disjunct would make the
//     plan stricter than the row predicate and could wrongly exclude a
//     matching file.
//   - column OP literal with OP one of < <= > >= =: compiled against the
//     minValues/maxValues statistics per compileComparison. The literal
//     must be an Integer or Long; other literal kinds, other operators,
//     and any other operand shape are not convertible.
func Compile(pred expr.Expression) (SkipPlan, bool) {
	switch e := pred.(type) {
	case *expr.BinaryOp:
		switch e.Op {
		case expr.OpAnd:
			left, lok := Compile(e.Left)
			right, rok := Compile(e.Right)
			switch {
			case lok && rok:
				return &andPlan{left: left, right: right}, true
			case lok:
				return left, true
			case rok:
				return right, true
			default:
				return nil, false
			}
		case expr.OpOr:
			left, lok := Compile(e.Left)
			right, rok := Compile(e.Right)
			if !lok || !rok {
				return nil, false
			}
			return &orPlan{left: left, right: right}, true
		default:
			return compileComparison(e)
		}
	default:
		return nil, false
	}
}

// statBound selects which statistics struct a comparison reads.
type statBound int

const (
	boundMin statBound = iota
	boundMax
)

func (b statBound) column() string {
	if b == boundMin {
		return MinValuesColumn
	}
	return MaxValuesColumn
}

// andPlan combines two sub-plans with Kleene AND.
type andPlan struct {
	left, right SkipPlan
}

// orPlan combines two sub-plans with Kleene OR.
type orPlan struct {
	left, right SkipPlan
}

// comparePlan compares one statistics column against a literal.
type comparePlan struct {
	column  string
	bound   statBound
	op      expr.BinaryOperator
	literal expr.Scalar
}

func (*andPlan) planMarker()     {}
func (*orPlan) planMarker()      {}
func (*comparePlan) planMarker() {}

// compileComparison translates column OP literal into statistics bounds:
//
//	<, <=  compare against minValues
//	>, >=  compare against maxValues
//	=      minValues <= literal AND maxValues >= literal
//
// Everything else is not convertible. Column resolution is single-level:
// dotted paths are treated as opaque names and will simply not resolve.
func compileComparison(e *expr.BinaryOp) (SkipPlan, bool) {
	column, ok := e.Left.(*expr.Column)
	if !ok {
		return nil, false
	}
	literal, ok := e.Right.(*expr.Literal)
	if !ok {
		return nil, false
	}
	switch literal.Value.Kind() {
	case expr.KindInteger, expr.KindLong:
	default:
		// Only integer-typed statistics are extracted today.
		return nil, false
	}

	compare := func(bound statBound, op expr.BinaryOperator) *comparePlan {
		return &comparePlan{
			column:  column.Name,
			bound:   bound,
			op:      op,
			literal: literal.Value,
		}
	}

	switch e.Op {
	case expr.OpLessThan, expr.OpLessThanOrEqual:
		return compare(boundMin, e.Op), true
	case expr.OpGreaterThan, expr.OpGreaterThanOrEqual:
		return compare(boundMax, e.Op), true
	case expr.OpEqual:
		return &andPlan{
			left:  compare(boundMin, expr.OpLessThanOrEqual),
			right: compare(boundMax, expr.OpGreaterThanOrEqual),
		}, true
	default:
		return nil, false
	}
}
