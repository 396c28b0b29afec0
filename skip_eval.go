package dataskip

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/dataskip-go/expr"
)

// Evaluation errors. These are hard failures: the statistics batch exists
// but cannot answer the compiled plan. They are reported to the caller
// distinctly from "zero files kept".
var (
	// ErrMissingStatsColumn indicates a referenced column is absent from
	// the statistics batch.
	ErrMissingStatsColumn = errors.New("statistics column not found")

	// ErrStatsColumnType indicates a statistics column exists but its
	// stored type is incompatible with the predicate literal.
	ErrStatsColumnType = errors.New("incompatible statistics column type")
)

func (p *andPlan) Eval(mem memory.Allocator, stats arrow.RecordBatch) (*array.Boolean, error) {
	left, err := p.left.Eval(mem, stats)
	if err != nil {
		return nil, err
	}
	defer left.Release()

	right, err := p.right.Eval(mem, stats)
	if err != nil {
		return nil, err
	}
	defer right.Release()

	return kleeneCombine(mem, left, right, func(l, r kleene) kleene {
		switch {
		case l == kleeneFalse || r == kleeneFalse:
			return kleeneFalse
		case l == kleeneNull || r == kleeneNull:
			return kleeneNull
		default:
			return kleeneTrue
		}
	})
}

func (p *orPlan) Eval(mem memory.Allocator, stats arrow.RecordBatch) (*array.Boolean, error) {
	left, err := p.left.Eval(mem, stats)
	if err != nil {
		return nil, err
	}
	defer left.Release()

	right, err := p.right.Eval(mem, stats)
	if err != nil {
		return nil, err
	}
	defer right.Release()

	return kleeneCombine(mem, left, right, func(l, r kleene) kleene {
		switch {
		case l == kleeneTrue || r == kleeneTrue:
			return kleeneTrue
		case l == kleeneNull || r == kleeneNull:
			return kleeneNull
		default:
			return kleeneFalse
		}
	})
}

func (p *comparePlan) Eval(mem memory.Allocator, stats arrow.RecordBatch) (*array.Boolean, error) {
	bounds, err := statsStruct(stats, p.bound.column())
	if err != nil {
		return nil, err
	}

	structType := bounds.DataType().(*arrow.StructType)
	idx, ok := structType.FieldIdx(p.column)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingStatsColumn, p.bound.column(), p.column)
	}
	values := bounds.Field(idx)

	var (
		valueAt func(int) int64
		isNull  func(int) bool
	)
	switch p.literal.Kind() {
	case expr.KindInteger:
		arr, ok := values.(*array.Int32)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s is %s, predicate literal is integer",
				ErrStatsColumnType, p.bound.column(), p.column, values.DataType())
		}
		valueAt = func(i int) int64 { return int64(arr.Value(i)) }
		isNull = arr.IsNull
	case expr.KindLong:
		arr, ok := values.(*array.Int64)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s is %s, predicate literal is long",
				ErrStatsColumnType, p.bound.column(), p.column, values.DataType())
		}
		valueAt = arr.Value
		isNull = arr.IsNull
	default:
		return nil, fmt.Errorf("%w: unsupported literal kind %s", ErrStatsColumnType, p.literal.Kind())
	}

	literal := literalInt64(p.literal)

	b := array.NewBooleanBuilder(mem)
	defer b.Release()

	rows := int(stats.NumRows())
	for i := 0; i < rows; i++ {
		// A file without statistics shows up as a null struct row; its
		// comparison result is unknown, not false.
		if bounds.IsNull(i) || isNull(i) {
			b.AppendNull()
			continue
		}
		b.Append(compareInt64(p.op, valueAt(i), literal))
	}
	return b.NewBooleanArray(), nil
}

// KeepMask coerces a raw three-valued mask into the final pruning mask:
// a file is excluded only when the raw result is definitely false. Null
// entries mean "unknown, do not exclude" and become true.
//
// The returned mask has no nulls and is owned by the caller.
func KeepMask(mem memory.Allocator, raw *array.Boolean) *array.Boolean {
	b := array.NewBooleanBuilder(mem)
	defer b.Release()

	for i := 0; i < raw.Len(); i++ {
		b.Append(!(raw.IsValid(i) && !raw.Value(i)))
	}
	return b.NewBooleanArray()
}

type kleene int

const (
	kleeneFalse kleene = iota
	kleeneTrue
	kleeneNull
)

func kleeneOf(arr *array.Boolean, i int) kleene {
	switch {
	case arr.IsNull(i):
		return kleeneNull
	case arr.Value(i):
		return kleeneTrue
	default:
		return kleeneFalse
	}
}

func kleeneCombine(mem memory.Allocator, left, right *array.Boolean, combine func(l, r kleene) kleene) (*array.Boolean, error) {
	if left.Len() != right.Len() {
		return nil, fmt.Errorf("mask length mismatch: %d != %d", left.Len(), right.Len())
	}

	b := array.NewBooleanBuilder(mem)
	defer b.Release()

	for i := 0; i < left.Len(); i++ {
		switch combine(kleeneOf(left, i), kleeneOf(right, i)) {
		case kleeneTrue:
			b.Append(true)
		case kleeneFalse:
			b.Append(false)
		default:
			b.AppendNull()
		}
	}
	return b.NewBooleanArray(), nil
}

func statsStruct(stats arrow.RecordBatch, name string) (*array.Struct, error) {
	indices := stats.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingStatsColumn, name)
	}
	column := stats.Column(indices[0])
	st, ok := column.(*array.Struct)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s, expected struct", ErrStatsColumnType, name, column.DataType())
	}
	return st, nil
}

func literalInt64(s expr.Scalar) int64 {
	switch v := s.(type) {
	case expr.Integer:
		return int64(v)
	case expr.Long:
		return int64(v)
	default:
		return 0
	}
}

func compareInt64(op expr.BinaryOperator, value, literal int64) bool {
	switch op {
	case expr.OpLessThan:
		return value < literal
	case expr.OpLessThanOrEqual:
		return value <= literal
	case expr.OpGreaterThan:
		return value > literal
	case expr.OpGreaterThanOrEqual:
		return value >= literal
	default:
		return false
	}
}
