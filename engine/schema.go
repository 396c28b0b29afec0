package engine

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/dataskip-go/internal/recovery"
)

// SchemaVisitor receives a schema field by field so the caller can
// build its own representation without seeing arrow types. L is the
// caller's field-list type, owned and freed by the caller.
//
// Field names passed to the callbacks must not be retained past the
// call if the caller bridges them into non-Go memory.
type SchemaVisitor[L any] interface {
	// MakeFieldList allocates an empty list with capacity for reserve
	// fields.
	MakeFieldList(reserve int) L

	// FreeFieldList releases a list that will not be returned. It is
	// only called when traversal fails partway.
	FreeFieldList(list L)

	// VisitStruct appends a struct field whose children were already
	// collected into their own list. Ownership of children transfers to
	// the caller.
	VisitStruct(siblings L, name string, children L)

	// VisitString appends a string field.
	VisitString(siblings L, name string)

	// VisitInteger appends a 32-bit integer field.
	VisitInteger(siblings L, name string)

	// VisitLong appends a 64-bit integer field.
	VisitLong(siblings L, name string)
}

// VisitSchema walks the schema in declaration order and drives the
// visitor's callbacks, returning the top-level field list.
//
// Only int32, int64, string, and nested struct fields are dispatched;
// fields of any other type are skipped with a Warn diagnostic. A panic
// in a visitor callback is recovered: every list built so far that was
// not yet handed over is freed through FreeFieldList, and the panic is
// reported as an error.
func VisitSchema[L any](schema *arrow.Schema, v SchemaVisitor[L], logger *slog.Logger) (L, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &schemaDriver[L]{visitor: v, logger: logger}

	return recovery.RecoverToValue(logger, "schema traversal", func() (L, error) {
		defer func() {
			if r := recover(); r != nil {
				d.freeOpen()
				panic(r)
			}
		}()

		root := d.visitFields(schema.Fields())
		d.open = nil
		return root, nil
	})
}

type schemaDriver[L any] struct {
	visitor SchemaVisitor[L]
	logger  *slog.Logger

	// open tracks lists whose ownership has not yet transferred to the
	// caller, innermost last.
	open []L
}

func (d *schemaDriver[L]) visitFields(fields []arrow.Field) L {
	list := d.visitor.MakeFieldList(len(fields))
	d.open = append(d.open, list)
	for _, field := range fields {
		d.visitField(list, field)
	}
	return list
}

func (d *schemaDriver[L]) visitField(siblings L, field arrow.Field) {
	switch t := field.Type.(type) {
	case *arrow.StructType:
		children := d.visitFields(t.Fields())
		d.visitor.VisitStruct(siblings, field.Name, children)
		// children now belongs to the caller.
		d.open = d.open[:len(d.open)-1]
	default:
		switch field.Type.ID() {
		case arrow.INT32:
			d.visitor.VisitInteger(siblings, field.Name)
		case arrow.INT64:
			d.visitor.VisitLong(siblings, field.Name)
		case arrow.STRING:
			d.visitor.VisitString(siblings, field.Name)
		default:
			d.logger.Warn("skipping unsupported schema field",
				"field", field.Name,
				"type", field.Type.String(),
			)
		}
	}
}

func (d *schemaDriver[L]) freeOpen() {
	for i := len(d.open) - 1; i >= 0; i-- {
		d.visitor.FreeFieldList(d.open[i])
	}
	d.open = nil
}
