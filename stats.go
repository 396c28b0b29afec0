package dataskip

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// nullStatsRow stands in for a file whose statistics payload is absent or
// empty. It parses to null minValues/maxValues struct rows, which the
// evaluator treats as "unknown, keep the file".
const nullStatsRow = `{"minValues":null,"maxValues":null}`

// StatsSchema builds the Arrow schema of a statistics batch for the given
// table schema, restricted to the referenced column names. The result has
// exactly two nullable struct columns, minValues and maxValues, whose
// fields mirror the referenced subset of the table schema.
func StatsSchema(tableSchema *arrow.Schema, references []string) *arrow.Schema {
	referenced := make(map[string]struct{}, len(references))
	for _, name := range references {
		referenced[name] = struct{}{}
	}

	var fields []arrow.Field
	for _, field := range tableSchema.Fields() {
		if _, ok := referenced[field.Name]; ok {
			fields = append(fields, arrow.Field{Name: field.Name, Type: field.Type, Nullable: true})
		}
	}

	bounds := arrow.StructOf(fields...)
	return arrow.NewSchema([]arrow.Field{
		{Name: MinValuesColumn, Type: bounds, Nullable: true},
		{Name: MaxValuesColumn, Type: bounds, Nullable: true},
	}, nil)
}

// StatsRecordFromJSON assembles a statistics batch from per-file JSON
// payloads, one payload per file row. Each payload is an object with
// minValues/maxValues keys; an empty payload yields a null struct row
// (the file had no usable statistics and will never be pruned).
//
// The returned batch is owned by the caller.
func StatsRecordFromJSON(mem memory.Allocator, statsSchema *arrow.Schema, payloads []string) (arrow.RecordBatch, error) {
	rows := make([]string, len(payloads))
	for i, payload := range payloads {
		if payload == "" {
			rows[i] = nullStatsRow
			continue
		}
		rows[i] = payload
	}

	doc := "[" + strings.Join(rows, ",") + "]"
	record, _, err := array.RecordFromJSON(mem, statsSchema, strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parsing file statistics: %w", err)
	}
	if record.NumRows() != int64(len(payloads)) {
		record.Release()
		return nil, fmt.Errorf("parsing file statistics: expected %d rows, got %d", len(payloads), record.NumRows())
	}
	return record, nil
}
