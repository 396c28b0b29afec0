package dataskip

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/dataskip-go/expr"
)

// StatsColumn is the name of the per-file statistics payload column a
// file-action batch must carry for pruning: a string column holding one
// JSON object per file (null or empty when statistics are unavailable).
const StatsColumn = "stats"

// Pruner filters file-action batches using per-file column statistics.
// It is the scan-side consumer of compiled skip plans: it assembles the
// statistics batch, evaluates the plan, and drops the file rows that
// provably contain no matching data.
type Pruner struct {
	mem    memory.Allocator
	logger *slog.Logger
}

// NewPruner creates a Pruner from the given configuration. All Config
// fields are optional.
func NewPruner(cfg Config) *Pruner {
	return &Pruner{
		mem:    cfg.AllocatorOrDefault(),
		logger: cfg.LoggerOrDefault(),
	}
}

// PruneFiles filters a batch of file actions against a row predicate.
//
// The actions batch must carry a StatsColumn string column with per-file
// statistics JSON; tableSchema describes the logical table the predicate
// refers to. Rows whose statistics prove the predicate cannot match are
// dropped; rows with absent or inconclusive statistics are kept.
//
// When no statistics-only predicate can be derived from pred, pruning is
// skipped and the input batch is returned retained. That is a diagnostic
// condition, not an error.
//
// Evaluation failures (missing statistics column, incompatible stored
// type) are returned as errors and abort the scan of this batch: they are
// reported distinctly from a successfully pruned empty result.
//
// The returned batch is owned by the caller.
func (p *Pruner) PruneFiles(ctx context.Context, actions arrow.RecordBatch, tableSchema *arrow.Schema, pred expr.Expression) (arrow.RecordBatch, error) {
	plan, ok := Compile(pred)
	if !ok {
		p.logger.Debug("predicate has no data-skipping form, keeping all files",
			"predicate", pred.String(),
			"files", actions.NumRows(),
		)
		actions.Retain()
		return actions, nil
	}

	stats, err := p.statsFromActions(actions, tableSchema, pred)
	if err != nil {
		return nil, err
	}
	defer stats.Release()

	raw, err := plan.Eval(p.mem, stats)
	if err != nil {
		return nil, fmt.Errorf("evaluating skip plan: %w", err)
	}
	defer raw.Release()

	mask := KeepMask(p.mem, raw)
	defer mask.Release()

	opts := compute.FilterOptions{NullSelection: compute.SelectionDropNulls}
	filtered, err := compute.FilterRecordBatch(ctx, actions, mask, &opts)
	if err != nil {
		return nil, fmt.Errorf("filtering file actions: %w", err)
	}

	p.logger.Debug("pruned file actions",
		"predicate", pred.String(),
		"files_before", actions.NumRows(),
		"files_after", filtered.NumRows(),
	)
	return filtered, nil
}

// statsFromActions extracts the per-file statistics JSON column and parses
// it into a statistics batch restricted to the predicate's references.
func (p *Pruner) statsFromActions(actions arrow.RecordBatch, tableSchema *arrow.Schema, pred expr.Expression) (arrow.RecordBatch, error) {
	indices := actions.Schema().FieldIndices(StatsColumn)
	if len(indices) == 0 {
		return nil, ErrMissingStatsPayload
	}
	column, ok := actions.Column(indices[0]).(*array.String)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s, expected string",
			ErrMissingStatsPayload, StatsColumn, actions.Column(indices[0]).DataType())
	}

	payloads := make([]string, column.Len())
	for i := 0; i < column.Len(); i++ {
		if column.IsNull(i) {
			continue
		}
		payloads[i] = column.Value(i)
	}

	statsSchema := StatsSchema(tableSchema, expr.References(pred))
	return StatsRecordFromJSON(p.mem, statsSchema, payloads)
}
