package flight

import (
	"errors"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/dataskip-go"
	"github.com/hugr-lab/dataskip-go/expr"
)

// DoExchange implements the pruning exchange.
//
// Protocol:
//   - gRPC headers carry the operation (OperationHeader, must be
//     OperationPrune) and the base64 msgpack PruneRequest
//     (RequestHeader) with the predicate and table schema.
//   - The client streams file-action record batches; the server prunes
//     each one and streams back the surviving rows, preserving batch
//     boundaries. Fully pruned batches come back with zero rows so the
//     client always receives one response per input batch.
//
// A predicate with no usable data-skipping form degrades to
// pass-through: every batch is returned unfiltered. Evaluation
// failures abort the stream with InvalidArgument; transport and arrow
// failures with Internal.
func (s *Server) DoExchange(stream flight.FlightService_DoExchangeServer) error {
	ctx := stream.Context()

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Errorf(codes.InvalidArgument, "missing metadata")
	}

	operation := md.Get(OperationHeader)
	if len(operation) == 0 {
		return status.Errorf(codes.InvalidArgument, "missing %s header", OperationHeader)
	}
	if operation[0] != OperationPrune {
		return status.Errorf(codes.InvalidArgument, "invalid %s: %s (expected %s)",
			OperationHeader, operation[0], OperationPrune)
	}

	requestHeader := md.Get(RequestHeader)
	if len(requestHeader) == 0 {
		return status.Errorf(codes.InvalidArgument, "missing %s header", RequestHeader)
	}
	req, err := DecodePruneRequest(requestHeader[0])
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid prune request: %v", err)
	}

	pred, usable, err := req.DecodePredicate()
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid predicate payload: %v", err)
	}
	tableSchema, err := req.TableSchema(s.allocator)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid table schema payload: %v", err)
	}

	if usable {
		s.logger.Debug("prune exchange requested", "predicate", pred.String())
	} else {
		s.logger.Debug("prune exchange requested with no usable predicate, passing batches through")
	}

	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(s.allocator))
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return status.Errorf(codes.Internal, "failed to create record reader: %v", err)
	}
	defer reader.Release()

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(reader.Schema()), ipc.WithAllocator(s.allocator))
	defer writer.Close()

	for reader.Next() {
		batch := reader.RecordBatch()

		if !usable {
			if err := writer.Write(batch); err != nil {
				return status.Errorf(codes.Internal, "failed to write batch: %v", err)
			}
			continue
		}

		if err := s.pruneAndSend(stream, writer, batch, tableSchema, pred); err != nil {
			return err
		}
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return status.Errorf(codes.Internal, "error reading file actions: %v", err)
	}
	return nil
}

func (s *Server) pruneAndSend(stream flight.FlightService_DoExchangeServer, writer *flight.Writer, batch arrow.RecordBatch, tableSchema *arrow.Schema, pred expr.Expression) error {
	pruned, err := s.pruner.PruneFiles(stream.Context(), batch, tableSchema, pred)
	if err != nil {
		if errors.Is(err, dataskip.ErrMissingStatsPayload) ||
			errors.Is(err, dataskip.ErrMissingStatsColumn) ||
			errors.Is(err, dataskip.ErrStatsColumnType) {
			return status.Errorf(codes.InvalidArgument, "pruning failed: %v", err)
		}
		return status.Errorf(codes.Internal, "pruning failed: %v", err)
	}
	defer pruned.Release()

	if err := writer.Write(pruned); err != nil {
		return status.Errorf(codes.Internal, "failed to write pruned batch: %v", err)
	}
	return nil
}
