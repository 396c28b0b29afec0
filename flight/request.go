package flight

import (
	"encoding/base64"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/hugr-lab/dataskip-go/engine"
	"github.com/hugr-lab/dataskip-go/expr"
)

// gRPC metadata headers the pruning exchange protocol uses.
const (
	// OperationHeader selects the exchange operation.
	OperationHeader = "dataskip-operation"

	// RequestHeader carries the base64-encoded msgpack PruneRequest.
	RequestHeader = "dataskip-request"

	// OperationPrune is the only operation currently defined.
	OperationPrune = "prune"
)

// PruneRequest is the out-of-band half of a pruning exchange: the
// serialized predicate and the IPC-serialized table schema the
// predicate refers to. The file-action batches themselves travel as
// the stream body.
type PruneRequest struct {
	Predicate []byte `msgpack:"predicate"`
	Schema    []byte `msgpack:"schema"`
}

// NewPruneRequest builds a request from a predicate and the logical
// table schema.
func NewPruneRequest(pred expr.Expression, tableSchema *arrow.Schema, mem memory.Allocator) (*PruneRequest, error) {
	payload, err := engine.EncodePredicate(pred)
	if err != nil {
		return nil, err
	}
	return &PruneRequest{
		Predicate: payload,
		Schema:    flight.SerializeSchema(tableSchema, mem),
	}, nil
}

// EncodeHeader renders the request for transport in gRPC metadata.
func (r *PruneRequest) EncodeHeader() (string, error) {
	raw, err := msgpack.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding prune request: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodePruneRequest reverses EncodeHeader.
func DecodePruneRequest(header string) (*PruneRequest, error) {
	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("decoding prune request: %w", err)
	}
	var req PruneRequest
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decoding prune request: %w", err)
	}
	return &req, nil
}

// DecodePredicate rebuilds the predicate through the construction
// protocol. A false second result means the payload decoded but
// contained no usable predicate.
func (r *PruneRequest) DecodePredicate() (expr.Expression, bool, error) {
	return engine.DecodePredicate(r.Predicate)
}

// TableSchema deserializes the table schema the predicate refers to.
func (r *PruneRequest) TableSchema(mem memory.Allocator) (*arrow.Schema, error) {
	schema, err := flight.DeserializeSchema(r.Schema, mem)
	if err != nil {
		return nil, fmt.Errorf("decoding table schema: %w", err)
	}
	return schema, nil
}
