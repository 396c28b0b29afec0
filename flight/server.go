// Package flight exposes file pruning as an Arrow Flight service, so a
// remote query engine can ship its predicate and file-action batches to
// the library over gRPC instead of linking it in-process.
package flight

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/dataskip-go"
)

// Server implements the Flight service handlers for pruning.
// Embeds BaseFlightServer for forward compatibility with protocol
// changes.
type Server struct {
	flight.BaseFlightServer

	pruner    *dataskip.Pruner
	allocator memory.Allocator
	logger    *slog.Logger
}

// NewServer creates a Flight pruning server from the given
// configuration. All Config fields are optional.
func NewServer(cfg dataskip.Config) *Server {
	return &Server{
		pruner:    dataskip.NewPruner(cfg),
		allocator: cfg.AllocatorOrDefault(),
		logger:    cfg.LoggerOrDefault(),
	}
}

// RegisterFlightServer registers the Flight service on the provided
// gRPC server.
func RegisterFlightServer(grpcServer *grpc.Server, flightServer *Server) {
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
}
