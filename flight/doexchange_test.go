package flight_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	arrowflight "github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/dataskip-go"
	"github.com/hugr-lab/dataskip-go/expr"
	"github.com/hugr-lab/dataskip-go/flight"
)

var (
	tableSchema = arrow.NewSchema([]arrow.Field{
		{Name: "x", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)

	actionsSchema = arrow.NewSchema([]arrow.Field{
		{Name: "path", Type: arrow.BinaryTypes.String},
		{Name: "stats", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
)

type testServer struct {
	grpcServer *grpc.Server
	address    string
}

func newTestServer(t *testing.T, mem memory.Allocator) *testServer {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}

	debugLevel := slog.LevelDebug
	srv := flight.NewServer(dataskip.Config{
		Allocator: mem,
		LogLevel:  &debugLevel,
	})

	grpcServer := grpc.NewServer()
	flight.RegisterFlightServer(grpcServer, srv)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for the server to start accepting.
	time.Sleep(100 * time.Millisecond)

	return &testServer{
		grpcServer: grpcServer,
		address:    lis.Addr().String(),
	}
}

func (s *testServer) stop() {
	s.grpcServer.Stop()
}

func dial(t *testing.T, address string) arrowflight.FlightServiceClient {
	t.Helper()
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return arrowflight.NewFlightServiceClient(conn)
}

func buildActions(t *testing.T, mem memory.Allocator, paths, stats []string) arrow.RecordBatch {
	t.Helper()
	b := array.NewRecordBuilder(mem, actionsSchema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues(paths, nil)
	b.Field(1).(*array.StringBuilder).AppendValues(stats, nil)
	return b.NewRecordBatch()
}

// exchange runs one full prune exchange and returns the surviving paths.
func exchange(t *testing.T, client arrowflight.FlightServiceClient, pred expr.Expression, mem memory.Allocator, actions arrow.RecordBatch) []string {
	t.Helper()

	req, err := flight.NewPruneRequest(pred, tableSchema, mem)
	if err != nil {
		t.Fatalf("building prune request: %v", err)
	}
	header, err := req.EncodeHeader()
	if err != nil {
		t.Fatalf("encoding prune request: %v", err)
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(),
		flight.OperationHeader, flight.OperationPrune,
		flight.RequestHeader, header,
	)
	stream, err := client.DoExchange(ctx)
	if err != nil {
		t.Fatalf("DoExchange: %v", err)
	}

	writer := arrowflight.NewRecordWriter(stream, ipc.WithSchema(actionsSchema), ipc.WithAllocator(mem))
	if err := writer.Write(actions); err != nil {
		t.Fatalf("writing actions: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("closing send side: %v", err)
	}

	reader, err := arrowflight.NewRecordReader(stream, ipc.WithAllocator(mem))
	if err != nil {
		t.Fatalf("creating record reader: %v", err)
	}
	defer reader.Release()

	var paths []string
	for reader.Next() {
		batch := reader.RecordBatch()
		col := batch.Column(0).(*array.String)
		for i := 0; i < col.Len(); i++ {
			paths = append(paths, col.Value(i))
		}
	}
	if err := reader.Err(); err != nil && err != io.EOF {
		t.Fatalf("reading pruned batches: %v", err)
	}
	return paths
}

func TestDoExchangePrune(t *testing.T) {
	mem := memory.NewGoAllocator()
	server := newTestServer(t, mem)
	defer server.stop()
	client := dial(t, server.address)

	actions := buildActions(t, mem,
		[]string{"keep.parquet", "prune.parquet"},
		[]string{
			`{"minValues":{"x":5},"maxValues":{"x":15}}`,
			`{"minValues":{"x":50},"maxValues":{"x":60}}`,
		},
	)
	defer actions.Release()

	pred := expr.Lt(expr.NewColumn("x"), expr.NewLiteral(expr.Long(10)))
	paths := exchange(t, client, pred, mem, actions)

	if len(paths) != 1 || paths[0] != "keep.parquet" {
		t.Fatalf("surviving paths = %v, want [keep.parquet]", paths)
	}
}

func TestDoExchangePassThroughPredicate(t *testing.T) {
	mem := memory.NewGoAllocator()
	server := newTestServer(t, mem)
	defer server.stop()
	client := dial(t, server.address)

	actions := buildActions(t, mem,
		[]string{"a.parquet", "b.parquet"},
		[]string{
			`{"minValues":{"x":5},"maxValues":{"x":15}}`,
			`{"minValues":{"x":50},"maxValues":{"x":60}}`,
		},
	)
	defer actions.Release()

	// IS NULL has no data-skipping form: everything passes through.
	paths := exchange(t, client, expr.IsNull(expr.NewColumn("x")), mem, actions)
	if len(paths) != 2 {
		t.Fatalf("surviving paths = %v, want both files", paths)
	}
}

func TestDoExchangeFullyPrunedBatchComesBackEmpty(t *testing.T) {
	mem := memory.NewGoAllocator()
	server := newTestServer(t, mem)
	defer server.stop()
	client := dial(t, server.address)

	actions := buildActions(t, mem,
		[]string{"prune.parquet"},
		[]string{`{"minValues":{"x":50},"maxValues":{"x":60}}`},
	)
	defer actions.Release()

	pred := expr.Lt(expr.NewColumn("x"), expr.NewLiteral(expr.Long(10)))
	paths := exchange(t, client, pred, mem, actions)
	if len(paths) != 0 {
		t.Fatalf("surviving paths = %v, want none", paths)
	}
}

func TestDoExchangeRejectsMissingHeaders(t *testing.T) {
	mem := memory.NewGoAllocator()
	server := newTestServer(t, mem)
	defer server.stop()
	client := dial(t, server.address)

	stream, err := client.DoExchange(context.Background())
	if err != nil {
		t.Fatalf("DoExchange: %v", err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("closing send side: %v", err)
	}

	_, err = stream.Recv()
	if err == nil {
		t.Fatal("expected error for missing headers")
	}
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("status code = %v, want InvalidArgument", status.Code(err))
	}
}
