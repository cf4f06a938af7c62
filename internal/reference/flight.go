package reference

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// tanhCmd names the exchange on the accelerator service.
var tanhCmd = []byte("tanh")

// Flight asks a remote accelerator service for batched tanh values over an
// Arrow Flight DoExchange: one float32 column out, one float32 column back,
// row-aligned with the inputs.
type Flight struct {
	addr   string
	client flight.Client
	alloc  memory.Allocator
}

// NewFlight creates a disconnected client for the given accelerator
// address. Call Connect before the first batch.
func NewFlight(addr string) *Flight {
	return &Flight{addr: addr, alloc: memory.DefaultAllocator}
}

func (f *Flight) Name() string { return "flight-" + f.addr }

// Connect dials the accelerator service.
func (f *Flight) Connect(ctx context.Context) error {
	client, err := flight.NewClientWithMiddleware(f.addr, nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dialing flight service %s: %w", f.addr, err)
	}
	f.client = client
	return nil
}

func (f *Flight) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *Flight) Tanh(ctx context.Context, in []float32) ([]float32, error) {
	if f.client == nil {
		return nil, fmt.Errorf("flight generator not connected, call Connect first")
	}

	stream, err := f.client.DoExchange(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening exchange: %w", err)
	}

	rec := newInputRecord(f.alloc, in)
	wr := flight.NewRecordWriter(stream, ipc.WithSchema(rec.Schema()))
	wr.SetFlightDescriptor(&flight.FlightDescriptor{Type: flight.DescriptorCMD, Cmd: tanhCmd})
	writeErr := wr.Write(rec)
	rec.Release()
	if writeErr != nil {
		wr.Close()
		return nil, fmt.Errorf("sending batch: %w", writeErr)
	}
	if err := wr.Close(); err != nil {
		return nil, fmt.Errorf("closing batch writer: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("half-closing exchange: %w", err)
	}

	rdr, err := flight.NewRecordReader(stream)
	if err != nil {
		return nil, fmt.Errorf("opening result stream: %w", err)
	}
	defer rdr.Release()

	out := make([]float32, 0, len(in))
	for rdr.Next() {
		out, err = appendFloat32Column(out, rdr.Record())
		if err != nil {
			return nil, err
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	if len(out) != len(in) {
		return nil, fmt.Errorf("accelerator returned %d values for %d inputs", len(out), len(in))
	}
	return out, nil
}

// newInputRecord wraps a float32 vector in a one-column record.
func newInputRecord(alloc memory.Allocator, in []float32) arrow.Record {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "x", Type: arrow.PrimitiveTypes.Float32},
	}, nil)

	b := array.NewFloat32Builder(alloc)
	defer b.Release()
	b.AppendValues(in, nil)
	arr := b.NewFloat32Array()
	defer arr.Release()

	return array.NewRecord(schema, []arrow.Array{arr}, int64(len(in)))
}

// appendFloat32Column appends the first column of a record, which must be
// float32, to dst.
func appendFloat32Column(dst []float32, rec arrow.Record) ([]float32, error) {
	if rec.NumCols() < 1 {
		return dst, fmt.Errorf("result record has no columns")
	}
	col, ok := rec.Column(0).(*array.Float32)
	if !ok {
		return dst, fmt.Errorf("result column is %s, want float32", rec.Column(0).DataType())
	}
	return append(dst, col.Float32Values()...), nil
}
