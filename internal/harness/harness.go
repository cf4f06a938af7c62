// Package harness drives the approximation pipeline at full throughput,
// collects results in issue order, and scores them against one or more
// reference generators. Accuracy failures are data points, never faults:
// a batch always runs to completion.
package harness

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/23skdu/longbow-bodkin/internal/fp32"
	"github.com/23skdu/longbow-bodkin/internal/logger"
	"github.com/23skdu/longbow-bodkin/internal/metrics"
	"github.com/23skdu/longbow-bodkin/internal/pipeline"
	"github.com/23skdu/longbow-bodkin/internal/reference"
)

// Tolerance is the per-sample pass criterion. Both bounds must hold; they
// are calibration constants tied to the coefficient fit.
type Tolerance struct {
	RelErr float64
	ULP    uint64
}

// Record scores one sample against the primary reference. Refs holds one
// value per generator, primary first.
type Record struct {
	Input    float32
	Hardware float32
	Refs     []float32
	RelErr   float64
	ULP      uint64
	Pass     bool
}

// Stats aggregates a batch.
type Stats struct {
	Total  int
	Pass   int
	Fail   int
	AvgErr float64
	MaxErr float64
	AvgULP float64
	MaxULP uint64
	Cycles uint64
}

// Report is the outcome of one verification batch.
type Report struct {
	ID       uuid.UUID
	Name     string
	GenNames []string
	Records  []Record
	Stats    Stats
	Elapsed  time.Duration
}

type Harness struct {
	pipe          *pipeline.Pipeline
	gens          []reference.Generator
	tol           Tolerance
	debugFailures bool
}

// New wires a harness to a pipeline and at least one reference generator.
// The first generator is the primary one that accuracy is scored against.
func New(p *pipeline.Pipeline, tol Tolerance, gens ...reference.Generator) (*Harness, error) {
	if p == nil {
		return nil, fmt.Errorf("harness requires a pipeline")
	}
	if len(gens) == 0 {
		return nil, fmt.Errorf("harness requires at least one reference generator")
	}
	return &Harness{pipe: p, gens: gens, tol: tol}, nil
}

// SetDebugFailures itemizes failing samples in the log.
func (h *Harness) SetDebugFailures(on bool) { h.debugFailures = on }

// Run drives one batch: references first, then the cycle loop. Inputs are
// issued one per eligible cycle and outputs pair with inputs by position,
// which the pipeline's FIFO ordering guarantees.
func (h *Harness) Run(ctx context.Context, name string, inputs []float32) (*Report, error) {
	start := time.Now()

	refs := make([][]float32, len(h.gens))
	names := make([]string, len(h.gens))
	for i, g := range h.gens {
		t0 := time.Now()
		out, err := g.Tanh(ctx, inputs)
		if err != nil {
			return nil, fmt.Errorf("reference %s: %w", g.Name(), err)
		}
		if len(out) != len(inputs) {
			return nil, fmt.Errorf("reference %s: %d values for %d inputs", g.Name(), len(out), len(inputs))
		}
		metrics.RecordReference(g.Name(), time.Since(t0))
		refs[i] = out
		names[i] = g.Name()
	}

	rep := &Report{
		ID:       uuid.New(),
		Name:     name,
		GenNames: names,
		Records:  make([]Record, 0, len(inputs)),
	}

	cyclesBefore := h.pipe.Cycles()
	issued, received := 0, 0
	// The egress consumer is always ready, so an accepted sample always
	// eventually drains; the guard only catches a broken pipeline.
	guard := 4*(len(inputs)+h.pipe.Latency()) + 64
	for received < len(inputs) {
		if guard--; guard < 0 {
			return nil, fmt.Errorf("pipeline made no progress: issued %d, received %d", issued, received)
		}

		h.pipe.SetOutReady(true)
		if issued < len(inputs) && h.pipe.InReady() {
			h.pipe.SetIn(fp32.Bits(inputs[issued]), fp32.RoundNearestEven)
			metrics.SamplesIssued.Inc()
			issued++
		}
		h.pipe.Tick()
		if !h.pipe.OutValid() {
			continue
		}

		if seq := h.pipe.OutSeq(); seq != h.pipe.Emitted()-1 {
			return nil, fmt.Errorf("egress reordering: sequence %d at position %d", seq, received)
		}
		hw := fp32.FromBits(h.pipe.Out())
		rec := h.score(inputs[received], refs[0][received], hw)
		for g := range refs {
			rec.Refs = append(rec.Refs, refs[g][received])
		}
		metrics.RecordSample(name, rec.RelErr, rec.ULP, rec.Pass)
		if !rec.Pass && h.debugFailures {
			logger.Log.Debug("sample outside tolerance",
				"batch", name,
				"input", rec.Input,
				"golden", rec.Refs[0],
				"hardware", rec.Hardware,
				"rel_err", rec.RelErr,
				"ulp", rec.ULP,
			)
		}
		rep.Records = append(rep.Records, rec)
		received++
	}

	rep.Stats = summarize(rep.Records)
	rep.Stats.Cycles = h.pipe.Cycles() - cyclesBefore
	rep.Elapsed = time.Since(start)
	metrics.RecordBatch(rep.Stats.Cycles, h.pipe.Occupancy(), rep.Elapsed)
	return rep, nil
}

// score applies the pass criterion to one (reference, hardware) pair.
func (h *Harness) score(in, golden, hw float32) Record {
	rec := Record{Input: in, Hardware: hw, ULP: fp32.ULPDistance(golden, hw)}
	g, hv := float64(golden), float64(hw)

	switch {
	case math.IsNaN(g) && math.IsNaN(hv):
		rec.Pass = true
	case math.IsInf(g, 0) && math.IsInf(hv, 0) && math.Signbit(g) == math.Signbit(hv):
		rec.Pass = true
	default:
		den := g
		if g == 0 || hv == 0 {
			den = 1 // absolute error substitute at zero
		}
		rec.RelErr = math.Abs((hv - g) / den)
		rec.Pass = rec.RelErr < h.tol.RelErr && rec.ULP <= h.tol.ULP
	}
	return rec
}

func summarize(records []Record) Stats {
	s := Stats{Total: len(records)}
	var totalULP uint64
	for _, r := range records {
		if r.Pass {
			s.Pass++
		} else {
			s.Fail++
		}
		s.AvgErr += r.RelErr
		if r.RelErr > s.MaxErr {
			s.MaxErr = r.RelErr
		}
		totalULP += r.ULP
		if r.ULP > s.MaxULP {
			s.MaxULP = r.ULP
		}
	}
	if s.Total > 0 {
		s.AvgErr /= float64(s.Total)
		s.AvgULP = float64(totalULP) / float64(s.Total)
	}
	return s
}

// PassRate returns the pass percentage.
func (s Stats) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Pass) * 100 / float64(s.Total)
}
