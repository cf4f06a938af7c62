// Package pipeline models the staged tanh approximation datapath cycle by
// cycle:
// a fixed-latency chain of single-slot elastic registers joined by a
// valid/ready handshake. Samples enter as raw float bits, flow strictly
// downstream, and leave in acceptance order.
//
// The clock is explicit. Callers drive the port signals, then call Tick to
// advance one cycle, mirroring how a testbench drives the synthesized
// design:
//
//	p.SetOutReady(true)
//	if p.InReady() {
//		p.SetIn(bits, fp32.RoundNearestEven)
//	}
//	p.Tick()
//	if p.OutValid() {
//		out := p.Out()
//	}
package pipeline

import (
	"github.com/23skdu/longbow-bodkin/internal/coeff"
	"github.com/23skdu/longbow-bodkin/internal/fma"
	"github.com/23skdu/longbow-bodkin/internal/fp32"
)

// Latencies fixes the cycle count of each stage. Every stage is internally
// pipelined, so latency never costs throughput, only fill time.
type Latencies struct {
	Classify int
	Index    int
	Lookup   int
	FMAMul   int // multiply sub-stage of each FMA
	FMAAdd   int // add sub-stage of each FMA
	Resolve  int
}

// DefaultLatencies matches the hardware staging: 3-cycle multiply and
// 2-cycle add per FMA, one cycle everywhere else, 14 cycles total.
func DefaultLatencies() Latencies {
	return Latencies{Classify: 1, Index: 1, Lookup: 1, FMAMul: 3, FMAAdd: 2, Resolve: 1}
}

func (l Latencies) total() int {
	return l.Classify + l.Index + l.Lookup + 2*(l.FMAMul+l.FMAAdd) + l.Resolve
}

// flight is one in-flight sample: the raw payload plus the sidecar control
// record attached at classification and carried unchanged to egress.
type flight struct {
	seq  uint64
	bits uint32
	rm   fp32.RoundingMode

	cls fp32.Class
	idx uint8
	co  coeff.Coefficients
	t   float32 // c1 + c2*|x|
	out uint32
}

// slot is a single-slot elastic register. It accepts a new sample only when
// empty or when its content moves downstream in the same cycle.
type slot struct {
	enter func(p *Pipeline, f *flight) // applied when a sample moves in; nil for pure delay
	full  bool
	f     flight
}

type Pipeline struct {
	table *coeff.Table
	slots []slot

	// ingress signals, sampled by Tick
	inValid bool
	inBits  uint32
	inRM    fp32.RoundingMode

	// egress signals
	outReady bool
	outValid bool
	outBits  uint32
	outSeq   uint64

	cycles   uint64
	accepted uint64
	emitted  uint64
}

// New builds the pipeline over an immutable coefficient table. The table is
// shared read-only by all in-flight samples.
func New(table *coeff.Table, lat Latencies) *Pipeline {
	p := &Pipeline{table: table}
	add := func(n int, enter func(*Pipeline, *flight)) {
		p.slots = append(p.slots, slot{enter: enter})
		for i := 1; i < n; i++ {
			p.slots = append(p.slots, slot{})
		}
	}
	add(lat.Classify, stageClassify)
	add(lat.Index, stageIndex)
	add(lat.Lookup, stageLookup)
	add(lat.FMAMul+lat.FMAAdd, stageFMA1)
	add(lat.FMAMul+lat.FMAAdd, stageFMA2)
	add(lat.Resolve, stageResolve)
	return p
}

func stageClassify(p *Pipeline, f *flight) {
	f.cls = fp32.Classify(f.bits)
}

func stageIndex(p *Pipeline, f *flight) {
	f.idx = fp32.SegmentIndex(f.cls.ExpField, f.cls.Frac)
}

func stageLookup(p *Pipeline, f *flight) {
	f.co = p.table.Lookup(f.idx)
}

// Bypassed samples still traverse both FMA stages so the bypass path
// matches the polynomial path in latency; their arithmetic results are
// discarded at resolve.
func stageFMA1(p *Pipeline, f *flight) {
	x := fp32.FromBits(f.cls.AbsBits)
	f.t = fma.MulAdd(f.co.C2, x, f.co.C1)
}

func stageFMA2(p *Pipeline, f *flight) {
	x := fp32.FromBits(f.cls.AbsBits)
	f.out = fp32.Bits(fma.MulAdd(x, f.t, f.co.C0))
}

func stageResolve(p *Pipeline, f *flight) {
	if f.cls.Bypass {
		f.out = f.cls.BypassBits
		return
	}
	if f.cls.Sign {
		f.out ^= fp32.SignMask
	}
}

// SetIn asserts ingress valid for the coming cycle. The handshake forbids
// retraction: callers must re-assert the same value every cycle until
// InReady indicates acceptance.
func (p *Pipeline) SetIn(bits uint32, rm fp32.RoundingMode) {
	p.inValid = true
	p.inBits = bits
	p.inRM = rm
}

// InReady reports whether an input asserted now would be accepted by the
// coming Tick. Combinational: the ingress register frees up whenever any
// downstream slot is empty, or the tail drains this cycle.
func (p *Pipeline) InReady() bool {
	for i := range p.slots {
		if !p.slots[i].full {
			return true
		}
	}
	return p.outReady
}

// SetOutReady asserts the egress consumer's readiness for the coming cycle.
func (p *Pipeline) SetOutReady(ready bool) {
	p.outReady = ready
}

// Tick advances one clock: egress transfer first, then stage-to-stage
// moves from tail to head, then ingress. A stage therefore accepts new data
// exactly when its buffer is empty or being drained in the same cycle.
func (p *Pipeline) Tick() {
	p.cycles++
	p.outValid = false

	last := len(p.slots) - 1
	if p.slots[last].full && p.outReady {
		p.outBits = p.slots[last].f.out
		p.outSeq = p.slots[last].f.seq
		p.outValid = true
		p.slots[last].full = false
		p.emitted++
	}

	for i := last - 1; i >= 0; i-- {
		if p.slots[i].full && !p.slots[i+1].full {
			f := p.slots[i].f
			if p.slots[i+1].enter != nil {
				p.slots[i+1].enter(p, &f)
			}
			p.slots[i+1].f = f
			p.slots[i+1].full = true
			p.slots[i].full = false
		}
	}

	if p.inValid && !p.slots[0].full {
		f := flight{seq: p.accepted, bits: p.inBits, rm: p.inRM}
		if p.slots[0].enter != nil {
			p.slots[0].enter(p, &f)
		}
		p.slots[0].f = f
		p.slots[0].full = true
		p.accepted++
	}
	p.inValid = false
}

// OutValid reports whether the last Tick emitted a result.
func (p *Pipeline) OutValid() bool { return p.outValid }

// Out returns the result bits emitted by the last Tick.
func (p *Pipeline) Out() uint32 { return p.outBits }

// OutSeq returns the ingress sequence number of the emitted result.
func (p *Pipeline) OutSeq() uint64 { return p.outSeq }

// Latency is the cold-fill depth in cycles.
func (p *Pipeline) Latency() int { return len(p.slots) }

// Occupancy counts in-flight samples; bounded by Latency.
func (p *Pipeline) Occupancy() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].full {
			n++
		}
	}
	return n
}

func (p *Pipeline) Cycles() uint64   { return p.cycles }
func (p *Pipeline) Accepted() uint64 { return p.accepted }
func (p *Pipeline) Emitted() uint64  { return p.emitted }

// Evaluate is the combinational reference of the datapath: the same stage
// functions applied in one call. The pipelined result for any input is
// bit-identical.
func Evaluate(table *coeff.Table, bits uint32) uint32 {
	p := &Pipeline{table: table}
	f := flight{bits: bits}
	stageClassify(p, &f)
	stageIndex(p, &f)
	stageLookup(p, &f)
	stageFMA1(p, &f)
	stageFMA2(p, &f)
	stageResolve(p, &f)
	return f.out
}
