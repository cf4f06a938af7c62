package pipeline

import (
	"math"
	"math/rand"
	"testing"

	"github.com/23skdu/longbow-bodkin/internal/coeff"
	"github.com/23skdu/longbow-bodkin/internal/fp32"
)

// drive pushes every input at full rate with egress always ready and
// returns the outputs in arrival order.
func drive(t *testing.T, p *Pipeline, inputs []uint32) []uint32 {
	t.Helper()
	outputs := make([]uint32, 0, len(inputs))
	issued := 0
	guard := 0
	for len(outputs) < len(inputs) {
		p.SetOutReady(true)
		if issued < len(inputs) && p.InReady() {
			p.SetIn(inputs[issued], fp32.RoundNearestEven)
			issued++
		}
		p.Tick()
		if p.OutValid() {
			outputs = append(outputs, p.Out())
		}
		if guard++; guard > 10*len(inputs)+1000 {
			t.Fatalf("pipeline made no progress: issued %d, received %d", issued, len(outputs))
		}
	}
	return outputs
}

func TestSpecialValueOutputs(t *testing.T) {
	p := New(coeff.Default(), DefaultLatencies())

	tests := []struct {
		name string
		in   uint32
		want uint32
	}{
		{"positive zero", 0x00000000, 0x00000000},
		{"negative zero", 0x80000000, 0x80000000},
		{"+Inf", 0x7F800000, fp32.OneBits},
		{"-Inf", 0xFF800000, fp32.OneBits | fp32.SignMask},
		{"NaN", 0x7FC00001, fp32.QNaNBits},
		{"negative NaN", 0xFFC00000, fp32.QNaNBits},
		{"large bypass 50", fp32.Bits(50), fp32.OneBits},
		{"large bypass -50", fp32.Bits(-50), fp32.OneBits | fp32.SignMask},
		{"small bypass 2^-6", fp32.Bits(float32(math.Ldexp(1, -6))), fp32.Bits(float32(math.Ldexp(1, -6)))},
		{"subnormal", 0x00000001, 0x00000001},
		{"negative subnormal", 0x80000001, 0x80000001},
		{"FLT_MAX", fp32.Bits(math.MaxFloat32), fp32.OneBits},
	}

	inputs := make([]uint32, len(tests))
	for i, tt := range tests {
		inputs[i] = tt.in
	}
	outputs := drive(t, p, inputs)

	for i, tt := range tests {
		if outputs[i] != tt.want {
			t.Errorf("%s: output = %#08x, want %#08x", tt.name, outputs[i], tt.want)
		}
	}
}

func TestPipelineMatchesEvaluate(t *testing.T) {
	tbl := coeff.Default()
	p := New(tbl, DefaultLatencies())

	rng := rand.New(rand.NewSource(11))
	inputs := make([]uint32, 4096)
	for i := range inputs {
		inputs[i] = fp32.Bits(float32(rng.Float64()*10 - 1))
	}
	outputs := drive(t, p, inputs)

	for i, in := range inputs {
		want := Evaluate(tbl, in)
		if outputs[i] != want {
			t.Fatalf("sample %d (%v): pipeline %#08x, combinational %#08x",
				i, fp32.FromBits(in), outputs[i], want)
		}
	}
}

func TestSignRestore(t *testing.T) {
	tbl := coeff.Default()
	for _, x := range []float32{0.1, 0.5, 1.0, 3.75, 7.9} {
		pos := Evaluate(tbl, fp32.Bits(x))
		neg := Evaluate(tbl, fp32.Bits(-x))
		if neg != pos^fp32.SignMask {
			t.Errorf("tanh(-%v) bits %#08x, want sign-flipped %#08x", x, neg, pos^fp32.SignMask)
		}
	}
}

func TestOrderingPreserved(t *testing.T) {
	p := New(coeff.Default(), DefaultLatencies())

	// Distinct, position-identifiable inputs across bypass and polynomial
	// paths: the egress sequence must answer ingress positions 1:1.
	inputs := make([]uint32, 500)
	for i := range inputs {
		switch i % 4 {
		case 0:
			inputs[i] = fp32.Bits(float32(i) + 0.5) // mostly large bypass
		case 1:
			inputs[i] = fp32.Bits(float32(i%7) * 0.25)
		case 2:
			inputs[i] = 0x7F800000 // +Inf
		default:
			inputs[i] = fp32.Bits(float32(math.Ldexp(1, -10)))
		}
	}

	outputs := make([]uint32, 0, len(inputs))
	seqs := make([]uint64, 0, len(inputs))
	issued := 0
	for len(outputs) < len(inputs) {
		p.SetOutReady(true)
		if issued < len(inputs) && p.InReady() {
			p.SetIn(inputs[issued], fp32.RoundNearestEven)
			issued++
		}
		p.Tick()
		if p.OutValid() {
			outputs = append(outputs, p.Out())
			seqs = append(seqs, p.OutSeq())
		}
	}

	tbl := coeff.Default()
	for i := range outputs {
		if seqs[i] != uint64(i) {
			t.Fatalf("output %d carries sequence %d: reordering detected", i, seqs[i])
		}
		if want := Evaluate(tbl, inputs[i]); outputs[i] != want {
			t.Fatalf("output %d = %#08x, want %#08x", i, outputs[i], want)
		}
	}
}

func TestColdFillLatency(t *testing.T) {
	lat := DefaultLatencies()
	p := New(coeff.Default(), lat)

	if got, want := p.Latency(), lat.total(); got != want {
		t.Fatalf("Latency() = %d, want %d", got, want)
	}

	p.SetOutReady(true)
	p.SetIn(fp32.Bits(1.0), fp32.RoundNearestEven)
	ticks := 0
	for {
		p.Tick()
		ticks++
		if p.OutValid() {
			break
		}
		if ticks > 2*p.Latency() {
			t.Fatal("no output after twice the pipeline depth")
		}
	}
	// Accepted during the first tick, emitted exactly Latency ticks later.
	if ticks != p.Latency()+1 {
		t.Errorf("single sample egressed on tick %d, want %d", ticks, p.Latency()+1)
	}
}

func TestFullThroughput(t *testing.T) {
	p := New(coeff.Default(), DefaultLatencies())

	const n = 1000
	issued, received := 0, 0
	ticks := 0
	for received < n {
		p.SetOutReady(true)
		if issued < n && p.InReady() {
			p.SetIn(fp32.Bits(float32(issued%16)*0.5), fp32.RoundNearestEven)
			issued++
		}
		p.Tick()
		ticks++
		if p.OutValid() {
			received++
		}
	}

	// One acceptance per cycle: sample k is accepted on tick k+1 and the
	// last emission lands exactly one pipeline depth after its acceptance.
	if want := n + p.Latency(); ticks != want {
		t.Errorf("batch of %d took %d cycles, want %d", n, ticks, want)
	}
}

func TestBackpressureHoldsData(t *testing.T) {
	p := New(coeff.Default(), DefaultLatencies())
	depth := p.Latency()

	inputs := make([]uint32, 2*depth)
	for i := range inputs {
		inputs[i] = fp32.Bits(float32(i%5) + 0.25)
	}

	// Stall egress: the pipeline must fill to exactly its depth, then
	// deassert ingress ready without dropping anything.
	issued := 0
	p.SetOutReady(false)
	for c := 0; c < 4*depth; c++ {
		if issued < len(inputs) && p.InReady() {
			p.SetIn(inputs[issued], fp32.RoundNearestEven)
			issued++
		}
		p.Tick()
		if p.OutValid() {
			t.Fatal("output emitted while egress not ready")
		}
	}
	if issued != depth {
		t.Fatalf("accepted %d samples under stall, want %d", issued, depth)
	}
	if p.Occupancy() != depth {
		t.Fatalf("occupancy %d under stall, want %d", p.Occupancy(), depth)
	}
	if p.InReady() {
		t.Fatal("ingress ready while full and egress stalled")
	}

	// Resume: everything comes out, in order, bit-exact.
	tbl := coeff.Default()
	outputs := make([]uint32, 0, len(inputs))
	for len(outputs) < len(inputs) {
		p.SetOutReady(true)
		if issued < len(inputs) && p.InReady() {
			p.SetIn(inputs[issued], fp32.RoundNearestEven)
			issued++
		}
		p.Tick()
		if p.OutValid() {
			outputs = append(outputs, p.Out())
		}
	}
	for i, out := range outputs {
		if want := Evaluate(tbl, inputs[i]); out != want {
			t.Fatalf("post-stall output %d = %#08x, want %#08x", i, out, want)
		}
	}
}

func TestIntermittentEgress(t *testing.T) {
	p := New(coeff.Default(), DefaultLatencies())

	const n = 300
	rng := rand.New(rand.NewSource(3))
	inputs := make([]uint32, n)
	for i := range inputs {
		inputs[i] = fp32.Bits(float32(rng.Float64()*10 - 1))
	}

	outputs := make([]uint32, 0, n)
	issued := 0
	guard := 0
	for len(outputs) < n {
		p.SetOutReady(rng.Intn(3) != 0) // consumer ready ~2/3 of cycles
		if issued < n && p.InReady() {
			p.SetIn(inputs[issued], fp32.RoundNearestEven)
			issued++
		}
		p.Tick()
		if p.OutValid() {
			outputs = append(outputs, p.Out())
		}
		if guard++; guard > 100*n {
			t.Fatal("pipeline stalled under intermittent egress")
		}
	}

	tbl := coeff.Default()
	for i, out := range outputs {
		if want := Evaluate(tbl, inputs[i]); out != want {
			t.Fatalf("output %d = %#08x, want %#08x", i, out, want)
		}
	}
}

func TestAccuracyAgainstTanh(t *testing.T) {
	tbl := coeff.Default()
	rng := rand.New(rand.NewSource(29))

	var totalULP, maxULP uint64
	const n = 100000
	for i := 0; i < n; i++ {
		x := float32(rng.Float64()*10 - 1)
		got := fp32.FromBits(Evaluate(tbl, fp32.Bits(x)))
		ref := float32(math.Tanh(float64(x)))
		d := fp32.ULPDistance(ref, got)
		totalULP += d
		if d > maxULP {
			maxULP = d
		}
	}

	// Regression bound, not strict correctness: the fitted segment scheme
	// lands within tens of ULP on average over [-1, 9).
	if avg := float64(totalULP) / n; avg > 100 {
		t.Errorf("average ULP distance %.2f exceeds regression bound", avg)
	}
}
