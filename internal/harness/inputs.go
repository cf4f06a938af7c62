package harness

import (
	"math"
	"math/rand"

	"github.com/seehuhn/mt19937"

	"github.com/23skdu/longbow-bodkin/internal/fp32"
)

// RandomSweep draws n inputs uniformly from [lo, hi). The Mersenne Twister
// source makes sweeps reproducible across platforms for a given seed.
func RandomSweep(n int, lo, hi float64, seed int64) []float32 {
	rng := rand.New(mt19937.New())
	rng.Seed(seed)

	out := make([]float32, n)
	for i := range out {
		out[i] = float32(lo + (hi-lo)*rng.Float64())
	}
	return out
}

// EdgeCases is the curated special-value set: signed zeros and infinities,
// NaN, saturated magnitudes, subnormals, FLT_MIN/FLT_MAX, assorted
// irrational points, and values flanking both bypass thresholds.
func EdgeCases() []float32 {
	inf := float32(math.Inf(1))
	nan := float32(math.NaN())
	negZero := fp32.FromBits(fp32.SignMask)
	fltMin := fp32.FromBits(0x00800000) // smallest normal
	small := fp32.Bits(float32(math.Ldexp(1, -5)))
	eight := fp32.Bits(8.0)

	return []float32{
		0.0, negZero, 1.0, -1.0, 10.0,
		-10.0, 50.0, -50.0, 88.699999, 88.7,
		88.700001, -87.300001, -87.3, -87.299999, 100.0,
		-100.0, inf, -inf, nan, 1e-37,
		-1e-37, 1e+38, -1e+38, 1e-45, -1e-45,
		fltMin, -fltMin, math.MaxFloat32, -math.MaxFloat32, math.Pi,
		-math.Pi, math.E, -math.E, math.Ln2, -math.Ln2,
		float32(math.Log(10)), -float32(math.Log(10)), 88.0, 89.0, 90.0,
		-87.0, -88.0, -89.0,

		// Bypass threshold neighbors: last value below each boundary, the
		// boundary itself, and the first value above.
		fp32.FromBits(small - 1), fp32.FromBits(small), fp32.FromBits(small + 1),
		fp32.FromBits(eight - 1), fp32.FromBits(eight), fp32.FromBits(eight + 1),
		-fp32.FromBits(small - 1), -fp32.FromBits(small),
		-fp32.FromBits(eight - 1), -fp32.FromBits(eight),
	}
}
