// Package fma evaluates a*b+c in single precision with one rounding step.
// The mantissa arithmetic is done in integers so the result is bit-exact
// round-to-nearest-even, independent of the host FPU.
package fma

import (
	"math"
	"math/bits"

	"github.com/23skdu/longbow-bodkin/internal/fp32"
)

// Operands are pre-shifted so that up to 14 bits of alignment shift drop
// only zeros. Larger shifts cannot cancel, so the folded sticky bit stays
// well below the rounding position.
const preShift = 14

// MulAdd returns a*b + c computed as if to infinite precision and rounded
// once to float32. NaN and infinity operands take the float64 path; the
// approximation pipeline never feeds those here, but the function stays
// total.
func MulAdd(a, b, c float32) float32 {
	ab, bb, cb := fp32.Bits(a), fp32.Bits(b), fp32.Bits(c)
	if special(ab) || special(bb) || special(cb) {
		return float32(float64(a)*float64(b) + float64(c))
	}

	if fp32.IsZeroBits(ab) || fp32.IsZeroBits(bb) {
		pneg := (ab^bb)&fp32.SignMask != 0
		if !fp32.IsZeroBits(cb) {
			return c
		}
		// 0 + 0: the result is -0 only when both addends are -0.
		if pneg && fp32.SignBit(cb) {
			return fp32.FromBits(fp32.SignMask)
		}
		return 0
	}

	aneg, ma, ea := decompose(ab)
	bneg, mb, eb := decompose(bb)
	pneg := aneg != bneg

	// Exact 48-bit product, normalized so bit 47 is set.
	mp := uint64(ma) * uint64(mb)
	ep := ea + eb
	if mp&(1<<47) == 0 {
		mp <<= 1
		ep--
	}

	if fp32.IsZeroBits(cb) {
		return round(pneg, mp, ep)
	}

	cneg, mc, ec := decompose(cb)
	mz := uint64(mc) << 24 // same 48-bit frame as the product
	ez := ec - 24

	// Align the smaller-exponent operand into the larger one's frame.
	big, small := mp<<preShift, mz<<preShift
	bneg2, sneg2 := pneg, cneg
	ebig := ep
	d := ep - ez
	if d < 0 || (d == 0 && mz > mp) {
		big, small = small, big
		bneg2, sneg2 = cneg, pneg
		ebig = ez
		d = -d
	}
	switch {
	case d == 0:
	case d < 64:
		sticky := small<<(64-uint(d)) != 0
		small >>= uint(d)
		if sticky {
			small |= 1
		}
	default:
		small = 1
	}

	var m uint64
	neg := bneg2
	if bneg2 == sneg2 {
		m = big + small
	} else {
		m = big - small
		if m == 0 {
			return 0 // exact cancellation rounds to +0
		}
	}
	return round(neg, m, ebig-preShift)
}

func special(b uint32) bool {
	return b&fp32.ExpMask == fp32.ExpMask
}

// decompose splits a finite nonzero float into sign, a mantissa in
// [2^23, 2^24), and an exponent such that the value equals m * 2^e.
// Subnormals are normalized.
func decompose(b uint32) (neg bool, m uint32, e int) {
	neg = fp32.SignBit(b)
	exp := int(fp32.ExpField(b))
	frac := fp32.FracField(b)
	if exp == 0 {
		shift := bits.LeadingZeros32(frac) - 8
		m = frac << uint(shift)
		e = -149 - shift
		return
	}
	m = frac | 1<<fp32.ExpShift
	e = exp - fp32.ExpBias - fp32.ExpShift
	return
}

// round converts m * 2^e (m nonzero) to the nearest float32, ties to even.
func round(neg bool, m uint64, e int) float32 {
	top := 63 - bits.LeadingZeros64(m)
	be := top + e + fp32.ExpBias // biased result exponent
	shift := top - 23
	if be <= 0 { // subnormal target: drop additional bits
		shift += 1 - be
		be = 0
	}

	var mant uint64
	switch {
	case shift <= 0:
		mant = m << uint(-shift)
	case shift >= 64:
		// The whole mantissa is discarded. At a shift of exactly 64 the
		// half position is bit 63, so anything above it rounds up to the
		// smallest subnormal; beyond 64 the value is under half an ulp.
		if shift == 64 && m > 1<<63 {
			mant = 1
		}
	default:
		lost := m & (1<<uint(shift) - 1)
		mant = m >> uint(shift)
		half := uint64(1) << uint(shift-1)
		if lost > half || (lost == half && mant&1 == 1) {
			mant++
		}
	}

	if mant == 1<<24 {
		mant >>= 1
		be++
	}
	if be >= 0xFF {
		return signed(neg, fp32.ExpMask) // overflow saturates to infinity
	}
	if be > 0 {
		mant -= 1 << fp32.ExpShift // strip the implicit bit of normal results
	}

	// A subnormal that rounded up to 2^23 carries into the exponent here.
	out := uint32(be)<<fp32.ExpShift + uint32(mant)
	return signed(neg, out)
}

func signed(neg bool, b uint32) float32 {
	if neg {
		b |= fp32.SignMask
	}
	return fp32.FromBits(b)
}

// MulAddRef is the float64 reference used by the differential tests. Its
// double rounding can differ from MulAdd by at most one ulp.
func MulAddRef(a, b, c float32) float32 {
	return float32(math.FMA(float64(a), float64(b), float64(c)))
}
