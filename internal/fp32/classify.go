package fp32

// Class is the classification record computed once at the first pipeline
// stage and carried unchanged as sidecar control state through every later
// stage.
type Class struct {
	Sign     bool
	ExpField uint32 // 8-bit biased exponent field
	Frac     uint32 // 23-bit fraction field
	AbsBits  uint32 // input with the sign bit cleared

	Bypass     bool
	BypassBits uint32
}

// Bypass thresholds in unbiased exponent terms. Magnitudes below 2^-5 use
// the identity approximation tanh(x) ~ x; magnitudes at or above 8 saturate
// to +/-1.
const (
	smallBypassExp = -5
	largeBypassExp = 3
)

// Classify decomposes a raw float bit pattern and resolves the bypass
// value, if any. Total over all 2^32 patterns; there is no failure mode.
//
// Special values win over range bypass: NaN maps to the canonical quiet
// NaN, infinity saturates to +/-1, and zero or any subnormal passes
// through unchanged. In-range magnitudes leave Bypass clear and are
// evaluated by the polynomial stages.
func Classify(bits uint32) Class {
	c := Class{
		Sign:     SignBit(bits),
		ExpField: ExpField(bits),
		Frac:     FracField(bits),
		AbsBits:  AbsBits(bits),
	}

	signBits := bits & SignMask
	e := int(c.ExpField) - ExpBias

	switch {
	case c.ExpField == 0xFF && c.Frac != 0: // NaN
		c.Bypass = true
		c.BypassBits = QNaNBits
	case c.ExpField == 0xFF: // +/-Inf
		c.Bypass = true
		c.BypassBits = OneBits | signBits
	case c.ExpField == 0: // +/-0 and subnormals
		c.Bypass = true
		c.BypassBits = bits
	case e < smallBypassExp:
		c.Bypass = true
		c.BypassBits = bits
	case e >= largeBypassExp:
		c.Bypass = true
		c.BypassBits = OneBits | signBits
	}
	return c
}

// SegmentIndex maps the exponent and top fraction bits of an in-range
// magnitude to one of 64 table segments: 8 binades over [2^-5, 8), each
// split into 8 equal mantissa bands.
//
//	index = (e+5)<<3 | fraction[22:20]
//
// The result for bypassed samples is unused downstream.
func SegmentIndex(expField, frac uint32) uint8 {
	offset := uint32(int(expField)-ExpBias-smallBypassExp) & 0x7
	return uint8(offset<<3 | frac>>20)
}
