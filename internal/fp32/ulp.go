package fp32

// ULPDistance measures how far apart two floats are in representable-value
// steps. Both NaN, or both infinite with the same sign, count as zero
// distance. When the signs differ the two magnitudes straddle zero and the
// distance is the sum of the magnitude bit patterns; within one sign
// hemisphere the bit patterns are monotonic in magnitude, so the distance
// is their unsigned difference.
func ULPDistance(g, h float32) uint64 {
	gb, hb := Bits(g), Bits(h)

	if IsNaNBits(gb) && IsNaNBits(hb) {
		return 0
	}
	if IsInfBits(gb) && IsInfBits(hb) && gb&SignMask == hb&SignMask {
		return 0
	}
	if g == h {
		return 0
	}

	if gb&SignMask != hb&SignMask {
		return uint64(AbsBits(gb)) + uint64(AbsBits(hb))
	}
	if gb > hb {
		return uint64(gb - hb)
	}
	return uint64(hb - gb)
}
