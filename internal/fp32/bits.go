// Package fp32 manipulates IEEE-754 single-precision values at the bit
// level. Inside the approximation pipeline a value is always a raw 32-bit
// pattern; only this package and the harness interpret the fields.
package fp32

import "math"

const (
	SignMask = uint32(0x80000000)
	ExpMask  = uint32(0x7F800000)
	FracMask = uint32(0x007FFFFF)

	ExpShift = 23
	ExpBias  = 127

	// QNaNBits is the canonical quiet NaN produced for NaN inputs.
	QNaNBits = uint32(0x7FC00000)

	// OneBits is +1.0, the saturated output for large magnitudes.
	OneBits = uint32(0x3F800000)
)

// RoundingMode is the 3-bit rounding mode field carried alongside every
// sample. The pipeline threads it through unchanged; the approximation
// arithmetic itself always rounds to nearest even.
type RoundingMode uint8

const (
	RoundNearestEven RoundingMode = iota
	RoundTowardZero
	RoundDown
	RoundUp
	RoundNearestMaxMag
)

func Bits(f float32) uint32      { return math.Float32bits(f) }
func FromBits(b uint32) float32  { return math.Float32frombits(b) }
func SignBit(b uint32) bool      { return b&SignMask != 0 }
func ExpField(b uint32) uint32   { return (b & ExpMask) >> ExpShift }
func FracField(b uint32) uint32  { return b & FracMask }
func AbsBits(b uint32) uint32    { return b &^ SignMask }
func IsNaNBits(b uint32) bool    { return b&ExpMask == ExpMask && b&FracMask != 0 }
func IsInfBits(b uint32) bool    { return b&ExpMask == ExpMask && b&FracMask == 0 }
func IsZeroBits(b uint32) bool   { return b&^SignMask == 0 }
func IsSubnormal(b uint32) bool  { return b&ExpMask == 0 && b&FracMask != 0 }
