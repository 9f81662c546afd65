package onnxruntime

import "math"

// Float16 is an IEEE 754 half-precision number, the element type of
// float16 tensors.
type Float16 uint16

// NewFloat16 converts f to the nearest Float16, rounding ties to even.
// Magnitudes beyond 65504 round to infinity; NaN stays NaN.
func NewFloat16(f float32) Float16 {
	bits := math.Float32bits(f)
	sign := (bits >> 16) & 0x8000
	exp := int((bits>>23)&0xFF) - 127
	mant := bits & 0x7FFFFF

	switch {
	case exp == 128:
		if mant == 0 {
			return Float16(sign | 0x7C00)
		}
		return Float16(sign | 0x7E00 | mant>>13)
	case exp > 15:
		return Float16(sign | 0x7C00)
	case exp >= -14:
		// A mantissa carry moves into the exponent field, up to infinity.
		h := uint32(exp+15)<<10 | mant>>13
		return Float16(sign | roundHalfEven(h, mant, 13))
	case exp >= -25:
		mant |= 0x800000
		shift := uint(-exp - 1)
		return Float16(sign | roundHalfEven(mant>>shift, mant, shift))
	default:
		return Float16(sign)
	}
}

// roundHalfEven rounds the truncated value h up when the low dropped bits of
// src are above one half, or exactly one half with h odd.
func roundHalfEven(h, src uint32, dropped uint) uint32 {
	half := uint32(1) << (dropped - 1)
	rest := src & (half<<1 - 1)
	if rest > half || (rest == half && h&1 == 1) {
		h++
	}
	return h
}

// Float32 converts f to float32 exactly.
func (f Float16) Float32() float32 {
	sign := uint32(f&0x8000) << 16
	exp := uint32(f>>10) & 0x1F
	frac := uint32(f) & 0x3FF

	switch {
	case exp == 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// subnormal: shift the leading one into the implicit bit
		for frac&0x400 == 0 {
			frac <<= 1
			exp--
		}
		exp++
		frac &= 0x3FF
		return math.Float32frombits(sign | (exp+127-15)<<23 | frac<<13)
	case exp == 31:
		return math.Float32frombits(sign | 0x7F800000 | frac<<13)
	default:
		return math.Float32frombits(sign | (exp+127-15)<<23 | frac<<13)
	}
}

// BFloat16 is a bfloat16 number: the upper half of a float32, with the same
// exponent range and seven mantissa bits.
type BFloat16 uint16

// NewBFloat16 converts f to the nearest BFloat16, rounding ties to even.
func NewBFloat16(f float32) BFloat16 {
	bits := math.Float32bits(f)
	if f != f {
		return BFloat16(bits>>16 | 0x0040)
	}
	return BFloat16(roundHalfEven(bits>>16, bits, 16))
}

// Float32 converts f to float32 exactly.
func (f BFloat16) Float32() float32 {
	return math.Float32frombits(uint32(f) << 16)
}

// Float16Slice converts values for binding to a float16 input.
func Float16Slice(values []float32) []Float16 {
	out := make([]Float16, len(values))
	for i, v := range values {
		out[i] = NewFloat16(v)
	}
	return out
}

// BFloat16Slice converts values for binding to a bfloat16 input.
func BFloat16Slice(values []float32) []BFloat16 {
	out := make([]BFloat16, len(values))
	for i, v := range values {
		out[i] = NewBFloat16(v)
	}
	return out
}
