package gpu

import "github.com/x448/float16"

// DecodeHalfFloat converts an IEEE 754 binary16 bit pattern to float32,
// preserving subnormals, signed zero, infinities and NaN.
func DecodeHalfFloat(h uint16) float32 {
	return float16.Frombits(h).Float32()
}

// EncodeHalfFloat rounds f to the nearest binary16 value and returns its
// bit pattern.
func EncodeHalfFloat(f float32) uint16 {
	return float16.Fromfloat32(f).Bits()
}

// DecodeHalfFloats decodes a read-back window into float64 samples.
func DecodeHalfFloats(raw []uint16) []float64 {
	out := make([]float64, len(raw))
	for i, h := range raw {
		out[i] = float64(DecodeHalfFloat(h))
	}
	return out
}
