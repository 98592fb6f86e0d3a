// Package codec implements the pure, allocation-free arithmetic behind
// entity decode/encode: adaptive rounding and the byte/word swap
// transforms applied to composite register values. Nothing here touches
// the network or the cache; it is exercised directly by internal/entity
// and is safe to table-test in isolation.
package codec

import "math"

// Round applies the adaptive rounding rule: for scale == 1 the value
// passes through unchanged; otherwise a decimal-place count is derived
// from the scale itself and the value is snapped to that many places.
//
// bits is accepted and used to compute fullscale for source fidelity —
// the original implementation threads a bits parameter through this
// computation — but slope is defined directly as scale, so fullscale
// cancels out of dp and has no effect on the result. Two call sites
// (scalar decode with bits=8, composite decode with bits=16) are kept
// distinct even though they now converge on the same output, because
// that is the shape the source code has.
func Round(value, scale float64, bits int) float64 {
	if scale == 1 {
		return value
	}
	fullscale := math.Pow(2, float64(bits)) - 1
	_ = fullscale

	slope := scale
	dp := math.Round(math.Log10(1 / slope))
	divisor := math.Pow(10, dp)
	return math.Round(value*divisor) / divisor
}
