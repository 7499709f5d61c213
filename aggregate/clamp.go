package aggregate

import "math"

// clampValue implements the kernel-boundary clamping contract: NaN becomes
// 0.0, and any value outside the representable float64 range is clamped
// to +/- math.MaxFloat64. This runs once per Track call, before the value
// reaches kernel state.
func clampValue(v float64) float64 {
	if math.IsNaN(v) {
		return 0.0
	}
	if math.IsInf(v, 1) || v > math.MaxFloat64 {
		return math.MaxFloat64
	}
	if math.IsInf(v, -1) || v < -math.MaxFloat64 {
		return -math.MaxFloat64
	}
	return v
}
