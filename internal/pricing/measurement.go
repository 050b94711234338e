// Package pricing contains the pure quote calculators: dimension measurement,
// line-item totals, and project aggregation. Nothing here touches the catalog
// store, the database, or the network; every function is deterministic in its
// inputs so totals can be recomputed and verified at any time.
package pricing

import (
	"math"

	"craftbid/internal/domain"
)

// Dimensions are the raw customer-entered measurements. Absent dimensions
// default to zero.
type Dimensions struct {
	Width  float64
	Height float64
	Length float64
}

// Measure collapses raw dimensions into the single scalar consumed by the
// line-item calculator. Negative and NaN inputs are clamped to zero rather
// than rejected; the result is always >= 0. An unrecognized mode falls back
// to width x height.
func Measure(mode domain.MeasurementMode, d Dimensions) float64 {
	w := clamp(d.Width)
	h := clamp(d.Height)
	l := clamp(d.Length)

	switch mode {
	case domain.MeasureAreaWidthHeight:
		return w * h
	case domain.MeasureAreaWidthLength:
		return w * l
	case domain.MeasureHeightOnly:
		return h
	case domain.MeasureLengthOnly:
		return l
	case domain.MeasureCustomWidthHeight:
		return w * h
	case domain.MeasureOtherFreeform:
		// Freeform items produce no monetary total downstream; the measure
		// is still well defined so callers never branch on the mode here.
		return w * h
	default:
		return w * h
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
