package cbl

import "math"

// classifySamples labels every sample with a quality category from its
// amplitude value. Boundary policy: a value exactly equal to the low
// threshold is Bueno, exactly equal to the high threshold is Malo. Samples
// without a usable amplitude get no category and are excluded from every
// category-dependent metric. Returns a new slice.
func classifySamples(samples []Sample, ampCurve string, low, high float64) []Sample {
	out := copySamples(samples)
	for i := range out {
		v, ok := out[i].Values[ampCurve]
		if !ok || math.IsNaN(v) {
			out[i].Category = CategoryNone
			continue
		}
		switch {
		case v >= high:
			out[i].Category = CategoryBad
		case v > low:
			out[i].Category = CategoryMid
		default:
			out[i].Category = CategoryGood
		}
	}
	return out
}
