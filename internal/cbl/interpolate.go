package cbl

import "math"

// interpolateGaps fills gaps of missing values in one curve by linear
// interpolation between the bracketing valid samples, proportional to index
// position. Values before the first valid sample and after the last one are
// left untouched. Returns a new slice; the input is not modified.
func interpolateGaps(samples []Sample, curve string) []Sample {
	out := copySamples(samples)
	last := -1
	for i := range out {
		v, ok := out[i].Values[curve]
		if !ok || math.IsNaN(v) {
			continue
		}
		if last >= 0 && i-last > 1 {
			prev := out[last].Values[curve]
			span := float64(i - last)
			for j := last + 1; j < i; j++ {
				frac := float64(j-last) / span
				out[j].Values[curve] = prev + (v-prev)*frac
			}
		}
		last = i
	}
	return out
}
