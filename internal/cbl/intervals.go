package cbl

// segmentIntervals collapses consecutive same-category samples into contiguous
// depth intervals, then keeps only Malo and Medio intervals at least minLength
// deep. Bueno runs are never reported regardless of length.
func segmentIntervals(samples []Sample, minLength float64) []QualityInterval {
	var out []QualityInterval
	for i := 0; i < len(samples); {
		cat := samples[i].Category
		j := i
		for j+1 < len(samples) && samples[j+1].Category == cat {
			j++
		}
		if cat == CategoryBad || cat == CategoryMid {
			top, base := samples[i].Depth, samples[j].Depth
			if length := base - top; length >= minLength {
				out = append(out, QualityInterval{Category: cat, Top: top, Base: base, Length: length})
			}
		}
		i = j + 1
	}
	return out
}
