package cbl

import "math"

// analyzeLayers computes per-layer and per-seal-window adhesion statistics
// plus the two process-wide aggregates: overall layer adhesion (Apnz) and
// overall seal adhesion (Asello), both as percentages. Aggregates are NaN
// when no window contributed any cemented data.
func analyzeLayers(well string, cemented []Sample, layers []LayerBoundary, step, margin float64) ([]LayerAnalysisItem, float64, float64) {
	items := make([]LayerAnalysisItem, 0, len(layers))
	var layerBad, layerLen float64
	var sealBad, sealLen float64

	minDepth, maxDepth := depthExtent(cemented)

	for _, layer := range layers {
		item := LayerAnalysisItem{
			Well:            well,
			Label:           layer.Label,
			Top:             layer.Top,
			Base:            layer.Base,
			AdhesionPct:     math.NaN(),
			SealAdhesionPct: math.NaN(),
		}

		// Degenerate layers (base <= top) are empty windows, not errors.
		if layer.Base > layer.Top {
			if bad, length, n := windowStats(cemented, layer.Top, layer.Base, step); n > 0 {
				item.Length = length
				item.AdhesionPct = adhesionPct(bad, length)
				layerBad += bad
				layerLen += length
			}

			sealTop := clamp(layer.Top-margin, minDepth, maxDepth)
			sealBase := clamp(layer.Base+margin, minDepth, maxDepth)
			if bad, length, n := windowStats(cemented, sealTop, sealBase, step); n > 0 {
				item.SealAdhesionPct = adhesionPct(bad, length)
				sealBad += bad
				sealLen += length
			}
		}

		items = append(items, item)
	}

	apnz, asello := math.NaN(), math.NaN()
	if layerLen > 0 {
		apnz = adhesionPct(layerBad, layerLen)
	}
	if sealLen > 0 {
		asello = adhesionPct(sealBad, sealLen)
	}
	return items, apnz, asello
}

// windowStats restricts the cemented zone to depth in [top, base] inclusive
// and returns the meters in Malo/Medio, the window length and the sample
// count. Window length is (last depth - first depth) + step: each sample
// represents a full step-width slice.
func windowStats(cemented []Sample, top, base, step float64) (badMeters, windowLen float64, n int) {
	var first, last float64
	bad := 0
	for _, s := range cemented {
		if s.Depth < top || s.Depth > base {
			continue
		}
		if n == 0 {
			first = s.Depth
		}
		last = s.Depth
		n++
		if s.Category == CategoryBad || s.Category == CategoryMid {
			bad++
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	return float64(bad) * step, (last - first) + step, n
}

// adhesionPct converts bad meters over a window length into a percentage
// clipped to [0, 100].
func adhesionPct(badMeters, windowLen float64) float64 {
	return clamp(1-badMeters/windowLen, 0, 1) * 100
}

func depthExtent(samples []Sample) (min, max float64) {
	if len(samples) == 0 {
		return math.NaN(), math.NaN()
	}
	return samples[0].Depth, samples[len(samples)-1].Depth
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
