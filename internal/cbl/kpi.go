package cbl

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// tocDiffBand bounds the T-score bands, in depth units. A found TOC up to
// this far below the requested TOC still scores 1.0.
const tocDiffBand = 40.0

// Composite cement score weights: TOC timing 30%, annulus adhesion 70%.
const (
	tocWeight      = 30.0
	adhesionWeight = 70.0
)

// computeKPIs aggregates the classified cemented zone into the flat KPI map.
// The scoring KPIs (toc_diff_m, t_score, a_score, cement_score) appear only
// when both the requested TOC and the annulus height are supplied and
// positive; the layer aggregates only when their windows held data.
func computeKPIs(cemented []Sample, ampCurve string, step, toc float64, p Params, apnzPct, aselloPct float64) map[string]float64 {
	kpis := map[string]float64{KPITOC: toc}

	var good, mid, bad int
	amps := make([]float64, 0, len(cemented))
	for _, s := range cemented {
		switch s.Category {
		case CategoryGood:
			good++
		case CategoryMid:
			mid++
		case CategoryBad:
			bad++
		default:
			continue
		}
		amps = append(amps, s.Values[ampCurve])
	}

	goodM := float64(good) * step
	midM := float64(mid) * step
	badM := float64(bad) * step
	totalM := goodM + midM + badM

	kpis[KPITotalM] = totalM
	kpis[KPIGoodM] = goodM
	kpis[KPIMediumM] = midM
	kpis[KPIBadM] = badM

	goodPct := 0.0
	if totalM > 0 {
		goodPct = goodM / totalM * 100
	}
	kpis[KPIGoodPct] = goodPct

	if len(amps) > 0 {
		kpis[KPIMeanAmp] = stat.Mean(amps, nil)
	}
	if !math.IsNaN(apnzPct) {
		kpis[KPIApnzPct] = apnzPct
	}
	if !math.IsNaN(aselloPct) {
		kpis[KPIAselloPct] = aselloPct
	}

	if p.RequestedTOC > 0 && p.AnnulusHeight > 0 {
		diff := toc - p.RequestedTOC
		t := tocTimingScore(diff)
		a := clamp(1-(badM+midM)/p.AnnulusHeight, 0, 1)

		kpis[KPITOCDiff] = diff
		kpis[KPITScore] = t
		kpis[KPIAScore] = a
		kpis[KPICementScore] = clamp(tocWeight*t+adhesionWeight*a, 0, 100)
	}

	return kpis
}

// tocTimingScore maps the found-minus-requested TOC difference onto the
// 0..1 timing score. The hard 0.0 below -tocDiffBand is domain policy.
func tocTimingScore(diff float64) float64 {
	switch {
	case diff >= 0 && diff <= tocDiffBand:
		return 1.0
	case diff > tocDiffBand:
		return 0.9
	case diff >= -tocDiffBand:
		return 0.8
	default:
		return 0.0
	}
}
