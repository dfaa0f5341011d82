package cbl

import (
	"math"
	"sort"
	"strings"

	"github.com/olegiv/cbl-analyzer-go/internal/las"
)

const feetToMeters = 0.3048

// Analyze runs the full bond-quality pipeline over a parsed dataset and the
// caller-supplied layer boundaries. The dataset is never mutated: every stage
// derives fresh samples, so concurrent invocations over shared inputs need no
// coordination.
func Analyze(ds *las.Dataset, layers []LayerBoundary, p Params) (*Result, error) {
	ampCurve, err := pickAmplitudeCurve(ds.Curves, p.AmplitudeCurves)
	if err != nil {
		return nil, err
	}
	depthCurve := ds.DepthCurve()

	samples := toSamples(ds, depthCurve)
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Depth < samples[j].Depth })

	valid := filterValid(samples, ampCurve)
	if len(valid) == 0 {
		return nil, &NoValidDataError{Curve: ampCurve}
	}

	toc := detectTOC(valid, ampCurve, p.TOCThreshold, p.TOCMinRun)

	cemented := cementedZone(valid, toc)
	cemented = interpolateGaps(cemented, ampCurve)
	for _, aux := range p.InterpCurves {
		if curveDeclared(ds.Curves, aux) {
			cemented = interpolateGaps(cemented, aux)
		}
	}
	cemented = classifySamples(cemented, ampCurve, p.LowThreshold, p.HighThreshold)

	intervals := segmentIntervals(cemented, p.MinIntervalFt*feetToMeters)
	items, apnzPct, aselloPct := analyzeLayers(ds.Well, cemented, layers, ds.Step, p.SealMargin)
	kpis := computeKPIs(cemented, ampCurve, ds.Step, toc, p, apnzPct, aselloPct)

	return &Result{
		Well:           ds.Well,
		Step:           ds.Step,
		DepthCurve:     depthCurve,
		AmplitudeCurve: ampCurve,
		Cemented:       cemented,
		FullLog:        annotateFullLog(valid, cemented),
		KPIs:           kpis,
		Intervals:      intervals,
		Layers:         items,
	}, nil
}

// pickAmplitudeCurve returns the first candidate mnemonic present in the
// dataset's curve list, in the dataset's spelling.
func pickAmplitudeCurve(curves, candidates []string) (string, error) {
	for _, cand := range candidates {
		for _, c := range curves {
			if strings.EqualFold(c, cand) {
				return c, nil
			}
		}
	}
	return "", &NoCompatibleCurveError{Candidates: candidates, Curves: curves}
}

func curveDeclared(curves []string, name string) bool {
	for _, c := range curves {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// toSamples deep-copies the dataset records so no later stage can touch
// caller-owned maps.
func toSamples(ds *las.Dataset, depthCurve string) []Sample {
	out := make([]Sample, 0, len(ds.Records))
	for _, rec := range ds.Records {
		values := make(map[string]float64, len(rec))
		for k, v := range rec {
			values[k] = v
		}
		depth, ok := rec[depthCurve]
		if !ok {
			depth = math.NaN()
		}
		out = append(out, Sample{Depth: depth, Values: values})
	}
	return out
}

// filterValid keeps samples with depth > 0 and a usable, non-negative
// amplitude value.
func filterValid(samples []Sample, ampCurve string) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if !(s.Depth > 0) {
			continue
		}
		amp, ok := s.Values[ampCurve]
		if !ok || math.IsNaN(amp) || amp < 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// cementedZone copies the samples at or below the TOC depth. Input is sorted
// ascending, so the zone is a suffix.
func cementedZone(valid []Sample, toc float64) []Sample {
	i := sort.Search(len(valid), func(i int) bool { return valid[i].Depth >= toc })
	return copySamples(valid[i:])
}

// annotateFullLog mirrors the cemented-zone annotations (category plus any
// interpolated values) back onto a copy of the full valid set. The cemented
// zone is the suffix of the sorted valid set.
func annotateFullLog(valid, cemented []Sample) []Sample {
	full := copySamples(valid)
	offset := len(full) - len(cemented)
	for i, s := range copySamples(cemented) {
		full[offset+i] = s
	}
	return full
}

func copySamples(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	for i, s := range samples {
		values := make(map[string]float64, len(s.Values))
		for k, v := range s.Values {
			values[k] = v
		}
		out[i] = Sample{Depth: s.Depth, Values: values, Category: s.Category}
	}
	return out
}
