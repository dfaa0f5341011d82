package cbl

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// makeSamples builds sorted samples from parallel depth/amplitude slices.
// NaN amplitudes are stored as-is so gap and no-category paths can be tested.
func makeSamples(t *testing.T, depths, amps []float64) []Sample {
	t.Helper()
	if len(depths) != len(amps) {
		t.Fatalf("makeSamples: %d depths vs %d amps", len(depths), len(amps))
	}
	out := make([]Sample, len(depths))
	for i := range depths {
		out[i] = Sample{
			Depth:  depths[i],
			Values: map[string]float64{"DEPT": depths[i], "CBL": amps[i]},
		}
	}
	return out
}

// classified assigns categories to samples in place and returns them, for
// tests that start downstream of the classifier.
func classified(samples []Sample, cats []Category) []Sample {
	for i := range samples {
		samples[i].Category = cats[i]
	}
	return samples
}
