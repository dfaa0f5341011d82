package cbl

import (
	"math"
	"testing"
)

func TestClassifySamples_Boundaries(t *testing.T) {
	const low, high = 10.0, 20.0

	tests := []struct {
		name string
		amp  float64
		want Category
	}{
		{name: "Well below low", amp: 2.0, want: CategoryGood},
		{name: "Exactly low threshold", amp: low, want: CategoryGood},
		{name: "Just above low", amp: low + 0.001, want: CategoryMid},
		{name: "Between thresholds", amp: 15.0, want: CategoryMid},
		{name: "Just below high", amp: high - 0.001, want: CategoryMid},
		{name: "Exactly high threshold", amp: high, want: CategoryBad},
		{name: "Above high", amp: 55.0, want: CategoryBad},
		{name: "Zero amplitude", amp: 0.0, want: CategoryGood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := makeSamples(t, []float64{100}, []float64{tt.amp})
			out := classifySamples(samples, "CBL", low, high)
			if out[0].Category != tt.want {
				t.Errorf("amp %v: expected %q, got %q", tt.amp, tt.want, out[0].Category)
			}
		})
	}
}

func TestClassifySamples_NoCategoryWithoutAmplitude(t *testing.T) {
	samples := makeSamples(t, []float64{100, 101}, []float64{math.NaN(), 5})
	delete(samples[0].Values, "CBL")

	out := classifySamples(samples, "CBL", 10, 20)
	if out[0].Category != CategoryNone {
		t.Errorf("Expected no category for missing amplitude, got %q", out[0].Category)
	}
	if out[1].Category != CategoryGood {
		t.Errorf("Expected Bueno for amp 5, got %q", out[1].Category)
	}
}

func TestClassifySamples_DoesNotMutateInput(t *testing.T) {
	samples := makeSamples(t, []float64{100}, []float64{50})
	_ = classifySamples(samples, "CBL", 10, 20)
	if samples[0].Category != CategoryNone {
		t.Errorf("Input samples must stay unannotated, got %q", samples[0].Category)
	}
}
