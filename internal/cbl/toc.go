package cbl

import "math"

// detectTOC finds the top-of-cement depth over sorted samples.
//
// Primary algorithm: over the subsequence with a valid amplitude value, find
// maximal contiguous runs below the threshold; the first run whose depth span
// is at least minRun wins, and TOC is the depth at its start. Fallback: the
// depth at the second point of the steepest negative-going amplitude change.
// With no valid amplitude samples at all, TOC stays at the shallowest depth.
func detectTOC(samples []Sample, ampCurve string, threshold, minRun float64) float64 {
	toc := samples[0].Depth

	type point struct{ depth, amp float64 }
	pts := make([]point, 0, len(samples))
	for _, s := range samples {
		if v, ok := s.Values[ampCurve]; ok && !math.IsNaN(v) {
			pts = append(pts, point{depth: s.Depth, amp: v})
		}
	}
	if len(pts) == 0 {
		return toc
	}

	// Threshold runs. The i == len(pts) iteration closes a trailing run.
	start := -1
	for i := 0; i <= len(pts); i++ {
		if i < len(pts) && pts[i].amp < threshold {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if pts[i-1].depth-pts[start].depth >= minRun {
				return pts[start].depth
			}
			start = -1
		}
	}

	// Gradient fallback: the minimum signed consecutive difference, even if
	// every difference is positive.
	minDiff := math.Inf(1)
	for i := 1; i < len(pts); i++ {
		if d := pts[i].amp - pts[i-1].amp; d < minDiff {
			minDiff = d
			toc = pts[i].depth
		}
	}
	return toc
}
