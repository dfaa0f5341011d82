package ai

import (
	"fmt"
	"math"
	"strings"

	"github.com/olegiv/cbl-analyzer-go/internal/cbl"
)

// systemPrompt frames the model as a cementing engineer writing for an
// operations audience.
func systemPrompt() string {
	return `You are a senior well cementing engineer reviewing cement bond log (CBL) analysis results.

You will receive a digest of one analysis run: detected top of cement, bond quality breakdown, poorly bonded intervals and per-layer adhesion figures.

Write a short narrative assessment for the operations team:
- 3 to 5 sentences of plain prose, no headings, no bullet lists, no JSON.
- Lead with the overall verdict on zonal isolation.
- Call out the worst intervals and any layer whose adhesion is below 50%.
- If a cement score is present, interpret it (>=80 good, 60-79 acceptable, <60 requires remediation).
- Be strictly fact-based: only reference figures present in the digest.
- If remediation looks warranted, say so and name the depth range.`
}

// userPrompt wraps the report digest for the request
func userPrompt(report string) string {
	var prompt strings.Builder
	prompt.WriteString("CBL ANALYSIS DIGEST:\n")
	prompt.WriteString(report)
	prompt.WriteString("\n\nWrite the narrative assessment as instructed.")
	return prompt.String()
}

// BuildReport renders an analysis result as the plain-text digest sent to the
// model. Absent KPIs are simply omitted.
func BuildReport(result *cbl.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Well: %s\n", result.Well)
	fmt.Fprintf(&b, "Amplitude curve: %s (depth: %s, step %.4f m)\n",
		result.AmplitudeCurve, result.DepthCurve, result.Step)
	fmt.Fprintf(&b, "Top of cement: %.2f m\n", result.KPIs[cbl.KPITOC])
	fmt.Fprintf(&b, "Cemented interval: %.2f m\n", result.KPIs[cbl.KPITotalM])
	fmt.Fprintf(&b, "Bond quality: %.2f m good, %.2f m medium, %.2f m bad (%.1f%% good)\n",
		result.KPIs[cbl.KPIGoodM], result.KPIs[cbl.KPIMediumM],
		result.KPIs[cbl.KPIBadM], result.KPIs[cbl.KPIGoodPct])

	if mean, ok := result.KPIs[cbl.KPIMeanAmp]; ok {
		fmt.Fprintf(&b, "Mean amplitude: %.2f\n", mean)
	}
	if diff, ok := result.KPIs[cbl.KPITOCDiff]; ok {
		fmt.Fprintf(&b, "TOC deviation from plan: %.2f m\n", diff)
	}
	if score, ok := result.KPIs[cbl.KPICementScore]; ok {
		fmt.Fprintf(&b, "Cement score: %.1f / 100\n", score)
	}
	if apnz, ok := result.KPIs[cbl.KPIApnzPct]; ok {
		fmt.Fprintf(&b, "Aggregate layer adhesion (Apnz): %.1f%%\n", apnz)
	}
	if asello, ok := result.KPIs[cbl.KPIAselloPct]; ok {
		fmt.Fprintf(&b, "Aggregate seal adhesion (Asello): %.1f%%\n", asello)
	}

	if len(result.Intervals) > 0 {
		b.WriteString("\nPoorly bonded intervals:\n")
		for _, iv := range result.Intervals {
			fmt.Fprintf(&b, "- %s: %.2f-%.2f m (%.2f m)\n",
				iv.Category, iv.Top, iv.Base, iv.Length)
		}
	} else {
		b.WriteString("\nNo reportable poorly bonded intervals.\n")
	}

	if len(result.Layers) > 0 {
		b.WriteString("\nLayer adhesion:\n")
		for _, layer := range result.Layers {
			if math.IsNaN(layer.AdhesionPct) {
				fmt.Fprintf(&b, "- %s (%.2f-%.2f m): no cemented data in window\n",
					layer.Label, layer.Top, layer.Base)
				continue
			}
			fmt.Fprintf(&b, "- %s (%.2f-%.2f m): adhesion %.1f%%, seal %.1f%%\n",
				layer.Label, layer.Top, layer.Base, layer.AdhesionPct, layer.SealAdhesionPct)
		}
	}

	return b.String()
}
