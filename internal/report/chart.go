// Package report renders analysis results as standalone HTML charts.
package report

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/olegiv/cbl-analyzer-go/internal/cbl"
)

// WriteChart renders the amplitude-vs-depth chart to an HTML file.
func WriteChart(result *cbl.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := renderChart(result, f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// renderChart builds the line chart over the full log: amplitude against
// depth, with a mark line at the detected top of cement.
func renderChart(result *cbl.Result, w io.Writer) error {
	if len(result.FullLog) == 0 {
		return fmt.Errorf("no samples to chart")
	}

	toc := result.KPIs[cbl.KPITOC]

	depths := make([]string, 0, len(result.FullLog))
	amplitude := make([]opts.LineData, 0, len(result.FullLog))
	tocIndex := 0
	for i, s := range result.FullLog {
		depths = append(depths, fmt.Sprintf("%.2f", s.Depth))
		v, ok := s.Values[result.AmplitudeCurve]
		if !ok || math.IsNaN(v) {
			amplitude = append(amplitude, opts.LineData{Value: nil})
		} else {
			amplitude = append(amplitude, opts.LineData{Value: v})
		}
		if s.Depth < toc {
			tocIndex = i + 1
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("CBL %s", result.Well),
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Cement Bond Log - %s", result.Well),
			Subtitle: fmt.Sprintf("curve=%s toc=%.2fm step=%.4fm", result.AmplitudeCurve, toc, result.Step),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Depth (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Amplitude (mV)", NameLocation: "middle", NameGap: 40}),
	)

	line.SetXAxis(depths)
	line.AddSeries("amplitude", amplitude,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false)}),
		charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{
			Name:  "TOC",
			XAxis: tocIndex,
		}),
	)

	return line.Render(w)
}
