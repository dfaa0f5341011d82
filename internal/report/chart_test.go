package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olegiv/cbl-analyzer-go/internal/cbl"
)

func chartResult() *cbl.Result {
	samples := make([]cbl.Sample, 0, 20)
	for i := 0; i < 20; i++ {
		depth := 990 + float64(i)
		amp := 60.0
		if depth >= 1000 {
			amp = 5.0
		}
		samples = append(samples, cbl.Sample{
			Depth:  depth,
			Values: map[string]float64{"DEPT": depth, "CBL": amp},
		})
	}
	return &cbl.Result{
		Well:           "TEST-1",
		Step:           1,
		DepthCurve:     "DEPT",
		AmplitudeCurve: "CBL",
		FullLog:        samples,
		KPIs:           map[string]float64{cbl.KPITOC: 1000},
	}
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer

	if err := renderChart(chartResult(), &buf); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"Cement Bond Log - TEST-1", "TOC", "amplitude"} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected chart HTML to contain %q", want)
		}
	}
}

func TestRenderChart_NoSamples(t *testing.T) {
	res := chartResult()
	res.FullLog = nil

	var buf bytes.Buffer
	if err := renderChart(res, &buf); err == nil {
		t.Fatal("Expected an error with no samples")
	}
}

func TestWriteChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.html")

	if err := WriteChart(chartResult(), path); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Chart file not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Chart file is empty")
	}
}

func TestWriteChart_BadPath(t *testing.T) {
	err := WriteChart(chartResult(), filepath.Join(t.TempDir(), "missing", "chart.html"))
	if err == nil {
		t.Fatal("Expected an error for an unwritable path")
	}
}
