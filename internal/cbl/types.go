// Package cbl implements the cement bond log analysis pipeline: top-of-cement
// detection, gap interpolation, per-sample bond classification, critical
// interval segmentation, layer/seal adhesion statistics and KPI aggregation.
//
// The whole package is a pure, synchronous transformation: Analyze consumes a
// parsed dataset plus layer boundaries and returns a fresh Result without
// mutating its inputs.
package cbl

// Category labels the bond quality of one cemented-zone sample.
type Category string

// Bond quality categories. The Spanish labels are the established vocabulary
// of the reporting side and are part of the output contract.
const (
	CategoryNone Category = ""      // no usable amplitude value
	CategoryGood Category = "Bueno" // amplitude <= low threshold
	CategoryMid  Category = "Medio" // strictly between thresholds
	CategoryBad  Category = "Malo"  // amplitude >= high threshold
)

// Sample is one depth-indexed record annotated with its quality category.
type Sample struct {
	Depth    float64
	Values   map[string]float64
	Category Category
}

// QualityInterval is a contiguous run of equal-quality samples. Only Malo and
// Medio intervals are ever reported.
type QualityInterval struct {
	Category Category
	Top      float64
	Base     float64
	Length   float64 // Base - Top
}

// LayerBoundary is one geological layer window supplied by the caller.
type LayerBoundary struct {
	Label string
	Top   float64
	Base  float64
}

// LayerAnalysisItem holds adhesion statistics over one layer window and its
// padded seal window. Adhesion percentages are NaN when the window intersects
// no cemented data.
type LayerAnalysisItem struct {
	Well            string
	Label           string
	Top             float64
	Base            float64
	Length          float64
	AdhesionPct     float64
	SealAdhesionPct float64
}

// Flat KPI map keys. Optional KPIs are expressed by key absence: a key is
// present only when its inputs allowed it to be computed.
const (
	KPITOC         = "toc_m"
	KPITotalM      = "total_m"
	KPIGoodM       = "good_m"
	KPIMediumM     = "medium_m"
	KPIBadM        = "bad_m"
	KPIGoodPct     = "good_pct"
	KPIMeanAmp     = "mean_amplitude"
	KPITOCDiff     = "toc_diff_m"
	KPITScore      = "t_score"
	KPIAScore      = "a_score"
	KPICementScore = "cement_score"
	KPIApnzPct     = "apnz_pct"
	KPIAselloPct   = "asello_pct"
)

// Result is the full output of one analysis invocation.
type Result struct {
	Well           string
	Step           float64
	DepthCurve     string
	AmplitudeCurve string
	Cemented       []Sample // samples at/below the detected TOC, classified
	FullLog        []Sample // every valid sample, classified where cemented; plotting only
	KPIs           map[string]float64
	Intervals      []QualityInterval
	Layers         []LayerAnalysisItem
}

// Params carries the tunable constants of the pipeline. They are configuration
// rather than hardwired values so the engine can be calibrated per instrument.
type Params struct {
	AmplitudeCurves []string // candidate mnemonics; first one present in the dataset wins
	LowThreshold    float64  // amplitude <= low  -> Bueno
	HighThreshold   float64  // amplitude >= high -> Malo
	TOCThreshold    float64  // "cement present" amplitude ceiling for run detection
	TOCMinRun       float64  // minimum qualifying run span, depth units
	MinIntervalFt   float64  // minimum reportable interval length, feet
	SealMargin      float64  // seal window padding, depth units
	InterpCurves    []string // auxiliary curves gap-filled when present

	// Optional per-job scoring inputs; both must be > 0 for the T-score,
	// A-score and composite cement score to be computed.
	RequestedTOC  float64
	AnnulusHeight float64
}

// DefaultParams returns the calibration used when no overrides are supplied.
func DefaultParams() Params {
	return Params{
		AmplitudeCurves: []string{"CBL", "CBLF", "AMP", "AMP3FT"},
		LowThreshold:    10,
		HighThreshold:   20,
		TOCThreshold:    20,
		TOCMinRun:       5,
		MinIntervalFt:   5,
		SealMargin:      5,
		InterpCurves:    []string{"TT", "GR"},
	}
}
