// Package las parses LAS-style sectioned ASCII well logs into depth-indexed
// curve records.
package las

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultStep is used when the file declares no STEP and fewer than two
	// data records exist to derive one (0.1524 m = 6 in).
	DefaultStep = 0.1524

	// DefaultWellName labels datasets whose ~W section carries no WELL entry.
	DefaultWellName = "UNKNOWN"

	// DefaultNullValue is the conventional LAS null sentinel.
	DefaultNullValue = -999.25
)

// Record maps curve mnemonics to sample values. Missing or null values are
// stored as NaN.
type Record map[string]float64

// Dataset is the parsed form of one log file.
type Dataset struct {
	Well    string
	Step    float64
	Curves  []string // first-seen order, duplicates removed
	Records []Record // file order; not necessarily depth-sorted
}

// DepthCurve returns the mnemonic of the depth curve, which is by convention
// the first declared curve.
func (d *Dataset) DepthCurve() string {
	if len(d.Curves) == 0 {
		return "DEPT"
	}
	return d.Curves[0]
}

// FormatError reports a structurally unusable log file: no curve definitions
// or no data records.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid log format: " + e.Reason
}

// section is the parser state driven by ~<letter> markers.
type section int

const (
	sectionNone section = iota // unrecognized or not-yet-seen section: lines ignored
	sectionWell
	sectionCurve
	sectionASCII
)

// Parser converts raw sectioned ASCII text into a Dataset.
type Parser struct {
	nullValue float64
}

// NewParser creates a parser. Data values equal to nullValue are mapped to
// NaN, as are tokens that fail to parse as numbers.
func NewParser(nullValue float64) *Parser {
	return &Parser{nullValue: nullValue}
}

// Parse runs a single left-to-right pass over the raw text. Lines starting
// with '#' and blank lines are skipped everywhere; a '~<letter>' line switches
// the current section. Data rows whose token count does not match the
// declared curve count are silently dropped.
func (p *Parser) Parse(raw string) (*Dataset, error) {
	ds := &Dataset{Well: DefaultWellName}

	// Raw curve list in declaration order; duplicates are kept here so data
	// columns still line up positionally, then collapsed for ds.Curves.
	var curves []string
	stepDeclared := false

	state := sectionNone
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "~") {
			state = switchSection(line)
			continue
		}

		switch state {
		case sectionWell:
			if name, ok := parseWellName(line); ok {
				ds.Well = name
			}
			if step, ok := parseStep(line); ok {
				ds.Step = step
				stepDeclared = true
			}
		case sectionCurve:
			if mnem, ok := parseMnemonic(line); ok {
				curves = append(curves, mnem)
			}
		case sectionASCII:
			if rec, ok := p.parseDataLine(line, curves); ok {
				ds.Records = append(ds.Records, rec)
			}
		}
	}

	ds.Curves = dedupCurves(curves)
	if len(ds.Curves) == 0 {
		return nil, &FormatError{Reason: "no curve definitions found (missing or empty ~C section)"}
	}
	if len(ds.Records) == 0 {
		return nil, &FormatError{Reason: "no data records found (missing or empty ~A section)"}
	}

	if !stepDeclared {
		ds.Step = deriveStep(ds)
	}
	ds.Step = math.Abs(ds.Step)

	return ds, nil
}

// switchSection maps a '~<letter>' marker line to a parser state. Sections
// other than W, C and A are tolerated but their lines are ignored.
func switchSection(line string) section {
	rest := strings.TrimSpace(line[1:])
	if rest == "" {
		return sectionNone
	}
	switch rest[0] {
	case 'W', 'w':
		return sectionWell
	case 'C', 'c':
		return sectionCurve
	case 'A', 'a':
		return sectionASCII
	default:
		return sectionNone
	}
}

// parseWellName extracts the well name from a 'WELL . <value> : <desc>' line.
// The keyword match is case-insensitive; the value sits between the first '.'
// and the last ':'.
func parseWellName(line string) (string, bool) {
	dot := strings.Index(line, ".")
	if dot < 0 {
		return "", false
	}
	if !strings.EqualFold(strings.TrimSpace(line[:dot]), "WELL") {
		return "", false
	}
	rest := line[dot+1:]
	colon := strings.LastIndex(rest, ":")
	if colon < 0 {
		return "", false
	}
	value := strings.TrimSpace(rest[:colon])
	if value == "" {
		return "", false
	}
	return value, true
}

// parseStep extracts the sample step from a 'STEP <anything> : <number>'
// line. Unlike WELL, the value sits after the colon; some writers put header
// data there.
func parseStep(line string) (float64, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, false
	}
	key := fields[0]
	if i := strings.Index(key, "."); i >= 0 {
		key = key[:i]
	}
	if !strings.EqualFold(key, "STEP") {
		return 0, false
	}
	colon := strings.LastIndex(line, ":")
	if colon < 0 {
		return 0, false
	}
	after := strings.Fields(line[colon+1:])
	if len(after) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(after[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseMnemonic extracts the curve mnemonic from a '<mnem>.<unit> : <desc>'
// line: the first whitespace token before the first '.'.
func parseMnemonic(line string) (string, bool) {
	head := line
	if i := strings.Index(line, "."); i >= 0 {
		head = line[:i]
	}
	fields := strings.Fields(head)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// parseDataLine splits a data row on whitespace and maps tokens to curves by
// position. Rows whose token count differs from the curve count are dropped.
func (p *Parser) parseDataLine(line string, curves []string) (Record, bool) {
	tokens := strings.Fields(line)
	if len(curves) == 0 || len(tokens) != len(curves) {
		return nil, false
	}
	rec := make(Record, len(curves))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || v == p.nullValue {
			v = math.NaN()
		}
		rec[curves[i]] = v
	}
	return rec, true
}

// dedupCurves collapses duplicate mnemonics, preserving first occurrence.
func dedupCurves(curves []string) []string {
	seen := make(map[string]bool, len(curves))
	out := make([]string, 0, len(curves))
	for _, c := range curves {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// deriveStep computes the step from the depth values of the first two
// records when the ~W section declared none.
func deriveStep(ds *Dataset) float64 {
	if len(ds.Records) < 2 {
		return DefaultStep
	}
	depth := ds.DepthCurve()
	diff := math.Abs(ds.Records[1][depth] - ds.Records[0][depth])
	if math.IsNaN(diff) || diff == 0 {
		return DefaultStep
	}
	return diff
}
