package cbl

import (
	"fmt"
	"strings"
)

// NoCompatibleCurveError reports that none of the configured amplitude curve
// candidates exist in the parsed curve list. Fatal; raised before any
// pipeline stage runs.
type NoCompatibleCurveError struct {
	Candidates []string
	Curves     []string
}

func (e *NoCompatibleCurveError) Error() string {
	return fmt.Sprintf("no compatible amplitude curve: none of [%s] present in log curves [%s]",
		strings.Join(e.Candidates, ", "), strings.Join(e.Curves, ", "))
}

// NoValidDataError reports that zero records survived the depth > 0 and
// amplitude >= 0 prefilter. Fatal; raised before any pipeline stage runs.
type NoValidDataError struct {
	Curve string
}

func (e *NoValidDataError) Error() string {
	return fmt.Sprintf("no valid data: zero records with depth > 0 and %s >= 0", e.Curve)
}
