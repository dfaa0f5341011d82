// Package layers reads geological layer boundary files for the seal and
// adhesion analysis.
package layers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olegiv/cbl-analyzer-go/internal/cbl"
)

// Reader handles reading and validating layer boundary CSV files.
type Reader struct {
	maxSizeMB int
}

// NewReader creates a new layer boundary reader
func NewReader(maxSizeMB int) *Reader {
	return &Reader{maxSizeMB: maxSizeMB}
}

// Read loads layer boundaries from a CSV file with columns label,top,base.
// A header row is detected and skipped. Rows whose base does not lie below
// the top are dropped; the count of dropped rows is returned alongside the
// boundaries.
func (r *Reader) Read(filePath string) ([]cbl.LayerBoundary, int, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("layer boundary file not found: %s", filePath)
		}
		return nil, 0, fmt.Errorf("failed to stat layer file: %w", err)
	}

	// Check file size
	maxBytes := int64(r.maxSizeMB) * 1024 * 1024
	if fileInfo.Size() > maxBytes {
		return nil, 0, fmt.Errorf("layer file exceeds maximum size of %dMB (size: %.2fMB)",
			r.maxSizeMB, float64(fileInfo.Size())/1024/1024)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open layer file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return r.parse(f)
}

func (r *Reader) parse(src io.Reader) ([]cbl.LayerBoundary, int, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	var boundaries []cbl.LayerBoundary
	skipped := 0
	line := 0

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to parse layer file: %w", err)
		}
		line++

		// Header detection: the first row may carry column names
		if line == 1 && !isNumeric(record[1]) {
			continue
		}

		top, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, 0, fmt.Errorf("layer file line %d: invalid top depth %q", line, record[1])
		}
		base, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, 0, fmt.Errorf("layer file line %d: invalid base depth %q", line, record[2])
		}

		// Inverted or zero-thickness windows carry no information
		if base <= top {
			skipped++
			continue
		}

		boundaries = append(boundaries, cbl.LayerBoundary{
			Label: strings.TrimSpace(record[0]),
			Top:   top,
			Base:  base,
		})
	}

	if line == 0 {
		return nil, 0, fmt.Errorf("layer file is empty")
	}

	return boundaries, skipped, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
