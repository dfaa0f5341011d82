package las

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Reader handles reading and validating LAS log files before parsing.
type Reader struct {
	maxSizeMB int
}

// NewReader creates a new LAS file reader
func NewReader(maxSizeMB int) *Reader {
	return &Reader{maxSizeMB: maxSizeMB}
}

// Read loads the LAS file at filePath and returns its raw content.
func (r *Reader) Read(filePath string) (string, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("LAS file not found: %s", filePath)
		}
		return "", fmt.Errorf("failed to stat LAS file: %w", err)
	}

	if fileInfo.Mode().Perm()&0400 == 0 {
		return "", fmt.Errorf("LAS file is not readable: %s", filePath)
	}

	maxBytes := int64(r.maxSizeMB) * 1024 * 1024
	if fileInfo.Size() > maxBytes {
		return "", fmt.Errorf("LAS file exceeds maximum size of %dMB (size: %.2fMB)",
			r.maxSizeMB, float64(fileInfo.Size())/1024/1024)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read LAS file: %w", err)
	}

	contentStr := string(content)
	if err := r.validateContent(contentStr); err != nil {
		return "", fmt.Errorf("LAS content validation failed: %w", err)
	}

	return contentStr, nil
}

// validateContent performs basic sanity checks before full parsing.
func (r *Reader) validateContent(content string) error {
	if len(content) == 0 {
		return fmt.Errorf("LAS file is empty")
	}
	if !strings.Contains(content, "~") {
		return fmt.Errorf("LAS file has no section headers")
	}
	return nil
}

// GetFileInfo returns metadata about the LAS file.
func (r *Reader) GetFileInfo(filePath string) (map[string]interface{}, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"size_bytes": fileInfo.Size(),
		"size_mb":    float64(fileInfo.Size()) / 1024 / 1024,
		"modified":   fileInfo.ModTime(),
		"age_hours":  time.Since(fileInfo.ModTime()).Hours(),
	}, nil
}
