/**
 * Filesystem sink for outline results
 *
 * Writes one <stem>.json per processed document. The emitted shape is the
 * compatibility contract: {"title": ..., "outline": [{level, text, page}]}.
 */

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pagesift/outline-worker/internal/outline"
)

// FileSink persists outline results as JSON files in an output directory.
type FileSink struct {
	outputDir string
}

// NewFileSink creates the sink, creating the output directory if needed.
func NewFileSink(outputDir string) (*FileSink, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileSink{outputDir: outputDir}, nil
}

// Write stores one document's outline under <stem>.json, where stem is the
// source filename without its extension.
func (s *FileSink) Write(sourceFilename string, result *outline.Result) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(sourceFilename), filepath.Ext(sourceFilename))
	if stem == "" {
		return "", fmt.Errorf("cannot derive output name from %q", sourceFilename)
	}

	data, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal outline: %w", err)
	}

	outputPath := filepath.Join(s.outputDir, stem+".json")
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write outline file: %w", err)
	}

	return outputPath, nil
}
