/**
 * Poppler renderer - rasterizes PDFs through the pdftoppm binary
 */

package renderer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pagesift/outline-worker/internal/logging"
)

// PopplerConfig holds renderer configuration
type PopplerConfig struct {
	// BinaryPath locates the pdftoppm executable.
	BinaryPath string
	// DPI is the render resolution.
	DPI int
	// TempDir hosts the per-render scratch directory.
	TempDir string
}

// PopplerRenderer renders PDF pages to PNG by invoking pdftoppm.
type PopplerRenderer struct {
	binaryPath string
	dpi        int
	tempDir    string
	logger     *logging.Logger
}

// NewPopplerRenderer creates a pdftoppm-backed renderer.
func NewPopplerRenderer(cfg *PopplerConfig) *PopplerRenderer {
	binary := cfg.BinaryPath
	if binary == "" {
		binary = "/usr/bin/pdftoppm"
	}
	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = 108
	}
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return &PopplerRenderer{
		binaryPath: binary,
		dpi:        dpi,
		tempDir:    tempDir,
		logger:     logging.NewLogger("renderer"),
	}
}

// Render implements Renderer. The scratch directory is scoped to one render
// call and removed before returning.
func (r *PopplerRenderer) Render(ctx context.Context, pdf []byte) ([][]byte, error) {
	workDir, err := os.MkdirTemp(r.tempDir, "outline-render-")
	if err != nil {
		return nil, fmt.Errorf("failed to create render directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(inputPath, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write input document: %w", err)
	}

	outputPrefix := filepath.Join(workDir, "page")
	cmd := exec.CommandContext(ctx, r.binaryPath, "-png", "-r", strconv.Itoa(r.dpi), inputPath, outputPrefix)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, output)
	}

	// pdftoppm zero-pads page numbers, so lexical order is page order.
	paths, err := filepath.Glob(outputPrefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("renderer produced no pages")
	}

	pages := make([][]byte, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page %s: %w", filepath.Base(path), err)
		}
		pages = append(pages, data)
	}

	r.logger.Debug("Rendered document", "pages", len(pages), "dpi", r.dpi)
	return pages, nil
}
