/**
 * Recognizer contract for OCR engines
 *
 * Wraps each OCR engine behind a uniform detection interface. Adapters apply
 * engine-specific confidence and text-length admission filters at the source
 * and absorb per-page failures, so downstream stages never see noise and a
 * broken page simply contributes no detections from that engine.
 */

package recognizer

import (
	"context"

	"github.com/pagesift/outline-worker/internal/detection"
)

// Recognizer maps one page image to a list of detections. Detect never fails
// upward: a fatal per-page decode or engine error degrades to an empty list.
type Recognizer interface {
	// Name identifies the engine, used as the key in per-page results.
	Name() string

	// Detect runs recognition on a single page image (encoded bytes).
	Detect(ctx context.Context, pageImage []byte) []detection.Detection

	// Close releases engine resources held for the worker's lifetime.
	Close() error
}

// Factory builds one engine instance per worker, so expensive engine state is
// initialized at most once per worker lifetime rather than once per job.
type Factory struct {
	Name string
	New  func() Recognizer
}
