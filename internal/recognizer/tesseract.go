/**
 * Tesseract recognizer adapters
 *
 * Two engines backed by gosseract at different segmentation granularities:
 * - "tesseract-word": word-level boxes, permissive confidence floor
 * - "tesseract-line": line-level boxes, stricter confidence floor
 *
 * Running both granularities over the same page gives the consensus stage
 * independent opinions about where text regions sit, which is what the
 * cross-engine voting needs to deduplicate against.
 */

package recognizer

import (
	"context"
	"sync"
	"unicode/utf8"

	"github.com/otiai10/gosseract/v2"

	"github.com/pagesift/outline-worker/internal/detection"
	"github.com/pagesift/outline-worker/internal/logging"
)

// Engine names as they appear in per-page results.
const (
	WordEngineName = "tesseract-word"
	LineEngineName = "tesseract-line"
)

// Admission policies are engine-specific constants, not shared.
const (
	wordMinConfidence = 0.30
	wordMinTextLen    = 2

	lineMinConfidence = 0.40
	lineMinTextLen    = 2
)

// Estimated font size is derived from region height, floored at 8px so thin
// scan artifacts do not produce implausible sizes.
const (
	fontSizeFloor  = 8.0
	fontSizeFactor = 0.8
)

// TesseractRecognizer adapts a gosseract client to the Recognizer contract.
// The client is created lazily on first use and reused for every job the
// owning worker executes.
type TesseractRecognizer struct {
	name          string
	level         gosseract.PageIteratorLevel
	minConfidence float64
	minTextLen    int
	languages     []string

	mu     sync.Mutex
	client *gosseract.Client
	logger *logging.Logger
}

// NewWordEngine returns a factory for the word-granularity engine.
func NewWordEngine(languages []string) Factory {
	return Factory{
		Name: WordEngineName,
		New: func() Recognizer {
			return &TesseractRecognizer{
				name:          WordEngineName,
				level:         gosseract.RIL_WORD,
				minConfidence: wordMinConfidence,
				minTextLen:    wordMinTextLen,
				languages:     languages,
				logger:        logging.NewLogger("ocr"),
			}
		},
	}
}

// NewLineEngine returns a factory for the line-granularity engine.
func NewLineEngine(languages []string) Factory {
	return Factory{
		Name: LineEngineName,
		New: func() Recognizer {
			return &TesseractRecognizer{
				name:          LineEngineName,
				level:         gosseract.RIL_TEXTLINE,
				minConfidence: lineMinConfidence,
				minTextLen:    lineMinTextLen,
				languages:     languages,
				logger:        logging.NewLogger("ocr"),
			}
		},
	}
}

// Name implements Recognizer.
func (t *TesseractRecognizer) Name() string { return t.name }

// Detect implements Recognizer. Failures are logged and degrade to an empty
// list; they are never propagated to the dispatcher.
func (t *TesseractRecognizer) Detect(ctx context.Context, pageImage []byte) []detection.Detection {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ctx.Err() != nil {
		return nil
	}

	client, err := t.ensureClient()
	if err != nil {
		t.logger.Error("Failed to initialize tesseract client", "engine", t.name, "error", err)
		return nil
	}

	if err := client.SetImageFromBytes(pageImage); err != nil {
		t.logger.Error("Failed to set page image", "engine", t.name, "error", err)
		return nil
	}

	boxes, err := client.GetBoundingBoxes(t.level)
	if err != nil {
		t.logger.Error("Recognition failed", "engine", t.name, "error", err)
		return nil
	}

	detections := make([]detection.Detection, 0, len(boxes))
	for _, b := range boxes {
		// gosseract reports confidence on a 0-100 scale.
		confidence := b.Confidence / 100.0
		if confidence <= t.minConfidence {
			continue
		}

		x1 := float64(b.Box.Min.X)
		y1 := float64(b.Box.Min.Y)
		x2 := float64(b.Box.Max.X)
		y2 := float64(b.Box.Max.Y)

		d, ok := detection.New(x1, y1, x2, y2, b.Word, confidence, estimateFontSize(y2-y1))
		if !ok || utf8.RuneCountInString(d.Text) < t.minTextLen {
			continue
		}
		detections = append(detections, d)
	}

	return detections
}

// Close implements Recognizer.
func (t *TesseractRecognizer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return nil
	}
	client := t.client
	t.client = nil
	return client.Close()
}

// ensureClient initializes the gosseract client once per worker lifetime.
func (t *TesseractRecognizer) ensureClient() (*gosseract.Client, error) {
	if t.client != nil {
		return t.client, nil
	}

	client := gosseract.NewClient()
	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			client.Close()
			return nil, err
		}
	}

	t.client = client
	return t.client, nil
}

func estimateFontSize(height float64) float64 {
	size := height * fontSizeFactor
	if size < fontSizeFloor {
		return fontSizeFloor
	}
	return size
}
