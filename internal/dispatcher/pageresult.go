package dispatcher

import "github.com/pagesift/outline-worker/internal/detection"

// PageResult maps engine names to the detections each engine produced for one
// page. It is built incrementally as jobs complete and treated as immutable
// once every configured engine has reported.
type PageResult struct {
	byEngine map[string][]detection.Detection
	expected int
}

func newPageResult(expected int) *PageResult {
	return &PageResult{
		byEngine: make(map[string][]detection.Detection, expected),
		expected: expected,
	}
}

func (r *PageResult) add(engine string, boxes []detection.Detection) {
	r.byEngine[engine] = boxes
}

// Complete reports whether every configured engine has reported for the page.
func (r *PageResult) Complete() bool {
	return len(r.byEngine) >= r.expected
}

// Detections returns the detections one engine produced for the page.
func (r *PageResult) Detections(engine string) []detection.Detection {
	return r.byEngine[engine]
}

// ByEngine returns the full engine-to-detections mapping.
func (r *PageResult) ByEngine() map[string][]detection.Detection {
	return r.byEngine
}

// DetectionCount returns the total detections across all engines.
func (r *PageResult) DetectionCount() int {
	n := 0
	for _, boxes := range r.byEngine {
		n += len(boxes)
	}
	return n
}
