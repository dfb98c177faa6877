/**
 * Detection - Shared data structure for recognized text regions
 *
 * A Detection is one recognized text region: an axis-aligned rectangle in
 * page-image pixel coordinates plus the recognized text, a normalized
 * confidence, and an estimated font size derived from the region height.
 * Area is computed once at construction and reused by the overlap math.
 */

package detection

import "strings"

// Detection represents a single recognized text region on a page image.
// Values are immutable after construction.
type Detection struct {
	X1, Y1, X2, Y2 float64
	Text           string
	Confidence     float64
	FontSize       float64
	Area           float64
}

// New builds a Detection from raw engine output. It returns false when the
// box is degenerate (zero or negative width/height) or the trimmed text is
// empty, so noise never reaches downstream stages.
func New(x1, y1, x2, y2 float64, text string, confidence, fontSize float64) (Detection, bool) {
	text = strings.TrimSpace(text)
	if x2 <= x1 || y2 <= y1 || text == "" {
		return Detection{}, false
	}
	return Detection{
		X1:         x1,
		Y1:         y1,
		X2:         x2,
		Y2:         y2,
		Text:       text,
		Confidence: confidence,
		FontSize:   fontSize,
		Area:       (x2 - x1) * (y2 - y1),
	}, true
}

// OverlapRatio returns the intersection-over-union of two detections in
// [0,1]. Disjoint rectangles are rejected by edge comparison before any
// intersection area is computed. A union area of zero yields 0. The result
// is symmetric: OverlapRatio(a, b) == OverlapRatio(b, a).
func OverlapRatio(a, b Detection) float64 {
	if a.X2 <= b.X1 || b.X2 <= a.X1 || a.Y2 <= b.Y1 || b.Y2 <= a.Y1 {
		return 0.0
	}

	ix1, iy1 := max(a.X1, b.X1), max(a.Y1, b.Y1)
	ix2, iy2 := min(a.X2, b.X2), min(a.Y2, b.Y2)

	iw := ix2 - ix1
	ih := iy2 - iy1
	if iw <= 0 || ih <= 0 {
		return 0.0
	}

	intersection := iw * ih
	union := a.Area + b.Area - intersection
	if union <= 0 {
		return 0.0
	}

	return intersection / union
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
