/**
 * Outline builder - turns consensus detections into a document outline
 *
 * Pure statistical heuristic: the page-0 detection with the largest estimated
 * font size becomes the title, and heading levels are assigned from the
 * document-wide median font size. No layout or indentation signal is used;
 * several title-sized short strings on one page will all classify as H1.
 * See the threshold constants below before tuning.
 */

package outline

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Heading levels emitted in the outline.
const (
	LevelH1 = "H1"
	LevelH2 = "H2"
)

// Threshold multipliers applied to the document-wide median font size.
const (
	h1Multiplier = 1.6
	h2Multiplier = 1.3
)

// Heading candidate admission filters: short phrases, not sentences.
const (
	minHeadingLen = 3
	maxHeadingLen = 120
	maxSpaces     = 10
)

// medianMinTextLen keeps tiny fragments from skewing the median.
const medianMinTextLen = 3

// Entry is one classified heading.
type Entry struct {
	Level string `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Result is the final outline for one document, ordered by (page, vertical
// position). Immutable once constructed.
type Result struct {
	Title   string  `json:"title"`
	Outline []Entry `json:"outline"`
}

// PageDetection pairs a consensus detection with its page index.
type PageDetection struct {
	Page     int
	Text     string
	Y1       float64
	FontSize float64
}

// Build infers the document title and H1/H2 headings from the full set of
// consensus detections. It is stateless and deterministic given its input.
func Build(detections []PageDetection) Result {
	if len(detections) == 0 {
		return Result{Title: "", Outline: []Entry{}}
	}

	// Title: largest font size on page 0; ties go to the first occurrence.
	// The index, not the content, identifies the title so an identical
	// heading elsewhere is still classified.
	titleIdx := -1
	for i, d := range detections {
		if d.Page != 0 {
			continue
		}
		if titleIdx == -1 || d.FontSize > detections[titleIdx].FontSize {
			titleIdx = i
		}
	}
	title := ""
	if titleIdx >= 0 {
		title = detections[titleIdx].Text
	}

	h1Threshold, h2Threshold, ok := headingThresholds(detections)
	if !ok {
		return Result{Title: title, Outline: []Entry{}}
	}

	// Candidates are ordered by (page, vertical position) before
	// classification so the outline reads top-to-bottom, page-by-page.
	order := make([]int, len(detections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := detections[order[a]], detections[order[b]]
		if da.Page != db.Page {
			return da.Page < db.Page
		}
		return da.Y1 < db.Y1
	})

	entries := make([]Entry, 0)
	for _, i := range order {
		if i == titleIdx {
			continue
		}
		d := detections[i]
		if !isHeadingCandidate(d.Text) {
			continue
		}

		var level string
		switch {
		case d.FontSize >= h1Threshold:
			level = LevelH1
		case d.FontSize >= h2Threshold:
			level = LevelH2
		default:
			continue
		}

		entries = append(entries, Entry{Level: level, Text: d.Text, Page: d.Page})
	}

	return Result{Title: title, Outline: entries}
}

// headingThresholds computes the H1/H2 font-size cutoffs from the positional
// median of sizes whose text is long enough to count. Returns ok=false when
// no detection qualifies.
func headingThresholds(detections []PageDetection) (h1, h2 float64, ok bool) {
	sizes := make([]float64, 0, len(detections))
	for _, d := range detections {
		if utf8.RuneCountInString(d.Text) >= medianMinTextLen {
			sizes = append(sizes, d.FontSize)
		}
	}
	if len(sizes) == 0 {
		return 0, 0, false
	}

	sort.Float64s(sizes)
	median := sizes[len(sizes)/2]
	return median * h1Multiplier, median * h2Multiplier, true
}

// isHeadingCandidate applies the short-phrase admission filters.
func isHeadingCandidate(text string) bool {
	length := utf8.RuneCountInString(text)
	if length < minHeadingLen || length > maxHeadingLen {
		return false
	}
	if strings.HasSuffix(text, ".") {
		return false
	}
	return strings.Count(text, " ") <= maxSpaces
}
