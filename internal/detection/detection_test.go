package detection

import "testing"

func box(t *testing.T, x1, y1, x2, y2 float64) Detection {
	t.Helper()
	d, ok := New(x1, y1, x2, y2, "text", 0.9, 10)
	if !ok {
		t.Fatalf("expected valid detection for (%v,%v,%v,%v)", x1, y1, x2, y2)
	}
	return d
}

func TestNewDiscardsDegenerateBoxes(t *testing.T) {
	testCases := []struct {
		name           string
		x1, y1, x2, y2 float64
		text           string
	}{
		{"zero width", 10, 10, 10, 20, "text"},
		{"zero height", 10, 10, 20, 10, "text"},
		{"inverted x", 20, 10, 10, 20, "text"},
		{"inverted y", 10, 20, 20, 10, "text"},
		{"empty text", 10, 10, 20, 20, ""},
		{"whitespace text", 10, 10, 20, 20, "   "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := New(tc.x1, tc.y1, tc.x2, tc.y2, tc.text, 0.9, 10); ok {
				t.Errorf("expected detection to be discarded")
			}
		})
	}
}

func TestNewTrimsTextAndCachesArea(t *testing.T) {
	d, ok := New(0, 0, 10, 20, "  Chapter One \n", 0.8, 16)
	if !ok {
		t.Fatal("expected valid detection")
	}
	if d.Text != "Chapter One" {
		t.Errorf("expected trimmed text %q, got %q", "Chapter One", d.Text)
	}
	if d.Area != 200 {
		t.Errorf("expected cached area 200, got %v", d.Area)
	}
}

func TestNewTrimsUnicodeWhitespace(t *testing.T) {
	// Non-breaking and em spaces must trim like ASCII whitespace.
	d, ok := New(0, 0, 10, 20, "\u00a0Chapter One\u2003", 0.8, 16)
	if !ok {
		t.Fatal("expected valid detection")
	}
	if d.Text != "Chapter One" {
		t.Errorf("expected trimmed text %q, got %q", "Chapter One", d.Text)
	}

	if _, ok := New(0, 0, 10, 20, "\u00a0\u2003", 0.8, 16); ok {
		t.Error("expected unicode-whitespace-only text to be discarded")
	}
}

func TestOverlapRatioDisjoint(t *testing.T) {
	a := box(t, 0, 0, 10, 10)
	b := box(t, 20, 20, 30, 30)
	if got := OverlapRatio(a, b); got != 0 {
		t.Errorf("expected 0 for disjoint boxes, got %v", got)
	}
}

func TestOverlapRatioTouchingEdges(t *testing.T) {
	// Boxes sharing an edge have zero intersection area.
	a := box(t, 0, 0, 10, 10)
	b := box(t, 10, 0, 20, 10)
	if got := OverlapRatio(a, b); got != 0 {
		t.Errorf("expected 0 for edge-touching boxes, got %v", got)
	}
}

func TestOverlapRatioIdentical(t *testing.T) {
	a := box(t, 5, 5, 15, 25)
	if got := OverlapRatio(a, a); got != 1.0 {
		t.Errorf("expected 1.0 for identical boxes, got %v", got)
	}
}

func TestOverlapRatioSymmetric(t *testing.T) {
	a := box(t, 0, 0, 10, 10)
	b := box(t, 5, 5, 15, 15)
	ab := OverlapRatio(a, b)
	ba := OverlapRatio(b, a)
	if ab != ba {
		t.Errorf("expected symmetric overlap, got %v and %v", ab, ba)
	}
	// 5x5 intersection over (100 + 100 - 25) union.
	want := 25.0 / 175.0
	if ab != want {
		t.Errorf("expected overlap %v, got %v", want, ab)
	}
}

func TestOverlapRatioPartial(t *testing.T) {
	a := box(t, 0, 0, 10, 10)
	b := box(t, 0, 5, 10, 15)
	want := 50.0 / 150.0
	if got := OverlapRatio(a, b); got != want {
		t.Errorf("expected overlap %v, got %v", want, got)
	}
}
