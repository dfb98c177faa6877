package consensus

import (
	"reflect"
	"testing"

	"github.com/pagesift/outline-worker/internal/detection"
)

func mustDetection(t *testing.T, x1, y1, x2, y2 float64, text string, confidence float64) detection.Detection {
	t.Helper()
	d, ok := detection.New(x1, y1, x2, y2, text, confidence, 10)
	if !ok {
		t.Fatalf("invalid detection (%v,%v,%v,%v)", x1, y1, x2, y2)
	}
	return d
}

func TestMergeAbsorbsOverlapIntoHigherConfidence(t *testing.T) {
	// D1 is fully contained in D2 with IoU 0.5; D3 is disjoint.
	d1 := mustDetection(t, 0, 0, 10, 10, "Heading", 0.90)
	d2 := mustDetection(t, 0, 0, 10, 20, "Heading", 0.95)
	d3 := mustDetection(t, 100, 100, 110, 110, "Footnote", 0.30)

	byEngine := map[string][]detection.Detection{
		"alpha": {d1, d3},
		"beta":  {d2},
	}

	got := Merge(byEngine, []string{"alpha", "beta"})
	want := []detection.Detection{d2, d3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected consensus {D2, D3}, got %v", got)
	}
}

func TestMergeTieBreaksOnScanOrder(t *testing.T) {
	first := mustDetection(t, 0, 0, 10, 10, "first", 0.80)
	second := mustDetection(t, 0, 0, 10, 10, "second", 0.80)

	got := Merge(map[string][]detection.Detection{
		"alpha": {first},
		"beta":  {second},
	}, []string{"alpha", "beta"})

	if len(got) != 1 {
		t.Fatalf("expected one representative, got %d", len(got))
	}
	if got[0].Text != "first" {
		t.Errorf("expected first-encountered detection to win the tie, got %q", got[0].Text)
	}
}

func TestMergeFlattensInEngineOrder(t *testing.T) {
	// Same boxes but swapped engine order: the seed flips, and with it the
	// surviving representative's scan position.
	a := mustDetection(t, 0, 0, 10, 10, "from-alpha", 0.60)
	b := mustDetection(t, 0, 0, 10, 10, "from-beta", 0.90)

	byEngine := map[string][]detection.Detection{
		"alpha": {a},
		"beta":  {b},
	}

	got := Merge(byEngine, []string{"beta", "alpha"})
	if len(got) != 1 || got[0].Text != "from-beta" {
		t.Fatalf("expected beta-seeded cluster, got %v", got)
	}

	got = Merge(byEngine, []string{"alpha", "beta"})
	if len(got) != 1 || got[0].Text != "from-beta" {
		t.Fatalf("expected beta to win on confidence, got %v", got)
	}
}

func TestMergeBelowThresholdStaysSeparate(t *testing.T) {
	// IoU here is 25/175 ~ 0.14, under the 0.25 threshold.
	a := mustDetection(t, 0, 0, 10, 10, "left", 0.9)
	b := mustDetection(t, 5, 5, 15, 15, "right", 0.8)

	got := Merge(map[string][]detection.Detection{"alpha": {a, b}}, []string{"alpha"})
	if len(got) != 2 {
		t.Fatalf("expected two representatives, got %d", len(got))
	}
}

func TestMergeDeterministic(t *testing.T) {
	byEngine := map[string][]detection.Detection{
		"alpha": {
			mustDetection(t, 0, 0, 50, 20, "Title", 0.7),
			mustDetection(t, 0, 30, 50, 50, "Body", 0.6),
		},
		"beta": {
			mustDetection(t, 2, 1, 51, 21, "Title!", 0.9),
			mustDetection(t, 200, 200, 250, 220, "Page 1", 0.5),
		},
	}
	order := []string{"alpha", "beta"}

	first := Merge(byEngine, order)
	second := Merge(byEngine, order)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical output across runs, got %v then %v", first, second)
	}
}

func TestMergeEmptyInput(t *testing.T) {
	if got := Merge(nil, nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if got := Merge(map[string][]detection.Detection{"alpha": nil}, []string{"alpha"}); got != nil {
		t.Errorf("expected nil when all engines reported nothing, got %v", got)
	}
}
