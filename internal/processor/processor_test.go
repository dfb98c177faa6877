package processor

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pagesift/outline-worker/internal/detection"
	"github.com/pagesift/outline-worker/internal/errors"
	"github.com/pagesift/outline-worker/internal/recognizer"
	"github.com/pagesift/outline-worker/internal/storage"
)

// stubRenderer returns a fixed set of page images.
type stubRenderer struct {
	pages [][]byte
	err   error
}

func (s *stubRenderer) Render(_ context.Context, _ []byte) ([][]byte, error) {
	return s.pages, s.err
}

// stubEngine emits deterministic detections keyed by page marker byte.
type stubEngine struct {
	name   string
	detect func(pageImage []byte) []detection.Detection
}

func (s *stubEngine) Name() string { return s.name }

func (s *stubEngine) Detect(_ context.Context, pageImage []byte) []detection.Detection {
	if s.detect == nil {
		return nil
	}
	return s.detect(pageImage)
}

func (s *stubEngine) Close() error { return nil }

func stubEngineFactory(name string, detect func(pageImage []byte) []detection.Detection) recognizer.Factory {
	return recognizer.Factory{
		Name: name,
		New:  func() recognizer.Recognizer { return &stubEngine{name: name, detect: detect} },
	}
}

func mustDet(t *testing.T, y1, height float64, text string, conf float64) detection.Detection {
	t.Helper()
	d, ok := detection.New(0, y1, 200, y1+height, text, conf, height*0.8)
	if !ok {
		t.Fatal("invalid stub detection")
	}
	return d
}

// documentEngines builds a two-engine setup producing a title page and a
// couple of headings, with one region seen by both engines.
func documentEngines(t *testing.T) []recognizer.Factory {
	t.Helper()

	pageZero := func() []detection.Detection {
		return []detection.Detection{
			mustDet(t, 40, 30, "Consensus Pipelines", 0.92), // font size 24
		}
	}
	pageOne := func() []detection.Detection {
		return []detection.Detection{
			mustDet(t, 10, 22.5, "Chapter One", 0.88),    // font size 18
			mustDet(t, 60, 12.5, "body text here", 0.70), // font size 10
			mustDet(t, 90, 12.5, "more body text", 0.70),
			mustDet(t, 120, 12.5, "closing words", 0.70),
			mustDet(t, 150, 12.5, "final filler", 0.70),
		}
	}

	byPage := func(fn map[byte][]detection.Detection) func([]byte) []detection.Detection {
		return func(image []byte) []detection.Detection {
			if len(image) == 0 {
				return nil
			}
			return fn[image[0]]
		}
	}

	alpha := byPage(map[byte][]detection.Detection{0: pageZero(), 1: pageOne()})
	// beta re-detects the chapter heading with higher confidence and adds a
	// subsection on page 1.
	beta := byPage(map[byte][]detection.Detection{
		1: {
			mustDet(t, 11, 22.5, "Chapter One", 0.95),
			mustDet(t, 45, 17.5, "Section 1.1", 0.80), // font size 14
		},
	})

	return []recognizer.Factory{
		stubEngineFactory("alpha", alpha),
		stubEngineFactory("beta", beta),
	}
}

func newTestProcessor(t *testing.T, rend *stubRenderer, engines []recognizer.Factory, outputDir string) *OutlineProcessor {
	t.Helper()

	sm, err := storage.NewStorageManager("", outputDir)
	if err != nil {
		t.Fatalf("failed to build storage manager: %v", err)
	}

	proc, err := NewOutlineProcessor(&ProcessorConfig{
		Renderer:       rend,
		Engines:        engines,
		PoolSize:       2,
		StorageManager: sm,
	})
	if err != nil {
		t.Fatalf("failed to build processor: %v", err)
	}
	return proc
}

func TestProcessDocumentBuildsOutline(t *testing.T) {
	outputDir := t.TempDir()
	rend := &stubRenderer{pages: [][]byte{{0}, {1}}}
	proc := newTestProcessor(t, rend, documentEngines(t), outputDir)

	result, err := proc.ProcessDocument(context.Background(), &ProcessRequest{
		JobID:      "job-1",
		Filename:   "report.pdf",
		FileBuffer: []byte("%PDF-fake"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Title != "Consensus Pipelines" {
		t.Errorf("expected title %q, got %q", "Consensus Pipelines", result.Title)
	}
	if result.PageCount != 2 {
		t.Errorf("expected 2 pages, got %d", result.PageCount)
	}

	// Consensus sizes are [24,18,14,10,10,10,10]: median 10, H1=16, H2=13.
	if result.HeadingCount != 2 {
		t.Fatalf("expected 2 headings, got %d: %v", result.HeadingCount, result.Outline.Outline)
	}
	if result.Outline.Outline[0].Text != "Chapter One" || result.Outline.Outline[0].Level != "H1" {
		t.Errorf("expected Chapter One as H1, got %+v", result.Outline.Outline[0])
	}
	if result.Outline.Outline[1].Text != "Section 1.1" || result.Outline.Outline[1].Level != "H2" {
		t.Errorf("expected Section 1.1 as H2, got %+v", result.Outline.Outline[1])
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "report.json"))
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if !bytes.Contains(data, []byte(`"title": "Consensus Pipelines"`)) {
		t.Errorf("output file missing title: %s", data)
	}
}

func TestProcessDocumentIdempotent(t *testing.T) {
	rend := &stubRenderer{pages: [][]byte{{0}, {1}}}
	engines := documentEngines(t)

	run := func(dir string) []byte {
		proc := newTestProcessor(t, rend, engines, dir)
		if _, err := proc.ProcessDocument(context.Background(), &ProcessRequest{
			JobID:      "job-x",
			Filename:   "doc.pdf",
			FileBuffer: []byte("%PDF-fake"),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(filepath.Join(dir, "doc.json"))
		if err != nil {
			t.Fatalf("expected output file: %v", err)
		}
		return data
	}

	first := run(t.TempDir())
	second := run(t.TempDir())
	if !bytes.Equal(first, second) {
		t.Errorf("expected byte-identical results across runs:\n%s\nvs\n%s", first, second)
	}
}

func TestProcessDocumentRenderFailureIsFatal(t *testing.T) {
	outputDir := t.TempDir()
	rend := &stubRenderer{err: fmt.Errorf("corrupt xref table")}
	proc := newTestProcessor(t, rend, documentEngines(t), outputDir)

	_, err := proc.ProcessDocument(context.Background(), &ProcessRequest{
		JobID:    "job-2",
		Filename: "broken.pdf",
	})
	if err == nil {
		t.Fatal("expected document-fatal error")
	}

	var procErr *errors.ProcessingError
	if !stderrors.As(err, &procErr) {
		t.Fatalf("expected ProcessingError, got %T", err)
	}
	if procErr.Code != errors.ErrorRenderFailed {
		t.Errorf("expected code %s, got %s", errors.ErrorRenderFailed, procErr.Code)
	}

	// No partial output may be written for a failed document.
	entries, _ := os.ReadDir(outputDir)
	if len(entries) != 0 {
		t.Errorf("expected no output files, found %d", len(entries))
	}
}

func TestProcessDocumentEmptyPipelineIsValid(t *testing.T) {
	outputDir := t.TempDir()
	rend := &stubRenderer{pages: [][]byte{{0}, {1}}}
	silent := []recognizer.Factory{
		stubEngineFactory("alpha", nil),
		stubEngineFactory("beta", nil),
	}
	proc := newTestProcessor(t, rend, silent, outputDir)

	result, err := proc.ProcessDocument(context.Background(), &ProcessRequest{
		JobID:      "job-3",
		Filename:   "blank.pdf",
		FileBuffer: []byte("%PDF-fake"),
	})
	if err != nil {
		t.Fatalf("an empty document is not an error, got: %v", err)
	}
	if result.Title != "" || result.HeadingCount != 0 {
		t.Errorf("expected empty outline, got title=%q headings=%d", result.Title, result.HeadingCount)
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "blank.json"))
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if !bytes.Contains(data, []byte(`"outline": []`)) {
		t.Errorf("expected empty outline array in output, got: %s", data)
	}
}
