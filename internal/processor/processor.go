/**
 * Outline Processor for the outline worker
 *
 * Orchestrates the consensus extraction pipeline for one document:
 * render pages -> dispatch (page, engine) recognition jobs -> per-page
 * consensus voting -> outline inference -> persistence.
 *
 * Failure semantics: rendering no pages is document-fatal; individual
 * recognition failures were already absorbed below the dispatcher and only
 * degrade single pages; a document whose pages yield no detections still
 * produces a valid empty outline.
 */

package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/pagesift/outline-worker/internal/consensus"
	"github.com/pagesift/outline-worker/internal/dispatcher"
	"github.com/pagesift/outline-worker/internal/errors"
	"github.com/pagesift/outline-worker/internal/logging"
	"github.com/pagesift/outline-worker/internal/outline"
	"github.com/pagesift/outline-worker/internal/recognizer"
	"github.com/pagesift/outline-worker/internal/renderer"
	"github.com/pagesift/outline-worker/internal/storage"
)

// OutlineProcessorInterface defines the interface for document processing
type OutlineProcessorInterface interface {
	ProcessDocument(ctx context.Context, req *ProcessRequest) (*ProcessResult, error)
	UpdateJobStatus(ctx context.Context, jobID string, status string, metadata map[string]interface{}) error
}

// ProcessorConfig holds processor configuration
type ProcessorConfig struct {
	Renderer       renderer.Renderer
	Engines        []recognizer.Factory
	PoolSize       int
	StorageManager *storage.StorageManager
}

// ProcessRequest represents a document processing request
type ProcessRequest struct {
	JobID      string
	Filename   string
	FileBuffer []byte
}

// ProcessResult represents the processing result
type ProcessResult struct {
	Title            string
	Outline          *outline.Result
	OutputPath       string
	PageCount        int
	HeadingCount     int
	ProcessingTimeMs int64
}

// OutlineProcessor handles document processing
type OutlineProcessor struct {
	config     *ProcessorConfig
	renderer   renderer.Renderer
	dispatcher *dispatcher.Dispatcher
	storage    *storage.StorageManager
	logger     *logging.Logger
}

// NewOutlineProcessor creates a new outline processor
func NewOutlineProcessor(cfg *ProcessorConfig) (*OutlineProcessor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if len(cfg.Engines) == 0 {
		return nil, fmt.Errorf("at least one recognition engine is required")
	}
	if cfg.StorageManager == nil {
		return nil, fmt.Errorf("storage manager is required")
	}

	return &OutlineProcessor{
		config:     cfg,
		renderer:   cfg.Renderer,
		dispatcher: dispatcher.New(cfg.PoolSize, cfg.Engines),
		storage:    cfg.StorageManager,
		logger:     logging.NewLogger("processor"),
	}, nil
}

// ProcessDocument runs the full pipeline for one document.
func (p *OutlineProcessor) ProcessDocument(ctx context.Context, req *ProcessRequest) (*ProcessResult, error) {
	startTime := time.Now()
	p.logger.Info("Processing document", "job", req.JobID, "filename", req.Filename, "bytes", len(req.FileBuffer))

	pages, err := p.renderer.Render(ctx, req.FileBuffer)
	if err != nil || len(pages) == 0 {
		return nil, errors.NewRenderFailedError(req.JobID, req.Filename, err)
	}
	p.logger.Info("Rendered pages", "job", req.JobID, "pages", len(pages))

	results, err := p.dispatcher.Dispatch(ctx, pages)
	if err != nil {
		if err == dispatcher.ErrNoPages {
			return nil, errors.NewRenderFailedError(req.JobID, req.Filename, err)
		}
		return nil, err
	}

	detections := p.collectConsensus(len(pages), results)
	out := outline.Build(detections)

	outputPath, err := p.storage.StoreOutline(ctx, req.JobID, req.Filename, &out)
	if err != nil {
		return nil, errors.NewStorageFailedError(req.JobID, err)
	}

	duration := time.Since(startTime)
	p.logger.Info("Document processed",
		"job", req.JobID,
		"title", out.Title,
		"headings", len(out.Outline),
		"duration", duration)

	return &ProcessResult{
		Title:            out.Title,
		Outline:          &out,
		OutputPath:       outputPath,
		PageCount:        len(pages),
		HeadingCount:     len(out.Outline),
		ProcessingTimeMs: duration.Milliseconds(),
	}, nil
}

// collectConsensus runs per-page consensus voting in ascending page order and
// flattens the representatives into the outline builder's input. Pages with
// no detections, including pages where every engine failed, contribute
// nothing; that is degradation, not an error.
func (p *OutlineProcessor) collectConsensus(pageCount int, results map[int]*dispatcher.PageResult) []outline.PageDetection {
	engineOrder := p.dispatcher.EngineNames()

	var detections []outline.PageDetection
	for page := 0; page < pageCount; page++ {
		pageResult, ok := results[page]
		if !ok {
			continue
		}
		for _, d := range consensus.Merge(pageResult.ByEngine(), engineOrder) {
			detections = append(detections, outline.PageDetection{
				Page:     page,
				Text:     d.Text,
				Y1:       d.Y1,
				FontSize: d.FontSize,
			})
		}
	}
	return detections
}

// UpdateJobStatus records job progress through the storage manager.
func (p *OutlineProcessor) UpdateJobStatus(ctx context.Context, jobID string, status string, metadata map[string]interface{}) error {
	update := &storage.JobUpdate{
		JobID:    jobID,
		Status:   status,
		Metadata: metadata,
	}

	if metadata != nil {
		if fn, ok := metadata["filename"].(string); ok {
			update.Filename = fn
		}
		if ec, ok := metadata["error_code"].(string); ok {
			update.ErrorCode = ec
		}
		if em, ok := metadata["error"].(string); ok {
			update.ErrorMessage = em
		}
	}

	return p.storage.UpdateJobStatus(ctx, update)
}
