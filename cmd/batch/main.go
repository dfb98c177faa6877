/**
 * Outline Batch - directory processing entry point
 *
 * Processes every PDF in the input directory and writes one <stem>.json
 * outline per document to the output directory. A document-fatal failure is
 * reported per document and does not abort the remaining documents; the
 * process exits non-zero if any document failed.
 */

package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/pagesift/outline-worker/internal/config"
	"github.com/pagesift/outline-worker/internal/processor"
	"github.com/pagesift/outline-worker/internal/recognizer"
	"github.com/pagesift/outline-worker/internal/renderer"
	"github.com/pagesift/outline-worker/internal/storage"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pdfFiles, err := filepath.Glob(filepath.Join(cfg.InputDir, "*.pdf"))
	if err != nil {
		log.Fatalf("Failed to list input directory: %v", err)
	}
	if len(pdfFiles) == 0 {
		log.Printf("No PDF files found in %s", cfg.InputDir)
		return
	}

	storageManager, err := storage.NewStorageManager(cfg.DatabaseURL, cfg.OutputDir)
	if err != nil {
		log.Fatalf("Failed to initialize storage manager: %v", err)
	}
	defer storageManager.Close()

	proc, err := processor.NewOutlineProcessor(&processor.ProcessorConfig{
		Renderer: renderer.NewPopplerRenderer(&renderer.PopplerConfig{
			BinaryPath: cfg.PdftoppmPath,
			DPI:        cfg.RenderDPI,
			TempDir:    cfg.TempDir,
		}),
		Engines: []recognizer.Factory{
			recognizer.NewWordEngine(cfg.OCRLanguages),
			recognizer.NewLineEngine(cfg.OCRLanguages),
		},
		PoolSize:       cfg.WorkerPoolSize,
		StorageManager: storageManager,
	})
	if err != nil {
		log.Fatalf("Failed to initialize outline processor: %v", err)
	}

	log.Printf("Processing %d PDFs with pool size %d", len(pdfFiles), cfg.WorkerPoolSize)
	totalStart := time.Now()
	failed := 0

	ctx := context.Background()
	for _, pdfPath := range pdfFiles {
		if err := processOne(ctx, proc, pdfPath); err != nil {
			log.Printf("Failed to process %s: %v", filepath.Base(pdfPath), err)
			failed++
		}
	}

	log.Printf("Total processing time: %.2f seconds (%d ok, %d failed)",
		time.Since(totalStart).Seconds(), len(pdfFiles)-failed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func processOne(ctx context.Context, proc *processor.OutlineProcessor, pdfPath string) error {
	start := time.Now()
	filename := filepath.Base(pdfPath)
	jobID := uuid.New().String()

	log.Printf("Processing %s to generate document outline...", filename)

	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return err
	}

	result, err := proc.ProcessDocument(ctx, &processor.ProcessRequest{
		JobID:      jobID,
		Filename:   filename,
		FileBuffer: data,
	})
	if err != nil {
		return err
	}

	log.Printf("Completed %s in %.2fs. Outline has %d headings.",
		filename, time.Since(start).Seconds(), result.HeadingCount)
	log.Printf("Output saved to: %s", result.OutputPath)
	return nil
}
