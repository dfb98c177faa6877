/**
 * Outline Worker - Main Entry Point
 *
 * Go worker that turns scanned PDFs into structured document outlines.
 *
 * Architecture:
 * - Asynq consumer for the Redis-backed job queue
 * - pdftoppm page rendering
 * - Multi-engine Tesseract recognition across a bounded worker pool
 * - Cross-engine consensus voting and font-size heading inference
 * - PostgreSQL job tracking plus JSON result files
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pagesift/outline-worker/internal/config"
	"github.com/pagesift/outline-worker/internal/processor"
	"github.com/pagesift/outline-worker/internal/queue"
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

	log.Printf("Outline worker starting...")
	log.Printf("Configuration loaded: Redis=%s, Queue=%s, Pool=%d, DPI=%d",
		cfg.RedisURL, cfg.QueueName, cfg.WorkerPoolSize, cfg.RenderDPI)

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

	statusPublisher, err := queue.NewStatusPublisher(cfg.RedisURL, cfg.QueueName)
	if err != nil {
		log.Fatalf("Failed to initialize status publisher: %v", err)
	}
	defer statusPublisher.Close()

	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		QueueName:         cfg.QueueName,
		Concurrency:       cfg.WorkerPoolSize,
		Processor:         proc,
		Status:            statusPublisher,
		ProcessingTimeout: int64(cfg.ProcessingTimeout),
	})
	if err != nil {
		log.Fatalf("Failed to initialize queue consumer: %v", err)
	}

	ctx := context.Background()
	if err := consumer.Start(ctx); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}

	log.Printf("===========================================")
	log.Printf("Outline worker is READY")
	log.Printf("Queue: %s", cfg.QueueName)
	log.Printf("Pool size: %d", cfg.WorkerPoolSize)
	log.Printf("Engines: %s, %s", recognizer.WordEngineName, recognizer.LineEngineName)
	log.Printf("===========================================")
	log.Printf("Waiting for jobs...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	if err := consumer.Stop(ctx); err != nil {
		log.Printf("Error stopping queue consumer: %v", err)
	}

	if err := storageManager.Close(); err != nil {
		log.Printf("Error closing storage manager: %v", err)
	}

	log.Printf("Shutdown complete")
}
