/**
 * Queue Consumer for the outline worker
 *
 * Consumes outline-generation jobs from a Redis-backed queue using Asynq.
 * Each task carries the PDF (inline or by reference), runs through the
 * outline processor under a per-job timeout, and has its lifecycle mirrored
 * to Redis and the job store.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pagesift/outline-worker/internal/errors"
	"github.com/pagesift/outline-worker/internal/processor"
)

// TaskTypeGenerateOutline is the asynq task type handled by this worker.
const TaskTypeGenerateOutline = "outline:generate"

// JobData represents the payload of an outline-generation task.
type JobData struct {
	JobID      string                 `json:"jobId"`
	Filename   string                 `json:"filename"`
	FileBuffer []byte                 `json:"fileBuffer,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Consumer handles job consumption from the Redis queue.
type Consumer struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor processor.OutlineProcessorInterface
	status    *StatusPublisher
	config    *ConsumerConfig
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	Processor         processor.OutlineProcessorInterface
	Status            *StatusPublisher
	ProcessingTimeout int64 // milliseconds; default 300000 (5 minutes)
}

// NewConsumer creates a new queue consumer
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.QueueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}
	if cfg.Processor == nil {
		return nil, fmt.Errorf("Processor is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10,
				"default":     1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff capped at one minute
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("Task processing error: type=%s, error=%v", task.Type(), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		server:    server,
		mux:       mux,
		processor: cfg.Processor,
		status:    cfg.Status,
		config:    cfg,
	}

	mux.HandleFunc(TaskTypeGenerateOutline, consumer.handleGenerateOutline)

	return consumer, nil
}

// Start starts the queue consumer
func (c *Consumer) Start(ctx context.Context) error {
	log.Printf("Starting queue consumer (concurrency=%d, queue=%s)...",
		c.config.Concurrency, c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			log.Printf("Queue consumer error: %v", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully
func (c *Consumer) Stop(ctx context.Context) error {
	log.Printf("Stopping queue consumer...")
	c.server.Shutdown()
	log.Printf("Queue consumer stopped")
	return nil
}

// handleGenerateOutline processes one outline-generation job
func (c *Consumer) handleGenerateOutline(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var jobData JobData
	if err := json.Unmarshal(task.Payload(), &jobData); err != nil {
		return fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	log.Printf("[Job %s] Generating outline: filename=%s, size=%d bytes",
		jobData.JobID, jobData.Filename, len(jobData.FileBuffer))

	c.markProcessing(ctx, jobData)

	timeout := 300000 * time.Millisecond
	if c.config.ProcessingTimeout > 0 {
		timeout = time.Duration(c.config.ProcessingTimeout) * time.Millisecond
	}

	processCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.processor.ProcessDocument(processCtx, &processor.ProcessRequest{
		JobID:      jobData.JobID,
		Filename:   jobData.Filename,
		FileBuffer: jobData.FileBuffer,
	})

	duration := time.Since(startTime)

	if err != nil {
		if processCtx.Err() == context.DeadlineExceeded {
			log.Printf("[Job %s] Processing timed out after %v (timeout: %v)", jobData.JobID, duration, timeout)

			timeoutErr := errors.NewProcessingTimeoutError(jobData.JobID, timeout, err)
			c.markFailed(ctx, jobData, timeoutErr.ToMap())
			return fmt.Errorf("processing timeout: %w", timeoutErr)
		}

		log.Printf("[Job %s] Processing failed after %v: %v", jobData.JobID, duration, err)
		c.markFailed(ctx, jobData, map[string]interface{}{
			"error":          err.Error(),
			"processingTime": duration.Milliseconds(),
		})
		return fmt.Errorf("outline generation failed: %w", err)
	}

	log.Printf("[Job %s] Completed in %v: title=%q, headings=%d, pages=%d",
		jobData.JobID, duration, result.Title, result.HeadingCount, result.PageCount)

	c.markCompleted(ctx, jobData, result, duration)
	return nil
}

func (c *Consumer) markProcessing(ctx context.Context, jobData JobData) {
	if c.status != nil {
		c.status.MarkProcessing(ctx, jobData.JobID)
	}
	if err := c.processor.UpdateJobStatus(ctx, jobData.JobID, "processing", map[string]interface{}{
		"filename": jobData.Filename,
	}); err != nil {
		log.Printf("[Job %s] Warning: Failed to update status to processing: %v", jobData.JobID, err)
	}
}

func (c *Consumer) markCompleted(ctx context.Context, jobData JobData, result *processor.ProcessResult, duration time.Duration) {
	if c.status != nil {
		c.status.MarkCompleted(ctx, jobData.JobID, result.Outline)
	}
	if err := c.processor.UpdateJobStatus(ctx, jobData.JobID, "completed", map[string]interface{}{
		"filename":       jobData.Filename,
		"title":          result.Title,
		"headingCount":   result.HeadingCount,
		"pageCount":      result.PageCount,
		"processingTime": duration.Milliseconds(),
	}); err != nil {
		log.Printf("[Job %s] Warning: Failed to update status to completed: %v", jobData.JobID, err)
	}
}

func (c *Consumer) markFailed(ctx context.Context, jobData JobData, errInfo map[string]interface{}) {
	if c.status != nil {
		c.status.MarkFailed(ctx, jobData.JobID, errInfo)
	}
	errMsg := ""
	if m, ok := errInfo["error"].(string); ok {
		errMsg = m
	} else if m, ok := errInfo["message"].(string); ok {
		errMsg = m
	}
	if err := c.processor.UpdateJobStatus(ctx, jobData.JobID, "failed", map[string]interface{}{
		"filename": jobData.Filename,
		"error":    errMsg,
	}); err != nil {
		log.Printf("[Job %s] Warning: Failed to update status to failed: %v", jobData.JobID, err)
	}
}
