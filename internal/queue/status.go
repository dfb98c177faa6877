/**
 * Redis job status publisher
 *
 * Mirrors job lifecycle into Redis so the submitting API can watch progress:
 * membership sets per state, a result hash for finished outlines, and a
 * pub/sub event stream on <queue>:events.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pagesift/outline-worker/internal/logging"
)

// StatusPublisher mirrors job state transitions into Redis.
type StatusPublisher struct {
	client    *redis.Client
	queueName string
	logger    *logging.Logger
}

// NewStatusPublisher connects to Redis and verifies the connection.
func NewStatusPublisher(redisURL string, queueName string) (*StatusPublisher, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if queueName == "" {
		return nil, fmt.Errorf("QueueName is required")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &StatusPublisher{
		client:    client,
		queueName: queueName,
		logger:    logging.NewLogger("queue"),
	}, nil
}

// MarkProcessing records that a job started.
func (s *StatusPublisher) MarkProcessing(ctx context.Context, jobID string) {
	s.client.SAdd(ctx, s.key("processing"), jobID)
	s.publishEvent(ctx, jobID, "processing")
}

// MarkCompleted records success and stores the serialized result.
func (s *StatusPublisher) MarkCompleted(ctx context.Context, jobID string, result interface{}) {
	s.client.SRem(ctx, s.key("processing"), jobID)
	s.client.SAdd(ctx, s.key("completed"), jobID)
	if result != nil {
		if data, err := json.Marshal(result); err == nil {
			s.client.HSet(ctx, s.key("results"), jobID, data)
		} else {
			s.logger.Warn("Failed to marshal job result", "job", jobID, "error", err)
		}
	}
	s.publishEvent(ctx, jobID, "completed")
}

// MarkFailed records failure with the error payload.
func (s *StatusPublisher) MarkFailed(ctx context.Context, jobID string, errInfo map[string]interface{}) {
	s.client.SRem(ctx, s.key("processing"), jobID)
	s.client.SAdd(ctx, s.key("failed"), jobID)
	if errInfo != nil {
		if data, err := json.Marshal(errInfo); err == nil {
			s.client.HSet(ctx, s.key("errors"), jobID, data)
		}
	}
	s.publishEvent(ctx, jobID, "failed")
}

// Stats returns queue state counters.
func (s *StatusPublisher) Stats(ctx context.Context) (map[string]int64, error) {
	processing, err := s.client.SCard(ctx, s.key("processing")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue stats: %w", err)
	}
	completed, _ := s.client.SCard(ctx, s.key("completed")).Result()
	failed, _ := s.client.SCard(ctx, s.key("failed")).Result()

	return map[string]int64{
		"processing": processing,
		"completed":  completed,
		"failed":     failed,
	}, nil
}

// Close releases the Redis connection.
func (s *StatusPublisher) Close() error {
	return s.client.Close()
}

func (s *StatusPublisher) publishEvent(ctx context.Context, jobID string, status string) {
	event := map[string]interface{}{
		"event":     fmt.Sprintf("job:%s", status),
		"jobId":     jobID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.client.Publish(ctx, s.key("events"), data).Err(); err != nil {
		s.logger.Debug("Failed to publish job event", "job", jobID, "error", err)
	}
}

func (s *StatusPublisher) key(suffix string) string {
	return fmt.Sprintf("%s:%s", s.queueName, suffix)
}
