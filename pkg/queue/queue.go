package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueTranscriptions is the Redis list key for transcription jobs.
	QueueTranscriptions = "worker:transcriptions"
	// QueueDLQ is the dead-letter queue for jobs that exhausted retries.
	QueueDLQ = "worker:dlq"
	// MaxRetries is the number of queue-level retries before a job moves to the DLQ.
	// Queue retries cover infra errors before the engine runs (row not loadable);
	// engine-level failures are terminal and never re-enqueued.
	MaxRetries = 3
	// RetryBackoff is the delay between dequeue attempts after an error.
	RetryBackoff = 10 * time.Second
)

// TranscriptionPayload identifies one transcription job to process.
type TranscriptionPayload struct {
	TranscriptID uuid.UUID `json:"transcript_id"`
	AudioFileID  uuid.UUID `json:"audio_file_id"`
}

// Job is the queue envelope.
type Job struct {
	ID        string               `json:"id"`
	Payload   TranscriptionPayload `json:"payload"`
	Attempt   int                  `json:"attempt"`
	CreatedAt time.Time            `json:"created_at"`
}

// Queue enqueues and dequeues transcription jobs via a Redis list. BLPOP on a
// single list gives the worker pool natural back-pressure: jobs wait in Redis
// until a worker goroutine is free.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a Redis-backed transcription job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// Enqueue pushes a transcription job onto the queue.
func (q *Queue) Enqueue(ctx context.Context, payload TranscriptionPayload) error {
	job := Job{
		ID:        uuid.New().String(),
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueTranscriptions, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued transcription job",
		zap.String("job_id", job.ID),
		zap.String("transcript_id", payload.TranscriptID.String()))
	return nil
}

// Dequeue blocks until a job is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	result, err := q.client.BLPop(ctx, 0, QueueTranscriptions).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. After MaxRetries the job
// moves to the DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.client.RPush(ctx, QueueTranscriptions, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}
