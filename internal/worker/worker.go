// Package worker drains the transcription queue with a fixed-size pool.
// Concurrency is capped by the pool size: jobs beyond it wait in Redis,
// which is the back-pressure mechanism.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetscribe/backend/pkg/queue"
)

// Dequeuer pulls jobs off the queue and re-enqueues undeliverable ones.
type Dequeuer interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Runner executes one transcription job to a terminal state. A returned error
// means the job row could not be loaded (transient infra), not that the
// pipeline failed; pipeline failures end as job state, never as errors here.
type Runner interface {
	Run(ctx context.Context, transcriptID uuid.UUID) error
}

// Pool runs size goroutines, each looping dequeue → run.
type Pool struct {
	queue  Dequeuer
	engine Runner
	size   int
	logger *zap.Logger
}

// NewPool creates a worker pool. size < 1 is clamped to 1.
func NewPool(q Dequeuer, engine Runner, size int, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{queue: q, engine: engine, size: size, logger: logger}
}

// Run blocks until ctx is cancelled and all workers have stopped.
func (p *Pool) Run(ctx context.Context) {
	p.logger.Info("worker pool started", zap.Int("concurrency", p.size))
	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			p.loop(ctx, worker)
		}(i)
	}
	wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *Pool) loop(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err), zap.Int("worker", worker))
			p.sleep(ctx, queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("job dequeued",
			zap.String("job_id", job.ID),
			zap.String("transcript_id", job.Payload.TranscriptID.String()),
			zap.Int("worker", worker))

		if err := p.engine.Run(ctx, job.Payload.TranscriptID); err != nil {
			// The job row was unreachable; give it another delivery before
			// the DLQ. Engine-level failures never land here.
			p.logger.Error("job not runnable", zap.Error(err), zap.String("job_id", job.ID))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr), zap.String("job_id", job.ID))
			}
			p.sleep(ctx, queue.RetryBackoff)
		}
	}
}

func (p *Pool) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
