package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meetscribe/backend/pkg/queue"
)

type chanQueue struct {
	jobs chan *queue.Job

	mu      sync.Mutex
	retried []*queue.Job
}

func (q *chanQueue) Dequeue(ctx context.Context) (*queue.Job, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case j := <-q.jobs:
		return j, nil
	}
}

func (q *chanQueue) Retry(_ context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.retried = append(q.retried, job)
	return nil
}

type countingRunner struct {
	mu   sync.Mutex
	seen map[uuid.UUID]int
	errs map[uuid.UUID]error
	done chan struct{}
	want int
}

func (r *countingRunner) Run(_ context.Context, transcriptID uuid.UUID) error {
	r.mu.Lock()
	r.seen[transcriptID]++
	total := 0
	for _, n := range r.seen {
		total += n
	}
	if total == r.want {
		close(r.done)
	}
	err := r.errs[transcriptID]
	r.mu.Unlock()
	return err
}

func newJob(id uuid.UUID) *queue.Job {
	return &queue.Job{ID: uuid.New().String(), Payload: queue.TranscriptionPayload{TranscriptID: id}}
}

func TestPoolProcessesAllJobs(t *testing.T) {
	q := &chanQueue{jobs: make(chan *queue.Job, 8)}
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
		q.jobs <- newJob(ids[i])
	}
	runner := &countingRunner{seen: make(map[uuid.UUID]int), errs: map[uuid.UUID]error{}, done: make(chan struct{}), want: len(ids)}

	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(q, runner, 3, nil)
	stopped := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(stopped)
	}()

	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs not drained in time")
	}
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after cancel")
	}

	for _, id := range ids {
		if runner.seen[id] != 1 {
			t.Errorf("job %s ran %d times, want 1", id, runner.seen[id])
		}
	}
}

func TestPoolRetriesUnrunnableJob(t *testing.T) {
	q := &chanQueue{jobs: make(chan *queue.Job, 1)}
	id := uuid.New()
	q.jobs <- newJob(id)
	runner := &countingRunner{
		seen: make(map[uuid.UUID]int),
		errs: map[uuid.UUID]error{id: errors.New("row unavailable")},
		done: make(chan struct{}),
		want: 1,
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(q, runner, 1, nil)
	stopped := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(stopped)
	}()

	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	cancel()
	<-stopped

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.retried) != 1 {
		t.Fatalf("retried %d jobs, want 1", len(q.retried))
	}
	if q.retried[0].Payload.TranscriptID != id {
		t.Errorf("retried wrong job: %s", q.retried[0].Payload.TranscriptID)
	}
}

func TestNewPoolClampsSize(t *testing.T) {
	pool := NewPool(&chanQueue{jobs: make(chan *queue.Job)}, &countingRunner{seen: map[uuid.UUID]int{}, errs: map[uuid.UUID]error{}, done: make(chan struct{}), want: -1}, 0, nil)
	if pool.size != 1 {
		t.Errorf("size = %d, want 1", pool.size)
	}
}
