package transcripts

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/meetscribe/backend/internal/models"
	"github.com/meetscribe/backend/pkg/queue"
)

type fakeAudio struct {
	files map[uuid.UUID]*models.AudioFile
}

func (f *fakeAudio) GetByID(_ context.Context, id uuid.UUID) (*models.AudioFile, error) {
	af, ok := f.files[id]
	if !ok {
		return nil, fmt.Errorf("audio file %s: %w", id, models.ErrNotFound)
	}
	return af, nil
}

type fakeJobs struct {
	byAudio  map[uuid.UUID]*models.Transcript
	claimErr error
}

func (f *fakeJobs) Claim(_ context.Context, audioFileID, userID uuid.UUID, language string) (*models.Transcript, bool, error) {
	if f.claimErr != nil {
		return nil, false, f.claimErr
	}
	if existing, ok := f.byAudio[audioFileID]; ok {
		return existing, false, nil
	}
	t := &models.Transcript{
		ID:          uuid.New(),
		AudioFileID: audioFileID,
		UserID:      userID,
		Language:    language,
		Status:      models.TranscriptStatusQueued,
	}
	f.byAudio[audioFileID] = t
	return t, true, nil
}

func (f *fakeJobs) ResetForRetry(_ context.Context, id uuid.UUID) (*models.Transcript, error) {
	for _, t := range f.byAudio {
		if t.ID == id {
			if t.Status != models.TranscriptStatusFailed {
				return nil, fmt.Errorf("transcript %s not failed: %w", id, models.ErrInvalidState)
			}
			t.Status = models.TranscriptStatusQueued
			t.Progress = 0
			t.OriginalText = ""
			t.EditedText = ""
			t.Attempt++
			return t, nil
		}
	}
	return nil, fmt.Errorf("transcript %s: %w", id, models.ErrNotFound)
}

func (f *fakeJobs) Fail(_ context.Context, id uuid.UUID) (*models.Transcript, error) {
	for _, t := range f.byAudio {
		if t.ID == id {
			t.Status = models.TranscriptStatusFailed
			t.Progress = 0
			return t, nil
		}
	}
	return nil, fmt.Errorf("transcript %s: %w", id, models.ErrNotFound)
}

type fakeQueue struct {
	enqueued []queue.TranscriptionPayload
	err      error
}

func (f *fakeQueue) Enqueue(_ context.Context, p queue.TranscriptionPayload) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, p)
	return nil
}

func newTestLauncher(audioFiles ...*models.AudioFile) (*Launcher, *fakeJobs, *fakeQueue) {
	fa := &fakeAudio{files: make(map[uuid.UUID]*models.AudioFile)}
	for _, af := range audioFiles {
		fa.files[af.ID] = af
	}
	fj := &fakeJobs{byAudio: make(map[uuid.UUID]*models.Transcript)}
	fq := &fakeQueue{}
	return NewLauncher(fa, fj, fq, nil), fj, fq
}

func TestSubmitCreatesAndEnqueues(t *testing.T) {
	af := &models.AudioFile{ID: uuid.New(), UserID: uuid.New()}
	l, _, fq := newTestLauncher(af)

	job, alreadyExists, err := l.Submit(context.Background(), af.ID, "zh")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if alreadyExists {
		t.Error("alreadyExists = true for first submission")
	}
	if job.Status != models.TranscriptStatusQueued {
		t.Errorf("Status = %q, want queued", job.Status)
	}
	if job.Progress != 0 {
		t.Errorf("Progress = %v, want 0", job.Progress)
	}
	if len(fq.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(fq.enqueued))
	}
	if fq.enqueued[0].TranscriptID != job.ID {
		t.Errorf("enqueued transcript id = %s, want %s", fq.enqueued[0].TranscriptID, job.ID)
	}
}

func TestSubmitUnknownAudio(t *testing.T) {
	l, _, fq := newTestLauncher()

	_, _, err := l.Submit(context.Background(), uuid.New(), "zh")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(fq.enqueued) != 0 {
		t.Errorf("enqueued %d jobs, want 0", len(fq.enqueued))
	}
}

func TestSubmitIdempotent(t *testing.T) {
	af := &models.AudioFile{ID: uuid.New(), UserID: uuid.New()}
	l, _, fq := newTestLauncher(af)

	first, _, err := l.Submit(context.Background(), af.ID, "zh")
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	second, alreadyExists, err := l.Submit(context.Background(), af.ID, "en")
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if !alreadyExists {
		t.Error("alreadyExists = false for duplicate submission")
	}
	if second.ID != first.ID {
		t.Errorf("second id = %s, want %s", second.ID, first.ID)
	}
	if len(fq.enqueued) != 1 {
		t.Errorf("enqueued %d jobs, want 1", len(fq.enqueued))
	}
}

func TestSubmitEnqueueFailureMarksJobFailed(t *testing.T) {
	af := &models.AudioFile{ID: uuid.New(), UserID: uuid.New()}
	l, fj, fq := newTestLauncher(af)
	fq.err = errors.New("redis down")

	_, _, err := l.Submit(context.Background(), af.ID, "zh")
	if err == nil {
		t.Fatal("expected error when enqueue fails")
	}
	job := fj.byAudio[af.ID]
	if job.Status != models.TranscriptStatusFailed {
		t.Errorf("Status = %q, want failed", job.Status)
	}
	if job.Progress != 0 {
		t.Errorf("Progress = %v, want 0", job.Progress)
	}
}

func TestRetryOnlyFromFailed(t *testing.T) {
	af := &models.AudioFile{ID: uuid.New(), UserID: uuid.New()}
	l, fj, fq := newTestLauncher(af)

	job, _, err := l.Submit(context.Background(), af.ID, "zh")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Still queued: retry rejected.
	if _, err := l.Retry(context.Background(), job.ID); !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("Retry on non-failed job: err = %v, want ErrInvalidState", err)
	}

	fj.byAudio[af.ID].Status = models.TranscriptStatusFailed
	retried, err := l.Retry(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if retried.Status != models.TranscriptStatusQueued {
		t.Errorf("Status = %q, want queued", retried.Status)
	}
	if retried.Attempt != 1 {
		t.Errorf("Attempt = %d, want 1", retried.Attempt)
	}
	if len(fq.enqueued) != 2 {
		t.Errorf("enqueued %d jobs, want 2", len(fq.enqueued))
	}
}
