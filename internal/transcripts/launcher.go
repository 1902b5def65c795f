package transcripts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetscribe/backend/internal/models"
	"github.com/meetscribe/backend/pkg/queue"
)

// AudioGetter reads audio file rows.
type AudioGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.AudioFile, error)
}

// JobClaimer creates and resets transcription jobs in the ledger.
type JobClaimer interface {
	Claim(ctx context.Context, audioFileID, userID uuid.UUID, language string) (*models.Transcript, bool, error)
	ResetForRetry(ctx context.Context, id uuid.UUID) (*models.Transcript, error)
	Fail(ctx context.Context, id uuid.UUID) (*models.Transcript, error)
}

// Enqueuer hands a claimed job to the worker pool.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload queue.TranscriptionPayload) error
}

// Launcher validates a submission, claims the ledger row and enqueues the
// job. The caller gets the job id back immediately; the engine runs on the
// worker pool, never on the request path.
type Launcher struct {
	audio  AudioGetter
	jobs   JobClaimer
	queue  Enqueuer
	logger *zap.Logger
}

// NewLauncher creates a job launcher.
func NewLauncher(audio AudioGetter, jobs JobClaimer, q Enqueuer, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{audio: audio, jobs: jobs, queue: q, logger: logger}
}

// Submit starts transcription for an audio file. When a job already exists
// for the file, the existing job is returned with alreadyExists=true and
// nothing is enqueued.
func (l *Launcher) Submit(ctx context.Context, audioFileID uuid.UUID, language string) (t *models.Transcript, alreadyExists bool, err error) {
	af, err := l.audio.GetByID(ctx, audioFileID)
	if err != nil {
		return nil, false, err
	}

	t, created, err := l.jobs.Claim(ctx, af.ID, af.UserID, language)
	if err != nil {
		return nil, false, fmt.Errorf("create transcription job: %w", err)
	}
	if !created {
		l.logger.Debug("transcription job already exists",
			zap.String("audio_file_id", audioFileID.String()),
			zap.String("transcript_id", t.ID.String()))
		return t, true, nil
	}

	if err := l.queue.Enqueue(ctx, queue.TranscriptionPayload{TranscriptID: t.ID, AudioFileID: af.ID}); err != nil {
		// The row exists but no worker will ever pick it up; mark it failed
		// so observers are not stuck on a phantom processing job.
		if _, ferr := l.jobs.Fail(ctx, t.ID); ferr != nil {
			l.logger.Error("mark unscheduled job failed", zap.Error(ferr), zap.String("transcript_id", t.ID.String()))
		}
		return nil, false, fmt.Errorf("enqueue transcription job: %w", err)
	}

	l.logger.Info("transcription job submitted",
		zap.String("transcript_id", t.ID.String()),
		zap.String("audio_file_id", af.ID.String()),
		zap.String("language", language))
	return t, false, nil
}

// Retry re-submits a failed job as a logically new attempt: the ledger row is
// reset and the job re-enqueued. Rejected unless the job is in failed state.
func (l *Launcher) Retry(ctx context.Context, transcriptID uuid.UUID) (*models.Transcript, error) {
	t, err := l.jobs.ResetForRetry(ctx, transcriptID)
	if err != nil {
		return nil, err
	}
	if err := l.queue.Enqueue(ctx, queue.TranscriptionPayload{TranscriptID: t.ID, AudioFileID: t.AudioFileID}); err != nil {
		if _, ferr := l.jobs.Fail(ctx, t.ID); ferr != nil {
			l.logger.Error("mark unscheduled retry failed", zap.Error(ferr), zap.String("transcript_id", t.ID.String()))
		}
		return nil, fmt.Errorf("enqueue transcription job: %w", err)
	}
	l.logger.Info("transcription job retried",
		zap.String("transcript_id", t.ID.String()),
		zap.Int("attempt", t.Attempt))
	return t, nil
}
