// Package engine runs the transcription pipeline for one job: download the
// audio blob, spool it to a transient file, invoke speech-to-text and persist
// the result. Every step writes a progress checkpoint to the ledger and
// publishes it, so observers see granular progress and a crash leaves a
// diagnosable last-known state.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetscribe/backend/internal/models"
	"github.com/meetscribe/backend/internal/notify"
)

// BlobStore downloads raw audio bytes by object key.
type BlobStore interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// JobStore is the ledger surface the engine writes through.
type JobStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transcript, error)
	UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) (*models.Transcript, error)
	Complete(ctx context.Context, id uuid.UUID, text string) (*models.Transcript, error)
	Fail(ctx context.Context, id uuid.UUID) (*models.Transcript, error)
}

// AudioStore reads the audio file row a job references.
type AudioStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.AudioFile, error)
}

// Engine executes transcription jobs. One invocation per dequeued job; the
// launcher's per-artifact claim guarantees no two runs share a job id.
type Engine struct {
	jobs    JobStore
	audio   AudioStore
	blobs   BlobStore
	stt     Recognizer
	pub     notify.Publisher
	tempDir string
	logger  *zap.Logger
}

// New creates an engine. tempDir empty means os.TempDir().
func New(jobs JobStore, audio AudioStore, blobs BlobStore, stt Recognizer, pub notify.Publisher, tempDir string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{jobs: jobs, audio: audio, blobs: blobs, stt: stt, pub: pub, tempDir: tempDir, logger: logger}
}

// Run processes one transcription job to a terminal state. Errors inside the
// pipeline are never returned to the submitter; they become the failed state.
// The returned error is non-nil only when the job row itself could not be
// loaded, so the caller may re-deliver.
func (e *Engine) Run(ctx context.Context, transcriptID uuid.UUID) error {
	t, err := e.jobs.GetByID(ctx, transcriptID)
	if err != nil {
		return fmt.Errorf("load transcript %s: %w", transcriptID, err)
	}
	if t.IsTerminal() {
		// At-least-once queue delivery; a redelivered terminal job is a no-op.
		e.logger.Info("skipping terminal job",
			zap.String("transcript_id", t.ID.String()),
			zap.String("status", t.Status))
		return nil
	}

	e.logger.Info("transcription started",
		zap.String("transcript_id", t.ID.String()),
		zap.String("audio_file_id", t.AudioFileID.String()),
		zap.String("language", t.Language),
		zap.Int("attempt", t.Attempt))

	if err := e.process(ctx, t); err != nil {
		e.logger.Error("transcription failed", zap.Error(err), zap.String("transcript_id", t.ID.String()))
		failed, ferr := e.jobs.Fail(ctx, t.ID)
		if ferr != nil {
			e.logger.Error("terminal failure write failed", zap.Error(ferr), zap.String("transcript_id", t.ID.String()))
			return nil
		}
		e.publish(ctx, failed)
		return nil
	}

	e.logger.Info("transcription completed", zap.String("transcript_id", t.ID.String()))
	return nil
}

func (e *Engine) process(ctx context.Context, t *models.Transcript) error {
	if err := e.checkpoint(ctx, t.ID, models.ProgressAccepted); err != nil {
		return err
	}

	af, err := e.audio.GetByID(ctx, t.AudioFileID)
	if err != nil {
		return fmt.Errorf("load audio file: %w", err)
	}

	body, err := e.blobs.Download(ctx, af.FilePath)
	if err != nil {
		return fmt.Errorf("download audio: %w", err)
	}
	defer body.Close()

	if err := e.checkpoint(ctx, t.ID, models.ProgressDownloaded); err != nil {
		return err
	}

	// Spool to a transient file the recognizer can stream from. The file is
	// removed on every exit path so repeated jobs never accumulate on disk.
	path, err := e.spool(body, af.Filename)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	if err := e.checkpoint(ctx, t.ID, models.ProgressSpooled); err != nil {
		return err
	}

	result, err := e.stt.Transcribe(ctx, path, t.Language)
	if err != nil {
		return fmt.Errorf("speech to text: %w", err)
	}
	if result.Text == "" {
		return fmt.Errorf("speech to text: empty transcription")
	}

	if err := e.checkpoint(ctx, t.ID, models.ProgressTranscribed); err != nil {
		return err
	}

	completed, err := e.jobs.Complete(ctx, t.ID, result.Text)
	if err != nil {
		return fmt.Errorf("persist result: %w", err)
	}
	e.publish(ctx, completed)
	return nil
}

// spool copies the blob into a temp file, preserving the audio extension for
// recognizers that sniff format from the filename.
func (e *Engine) spool(body io.Reader, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".webm"
	}
	f, err := os.CreateTemp(e.tempDir, "transcribe-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("spool audio: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

func (e *Engine) checkpoint(ctx context.Context, id uuid.UUID, progress float64) error {
	t, err := e.jobs.UpdateProgress(ctx, id, progress)
	if err != nil {
		return fmt.Errorf("checkpoint %.1f: %w", progress, err)
	}
	e.publish(ctx, t)
	return nil
}

func (e *Engine) publish(ctx context.Context, t *models.Transcript) {
	if e.pub == nil {
		return
	}
	if err := e.pub.PublishJobEvent(ctx, notify.NewEvent(*t)); err != nil {
		// Push delivery is best effort; the ledger row is the system of record.
		e.logger.Warn("publish job event failed", zap.Error(err), zap.String("transcript_id", t.ID.String()))
	}
}
