package transcripts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetscribe/backend/internal/models"
)

const transcriptColumns = `id, audio_file_id, user_id, language, status, progress,
	COALESCE(original_text,''), COALESCE(edited_text,''), attempt, created_at, updated_at`

// Repository handles transcript persistence. It is the job ledger: every
// engine checkpoint and terminal transition goes through here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a transcripts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTranscript(row pgx.Row) (*models.Transcript, error) {
	var t models.Transcript
	err := row.Scan(&t.ID, &t.AudioFileID, &t.UserID, &t.Language, &t.Status, &t.Progress,
		&t.OriginalText, &t.EditedText, &t.Attempt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Claim atomically creates the transcription job for an audio file. The
// unique constraint on audio_file_id makes this a true claim: when two
// submissions race, exactly one insert wins and the loser observes the
// existing row. Returns created=false with the existing job on conflict.
func (r *Repository) Claim(ctx context.Context, audioFileID, userID uuid.UUID, language string) (*models.Transcript, bool, error) {
	const q = `INSERT INTO transcripts (audio_file_id, user_id, language, status, progress)
		VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (audio_file_id) DO NOTHING
		RETURNING ` + transcriptColumns
	t, err := scanTranscript(r.pool.QueryRow(ctx, q, audioFileID, userID, language, models.TranscriptStatusQueued))
	if err == nil {
		return t, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("claim transcript: %w", err)
	}
	existing, err := r.GetByAudioFileID(ctx, audioFileID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByID returns a transcript by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transcript, error) {
	const q = `SELECT ` + transcriptColumns + ` FROM transcripts WHERE id = $1`
	t, err := scanTranscript(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("transcript %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	return t, nil
}

// GetByAudioFileID returns the transcript referencing an audio file.
func (r *Repository) GetByAudioFileID(ctx context.Context, audioFileID uuid.UUID) (*models.Transcript, error) {
	const q = `SELECT ` + transcriptColumns + ` FROM transcripts WHERE audio_file_id = $1`
	t, err := scanTranscript(r.pool.QueryRow(ctx, q, audioFileID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("transcript for audio %s: %w", audioFileID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get transcript by audio: %w", err)
	}
	return t, nil
}

// ListByUser returns a user's transcripts, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transcript, error) {
	const q = `SELECT ` + transcriptColumns + ` FROM transcripts WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()
	var list []models.Transcript
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

// UpdateProgress persists a progress checkpoint and returns the updated row.
// The first checkpoint moves a queued job to processing; progress only moves
// forward and terminal rows never change here.
func (r *Repository) UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) (*models.Transcript, error) {
	const q = `UPDATE transcripts SET progress = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ($2, $4) AND progress <= $1
		RETURNING ` + transcriptColumns
	t, err := scanTranscript(r.pool.QueryRow(ctx, q, progress, models.TranscriptStatusProcessing, id, models.TranscriptStatusQueued))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("transcript %s not processing: %w", id, models.ErrInvalidState)
		}
		return nil, fmt.Errorf("update progress: %w", err)
	}
	return t, nil
}

// Complete writes the terminal success state in one statement: both text
// fields, status and progress change together so no observer sees a torn row.
func (r *Repository) Complete(ctx context.Context, id uuid.UUID, text string) (*models.Transcript, error) {
	const q = `UPDATE transcripts
		SET original_text = $1, edited_text = $1, status = $2, progress = 1.0, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + transcriptColumns
	t, err := scanTranscript(r.pool.QueryRow(ctx, q, text, models.TranscriptStatusCompleted, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("transcript %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("complete transcript: %w", err)
	}
	return t, nil
}

// Fail writes the terminal failure state: status failed, progress reset to 0.
func (r *Repository) Fail(ctx context.Context, id uuid.UUID) (*models.Transcript, error) {
	const q = `UPDATE transcripts SET status = $1, progress = 0, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + transcriptColumns
	t, err := scanTranscript(r.pool.QueryRow(ctx, q, models.TranscriptStatusFailed, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("transcript %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("fail transcript: %w", err)
	}
	return t, nil
}

// UpdateEditedText overwrites edited_text. Allowed only once the job is
// completed; earlier the engine is the sole writer of the row.
func (r *Repository) UpdateEditedText(ctx context.Context, id uuid.UUID, text string) (*models.Transcript, error) {
	const q = `UPDATE transcripts SET edited_text = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + transcriptColumns
	t, err := scanTranscript(r.pool.QueryRow(ctx, q, text, id, models.TranscriptStatusCompleted))
	if err == nil {
		return t, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("update edited text: %w", err)
	}
	// Distinguish missing row from wrong state.
	if _, gerr := r.GetByID(ctx, id); gerr != nil {
		return nil, gerr
	}
	return nil, fmt.Errorf("transcript %s not completed: %w", id, models.ErrInvalidState)
}

// ResetForRetry begins a logically new attempt for a failed job: texts are
// cleared, progress returns to 0, the attempt counter advances and the job
// goes back to queued. Only valid from the failed state.
func (r *Repository) ResetForRetry(ctx context.Context, id uuid.UUID) (*models.Transcript, error) {
	const q = `UPDATE transcripts
		SET status = $1, progress = 0, original_text = NULL, edited_text = NULL,
		    attempt = attempt + 1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + transcriptColumns
	t, err := scanTranscript(r.pool.QueryRow(ctx, q, models.TranscriptStatusQueued, id, models.TranscriptStatusFailed))
	if err == nil {
		return t, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("reset transcript: %w", err)
	}
	if _, gerr := r.GetByID(ctx, id); gerr != nil {
		return nil, gerr
	}
	return nil, fmt.Errorf("transcript %s not failed: %w", id, models.ErrInvalidState)
}
