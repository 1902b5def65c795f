package notes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetscribe/backend/internal/models"
)

// Repository handles meeting note persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a meeting notes repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func marshalList(items []string) []byte {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return b
}

// Create inserts a meeting note.
func (r *Repository) Create(ctx context.Context, n *models.MeetingNote) error {
	const q = `INSERT INTO meeting_notes (transcript_id, user_id, content, key_points, action_items, decisions, template)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, n.TranscriptID, n.UserID, n.Content,
		marshalList(n.KeyPoints), marshalList(n.ActionItems), marshalList(n.Decisions), n.Template).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create meeting note: %w", err)
	}
	return nil
}

func scanNote(row pgx.Row) (*models.MeetingNote, error) {
	var n models.MeetingNote
	var keyPoints, actionItems, decisions []byte
	err := row.Scan(&n.ID, &n.TranscriptID, &n.UserID, &n.Content,
		&keyPoints, &actionItems, &decisions, &n.Template, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal(keyPoints, &n.KeyPoints)
	_ = json.Unmarshal(actionItems, &n.ActionItems)
	_ = json.Unmarshal(decisions, &n.Decisions)
	return &n, nil
}

const noteColumns = `id, transcript_id, user_id, content, key_points, action_items, decisions, template, created_at, updated_at`

// GetByID returns a meeting note by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.MeetingNote, error) {
	const q = `SELECT ` + noteColumns + ` FROM meeting_notes WHERE id = $1`
	n, err := scanNote(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("meeting note %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get meeting note: %w", err)
	}
	return n, nil
}

// GetByTranscriptID returns the newest note for a transcript, or ErrNotFound.
func (r *Repository) GetByTranscriptID(ctx context.Context, transcriptID uuid.UUID) (*models.MeetingNote, error) {
	const q = `SELECT ` + noteColumns + ` FROM meeting_notes
		WHERE transcript_id = $1 ORDER BY created_at DESC LIMIT 1`
	n, err := scanNote(r.pool.QueryRow(ctx, q, transcriptID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("note for transcript %s: %w", transcriptID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get meeting note by transcript: %w", err)
	}
	return n, nil
}

// UpdateContent overwrites the note body (user edit).
func (r *Repository) UpdateContent(ctx context.Context, id uuid.UUID, content string) (*models.MeetingNote, error) {
	const q = `UPDATE meeting_notes SET content = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + noteColumns
	n, err := scanNote(r.pool.QueryRow(ctx, q, content, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("meeting note %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("update meeting note: %w", err)
	}
	return n, nil
}
