package audio

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meetscribe/backend/internal/models"
)

const audioColumns = `id, user_id, filename, original_name, file_path, file_size, duration, title, created_at`

// Repository handles audio file persistence. Rows are write-once.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an audio repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an audio file row.
func (r *Repository) Create(ctx context.Context, af *models.AudioFile) error {
	const q = `INSERT INTO audio_files (user_id, filename, original_name, file_path, file_size, duration, title)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, af.UserID, af.Filename, af.OriginalName, af.FilePath, af.FileSize, af.Duration, af.Title).
		Scan(&af.ID, &af.CreatedAt)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	return nil
}

// GetByID returns an audio file by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.AudioFile, error) {
	const q = `SELECT ` + audioColumns + ` FROM audio_files WHERE id = $1`
	var af models.AudioFile
	err := r.pool.QueryRow(ctx, q, id).Scan(&af.ID, &af.UserID, &af.Filename, &af.OriginalName,
		&af.FilePath, &af.FileSize, &af.Duration, &af.Title, &af.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("audio file %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("get audio file: %w", err)
	}
	return &af, nil
}

// ListByUser returns a user's audio files, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AudioFile, error) {
	const q = `SELECT ` + audioColumns + ` FROM audio_files WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list audio files: %w", err)
	}
	defer rows.Close()
	var list []models.AudioFile
	for rows.Next() {
		var af models.AudioFile
		if err := rows.Scan(&af.ID, &af.UserID, &af.Filename, &af.OriginalName,
			&af.FilePath, &af.FileSize, &af.Duration, &af.Title, &af.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, af)
	}
	return list, rows.Err()
}

// Delete removes an audio file row (transcript rows cascade).
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audio_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete audio file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("audio file %s: %w", id, models.ErrNotFound)
	}
	return nil
}
