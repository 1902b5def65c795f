package models

import (
	"time"

	"github.com/google/uuid"
)

// AudioFile is an uploaded audio recording. Rows are write-once: created at
// upload time and never mutated afterwards.
type AudioFile struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	FilePath     string    `json:"file_path"` // S3 object key
	FileSize     int64     `json:"file_size"`
	Duration     float64   `json:"duration"` // seconds; 0 = unknown at creation
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
}
