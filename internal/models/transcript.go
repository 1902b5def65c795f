package models

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptStatus represents the transcription job lifecycle.
const (
	TranscriptStatusQueued     = "queued"
	TranscriptStatusProcessing = "processing"
	TranscriptStatusCompleted  = "completed"
	TranscriptStatusFailed     = "failed"
)

// Progress checkpoints written by the engine while a job is processing.
const (
	ProgressAccepted    = 0.1
	ProgressDownloaded  = 0.3
	ProgressSpooled     = 0.5
	ProgressTranscribed = 0.8
	ProgressDone        = 1.0
)

// Transcript is one transcription job for one audio file. At most one
// transcript may reference a given audio file (unique constraint on
// audio_file_id). The engine is the only writer until the job is terminal;
// afterwards only EditedText may change.
type Transcript struct {
	ID           uuid.UUID `json:"id"`
	AudioFileID  uuid.UUID `json:"audio_file_id"`
	UserID       uuid.UUID `json:"user_id"`
	Language     string    `json:"language"`
	Status       string    `json:"status"`
	Progress     float64   `json:"progress"`
	OriginalText string    `json:"original_text,omitempty"`
	EditedText   string    `json:"edited_text,omitempty"`
	Attempt      int       `json:"attempt"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsTerminal reports whether no further engine-driven transition is possible.
func (t *Transcript) IsTerminal() bool {
	return t.Status == TranscriptStatusCompleted || t.Status == TranscriptStatusFailed
}

// Text returns the user-facing transcript text: edits win over the original.
func (t *Transcript) Text() string {
	if t.EditedText != "" {
		return t.EditedText
	}
	return t.OriginalText
}
