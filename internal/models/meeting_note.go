package models

import (
	"time"

	"github.com/google/uuid"
)

// Note templates for meeting note generation.
const (
	NoteTemplateStandard = "standard"
	NoteTemplateBrief    = "brief"
)

// MeetingNote is the structured summary derived from a completed transcript.
// Created once by the summarization step; Content is user-editable afterwards.
type MeetingNote struct {
	ID           uuid.UUID `json:"id"`
	TranscriptID uuid.UUID `json:"transcript_id"`
	UserID       uuid.UUID `json:"user_id"`
	Content      string    `json:"content"` // markdown
	KeyPoints    []string  `json:"key_points"`
	ActionItems  []string  `json:"action_items"`
	Decisions    []string  `json:"decisions"`
	Template     string    `json:"template"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
