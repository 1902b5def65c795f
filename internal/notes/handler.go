package notes

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetscribe/backend/internal/models"
	"github.com/meetscribe/backend/pkg/response"
)

// TranscriptReader loads the transcript a note is generated from.
type TranscriptReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transcript, error)
}

// GenerateRequest is the body for POST /meetings/generate.
type GenerateRequest struct {
	TranscribeID string `json:"transcribeId" binding:"required"`
	Template     string `json:"template"`
}

// UpdateRequest is the body for PUT /meetings/update.
type UpdateRequest struct {
	MeetingNoteID string `json:"meetingNoteId" binding:"required"`
	Content       string `json:"content" binding:"required"`
}

// Handler handles meeting note HTTP endpoints.
type Handler struct {
	repo        *Repository
	transcripts TranscriptReader
	generator   *Generator
	logger      *zap.Logger
}

// NewHandler creates a meeting notes handler.
func NewHandler(repo *Repository, transcripts TranscriptReader, generator *Generator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, transcripts: transcripts, generator: generator, logger: logger}
}

// Generate handles POST /meetings/generate. Requires a completed transcript;
// edited text wins over the original.
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	transcriptID, err := uuid.Parse(req.TranscribeID)
	if err != nil {
		response.BadRequest(c, "invalid transcript id")
		return
	}
	template := req.Template
	if template == "" {
		template = models.NoteTemplateStandard
	}

	t, err := h.transcripts.GetByID(c.Request.Context(), transcriptID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "transcript not found")
			return
		}
		response.Internal(c, "failed to load transcript")
		return
	}
	if t.Status != models.TranscriptStatusCompleted {
		response.Conflict(c, "transcript is not completed")
		return
	}
	text := t.Text()
	if text == "" {
		response.Conflict(c, "transcript has no text")
		return
	}

	generated, err := h.generator.Generate(c.Request.Context(), text, template)
	if err != nil {
		h.logger.Error("note generation failed", zap.Error(err), zap.String("transcript_id", transcriptID.String()))
		response.Internal(c, "failed to generate meeting note")
		return
	}

	note := &models.MeetingNote{
		TranscriptID: t.ID,
		UserID:       t.UserID,
		Content:      generated.Content,
		KeyPoints:    generated.KeyPoints,
		ActionItems:  generated.ActionItems,
		Decisions:    generated.Decisions,
		Template:     template,
	}
	if err := h.repo.Create(c.Request.Context(), note); err != nil {
		h.logger.Error("note insert failed", zap.Error(err))
		response.Internal(c, "failed to save meeting note")
		return
	}
	response.Created(c, note)
}

// Get handles GET /meetings/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid note id")
		return
	}
	note, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "meeting note not found")
			return
		}
		response.Internal(c, "failed to load meeting note")
		return
	}
	response.OK(c, note)
}

// GetByTranscript handles GET /meetings/by-transcript/:transcriptId.
func (h *Handler) GetByTranscript(c *gin.Context) {
	transcriptID, err := uuid.Parse(c.Param("transcriptId"))
	if err != nil {
		response.BadRequest(c, "invalid transcript id")
		return
	}
	note, err := h.repo.GetByTranscriptID(c.Request.Context(), transcriptID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "meeting note not found")
			return
		}
		response.Internal(c, "failed to load meeting note")
		return
	}
	response.OK(c, note)
}

// Update handles PUT /meetings/update (user edit of the note body).
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	id, err := uuid.Parse(req.MeetingNoteID)
	if err != nil {
		response.BadRequest(c, "invalid note id")
		return
	}
	note, err := h.repo.UpdateContent(c.Request.Context(), id, req.Content)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "meeting note not found")
			return
		}
		response.Internal(c, "failed to update meeting note")
		return
	}
	response.OK(c, note)
}
