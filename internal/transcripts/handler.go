package transcripts

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetscribe/backend/internal/middleware"
	"github.com/meetscribe/backend/internal/models"
	"github.com/meetscribe/backend/pkg/response"
)

// Store is the read/edit surface the handler needs from the ledger.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Transcript, error)
	GetByAudioFileID(ctx context.Context, audioFileID uuid.UUID) (*models.Transcript, error)
	UpdateEditedText(ctx context.Context, id uuid.UUID, text string) (*models.Transcript, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transcript, error)
}

// Submitter starts and retries transcription jobs.
type Submitter interface {
	Submit(ctx context.Context, audioFileID uuid.UUID, language string) (*models.Transcript, bool, error)
	Retry(ctx context.Context, transcriptID uuid.UUID) (*models.Transcript, error)
}

// StartRequest is the body for POST /transcribe/start.
type StartRequest struct {
	AudioID  string `json:"audioId" binding:"required"`
	Language string `json:"language"`
}

// StartResponse is returned from POST /transcribe/start.
type StartResponse struct {
	TranscriptID  uuid.UUID `json:"transcriptId"`
	AlreadyExists bool      `json:"alreadyExists"`
}

// UpdateRequest is the body for PUT /transcribe/update.
type UpdateRequest struct {
	TranscribeID string `json:"transcribeId" binding:"required"`
	Text         string `json:"text" binding:"required"`
}

// Handler handles transcription HTTP endpoints.
type Handler struct {
	store           Store
	launcher        Submitter
	defaultLanguage string
	logger          *zap.Logger
}

// NewHandler creates a transcripts handler.
func NewHandler(store Store, launcher Submitter, defaultLanguage string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultLanguage == "" {
		defaultLanguage = "zh"
	}
	return &Handler{store: store, launcher: launcher, defaultLanguage: defaultLanguage, logger: logger}
}

// Start handles POST /transcribe/start.
func (h *Handler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	audioID, err := uuid.Parse(req.AudioID)
	if err != nil {
		response.BadRequest(c, "invalid audio id")
		return
	}
	language := req.Language
	if language == "" {
		language = h.defaultLanguage
	}

	t, alreadyExists, err := h.launcher.Submit(c.Request.Context(), audioID, language)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "audio file not found")
			return
		}
		h.logger.Error("submit transcription failed", zap.Error(err), zap.String("audio_id", req.AudioID))
		response.Internal(c, "failed to start transcription")
		return
	}
	response.OK(c, StartResponse{TranscriptID: t.ID, AlreadyExists: alreadyExists})
}

// Result handles GET /transcribe/result/:id.
func (h *Handler) Result(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid transcript id")
		return
	}
	t, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "transcript not found")
			return
		}
		response.Internal(c, "failed to load transcript")
		return
	}
	response.OK(c, t)
}

// ResultByAudio handles GET /transcribe/by-audio/:audioId.
func (h *Handler) ResultByAudio(c *gin.Context) {
	audioID, err := uuid.Parse(c.Param("audioId"))
	if err != nil {
		response.BadRequest(c, "invalid audio id")
		return
	}
	t, err := h.store.GetByAudioFileID(c.Request.Context(), audioID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "transcript not found")
			return
		}
		response.Internal(c, "failed to load transcript")
		return
	}
	response.OK(c, t)
}

// Update handles PUT /transcribe/update. Editing is only allowed once the
// job is completed; before that the engine owns the row.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	id, err := uuid.Parse(req.TranscribeID)
	if err != nil {
		response.BadRequest(c, "invalid transcript id")
		return
	}
	t, err := h.store.UpdateEditedText(c.Request.Context(), id, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			response.NotFound(c, "transcript not found")
		case errors.Is(err, models.ErrInvalidState):
			response.Conflict(c, "transcript is not completed")
		default:
			response.Internal(c, "failed to update transcript")
		}
		return
	}
	response.OK(c, t)
}

// Retry handles POST /transcribe/:id/retry. Only failed jobs may be retried;
// each retry is a new attempt of the same job.
func (h *Handler) Retry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid transcript id")
		return
	}
	t, err := h.launcher.Retry(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			response.NotFound(c, "transcript not found")
		case errors.Is(err, models.ErrInvalidState):
			response.Conflict(c, "transcript is not failed")
		default:
			h.logger.Error("retry transcription failed", zap.Error(err), zap.String("transcript_id", id.String()))
			response.Internal(c, "failed to retry transcription")
		}
		return
	}
	response.OK(c, StartResponse{TranscriptID: t.ID})
}

// List handles GET /transcripts (current user's history, newest first).
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list transcripts")
		return
	}
	response.OK(c, list)
}
