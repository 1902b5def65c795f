package audio

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetscribe/backend/internal/middleware"
	"github.com/meetscribe/backend/internal/models"
	"github.com/meetscribe/backend/pkg/response"
	"github.com/meetscribe/backend/pkg/storage"
)

// Submitter starts a transcription job after a successful upload.
type Submitter interface {
	Submit(ctx context.Context, audioFileID uuid.UUID, language string) (*models.Transcript, bool, error)
}

// UploadResponse is returned from POST /audio/upload.
type UploadResponse struct {
	AudioID      uuid.UUID `json:"audioId"`
	TranscriptID uuid.UUID `json:"transcriptId"`
}

// Handler handles audio upload HTTP endpoints.
type Handler struct {
	repo            *Repository
	s3              *storage.S3
	launcher        Submitter
	maxFileSize     int64
	defaultLanguage string
	logger          *zap.Logger
}

// NewHandler creates an audio handler.
func NewHandler(repo *Repository, s3 *storage.S3, launcher Submitter, maxFileSizeMB int64, defaultLanguage string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 100
	}
	if defaultLanguage == "" {
		defaultLanguage = "zh"
	}
	return &Handler{
		repo:            repo,
		s3:              s3,
		launcher:        launcher,
		maxFileSize:     maxFileSizeMB * 1024 * 1024,
		defaultLanguage: defaultLanguage,
		logger:          logger,
	}
}

// Upload handles POST /audio/upload (multipart field "audio"). The blob is
// streamed to S3, the artifact row created and a transcription job submitted
// in one request; the response returns both ids without waiting for the
// engine.
func (h *Handler) Upload(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		response.BadRequest(c, "audio file required")
		return
	}
	if fileHeader.Size > h.maxFileSize {
		response.BadRequest(c, fmt.Sprintf("file exceeds %d MB limit", h.maxFileSize/(1024*1024)))
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateAudioFileType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported audio format")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer file.Close()

	ext := path.Ext(fileHeader.Filename)
	if ext == "" {
		ext = ".webm"
	}
	filename := fmt.Sprintf("%d-%06d%s", time.Now().UnixMilli(), rand.Intn(1000000), ext)
	key := storage.AudioKey(userID.String(), filename)

	if contentType == "" {
		contentType = storage.ContentTypeForFilename(fileHeader.Filename)
	}
	if _, err := h.s3.Upload(c.Request.Context(), key, contentType, file, fileHeader.Size); err != nil {
		h.logger.Error("audio upload to S3 failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "failed to store audio")
		return
	}

	af := &models.AudioFile{
		UserID:       userID,
		Filename:     filename,
		OriginalName: fileHeader.Filename,
		FilePath:     key,
		FileSize:     fileHeader.Size,
		Title:        fileHeader.Filename,
	}
	if err := h.repo.Create(c.Request.Context(), af); err != nil {
		h.logger.Error("audio row insert failed", zap.Error(err))
		response.Internal(c, "failed to save audio record")
		return
	}

	language := c.PostForm("language")
	if language == "" {
		language = h.defaultLanguage
	}
	t, _, err := h.launcher.Submit(c.Request.Context(), af.ID, language)
	if err != nil {
		h.logger.Error("auto submit after upload failed", zap.Error(err), zap.String("audio_id", af.ID.String()))
		response.Internal(c, "failed to start transcription")
		return
	}

	response.Created(c, UploadResponse{AudioID: af.ID, TranscriptID: t.ID})
}

// List handles GET /audio (current user's uploads).
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list audio files")
		return
	}
	response.OK(c, list)
}

// DownloadURL handles GET /audio/:id/download-url.
func (h *Handler) DownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid audio id")
		return
	}
	af, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "audio file not found")
			return
		}
		response.Internal(c, "failed to load audio file")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), af.FilePath, h.s3.PresignExpire())
	if err != nil {
		response.Internal(c, "failed to generate download url")
		return
	}
	response.OK(c, gin.H{"url": url})
}

// Delete handles DELETE /audio/:id: removes the blob and the row.
func (h *Handler) Delete(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid audio id")
		return
	}
	af, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "audio file not found")
			return
		}
		response.Internal(c, "failed to load audio file")
		return
	}
	if af.UserID != userID {
		response.NotFound(c, "audio file not found")
		return
	}
	if err := h.s3.Delete(c.Request.Context(), af.FilePath); err != nil {
		h.logger.Warn("delete audio blob failed", zap.Error(err), zap.String("key", af.FilePath))
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete audio file")
		return
	}
	response.OK(c, gin.H{"deleted": id})
}
