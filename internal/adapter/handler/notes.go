package handler

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ftfc/crm/errors"
	"github.com/ftfc/crm/internal/adapter/dto/common"
	notesdto "github.com/ftfc/crm/internal/adapter/dto/notes"
	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/domain/repositories"
	"github.com/ftfc/crm/internal/usecase/notes"
)

const (
	defaultTranscriptLimit = 20
	archiveURLExpiry       = 15 * time.Minute
)

// ScanRunner starts a notes scan
type ScanRunner interface {
	Run(ctx context.Context, trigger notes.Trigger) (*notes.ScanResult, error)
}

// ArchiveLinker presigns archived transcript objects
type ArchiveLinker interface {
	GetArchiveURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Notes handles the scan trigger and transcript reads
type Notes struct {
	scanner     ScanRunner
	transcripts repositories.TranscriptRepository
	archive     ArchiveLinker
	logger      *zap.Logger
}

// NewNotes creates a notes handler. archive may be nil.
func NewNotes(scanner ScanRunner, transcripts repositories.TranscriptRepository, archive ArchiveLinker, logger *zap.Logger) *Notes {
	return &Notes{
		scanner:     scanner,
		transcripts: transcripts,
		archive:     archive,
		logger:      logger,
	}
}

// Scan handles POST /v1/notes/scan
// @Summary      Scan Drive for meeting notes
// @Description  Runs the Gemini meeting-notes scan synchronously for every connected team member
// @Tags         Notes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  notesdto.ScanResponse   "Scan finished"
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Failure      409  {object}  common.ErrorResponse    "A scan is already running"
// @Failure      500  {object}  common.ErrorResponse    "Scan failed"
// @Router       /notes/scan [post]
func (h *Notes) Scan(c echo.Context) error {
	result, err := h.scanner.Run(c.Request().Context(), notes.TriggerManual)
	if err != nil {
		if stdErrors.Is(err, entities.ErrScanInProgress) {
			return c.JSON(http.StatusConflict, common.ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Manual notes scan failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, notesdto.ScanResponse{
		Message:        fmt.Sprintf("Processed %d new meeting notes", result.ProcessedCount),
		ProcessedCount: result.ProcessedCount,
		RunID:          result.RunID,
		Skipped:        result.Skipped,
		Failed:         result.Failed,
		MembersFailed:  result.MembersFailed,
	})
}

// ListTranscripts handles GET /v1/transcripts
// @Summary      List transcripts
// @Description  Lists the transcripts linked to one entity, newest meeting first
// @Tags         Transcripts
// @Produce      json
// @Security     BearerAuth
// @Param        entityType  query     string  true   "Entity type (client, investor, partner)"
// @Param        entityId    query     string  true   "Entity ID (UUID)"
// @Param        limit       query     int     false  "Page size (1-100)"
// @Param        offset      query     int     false  "Offset"
// @Success      200         {object}  common.ListResponse     "Transcript summaries"
// @Failure      400         {object}  map[string]interface{}  "Invalid query"
// @Failure      401         {object}  map[string]interface{}  "User not authenticated"
// @Router       /transcripts [get]
func (h *Notes) ListTranscripts(c echo.Context) error {
	var req notesdto.ListTranscriptsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if req.Limit == 0 {
		req.Limit = defaultTranscriptLimit
	}

	entityID, err := uuid.Parse(req.EntityID)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("entityId must be a UUID"))
	}

	transcripts, err := h.transcripts.ListByEntity(c.Request().Context(), entities.EntityType(req.EntityType), entityID, req.Limit, req.Offset)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("list transcripts", err))
	}

	summaries := make([]notesdto.TranscriptSummary, 0, len(transcripts))
	for _, t := range transcripts {
		summaries = append(summaries, notesdto.NewTranscriptSummary(t))
	}

	return HandleSuccess(h.logger, c, common.ListResponse{
		Data: summaries,
		Page: &common.PageResponse{Limit: req.Limit, Offset: req.Offset, Count: len(summaries)},
	})
}

// GetTranscript handles GET /v1/transcripts/:id
// @Summary      Get transcript
// @Description  Returns one transcript including its text
// @Tags         Transcripts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transcript ID (UUID)"
// @Success      200  {object}  entities.Transcript     "Transcript"
// @Failure      400  {object}  map[string]interface{}  "Invalid transcript ID"
// @Failure      404  {object}  map[string]interface{}  "Transcript not found"
// @Router       /transcripts/{id} [get]
func (h *Notes) GetTranscript(c echo.Context) error {
	transcript, err := h.findTranscript(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, transcript)
}

// TranscriptArchive handles GET /v1/transcripts/:id/archive
// @Summary      Get transcript archive link
// @Description  Returns a short-lived presigned link to the archived transcript text
// @Tags         Transcripts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transcript ID (UUID)"
// @Success      200  {object}  notesdto.ArchiveURLResponse  "Presigned URL"
// @Failure      404  {object}  map[string]interface{}       "Transcript or archive not found"
// @Failure      500  {object}  map[string]interface{}       "Failed to presign archive"
// @Router       /transcripts/{id}/archive [get]
func (h *Notes) TranscriptArchive(c echo.Context) error {
	transcript, err := h.findTranscript(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if h.archive == nil || transcript.ArchiveKey == "" {
		return HandleError(h.logger, c, errors.ErrNotFound("Transcript archive"))
	}

	url, err := h.archive.GetArchiveURL(c.Request().Context(), transcript.ArchiveKey, archiveURLExpiry)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("presign archive", err))
	}

	return HandleSuccess(h.logger, c, notesdto.ArchiveURLResponse{
		URL:       url,
		ExpiresIn: int64(archiveURLExpiry.Seconds()),
	})
}

func (h *Notes) findTranscript(c echo.Context) (*entities.Transcript, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, errors.ErrInvalidArgument("transcript id must be a UUID")
	}

	transcript, err := h.transcripts.FindByID(c.Request().Context(), id)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("find transcript", err)
	}
	if transcript == nil {
		return nil, errors.ErrNotFound("Transcript")
	}
	return transcript, nil
}
