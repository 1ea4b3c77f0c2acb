package notes

import (
	"time"

	"github.com/ftfc/crm/internal/domain/entities"
)

// ScanResponse is returned by the manual scan trigger
type ScanResponse struct {
	Message        string `json:"message"`
	ProcessedCount int    `json:"processedCount"`
	RunID          string `json:"runId,omitempty"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
	MembersFailed  int    `json:"membersFailed"`
}

// ListTranscriptsRequest selects the transcripts of one entity
type ListTranscriptsRequest struct {
	EntityType string `query:"entityType" validate:"required,entitytype"`
	EntityID   string `query:"entityId" validate:"required,uuid"`
	Limit      int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset     int    `query:"offset" validate:"omitempty,min=0"`
}

// TranscriptSummary is a transcript without its body
type TranscriptSummary struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Date         string              `json:"date"`
	Participants []string            `json:"participants"`
	Summary      string              `json:"summary"`
	EntityType   entities.EntityType `json:"entityType"`
	EntityID     string              `json:"entityId"`
	SourceType   string              `json:"sourceType"`
	SourceID     string              `json:"sourceId"`
	SourceLink   string              `json:"sourceLink,omitempty"`
	Archived     bool                `json:"archived"`
}

// ArchiveURLResponse is a presigned link to the archived transcript text
type ArchiveURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expiresIn"`
}

// NewTranscriptSummary converts a stored transcript
func NewTranscriptSummary(t *entities.Transcript) TranscriptSummary {
	participants := []string(t.Participants)
	if participants == nil {
		participants = []string{}
	}
	return TranscriptSummary{
		ID:           t.ID.String(),
		Title:        t.Title,
		Date:         t.Date.UTC().Format(time.RFC3339),
		Participants: participants,
		Summary:      t.Summary,
		EntityType:   t.EntityType,
		EntityID:     t.EntityID.String(),
		SourceType:   t.SourceType,
		SourceID:     t.SourceID,
		SourceLink:   t.SourceLink,
		Archived:     t.ArchiveKey != "",
	}
}
