package entities

import (
	"time"

	"github.com/google/uuid"
)

// ProcessedNoteStatus tracks a claim on a source document
type ProcessedNoteStatus string

const (
	ProcessedNoteStatusProcessing ProcessedNoteStatus = "processing" // Claimed by a running scan
	ProcessedNoteStatusProcessed  ProcessedNoteStatus = "processed"  // Transcript committed
)

// ProcessedNote marks a Drive document as handled. FileID is the primary key,
// so at most one record can exist per document.
type ProcessedNote struct {
	FileID       string              `json:"fileId" gorm:"column:file_id;type:varchar(255);primary_key"`
	Status       ProcessedNoteStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	ClaimedBy    string              `json:"claimedBy,omitempty" gorm:"type:varchar(64)"`
	ClaimedAt    time.Time           `json:"claimedAt" gorm:"type:timestamptz;not null"`
	ProcessedAt  *time.Time          `json:"processedAt,omitempty" gorm:"type:timestamptz"`
	EntityType   EntityType          `json:"entityType,omitempty" gorm:"type:varchar(20)"`
	EntityID     *uuid.UUID          `json:"entityId,omitempty" gorm:"type:uuid"`
	TranscriptID *uuid.UUID          `json:"transcriptId,omitempty" gorm:"type:uuid"`
}

// TableName specifies the table name for GORM
func (ProcessedNote) TableName() string {
	return "processed_notes"
}

// IsProcessed reports whether the document has a committed transcript
func (p *ProcessedNote) IsProcessed() bool {
	return p.Status == ProcessedNoteStatusProcessed
}

// ClaimResult is the outcome of trying to claim a document for processing
type ClaimResult int

const (
	ClaimAcquired         ClaimResult = iota // This run owns the document
	ClaimAlreadyProcessed                    // A transcript exists for the document
	ClaimHeld                                // Another run is processing the document
)

func (c ClaimResult) String() string {
	switch c {
	case ClaimAcquired:
		return "acquired"
	case ClaimAlreadyProcessed:
		return "already_processed"
	case ClaimHeld:
		return "held"
	}
	return "unknown"
}

// CandidateDocument is a Drive document that may hold meeting notes. It is
// produced by listing and never persisted on its own.
type CandidateDocument struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedTime time.Time `json:"createdTime"`
	WebViewLink string    `json:"webViewLink"`
}
