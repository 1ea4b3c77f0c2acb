package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SourceTypeGemini marks transcripts imported from Gemini meeting notes
const SourceTypeGemini = "gemini"

// PlaceholderSummary is stored until a summary is written by another subsystem
const PlaceholderSummary = "Imported from Gemini meeting notes"

// Transcript is the stored meeting transcript
type Transcript struct {
	ID           uuid.UUID                    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title        string                       `json:"title" gorm:"type:varchar(500);not null"`
	Date         time.Time                    `json:"date" gorm:"type:timestamptz;index"`
	Participants datatypes.JSONSlice[string]  `json:"participants" gorm:"type:jsonb;default:'[]'"`
	Transcript   string                       `json:"transcript" gorm:"type:text"`
	Summary      string                       `json:"summary" gorm:"type:text"`
	KeyPoints    datatypes.JSONSlice[string]  `json:"keyPoints" gorm:"type:jsonb;default:'[]'"`
	ActionItems  datatypes.JSONSlice[string]  `json:"actionItems" gorm:"type:jsonb;default:'[]'"`
	EntityType   EntityType                   `json:"entityType" gorm:"type:varchar(20);not null;index:idx_transcripts_entity"`
	EntityID     uuid.UUID                    `json:"entityId" gorm:"type:uuid;not null;index:idx_transcripts_entity"`
	SourceType   string                       `json:"sourceType" gorm:"type:varchar(50);not null"`
	SourceID     string                       `json:"sourceId" gorm:"type:varchar(255);index"`
	SourceLink   string                       `json:"sourceLink,omitempty" gorm:"type:text"`
	ArchiveKey   string                       `json:"archiveKey,omitempty" gorm:"type:varchar(500)"`
	CreatedAt    time.Time                    `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time                    `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}

// Ref returns the lightweight pointer appended to the owning entity
func (t *Transcript) Ref() TranscriptRef {
	return TranscriptRef{
		ID:         t.ID,
		Title:      t.Title,
		Date:       t.Date,
		SourceType: t.SourceType,
		SourceID:   t.SourceID,
	}
}
