package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActivityType groups activity log entries
type ActivityType string

const (
	ActivityTypeTranscript ActivityType = "transcript"
	ActivityTypeMeeting    ActivityType = "meeting"
)

// ActivityAction is the verb of an activity entry
type ActivityAction string

const (
	ActivityActionCreated   ActivityAction = "created"
	ActivityActionScheduled ActivityAction = "scheduled"
	ActivityActionCanceled  ActivityAction = "canceled"
)

// Activity is an append-only audit record
type Activity struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Type         ActivityType   `json:"type" gorm:"type:varchar(50);not null;index"`
	Action       ActivityAction `json:"action" gorm:"type:varchar(50);not null"`
	TranscriptID *uuid.UUID     `json:"transcriptId,omitempty" gorm:"type:uuid"`
	MeetingID    *uuid.UUID     `json:"meetingId,omitempty" gorm:"type:uuid"`
	EntityType   EntityType     `json:"entityType" gorm:"type:varchar(20);index:idx_activity_entity"`
	EntityID     uuid.UUID      `json:"entityId" gorm:"type:uuid;index:idx_activity_entity"`
	Title        string         `json:"title" gorm:"type:varchar(500)"`
	Description  string         `json:"description" gorm:"type:text"`
	Timestamp    time.Time      `json:"timestamp" gorm:"type:timestamptz;not null;index"`
}

// TableName specifies the table name for GORM
func (Activity) TableName() string {
	return "activity"
}

// NewTranscriptActivity builds the entry logged when a transcript is imported
func NewTranscriptActivity(t *Transcript) *Activity {
	id := t.ID
	return &Activity{
		ID:           uuid.New(),
		Type:         ActivityTypeTranscript,
		Action:       ActivityActionCreated,
		TranscriptID: &id,
		EntityType:   t.EntityType,
		EntityID:     t.EntityID,
		Title:        t.Title,
		Description:  fmt.Sprintf("Meeting transcript imported from Gemini notes: %s", t.Title),
		Timestamp:    time.Now().UTC(),
	}
}
