package entities

import (
	"time"

	"github.com/google/uuid"
)

// MeetingStatus is the lifecycle of a booked meeting
type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusCanceled  MeetingStatus = "canceled"
)

// ScheduledMeeting is a meeting booked through Calendly
type ScheduledMeeting struct {
	ID           uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	InviteeURI   string        `json:"inviteeUri" gorm:"type:varchar(500);uniqueIndex;not null"`
	EventURI     string        `json:"eventUri" gorm:"type:varchar(500)"`
	Name         string        `json:"name" gorm:"type:varchar(500)"`
	InviteeName  string        `json:"inviteeName" gorm:"type:varchar(255)"`
	InviteeEmail string        `json:"inviteeEmail" gorm:"type:varchar(255);index"`
	StartTime    *time.Time    `json:"startTime,omitempty" gorm:"type:timestamptz"`
	EndTime      *time.Time    `json:"endTime,omitempty" gorm:"type:timestamptz"`
	Status       MeetingStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	CancelReason string        `json:"cancelReason,omitempty" gorm:"type:text"`
	EntityType   EntityType    `json:"entityType,omitempty" gorm:"type:varchar(20)"`
	EntityID     *uuid.UUID    `json:"entityId,omitempty" gorm:"type:uuid"`
	CreatedAt    time.Time     `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time     `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (ScheduledMeeting) TableName() string {
	return "scheduled_meetings"
}

// LinkEntity attaches the resolved entity
func (m *ScheduledMeeting) LinkEntity(e *ResolvedEntity) {
	if e == nil {
		return
	}
	id := e.ID
	m.EntityType = e.Type
	m.EntityID = &id
}
