package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ftfc/crm/internal/domain/entities"
)

// SecurityEventRepository stores RISC events
type SecurityEventRepository struct {
	db *gorm.DB
}

// NewSecurityEventRepository creates a new security event repository
func NewSecurityEventRepository(db *gorm.DB) *SecurityEventRepository {
	return &SecurityEventRepository{db: db}
}

// Seen reports whether the jti is already stored
func (r *SecurityEventRepository) Seen(ctx context.Context, jti string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.SecurityEvent{}).
		Where("jti = ?", jti).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up security event: %w", err)
	}
	return count > 0, nil
}

// Record inserts the event unless its jti is already stored
func (r *SecurityEventRepository) Record(ctx context.Context, event *entities.SecurityEvent) (bool, error) {
	if event == nil {
		return false, errors.New("event cannot be nil")
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record security event: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// MeetingRepository stores Calendly bookings
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Upsert inserts the meeting or refreshes the booking fields of an existing
// one. It reports whether a new row was inserted.
func (r *MeetingRepository) Upsert(ctx context.Context, meeting *entities.ScheduledMeeting) (bool, error) {
	if meeting == nil {
		return false, errors.New("meeting cannot be nil")
	}
	if meeting.ID == uuid.Nil {
		meeting.ID = uuid.New()
	}
	proposed := meeting.ID
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "invitee_uri"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"event_uri", "name", "invitee_name", "invitee_email",
				"start_time", "end_time", "status", "entity_type", "entity_id", "updated_at",
			}),
		}).
		Create(meeting).Error; err != nil {
		return false, fmt.Errorf("failed to upsert meeting: %w", err)
	}

	// On conflict the stored row keeps its original ID
	var stored entities.ScheduledMeeting
	if err := r.db.WithContext(ctx).
		Select("id", "created_at").
		Where("invitee_uri = ?", meeting.InviteeURI).
		First(&stored).Error; err != nil {
		return false, fmt.Errorf("failed to reload meeting: %w", err)
	}
	meeting.ID = stored.ID
	meeting.CreatedAt = stored.CreatedAt
	return stored.ID == proposed, nil
}

// FindByInviteeURI retrieves a meeting by invitee URI
func (r *MeetingRepository) FindByInviteeURI(ctx context.Context, inviteeURI string) (*entities.ScheduledMeeting, error) {
	var meeting entities.ScheduledMeeting
	if err := r.db.WithContext(ctx).Where("invitee_uri = ?", inviteeURI).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find meeting: %w", err)
	}
	return &meeting, nil
}

// MarkCanceled cancels a meeting; it returns nil when the meeting is unknown
func (r *MeetingRepository) MarkCanceled(ctx context.Context, inviteeURI, reason string) (*entities.ScheduledMeeting, error) {
	result := r.db.WithContext(ctx).
		Model(&entities.ScheduledMeeting{}).
		Where("invitee_uri = ?", inviteeURI).
		Updates(map[string]interface{}{
			"status":        entities.MeetingStatusCanceled,
			"cancel_reason": reason,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to cancel meeting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByInviteeURI(ctx, inviteeURI)
}
