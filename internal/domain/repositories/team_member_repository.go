package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ftfc/crm/internal/domain/entities"
)

// TeamMemberRepository defines the interface for team member data access
type TeamMemberRepository interface {
	// Create creates a new member
	Create(ctx context.Context, member *entities.TeamMember) error

	// FindByID finds a member by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.TeamMember, error)

	// FindByEmail finds a member by email
	FindByEmail(ctx context.Context, email string) (*entities.TeamMember, error)

	// FindByGoogleSubject finds a member by Google account subject
	FindByGoogleSubject(ctx context.Context, subject string) (*entities.TeamMember, error)

	// Update updates a member
	Update(ctx context.Context, member *entities.TeamMember) error

	// ListConnected returns members with a connected Google account and a stored token
	ListConnected(ctx context.Context) ([]*entities.TeamMember, error)

	// SetGoogleStatus changes the connection status, optionally clearing the stored token
	SetGoogleStatus(ctx context.Context, id uuid.UUID, status entities.GoogleStatus, reason string, clearToken bool) error

	// MarkScanned records the time of the member's last successful listing
	MarkScanned(ctx context.Context, id uuid.UUID, at time.Time) error
}

// SecurityEventRepository records RISC events
type SecurityEventRepository interface {
	// Seen reports whether an event with this jti was already recorded
	Seen(ctx context.Context, jti string) (bool, error)

	// Record stores the event; it returns false when the jti was already recorded
	Record(ctx context.Context, event *entities.SecurityEvent) (bool, error)
}

// MeetingRepository stores Calendly bookings
type MeetingRepository interface {
	// Upsert inserts or refreshes a meeting keyed by invitee URI and reports
	// whether the meeting is new
	Upsert(ctx context.Context, meeting *entities.ScheduledMeeting) (bool, error)

	// FindByInviteeURI returns nil when the meeting is unknown
	FindByInviteeURI(ctx context.Context, inviteeURI string) (*entities.ScheduledMeeting, error)

	// MarkCanceled sets the meeting status to canceled
	MarkCanceled(ctx context.Context, inviteeURI, reason string) (*entities.ScheduledMeeting, error)
}
