package calendly

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/domain/repositories"
	"github.com/ftfc/crm/pkg/metrics"
)

// Webhook event names
const (
	EventInviteeCreated  = "invitee.created"
	EventInviteeCanceled = "invitee.canceled"
)

// EntityResolver maps invitee emails to a CRM entity
type EntityResolver interface {
	Resolve(ctx context.Context, emails []string) (*entities.ResolvedEntity, error)
}

// Webhook is the envelope Calendly posts
type Webhook struct {
	Event     string         `json:"event"`
	CreatedAt time.Time      `json:"created_at"`
	Payload   InviteePayload `json:"payload"`
}

// InviteePayload is the invitee resource of invitee.* events
type InviteePayload struct {
	URI            string         `json:"uri"`
	Email          string         `json:"email"`
	Name           string         `json:"name"`
	Status         string         `json:"status"`
	Event          string         `json:"event"`
	ScheduledEvent ScheduledEvent `json:"scheduled_event"`
	Cancellation   *Cancellation  `json:"cancellation,omitempty"`
}

// ScheduledEvent describes the booked event
type ScheduledEvent struct {
	URI       string     `json:"uri"`
	Name      string     `json:"name"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Cancellation is present on canceled invitees
type Cancellation struct {
	CanceledBy string `json:"canceled_by"`
	Reason     string `json:"reason"`
}

// Service records Calendly bookings against CRM entities
type Service struct {
	meetings   repositories.MeetingRepository
	activities repositories.ActivityRepository
	resolver   EntityResolver
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a Calendly webhook service
func NewService(
	meetings repositories.MeetingRepository,
	activities repositories.ActivityRepository,
	resolver EntityResolver,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		meetings:   meetings,
		activities: activities,
		resolver:   resolver,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle processes a verified webhook body. Unknown events are ignored and
// return a nil meeting.
func (s *Service) Handle(ctx context.Context, body []byte) (*entities.ScheduledMeeting, error) {
	var hook Webhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("invalid calendly payload: %w", err)
	}
	s.metrics.ObserveWebhook("calendly", hook.Event)

	switch hook.Event {
	case EventInviteeCreated:
		return s.scheduled(ctx, hook.Payload)
	case EventInviteeCanceled:
		return s.canceled(ctx, hook.Payload)
	}

	s.logger.Debug("Ignoring calendly event", zap.String("event", hook.Event))
	return nil, nil
}

func (s *Service) scheduled(ctx context.Context, p InviteePayload) (*entities.ScheduledMeeting, error) {
	if p.URI == "" {
		return nil, fmt.Errorf("invalid calendly payload: missing invitee uri")
	}

	eventURI := p.ScheduledEvent.URI
	if eventURI == "" {
		eventURI = p.Event
	}
	meeting := &entities.ScheduledMeeting{
		ID:           uuid.New(),
		InviteeURI:   p.URI,
		EventURI:     eventURI,
		Name:         p.ScheduledEvent.Name,
		InviteeName:  p.Name,
		InviteeEmail: strings.ToLower(strings.TrimSpace(p.Email)),
		StartTime:    p.ScheduledEvent.StartTime,
		EndTime:      p.ScheduledEvent.EndTime,
		Status:       entities.MeetingStatusScheduled,
	}

	if meeting.InviteeEmail != "" {
		entity, err := s.resolver.Resolve(ctx, []string{meeting.InviteeEmail})
		if err != nil {
			return nil, fmt.Errorf("resolve invitee: %w", err)
		}
		meeting.LinkEntity(entity)
	}

	created, err := s.meetings.Upsert(ctx, meeting)
	if err != nil {
		return nil, err
	}

	// Redelivered bookings refresh the row without a second activity entry
	if created {
		if err := s.logActivity(ctx, meeting, entities.ActivityActionScheduled, "Meeting scheduled via Calendly"); err != nil {
			return nil, err
		}
	}

	s.logger.Info("📅 Calendly meeting scheduled",
		zap.String("invitee_uri", meeting.InviteeURI),
		zap.String("entity_type", string(meeting.EntityType)),
	)
	return meeting, nil
}

func (s *Service) canceled(ctx context.Context, p InviteePayload) (*entities.ScheduledMeeting, error) {
	reason := ""
	if p.Cancellation != nil {
		reason = p.Cancellation.Reason
	}

	meeting, err := s.meetings.MarkCanceled(ctx, p.URI, reason)
	if err != nil {
		return nil, err
	}
	if meeting == nil {
		s.logger.Info("Cancellation for unknown meeting", zap.String("invitee_uri", p.URI))
		return nil, nil
	}

	if err := s.logActivity(ctx, meeting, entities.ActivityActionCanceled, "Meeting canceled via Calendly"); err != nil {
		return nil, err
	}

	s.logger.Info("Calendly meeting canceled", zap.String("invitee_uri", p.URI))
	return meeting, nil
}

// logActivity is a no-op for meetings that matched no entity
func (s *Service) logActivity(ctx context.Context, m *entities.ScheduledMeeting, action entities.ActivityAction, prefix string) error {
	if m.EntityID == nil {
		return nil
	}
	meetingID := m.ID
	description := prefix
	if m.InviteeName != "" || m.InviteeEmail != "" {
		description = fmt.Sprintf("%s with %s <%s>", prefix, m.InviteeName, m.InviteeEmail)
	}
	activity := &entities.Activity{
		ID:          uuid.New(),
		Type:        entities.ActivityTypeMeeting,
		Action:      action,
		MeetingID:   &meetingID,
		EntityType:  m.EntityType,
		EntityID:    *m.EntityID,
		Title:       m.Name,
		Description: description,
		Timestamp:   s.now().UTC(),
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return fmt.Errorf("log meeting activity: %w", err)
	}
	return nil
}
