package risc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/domain/repositories"
	"github.com/ftfc/crm/pkg/metrics"
)

// Subject identifies the Google account an event is about
type Subject struct {
	SubjectType string `json:"subject_type"`
	Iss         string `json:"iss,omitempty"`
	Sub         string `json:"sub,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Event is one entry of the token's events claim
type Event struct {
	Subject Subject `json:"subject"`
	Reason  string  `json:"reason,omitempty"`
	State   string  `json:"state,omitempty"`
}

// Claims is a Security Event Token
type Claims struct {
	Events map[string]Event `json:"events"`
	jwt.RegisteredClaims
}

// NewJWKSKeyfunc fetches the signing keys from jwksURL and keeps them refreshed
// until ctx ends
func NewJWKSKeyfunc(ctx context.Context, jwksURL string) (jwt.Keyfunc, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to load RISC signing keys: %w", err)
	}
	return k.Keyfunc, nil
}

// Receiver verifies Google security event tokens and applies them to the
// matching team member's connection
type Receiver struct {
	members  repositories.TeamMemberRepository
	events   repositories.SecurityEventRepository
	keyfunc  jwt.Keyfunc
	issuer   string
	audience string
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewReceiver creates a receiver. audience is the Google OAuth client ID.
func NewReceiver(
	members repositories.TeamMemberRepository,
	events repositories.SecurityEventRepository,
	kf jwt.Keyfunc,
	issuer, audience string,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Receiver {
	return &Receiver{
		members:  members,
		events:   events,
		keyfunc:  kf,
		issuer:   issuer,
		audience: audience,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Verify checks the token signature, issuer and audience
func (r *Receiver) Verify(rawToken string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(rawToken, claims, r.keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(r.issuer),
		jwt.WithAudience(r.audience),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidSecurityEvent, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing jti", entities.ErrInvalidSecurityEvent)
	}
	if len(claims.Events) == 0 {
		return nil, fmt.Errorf("%w: no events", entities.ErrInvalidSecurityEvent)
	}
	return claims, nil
}

// Receive verifies and applies a token. A redelivered token returns
// ErrDuplicateEvent without touching the member.
func (r *Receiver) Receive(ctx context.Context, rawToken string) (*entities.SecurityEvent, error) {
	claims, err := r.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	seen, err := r.events.Seen(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if seen {
		r.logger.Info("Security event already recorded", zap.String("jti", claims.ID))
		return nil, entities.ErrDuplicateEvent
	}

	eventTypes := make([]string, 0, len(claims.Events))
	for eventType := range claims.Events {
		eventTypes = append(eventTypes, eventType)
	}
	sort.Strings(eventTypes)

	first := claims.Events[eventTypes[0]]
	record := &entities.SecurityEvent{
		JTI:        claims.ID,
		EventType:  eventTypes[0],
		Subject:    first.Subject.Sub,
		Reason:     first.Reason,
		ReceivedAt: r.now().UTC(),
	}
	if claims.IssuedAt != nil {
		record.IssuedAt = claims.IssuedAt.Time
	}
	if payload, err := json.Marshal(claims.Events); err == nil {
		record.Payload = datatypes.JSON(payload)
	}

	// State changes are idempotent, so they are applied before the jti is
	// recorded; a failed apply leaves the token eligible for redelivery
	for _, eventType := range eventTypes {
		event := claims.Events[eventType]
		r.metrics.ObserveWebhook("risc", eventType)

		member, err := r.apply(ctx, eventType, event)
		if err != nil {
			return nil, fmt.Errorf("apply %s: %w", eventType, err)
		}
		if member != nil && record.MemberID == nil {
			id := member.ID
			record.MemberID = &id
		}
	}

	recorded, err := r.events.Record(ctx, record)
	if err != nil {
		return nil, err
	}
	if !recorded {
		return nil, entities.ErrDuplicateEvent
	}

	return record, nil
}

// apply returns the affected member, or nil when the subject is unknown
func (r *Receiver) apply(ctx context.Context, eventType string, event Event) (*entities.TeamMember, error) {
	log := r.logger.With(zap.String("event_type", eventType), zap.String("subject", event.Subject.Sub))

	if eventType == entities.RISCEventVerification {
		log.Info("RISC verification event received", zap.String("state", event.State))
		return nil, nil
	}
	if event.Subject.Sub == "" {
		log.Warn("Security event without subject")
		return nil, nil
	}

	member, err := r.members.FindByGoogleSubject(ctx, event.Subject.Sub)
	if err != nil {
		if errors.Is(err, entities.ErrMemberNotFound) {
			log.Info("Security event for unknown subject")
			return nil, nil
		}
		return nil, err
	}

	var (
		status     entities.GoogleStatus
		clearToken bool
	)
	switch eventType {
	case entities.RISCEventSessionsRevoked, entities.RISCEventTokensRevoked, entities.RISCEventTokenRevoked:
		status, clearToken = entities.GoogleStatusRevoked, true
	case entities.RISCEventAccountDisabled:
		status, clearToken = entities.GoogleStatusDisabled, true
	case entities.RISCEventAccountEnabled:
		status = entities.GoogleStatusDisconnected
	default:
		log.Info("Security event recorded without state change", zap.String("member_id", member.ID.String()))
		return member, nil
	}

	reason := event.Reason
	if reason == "" {
		reason = eventType
	}
	if err := r.members.SetGoogleStatus(ctx, member.ID, status, reason, clearToken); err != nil {
		return nil, err
	}

	log.Warn("🔒 Google connection changed by security event",
		zap.String("member_id", member.ID.String()),
		zap.String("status", string(status)),
		zap.String("reason", reason),
	)
	return member, nil
}
