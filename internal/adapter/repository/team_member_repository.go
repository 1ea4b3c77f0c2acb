package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ftfc/crm/internal/domain/entities"
)

// TeamMemberRepository implements the team member repository interface using GORM
type TeamMemberRepository struct {
	db *gorm.DB
}

// NewTeamMemberRepository creates a new team member repository
func NewTeamMemberRepository(db *gorm.DB) *TeamMemberRepository {
	return &TeamMemberRepository{
		db: db,
	}
}

// Create creates a new member
func (r *TeamMemberRepository) Create(ctx context.Context, member *entities.TeamMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("failed to create team member: %w", err)
	}
	return nil
}

// FindByID finds a member by ID
func (r *TeamMemberRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.TeamMember, error) {
	var member entities.TeamMember
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find team member by ID: %w", err)
	}
	return &member, nil
}

// FindByEmail finds a member by email
func (r *TeamMemberRepository) FindByEmail(ctx context.Context, email string) (*entities.TeamMember, error) {
	var member entities.TeamMember
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find team member by email: %w", err)
	}
	return &member, nil
}

// FindByGoogleSubject finds a member by Google account subject
func (r *TeamMemberRepository) FindByGoogleSubject(ctx context.Context, subject string) (*entities.TeamMember, error) {
	var member entities.TeamMember
	if err := r.db.WithContext(ctx).Where("google_subject = ?", subject).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find team member by google subject: %w", err)
	}
	return &member, nil
}

// Update updates a member
func (r *TeamMemberRepository) Update(ctx context.Context, member *entities.TeamMember) error {
	if err := r.db.WithContext(ctx).Save(member).Error; err != nil {
		return fmt.Errorf("failed to update team member: %w", err)
	}
	return nil
}

// ListConnected lists members whose Drive can be scanned
func (r *TeamMemberRepository) ListConnected(ctx context.Context) ([]*entities.TeamMember, error) {
	var members []*entities.TeamMember
	if err := r.db.WithContext(ctx).
		Where("google_status = ? AND refresh_token IS NOT NULL", entities.GoogleStatusConnected).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list connected team members: %w", err)
	}
	return members, nil
}

// SetGoogleStatus updates the connection status
func (r *TeamMemberRepository) SetGoogleStatus(ctx context.Context, id uuid.UUID, status entities.GoogleStatus, reason string, clearToken bool) error {
	updates := map[string]interface{}{
		"google_status": status,
		"status_reason": reason,
		"updated_at":    time.Now(),
	}
	if clearToken {
		updates["refresh_token"] = nil
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.TeamMember{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update google status: %w", err)
	}
	return nil
}

// MarkScanned updates the last scan timestamp
func (r *TeamMemberRepository) MarkScanned(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&entities.TeamMember{}).
		Where("id = ?", id).
		Update("last_scan_at", at).Error; err != nil {
		return fmt.Errorf("failed to mark member scanned: %w", err)
	}
	return nil
}
