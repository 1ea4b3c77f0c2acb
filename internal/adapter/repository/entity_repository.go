package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ftfc/crm/internal/domain/entities"
)

// EntityRepository reads clients, investors and partners. All three tables
// share the Entity shape.
type EntityRepository struct {
	db *gorm.DB
}

// NewEntityRepository creates a new entity repository
func NewEntityRepository(db *gorm.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// FindByEmails returns the oldest matching entity, or nil
func (r *EntityRepository) FindByEmails(ctx context.Context, entityType entities.EntityType, emails []string) (*entities.Entity, error) {
	if !entityType.IsValid() {
		return nil, entities.ErrInvalidEntityType
	}
	if len(emails) == 0 {
		return nil, nil
	}

	var found []*entities.Entity
	if err := r.db.WithContext(ctx).
		Table(entityType.Collection()).
		Where("LOWER(email) IN ?", emails).
		Order("created_at ASC").
		Limit(1).
		Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s by email: %w", entityType.Collection(), err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

// FindByID finds an entity by ID
func (r *EntityRepository) FindByID(ctx context.Context, entityType entities.EntityType, id uuid.UUID) (*entities.Entity, error) {
	if !entityType.IsValid() {
		return nil, entities.ErrInvalidEntityType
	}

	var entity entities.Entity
	if err := r.db.WithContext(ctx).
		Table(entityType.Collection()).
		Where("id = ?", id).
		First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find %s by ID: %w", entityType, err)
	}
	return &entity, nil
}

// ContactRepository reads contacts
type ContactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// FindByEmails returns contacts whose email is in the list
func (r *ContactRepository) FindByEmails(ctx context.Context, emails []string) ([]*entities.Contact, error) {
	var contacts []*entities.Contact
	if len(emails) == 0 {
		return contacts, nil
	}
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) IN ?", emails).
		Order("created_at ASC").
		Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to query contacts by email: %w", err)
	}
	return contacts, nil
}

// ActivityRepository appends to the activity log
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create writes an activity entry
func (r *ActivityRepository) Create(ctx context.Context, activity *entities.Activity) error {
	if activity == nil {
		return errors.New("activity cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}
