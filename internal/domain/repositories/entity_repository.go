package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ftfc/crm/internal/domain/entities"
)

// EntityRepository looks up clients, investors and partners. Lookups return
// nil when nothing matches.
type EntityRepository interface {
	// FindByEmails returns the oldest entity of the given type whose email is
	// in emails (case-insensitive)
	FindByEmails(ctx context.Context, entityType entities.EntityType, emails []string) (*entities.Entity, error)

	// FindByID finds an entity of the given type by ID
	FindByID(ctx context.Context, entityType entities.EntityType, id uuid.UUID) (*entities.Entity, error)
}

// ContactRepository looks up contacts
type ContactRepository interface {
	// FindByEmails returns every contact whose email is in emails (case-insensitive)
	FindByEmails(ctx context.Context, emails []string) ([]*entities.Contact, error)
}

// ActivityRepository appends to the activity log
type ActivityRepository interface {
	Create(ctx context.Context, activity *entities.Activity) error
}
