package notes

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/domain/repositories"
	"github.com/ftfc/crm/pkg/metrics"
)

// Resolver maps a participant set to the client, investor or partner the
// meeting belongs to
type Resolver struct {
	entities repositories.EntityRepository
	contacts repositories.ContactRepository
	order    []entities.EntityType
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewResolver creates a resolver. With no order given, collections are tried
// clients, then investors, then partners.
func NewResolver(
	entityRepo repositories.EntityRepository,
	contactRepo repositories.ContactRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
	order ...entities.EntityType,
) *Resolver {
	if len(order) == 0 {
		order = entities.DefaultResolutionOrder
	}
	return &Resolver{
		entities: entityRepo,
		contacts: contactRepo,
		order:    order,
		metrics:  m,
		logger:   logger,
	}
}

// Resolve returns the first entity matched, or nil when no collection matches.
// For each collection a direct email match wins over a contact association.
func (r *Resolver) Resolve(ctx context.Context, emails []string) (*entities.ResolvedEntity, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	// contacts do not depend on the collection, so they are loaded once
	var (
		contacts       []*entities.Contact
		contactsLoaded bool
	)

	for _, entityType := range r.order {
		direct, err := r.entities.FindByEmails(ctx, entityType, emails)
		if err != nil {
			return nil, fmt.Errorf("resolve %s by email: %w", entityType, err)
		}
		if direct != nil {
			return r.resolved(entityType, direct, "direct"), nil
		}

		if !contactsLoaded {
			contacts, err = r.contacts.FindByEmails(ctx, emails)
			if err != nil {
				return nil, fmt.Errorf("resolve contacts by email: %w", err)
			}
			contactsLoaded = true
		}

		for _, contact := range contacts {
			assoc, ok := contact.PrimaryAssociation(entityType)
			if !ok {
				continue
			}
			entity, err := r.entities.FindByID(ctx, entityType, assoc.ID)
			if err != nil {
				return nil, fmt.Errorf("resolve %s association of contact %s: %w", entityType, contact.ID, err)
			}
			if entity == nil {
				r.logger.Warn("Contact points at a missing entity",
					zap.String("contact_id", contact.ID.String()),
					zap.String("entity_type", string(entityType)),
					zap.String("entity_id", assoc.ID.String()),
				)
				continue
			}
			return r.resolved(entityType, entity, "contact"), nil
		}
	}

	return nil, nil
}

func (r *Resolver) resolved(entityType entities.EntityType, entity *entities.Entity, via string) *entities.ResolvedEntity {
	r.metrics.EntityResolutionsTotal.WithLabelValues(string(entityType), via).Inc()
	return &entities.ResolvedEntity{
		Type: entityType,
		ID:   entity.ID,
		Data: entity,
	}
}
