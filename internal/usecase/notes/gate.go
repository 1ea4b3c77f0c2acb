package notes

import (
	"context"
	"time"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/domain/repositories"
)

// Gate guarantees at-most-once processing of a source document. The claim
// itself is the check, so two overlapping runs cannot both pass.
type Gate struct {
	repo     repositories.NotesRepository
	claimTTL time.Duration
	now      func() time.Time
}

// NewGate creates a gate; processing claims older than claimTTL are considered abandoned
func NewGate(repo repositories.NotesRepository, claimTTL time.Duration) *Gate {
	return &Gate{
		repo:     repo,
		claimTTL: claimTTL,
		now:      time.Now,
	}
}

// Claim tries to reserve fileID for runID
func (g *Gate) Claim(ctx context.Context, fileID, runID string) (entities.ClaimResult, error) {
	return g.repo.ClaimNote(ctx, fileID, runID, g.now().Add(-g.claimTTL))
}

// Release gives up the run's claim so a later run can retry the document
func (g *Gate) Release(ctx context.Context, fileID, runID string) error {
	return g.repo.ReleaseNote(ctx, fileID, runID)
}
