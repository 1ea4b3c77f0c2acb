package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ftfc/crm/internal/domain/entities"
)

// NotesRepository persists the processed-note ledger and the transcript commit
type NotesRepository interface {
	// ClaimNote atomically creates a processing claim for fileID. A processing
	// claim older than staleBefore is taken over.
	ClaimNote(ctx context.Context, fileID, owner string, staleBefore time.Time) (entities.ClaimResult, error)

	// ReleaseNote deletes a processing claim held by owner
	ReleaseNote(ctx context.Context, fileID, owner string) error

	// CommitTranscript creates the transcript, appends its reference to the
	// entity, logs the activity and finalises the claim in one transaction
	CommitTranscript(ctx context.Context, owner string, transcript *entities.Transcript, activity *entities.Activity) error

	// GetProcessedNote returns nil when no record exists
	GetProcessedNote(ctx context.Context, fileID string) (*entities.ProcessedNote, error)
}

// TranscriptRepository reads stored transcripts
type TranscriptRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Transcript, error)
	ListByEntity(ctx context.Context, entityType entities.EntityType, entityID uuid.UUID, limit, offset int) ([]*entities.Transcript, error)
}
