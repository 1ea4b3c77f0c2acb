package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/domain/repositories"
	"github.com/ftfc/crm/internal/infrastructure/storage"
)

// Archive stores the raw transcript text outside the database
type Archive interface {
	ArchiveTranscript(ctx context.Context, objectName, content string) error
}

// PersistInput is everything needed to record one processed document
type PersistInput struct {
	RunID        string
	Document     entities.CandidateDocument
	Text         string
	Participants []string
	Entity       *entities.ResolvedEntity
}

// Persister writes the transcript, links it to the entity, logs the activity
// and finalises the dedup claim
type Persister struct {
	repo    repositories.NotesRepository
	archive Archive
	logger  *zap.Logger
	now     func() time.Time
}

// NewPersister creates a persister. archive may be nil.
func NewPersister(repo repositories.NotesRepository, archive Archive, logger *zap.Logger) *Persister {
	return &Persister{
		repo:    repo,
		archive: archive,
		logger:  logger,
		now:     time.Now,
	}
}

// Persist records the document as a transcript of the resolved entity
func (p *Persister) Persist(ctx context.Context, in PersistInput) (*entities.Transcript, error) {
	if in.Entity == nil {
		return nil, errors.New("persist: resolved entity is required")
	}

	date := in.Document.CreatedTime
	if date.IsZero() {
		date = p.now().UTC()
	}

	transcript := &entities.Transcript{
		ID:           uuid.New(),
		Title:        in.Document.Name,
		Date:         date,
		Participants: datatypes.JSONSlice[string](in.Participants),
		Transcript:   in.Text,
		Summary:      entities.PlaceholderSummary,
		KeyPoints:    datatypes.JSONSlice[string]{},
		ActionItems:  datatypes.JSONSlice[string]{},
		EntityType:   in.Entity.Type,
		EntityID:     in.Entity.ID,
		SourceType:   entities.SourceTypeGemini,
		SourceID:     in.Document.ID,
		SourceLink:   in.Document.WebViewLink,
	}

	if p.archive != nil {
		key := storage.ObjectKey(entities.SourceTypeGemini, string(in.Entity.Type), in.Document.ID)
		if err := p.archive.ArchiveTranscript(ctx, key, in.Text); err != nil {
			p.logger.Warn("Failed to archive transcript text",
				zap.String("file_id", in.Document.ID),
				zap.Error(err),
			)
		} else {
			transcript.ArchiveKey = key
		}
	}

	activity := entities.NewTranscriptActivity(transcript)

	if err := p.repo.CommitTranscript(ctx, in.RunID, transcript, activity); err != nil {
		return nil, fmt.Errorf("commit transcript for %s: %w", in.Document.ID, err)
	}

	return transcript, nil
}
