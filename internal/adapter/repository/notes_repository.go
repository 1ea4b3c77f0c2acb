package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ftfc/crm/internal/domain/entities"
)

// NotesRepository implements the processed-note ledger using GORM
type NotesRepository struct {
	db *gorm.DB
}

// NewNotesRepository creates a new notes repository
func NewNotesRepository(db *gorm.DB) *NotesRepository {
	return &NotesRepository{db: db}
}

// ClaimNote inserts a processing claim for the file. The insert is the gate:
// file_id is the primary key, so only one run can create the row.
func (r *NotesRepository) ClaimNote(ctx context.Context, fileID, owner string, staleBefore time.Time) (entities.ClaimResult, error) {
	now := time.Now().UTC()
	note := &entities.ProcessedNote{
		FileID:    fileID,
		Status:    entities.ProcessedNoteStatusProcessing,
		ClaimedBy: owner,
		ClaimedAt: now,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(note)
	if result.Error != nil {
		return entities.ClaimHeld, fmt.Errorf("failed to claim note: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return entities.ClaimAcquired, nil
	}

	// Take over a claim abandoned by a crashed run
	result = r.db.WithContext(ctx).
		Model(&entities.ProcessedNote{}).
		Where("file_id = ? AND status = ? AND claimed_at < ?", fileID, entities.ProcessedNoteStatusProcessing, staleBefore).
		Updates(map[string]interface{}{
			"claimed_by": owner,
			"claimed_at": now,
		})
	if result.Error != nil {
		return entities.ClaimHeld, fmt.Errorf("failed to take over stale claim: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return entities.ClaimAcquired, nil
	}

	existing, err := r.GetProcessedNote(ctx, fileID)
	if err != nil {
		return entities.ClaimHeld, err
	}
	if existing != nil && existing.IsProcessed() {
		return entities.ClaimAlreadyProcessed, nil
	}
	return entities.ClaimHeld, nil
}

// ReleaseNote drops a processing claim so a later run retries the file
func (r *NotesRepository) ReleaseNote(ctx context.Context, fileID, owner string) error {
	if err := r.db.WithContext(ctx).
		Where("file_id = ? AND status = ? AND claimed_by = ?", fileID, entities.ProcessedNoteStatusProcessing, owner).
		Delete(&entities.ProcessedNote{}).Error; err != nil {
		return fmt.Errorf("failed to release note: %w", err)
	}
	return nil
}

// CommitTranscript runs the transcript writes in one transaction
func (r *NotesRepository) CommitTranscript(ctx context.Context, owner string, transcript *entities.Transcript, activity *entities.Activity) error {
	if transcript == nil || activity == nil {
		return errors.New("transcript and activity cannot be nil")
	}
	if !transcript.EntityType.IsValid() {
		return entities.ErrInvalidEntityType
	}

	ref, err := json.Marshal([]entities.TranscriptRef{transcript.Ref()})
	if err != nil {
		return fmt.Errorf("failed to encode transcript ref: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transcript).Error; err != nil {
			return fmt.Errorf("failed to create transcript: %w", err)
		}

		now := time.Now().UTC()
		result := tx.Table(transcript.EntityType.Collection()).
			Where("id = ?", transcript.EntityID).
			Updates(map[string]interface{}{
				"transcripts": gorm.Expr("COALESCE(transcripts, '[]'::jsonb) || ?::jsonb", string(ref)),
				"updated_at":  now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to link transcript to %s: %w", transcript.EntityType, result.Error)
		}
		if result.RowsAffected == 0 {
			return entities.ErrEntityNotFound
		}

		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create activity: %w", err)
		}

		transcriptID := transcript.ID
		entityID := transcript.EntityID
		result = tx.Model(&entities.ProcessedNote{}).
			Where("file_id = ? AND status = ? AND claimed_by = ?", transcript.SourceID, entities.ProcessedNoteStatusProcessing, owner).
			Updates(map[string]interface{}{
				"status":        entities.ProcessedNoteStatusProcessed,
				"processed_at":  now,
				"entity_type":   transcript.EntityType,
				"entity_id":     &entityID,
				"transcript_id": &transcriptID,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark note processed: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return entities.ErrClaimHeld
		}
		return nil
	})
}

// GetProcessedNote retrieves the ledger record for a file
func (r *NotesRepository) GetProcessedNote(ctx context.Context, fileID string) (*entities.ProcessedNote, error) {
	var note entities.ProcessedNote
	if err := r.db.WithContext(ctx).Where("file_id = ?", fileID).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get processed note: %w", err)
	}
	return &note, nil
}
