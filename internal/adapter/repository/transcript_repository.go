package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ftfc/crm/internal/domain/entities"
)

// TranscriptRepository handles transcript reads
type TranscriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// FindByID retrieves a transcript by ID
func (r *TranscriptRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transcript, error) {
	var transcript entities.Transcript
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&transcript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transcript, nil
}

// ListByEntity lists an entity's transcripts, newest meeting first
func (r *TranscriptRepository) ListByEntity(ctx context.Context, entityType entities.EntityType, entityID uuid.UUID, limit, offset int) ([]*entities.Transcript, error) {
	var transcripts []*entities.Transcript
	if limit == 0 {
		limit = 50
	}
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("date DESC").
		Limit(limit).
		Offset(offset).
		Find(&transcripts).Error; err != nil {
		return nil, err
	}
	return transcripts, nil
}
