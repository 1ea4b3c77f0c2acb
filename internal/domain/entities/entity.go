package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EntityType identifies which business collection an entity lives in
type EntityType string

const (
	EntityTypeClient   EntityType = "client"
	EntityTypeInvestor EntityType = "investor"
	EntityTypePartner  EntityType = "partner"
)

// DefaultResolutionOrder is the order collections are tried when resolving
// participants to an entity. First match wins.
var DefaultResolutionOrder = []EntityType{EntityTypeClient, EntityTypeInvestor, EntityTypePartner}

// IsValid checks if the entity type is known
func (t EntityType) IsValid() bool {
	switch t {
	case EntityTypeClient, EntityTypeInvestor, EntityTypePartner:
		return true
	}
	return false
}

// Collection returns the table backing the entity type
func (t EntityType) Collection() string {
	switch t {
	case EntityTypeClient:
		return "clients"
	case EntityTypeInvestor:
		return "investors"
	case EntityTypePartner:
		return "partners"
	}
	return ""
}

// TranscriptRef is the lightweight transcript pointer kept on an entity
type TranscriptRef struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	Date       time.Time `json:"date"`
	SourceType string    `json:"sourceType"`
	SourceID   string    `json:"sourceId"`
}

// Entity is a client, investor or partner record. The same shape is stored
// in the clients, investors and partners tables.
type Entity struct {
	ID          uuid.UUID                           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string                              `json:"name" gorm:"type:varchar(255);not null"`
	Email       string                              `json:"email" gorm:"type:varchar(255);index"`
	Data        datatypes.JSON                      `json:"data,omitempty" gorm:"type:jsonb;default:'{}'"`
	Transcripts datatypes.JSONSlice[TranscriptRef] `json:"transcripts" gorm:"type:jsonb;default:'[]'"`
	CreatedAt   time.Time                           `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time                           `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ResolvedEntity is the outcome of participant resolution
type ResolvedEntity struct {
	Type EntityType `json:"type"`
	ID   uuid.UUID  `json:"id"`
	Data *Entity    `json:"data"`
}
