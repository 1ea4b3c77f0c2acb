package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Association links a contact to an entity record
type Association struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name,omitempty"`
	Primary bool      `json:"primary"`
}

// Contact is a person that may belong to clients, investors or partners
type Contact struct {
	ID              uuid.UUID                         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name            string                            `json:"name" gorm:"type:varchar(255)"`
	Email           string                            `json:"email" gorm:"type:varchar(255);index"`
	Companies       datatypes.JSONSlice[Association] `json:"companies" gorm:"type:jsonb;default:'[]'"`
	InvestmentFirms datatypes.JSONSlice[Association] `json:"investmentFirms" gorm:"type:jsonb;default:'[]'"`
	PartnerFirms    datatypes.JSONSlice[Association] `json:"partnerFirms" gorm:"type:jsonb;default:'[]'"`
	CreatedAt       time.Time                         `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time                         `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Contact) TableName() string {
	return "contacts"
}

// AssociationsFor returns the association list relevant to the entity type
func (c *Contact) AssociationsFor(t EntityType) []Association {
	switch t {
	case EntityTypeClient:
		return c.Companies
	case EntityTypeInvestor:
		return c.InvestmentFirms
	case EntityTypePartner:
		return c.PartnerFirms
	}
	return nil
}

// PrimaryAssociation returns the association flagged primary for the entity type
func (c *Contact) PrimaryAssociation(t EntityType) (Association, bool) {
	for _, a := range c.AssociationsFor(t) {
		if a.Primary {
			return a, true
		}
	}
	return Association{}, false
}
