package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RISC event type URIs
const (
	RISCEventSessionsRevoked          = "https://schemas.openid.net/secevent/risc/event-type/sessions-revoked"
	RISCEventTokensRevoked            = "https://schemas.openid.net/secevent/oauth/event-type/tokens-revoked"
	RISCEventTokenRevoked             = "https://schemas.openid.net/secevent/oauth/event-type/token-revoked"
	RISCEventAccountDisabled          = "https://schemas.openid.net/secevent/risc/event-type/account-disabled"
	RISCEventAccountEnabled           = "https://schemas.openid.net/secevent/risc/event-type/account-enabled"
	RISCEventCredentialChangeRequired = "https://schemas.openid.net/secevent/risc/event-type/account-credential-change-required"
	RISCEventVerification             = "https://schemas.openid.net/secevent/risc/event-type/verification"
)

// SecurityEvent is a received RISC security event token. JTI is the primary key
// so a redelivered token is recorded once.
type SecurityEvent struct {
	JTI        string         `json:"jti" gorm:"column:jti;type:varchar(255);primary_key"`
	EventType  string         `json:"event_type" gorm:"type:varchar(255);not null;index"`
	Subject    string         `json:"subject,omitempty" gorm:"type:varchar(255);index"`
	MemberID   *uuid.UUID     `json:"member_id,omitempty" gorm:"type:uuid"`
	Reason     string         `json:"reason,omitempty" gorm:"type:varchar(255)"`
	Payload    datatypes.JSON `json:"payload" gorm:"type:jsonb;default:'{}'"`
	IssuedAt   time.Time      `json:"issued_at" gorm:"type:timestamptz"`
	ReceivedAt time.Time      `json:"received_at" gorm:"type:timestamptz;not null"`
}

// TableName specifies the table name for GORM
func (SecurityEvent) TableName() string {
	return "security_events"
}
