package entities

import (
	"time"

	"github.com/google/uuid"
)

// GoogleStatus is the server-confirmed state of a member's Google connection
type GoogleStatus string

const (
	GoogleStatusConnected    GoogleStatus = "connected"
	GoogleStatusDisconnected GoogleStatus = "disconnected"
	GoogleStatusRevoked      GoogleStatus = "revoked"  // Google revoked the grant (RISC)
	GoogleStatusDisabled     GoogleStatus = "disabled" // Google account disabled (RISC)
)

// MemberRole defines team member roles
type MemberRole string

const (
	MemberRoleAdmin MemberRole = "admin"
	MemberRoleStaff MemberRole = "staff"
)

// TeamMember is a staff member whose Drive is scanned for meeting notes
type TeamMember struct {
	ID            uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email         string       `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name          string       `json:"name" gorm:"type:varchar(255);not null"`
	Role          MemberRole   `json:"role" gorm:"type:varchar(50);default:'staff';not null"`
	GoogleSubject *string      `json:"-" gorm:"column:google_subject;type:varchar(255);uniqueIndex"`
	RefreshToken  []byte       `json:"-" gorm:"column:refresh_token;type:bytea"` // AES-GCM sealed, never exposed
	GoogleStatus  GoogleStatus `json:"google_status" gorm:"column:google_status;type:varchar(20);default:'disconnected';not null;index"`
	StatusReason  string       `json:"status_reason,omitempty" gorm:"type:varchar(255)"`
	ConnectedAt   *time.Time   `json:"connected_at,omitempty" gorm:"type:timestamptz"`
	LastScanAt    *time.Time   `json:"last_scan_at,omitempty" gorm:"type:timestamptz"`
	CreatedAt     time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (TeamMember) TableName() string {
	return "team_members"
}

// NewTeamMember creates a member from a Google identity
func NewTeamMember(email, name, subject string) *TeamMember {
	now := time.Now()
	return &TeamMember{
		ID:            uuid.New(),
		Email:         email,
		Name:          name,
		Role:          MemberRoleStaff,
		GoogleSubject: &subject,
		GoogleStatus:  GoogleStatusDisconnected,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsConnected reports whether the member has usable delegated credentials
func (m *TeamMember) IsConnected() bool {
	return m.GoogleStatus == GoogleStatusConnected && len(m.RefreshToken) > 0
}

// Connect stores sealed credentials and marks the member connected
func (m *TeamMember) Connect(sealedToken []byte) {
	now := time.Now()
	m.RefreshToken = sealedToken
	m.GoogleStatus = GoogleStatusConnected
	m.StatusReason = ""
	m.ConnectedAt = &now
	m.UpdatedAt = now
}

// PublicMember is the member view returned by the API
type PublicMember struct {
	ID           uuid.UUID    `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	Role         MemberRole   `json:"role"`
	GoogleStatus GoogleStatus `json:"google_status"`
	StatusReason string       `json:"status_reason,omitempty"`
	ConnectedAt  *time.Time   `json:"connected_at,omitempty"`
	LastScanAt   *time.Time   `json:"last_scan_at,omitempty"`
}

// ToPublic converts TeamMember to PublicMember
func (m *TeamMember) ToPublic() *PublicMember {
	return &PublicMember{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		Role:         m.Role,
		GoogleStatus: m.GoogleStatus,
		StatusReason: m.StatusReason,
		ConnectedAt:  m.ConnectedAt,
		LastScanAt:   m.LastScanAt,
	}
}
