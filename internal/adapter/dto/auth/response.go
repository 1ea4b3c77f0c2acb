package auth

import "github.com/ftfc/crm/internal/domain/entities"

// MeResponse is the authenticated member with the server-side connection status
type MeResponse struct {
	Member    *entities.PublicMember `json:"member"`
	Connected bool                   `json:"connected"`
}
