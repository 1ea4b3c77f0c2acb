package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ftfc/crm/internal/domain/entities"
)

const (
	// MemberContextKey is the echo context key for the authenticated member
	MemberContextKey = "member"
	// MemberIDContextKey is the echo context key for the member ID
	MemberIDContextKey = "member_id"
)

// SessionValidator resolves an access token to a team member
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*entities.TeamMember, error)
}

// EchoAuth returns an Echo middleware that validates the JWT and sets
// "member" (*entities.TeamMember) and "member_id" (uuid.UUID) into Echo context
func EchoAuth(validator SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c.Request())
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
			}

			member, err := validator.ValidateSession(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(MemberContextKey, member)
			c.Set(MemberIDContextKey, member.ID)

			return next(c)
		}
	}
}

// GetMember retrieves the authenticated member from the Echo context
func GetMember(c echo.Context) (*entities.TeamMember, bool) {
	member, ok := c.Get(MemberContextKey).(*entities.TeamMember)
	return member, ok
}

func extractToken(r *http.Request) string {
	// Expected format: "Bearer <token>"
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}

	return ""
}
