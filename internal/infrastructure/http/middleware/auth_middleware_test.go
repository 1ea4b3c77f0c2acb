package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftfc/crm/internal/domain/entities"
)

type stubValidator struct {
	member *entities.TeamMember
}

func (s *stubValidator) ValidateSession(_ context.Context, token string) (*entities.TeamMember, error) {
	if token != "good" {
		return nil, errors.New("invalid token")
	}
	return s.member, nil
}

func runAuth(t *testing.T, req *http.Request, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error {
		member, ok := GetMember(c)
		require.True(t, ok)
		return c.String(http.StatusOK, member.Email)
	}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return rec, h(c)
}

func TestEchoAuth(t *testing.T) {
	member := &entities.TeamMember{ID: uuid.New(), Email: "alice@ftfc.com", Role: entities.MemberRoleStaff}
	auth := EchoAuth(&stubValidator{member: member})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec, err := runAuth(t, req, auth)
		require.NoError(t, err)
		assert.Equal(t, "alice@ftfc.com", rec.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: "good"})
		_, err := runAuth(t, req, auth)
		require.NoError(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := runAuth(t, httptest.NewRequest(http.MethodGet, "/", nil), auth)
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad")
		_, err := runAuth(t, req, auth)
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}
