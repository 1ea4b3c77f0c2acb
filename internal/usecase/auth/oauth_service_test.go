package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/infrastructure/cache"
	"github.com/ftfc/crm/internal/infrastructure/external/oauth"
	"github.com/ftfc/crm/internal/testutil"
	"github.com/ftfc/crm/pkg/jwt"
	"github.com/ftfc/crm/pkg/secrets"
)

type fakeGoogle struct {
	token       *oauth2.Token
	user        *oauth.GoogleUserInfo
	exchangeErr error
	revokeErr   error
	revoked     []string
	lastRefresh string
}

func (f *fakeGoogle) GetAuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (f *fakeGoogle) ExchangeCode(_ context.Context, _ string) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.token, nil
}

func (f *fakeGoogle) GetUserInfo(_ context.Context, _ *oauth2.Token) (*oauth.GoogleUserInfo, error) {
	return f.user, nil
}

func (f *fakeGoogle) TokenSource(_ context.Context, refreshToken string) oauth2.TokenSource {
	f.lastRefresh = refreshToken
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access-for-" + refreshToken})
}

func (f *fakeGoogle) Revoke(_ context.Context, refreshToken string) error {
	f.revoked = append(f.revoked, refreshToken)
	return f.revokeErr
}

type fixture struct {
	store   *testutil.MockStore
	google  *fakeGoogle
	states  *oauth.StateManager
	sealer  *secrets.Sealer
	service *OAuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sealer, err := secrets.NewSealer([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	f := &fixture{
		store: testutil.NewMockStore(),
		google: &fakeGoogle{
			token: &oauth2.Token{AccessToken: "at", RefreshToken: "rt-1", Expiry: time.Now().Add(time.Hour)},
			user:  &oauth.GoogleUserInfo{ID: "google-sub-1", Email: "bob@ftfc.com", VerifiedEmail: true, Name: "Bob"},
		},
		states: oauth.NewStateManager(cache.NewMemoryStore()),
		sealer: sealer,
	}
	f.service = NewOAuthService(
		testutil.MemberStore{MockStore: f.store},
		f.google,
		f.states,
		jwt.NewManager("test-secret", 15*time.Minute),
		sealer,
		zap.NewNop(),
	)
	return f
}

func (f *fixture) connect(t *testing.T) *AuthResponse {
	t.Helper()
	authURL, err := f.service.GetGoogleAuthURL(context.Background())
	require.NoError(t, err)
	resp, err := f.service.HandleGoogleCallback(context.Background(), &GoogleCallbackRequest{Code: "code", State: authURL.State})
	require.NoError(t, err)
	return resp
}

func TestGetGoogleAuthURL(t *testing.T) {
	f := newFixture(t)

	resp, err := f.service.GetGoogleAuthURL(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.State)
	assert.Contains(t, resp.URL, url.QueryEscape(resp.State))
}

func TestHandleGoogleCallback_CreatesConnectedMember(t *testing.T) {
	f := newFixture(t)

	resp := f.connect(t)
	require.NotNil(t, resp.Member)
	assert.Equal(t, "bob@ftfc.com", resp.Member.Email)
	assert.Equal(t, entities.GoogleStatusConnected, resp.Member.GoogleStatus)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	member := f.store.Members[resp.Member.ID]
	require.NotNil(t, member)
	assert.NotContains(t, string(member.RefreshToken), "rt-1", "refresh token is stored sealed")

	plain, err := f.sealer.Open(member.RefreshToken, []byte(member.ID.String()))
	require.NoError(t, err)
	assert.Equal(t, "rt-1", plain)
}

func TestHandleGoogleCallback_StateIsSingleUse(t *testing.T) {
	f := newFixture(t)
	authURL, err := f.service.GetGoogleAuthURL(context.Background())
	require.NoError(t, err)

	_, err = f.service.HandleGoogleCallback(context.Background(), &GoogleCallbackRequest{Code: "code", State: authURL.State})
	require.NoError(t, err)

	_, err = f.service.HandleGoogleCallback(context.Background(), &GoogleCallbackRequest{Code: "code", State: authURL.State})
	assert.ErrorIs(t, err, entities.ErrOAuthStateMismatch)
}

func TestHandleGoogleCallback_UnknownState(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.HandleGoogleCallback(context.Background(), &GoogleCallbackRequest{Code: "code", State: "forged"})
	assert.ErrorIs(t, err, entities.ErrOAuthStateMismatch)
	assert.Empty(t, f.store.Members)
}

func TestHandleGoogleCallback_ExchangeFailure(t *testing.T) {
	f := newFixture(t)
	f.google.exchangeErr = errors.New("invalid_grant")
	authURL, err := f.service.GetGoogleAuthURL(context.Background())
	require.NoError(t, err)

	_, err = f.service.HandleGoogleCallback(context.Background(), &GoogleCallbackRequest{Code: "bad", State: authURL.State})
	assert.ErrorIs(t, err, entities.ErrOAuthCodeInvalid)
}

func TestHandleGoogleCallback_UnverifiedEmail(t *testing.T) {
	f := newFixture(t)
	f.google.user.VerifiedEmail = false
	authURL, err := f.service.GetGoogleAuthURL(context.Background())
	require.NoError(t, err)

	_, err = f.service.HandleGoogleCallback(context.Background(), &GoogleCallbackRequest{Code: "code", State: authURL.State})
	assert.ErrorIs(t, err, entities.ErrInvalidEmail)
}

func TestHandleGoogleCallback_LinksInvitedMemberByEmail(t *testing.T) {
	f := newFixture(t)
	invited := f.store.AddMember(&entities.TeamMember{Email: "Bob@ftfc.com", Name: "Robert", Role: entities.MemberRoleAdmin, GoogleStatus: entities.GoogleStatusDisconnected})

	resp := f.connect(t)
	assert.Equal(t, invited.ID, resp.Member.ID)
	assert.Equal(t, entities.MemberRoleAdmin, resp.Member.Role)
	require.NotNil(t, invited.GoogleSubject)
	assert.Equal(t, "google-sub-1", *invited.GoogleSubject)
	assert.Len(t, f.store.Members, 1)
}

func TestHandleGoogleCallback_ReconnectWithoutNewRefreshToken(t *testing.T) {
	f := newFixture(t)
	first := f.connect(t)

	f.google.token = &oauth2.Token{AccessToken: "at-2"}
	second := f.connect(t)
	assert.Equal(t, first.Member.ID, second.Member.ID)
	assert.Equal(t, entities.GoogleStatusConnected, second.Member.GoogleStatus)

	member := f.store.Members[first.Member.ID]
	plain, err := f.sealer.Open(member.RefreshToken, []byte(member.ID.String()))
	require.NoError(t, err)
	assert.Equal(t, "rt-1", plain)
}

func TestHandleGoogleCallback_NoRefreshTokenForNewMember(t *testing.T) {
	f := newFixture(t)
	f.google.token = &oauth2.Token{AccessToken: "at"}
	authURL, err := f.service.GetGoogleAuthURL(context.Background())
	require.NoError(t, err)

	_, err = f.service.HandleGoogleCallback(context.Background(), &GoogleCallbackRequest{Code: "code", State: authURL.State})
	assert.ErrorIs(t, err, entities.ErrNoRefreshToken)
	assert.Empty(t, f.store.Members)
}

func TestValidateSession(t *testing.T) {
	f := newFixture(t)
	resp := f.connect(t)

	member, err := f.service.ValidateSession(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Member.ID, member.ID)

	_, err = f.service.ValidateSession(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, entities.ErrInvalidToken)

	delete(f.store.Members, resp.Member.ID)
	_, err = f.service.ValidateSession(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, entities.ErrUnauthorized)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	resp := f.connect(t)

	me, err := f.service.Me(context.Background(), resp.Member.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.GoogleStatusConnected, me.GoogleStatus)
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t)
	resp := f.connect(t)
	f.google.revokeErr = errors.New("google unavailable")

	require.NoError(t, f.service.Disconnect(context.Background(), resp.Member.ID))
	assert.Equal(t, []string{"rt-1"}, f.google.revoked)

	member := f.store.Members[resp.Member.ID]
	assert.Equal(t, entities.GoogleStatusDisconnected, member.GoogleStatus)
	assert.Empty(t, member.RefreshToken)
	assert.False(t, member.IsConnected())
}

func TestTokenSource(t *testing.T) {
	f := newFixture(t)
	resp := f.connect(t)
	member := f.store.Members[resp.Member.ID]

	ts, err := f.service.TokenSource(context.Background(), member)
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-for-rt-1", tok.AccessToken)

	member.RefreshToken = nil
	_, err = f.service.TokenSource(context.Background(), member)
	assert.ErrorIs(t, err, entities.ErrMemberNotConnected)
}

func TestTokenSource_TokenBoundToMember(t *testing.T) {
	f := newFixture(t)
	resp := f.connect(t)
	member := f.store.Members[resp.Member.ID]

	other := *member
	other.ID = entities.NewTeamMember("eve@ftfc.com", "Eve", "sub-eve").ID
	_, err := f.service.TokenSource(context.Background(), &other)
	assert.Error(t, err)
}
