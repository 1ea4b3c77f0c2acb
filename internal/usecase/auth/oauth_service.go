package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/domain/repositories"
	"github.com/ftfc/crm/internal/infrastructure/external/oauth"
	"github.com/ftfc/crm/pkg/jwt"
	"github.com/ftfc/crm/pkg/secrets"
)

// GoogleOAuth is the part of the Google provider the service uses
type GoogleOAuth interface {
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	GetUserInfo(ctx context.Context, token *oauth2.Token) (*oauth.GoogleUserInfo, error)
	TokenSource(ctx context.Context, refreshToken string) oauth2.TokenSource
	Revoke(ctx context.Context, refreshToken string) error
}

// OAuthService connects team members' Google accounts and issues API sessions
type OAuthService struct {
	members      repositories.TeamMemberRepository
	google       GoogleOAuth
	stateManager *oauth.StateManager
	jwtManager   *jwt.Manager
	sealer       *secrets.Sealer
	logger       *zap.Logger
}

// NewOAuthService creates a new OAuth service
func NewOAuthService(
	members repositories.TeamMemberRepository,
	google GoogleOAuth,
	stateManager *oauth.StateManager,
	jwtManager *jwt.Manager,
	sealer *secrets.Sealer,
	logger *zap.Logger,
) *OAuthService {
	return &OAuthService{
		members:      members,
		google:       google,
		stateManager: stateManager,
		jwtManager:   jwtManager,
		sealer:       sealer,
		logger:       logger,
	}
}

// GoogleAuthURLResponse represents the response for auth URL request
type GoogleAuthURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// GetGoogleAuthURL generates the Google consent URL with a one-time state
func (s *OAuthService) GetGoogleAuthURL(ctx context.Context) (*GoogleAuthURLResponse, error) {
	state, err := s.stateManager.GenerateState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	return &GoogleAuthURLResponse{
		URL:   s.google.GetAuthURL(state),
		State: state,
	}, nil
}

// GoogleCallbackRequest represents the callback request
type GoogleCallbackRequest struct {
	Code  string `json:"code" query:"code" validate:"required"`
	State string `json:"state" query:"state" validate:"required"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Member      *entities.PublicMember `json:"member"`
	AccessToken string                 `json:"access_token"`
	ExpiresIn   int64                  `json:"expires_in"`
}

// HandleGoogleCallback finishes the consent flow: the member is created or
// linked, the refresh token is stored sealed and the member is connected
func (s *OAuthService) HandleGoogleCallback(ctx context.Context, req *GoogleCallbackRequest) (*AuthResponse, error) {
	valid, err := s.stateManager.ValidateState(ctx, req.State)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, entities.ErrOAuthStateMismatch
	}

	token, err := s.google.ExchangeCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrOAuthCodeInvalid, err)
	}

	googleUser, err := s.google.GetUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	if googleUser.Email == "" || !googleUser.VerifiedEmail {
		return nil, entities.ErrInvalidEmail
	}

	member, isNew, err := s.findOrNewMember(ctx, googleUser)
	if err != nil {
		return nil, err
	}

	// Google omits the refresh token on re-consent for some accounts; an
	// already stored token stays valid in that case
	if token.RefreshToken != "" {
		sealed, err := s.sealer.Seal(token.RefreshToken, memberAAD(member.ID))
		if err != nil {
			return nil, fmt.Errorf("failed to seal refresh token: %w", err)
		}
		member.Connect(sealed)
	} else if len(member.RefreshToken) > 0 {
		member.Connect(member.RefreshToken)
	} else {
		return nil, entities.ErrNoRefreshToken
	}

	if isNew {
		err = s.members.Create(ctx, member)
	} else {
		err = s.members.Update(ctx, member)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save team member: %w", err)
	}

	s.logger.Info("🔗 Google account connected",
		zap.String("member_id", member.ID.String()),
		zap.String("email", member.Email),
		zap.Bool("new_member", isNew),
	)

	return s.issue(member)
}

func (s *OAuthService) findOrNewMember(ctx context.Context, googleUser *oauth.GoogleUserInfo) (*entities.TeamMember, bool, error) {
	member, err := s.members.FindByGoogleSubject(ctx, googleUser.ID)
	if err == nil {
		if googleUser.Name != "" {
			member.Name = googleUser.Name
		}
		return member, false, nil
	}
	if !errors.Is(err, entities.ErrMemberNotFound) {
		return nil, false, fmt.Errorf("failed to find member: %w", err)
	}

	// Link an invited member by email
	member, err = s.members.FindByEmail(ctx, googleUser.Email)
	if err == nil {
		subject := googleUser.ID
		member.GoogleSubject = &subject
		if member.Name == "" {
			member.Name = googleUser.Name
		}
		return member, false, nil
	}
	if !errors.Is(err, entities.ErrMemberNotFound) {
		return nil, false, fmt.Errorf("failed to find member: %w", err)
	}

	return entities.NewTeamMember(googleUser.Email, googleUser.Name, googleUser.ID), true, nil
}

func (s *OAuthService) issue(member *entities.TeamMember) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(member.ID, member.Email, string(member.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &AuthResponse{
		Member:      member.ToPublic(),
		AccessToken: accessToken,
		ExpiresIn:   int64(s.jwtManager.GetAccessExpiry().Seconds()),
	}, nil
}

// ValidateSession validates an access token and loads its member
func (s *OAuthService) ValidateSession(ctx context.Context, token string) (*entities.TeamMember, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, entities.ErrInvalidToken
	}

	member, err := s.members.FindByID(ctx, claims.MemberID)
	if err != nil {
		if errors.Is(err, entities.ErrMemberNotFound) {
			return nil, entities.ErrUnauthorized
		}
		return nil, err
	}

	return member, nil
}

// Me returns the member with the server-side connection status
func (s *OAuthService) Me(ctx context.Context, memberID uuid.UUID) (*entities.PublicMember, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return member.ToPublic(), nil
}

// Disconnect revokes the member's grant at Google and forgets the token.
// A failed revoke is logged; the local token is cleared regardless.
func (s *OAuthService) Disconnect(ctx context.Context, memberID uuid.UUID) error {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		return err
	}

	if len(member.RefreshToken) > 0 {
		refreshToken, err := s.sealer.Open(member.RefreshToken, memberAAD(member.ID))
		if err != nil {
			s.logger.Warn("Stored refresh token could not be opened", zap.String("member_id", member.ID.String()), zap.Error(err))
		} else if err := s.google.Revoke(ctx, refreshToken); err != nil {
			s.logger.Warn("Failed to revoke Google grant", zap.String("member_id", member.ID.String()), zap.Error(err))
		}
	}

	if err := s.members.SetGoogleStatus(ctx, member.ID, entities.GoogleStatusDisconnected, "disconnected by member", true); err != nil {
		return fmt.Errorf("failed to disconnect member: %w", err)
	}

	s.logger.Info("Google account disconnected", zap.String("member_id", member.ID.String()))
	return nil
}

// TokenSource returns a refreshing token source for a connected member
func (s *OAuthService) TokenSource(ctx context.Context, member *entities.TeamMember) (oauth2.TokenSource, error) {
	if !member.IsConnected() {
		return nil, entities.ErrMemberNotConnected
	}

	refreshToken, err := s.sealer.Open(member.RefreshToken, memberAAD(member.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to open refresh token: %w", err)
	}

	return s.google.TokenSource(ctx, refreshToken), nil
}

// memberAAD binds a sealed token to its member row
func memberAAD(id uuid.UUID) []byte {
	return []byte(id.String())
}
