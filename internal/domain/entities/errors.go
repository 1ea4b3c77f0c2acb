package entities

import "errors"

// Domain errors
var (
	// Member errors
	ErrMemberNotFound     = errors.New("team member not found")
	ErrMemberNotConnected = errors.New("team member has no google connection")
	ErrInvalidEmail       = errors.New("invalid email")

	// OAuth errors
	ErrOAuthStateMismatch = errors.New("oauth state mismatch")
	ErrOAuthCodeInvalid   = errors.New("oauth code invalid")
	ErrNoRefreshToken     = errors.New("google did not return a refresh token")

	// Notes pipeline errors
	ErrNoParticipants    = errors.New("no participants found")
	ErrEntityNotFound    = errors.New("no entity found")
	ErrAlreadyProcessed  = errors.New("already processed")
	ErrClaimHeld         = errors.New("document claimed by another run")
	ErrScanInProgress    = errors.New("scan already in progress")
	ErrInvalidEntityType = errors.New("invalid entity type")

	// Webhook errors
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrInvalidSecurityEvent = errors.New("invalid security event token")
	ErrDuplicateEvent       = errors.New("security event already recorded")

	// Generic errors
	ErrInvalidToken = errors.New("invalid token")
	ErrUnauthorized = errors.New("unauthorized")
)
