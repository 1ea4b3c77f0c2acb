package risc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/testutil"
	"github.com/ftfc/crm/pkg/metrics"
)

const (
	testIssuer   = "https://accounts.google.com/"
	testAudience = "client-123.apps.googleusercontent.com"
)

type fixture struct {
	key      *rsa.PrivateKey
	store    *testutil.MockStore
	member   *entities.TeamMember
	receiver *Receiver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	store := testutil.NewMockStore()
	member := entities.NewTeamMember("bob@ftfc.com", "Bob", "google-sub-1")
	member.Connect([]byte("sealed"))
	store.AddMember(member)

	kf := func(token *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}

	return &fixture{
		key:    key,
		store:  store,
		member: member,
		receiver: NewReceiver(
			testutil.MemberStore{MockStore: store},
			testutil.SecurityEventStore{MockStore: store},
			kf,
			testIssuer,
			testAudience,
			metrics.NewNop(),
			zap.NewNop(),
		),
	}
}

func (f *fixture) sign(t *testing.T, jti, eventType string, event Event, mutate ...func(*Claims)) string {
	t.Helper()
	claims := &Claims{
		Events: map[string]Event{eventType: event},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       jti,
			Issuer:   testIssuer,
			Audience: jwt.ClaimStrings{testAudience},
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	for _, m := range mutate {
		m(claims)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "test-key"
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func subjectEvent(sub string) Event {
	return Event{Subject: Subject{SubjectType: "iss-sub", Iss: testIssuer, Sub: sub}}
}

func TestReceive_StateMachine(t *testing.T) {
	tests := []struct {
		name       string
		eventType  string
		wantStatus entities.GoogleStatus
		tokenKept  bool
	}{
		{"sessions revoked", entities.RISCEventSessionsRevoked, entities.GoogleStatusRevoked, false},
		{"tokens revoked", entities.RISCEventTokensRevoked, entities.GoogleStatusRevoked, false},
		{"token revoked", entities.RISCEventTokenRevoked, entities.GoogleStatusRevoked, false},
		{"account disabled", entities.RISCEventAccountDisabled, entities.GoogleStatusDisabled, false},
		{"account enabled", entities.RISCEventAccountEnabled, entities.GoogleStatusDisconnected, true},
		{"credential change required", entities.RISCEventCredentialChangeRequired, entities.GoogleStatusConnected, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			raw := f.sign(t, uuid.NewString(), tt.eventType, subjectEvent("google-sub-1"))

			event, err := f.receiver.Receive(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, tt.eventType, event.EventType)
			require.NotNil(t, event.MemberID)
			assert.Equal(t, f.member.ID, *event.MemberID)

			assert.Equal(t, tt.wantStatus, f.member.GoogleStatus)
			assert.Equal(t, tt.tokenKept, len(f.member.RefreshToken) > 0)
		})
	}
}

func TestReceive_DisabledReasonRecorded(t *testing.T) {
	f := newFixture(t)
	event := subjectEvent("google-sub-1")
	event.Reason = "hijacking"

	_, err := f.receiver.Receive(context.Background(), f.sign(t, "jti-1", entities.RISCEventAccountDisabled, event))
	require.NoError(t, err)
	assert.Equal(t, "hijacking", f.member.StatusReason)
	assert.Equal(t, "hijacking", f.store.SecurityEvents["jti-1"].Reason)
}

func TestReceive_DuplicateJTI(t *testing.T) {
	f := newFixture(t)
	raw := f.sign(t, "jti-dup", entities.RISCEventAccountDisabled, subjectEvent("google-sub-1"))

	_, err := f.receiver.Receive(context.Background(), raw)
	require.NoError(t, err)

	f.member.GoogleStatus = entities.GoogleStatusConnected
	_, err = f.receiver.Receive(context.Background(), raw)
	assert.ErrorIs(t, err, entities.ErrDuplicateEvent)
	assert.Equal(t, entities.GoogleStatusConnected, f.member.GoogleStatus, "duplicate is not applied")
	assert.Len(t, f.store.SecurityEvents, 1)
}

func TestReceive_UnknownSubject(t *testing.T) {
	f := newFixture(t)

	event, err := f.receiver.Receive(context.Background(), f.sign(t, "jti-2", entities.RISCEventSessionsRevoked, subjectEvent("someone-else")))
	require.NoError(t, err)
	assert.Nil(t, event.MemberID)
	assert.Equal(t, "someone-else", event.Subject)
	assert.Equal(t, entities.GoogleStatusConnected, f.member.GoogleStatus)
}

func TestReceive_Verification(t *testing.T) {
	f := newFixture(t)

	event, err := f.receiver.Receive(context.Background(), f.sign(t, "jti-3", entities.RISCEventVerification, Event{State: "ping"}))
	require.NoError(t, err)
	assert.Equal(t, entities.RISCEventVerification, event.EventType)
	assert.JSONEq(t, `{"`+entities.RISCEventVerification+`":{"subject":{"subject_type":""},"state":"ping"}}`, string(event.Payload))
}

func TestVerify_Rejects(t *testing.T) {
	f := newFixture(t)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  func() string
	}{
		{"garbage", func() string { return "not-a-token" }},
		{"wrong audience", func() string {
			return f.sign(t, "j", entities.RISCEventSessionsRevoked, subjectEvent("s"), func(c *Claims) {
				c.Audience = jwt.ClaimStrings{"someone-else"}
			})
		}},
		{"wrong issuer", func() string {
			return f.sign(t, "j", entities.RISCEventSessionsRevoked, subjectEvent("s"), func(c *Claims) {
				c.Issuer = "https://evil.example.com/"
			})
		}},
		{"missing jti", func() string {
			return f.sign(t, "", entities.RISCEventSessionsRevoked, subjectEvent("s"))
		}},
		{"no events", func() string {
			return f.sign(t, "j", entities.RISCEventSessionsRevoked, subjectEvent("s"), func(c *Claims) {
				c.Events = nil
			})
		}},
		{"foreign signature", func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
				Events:           map[string]Event{entities.RISCEventSessionsRevoked: subjectEvent("s")},
				RegisteredClaims: jwt.RegisteredClaims{ID: "j", Issuer: testIssuer, Audience: jwt.ClaimStrings{testAudience}},
			})
			signed, err := token.SignedString(otherKey)
			require.NoError(t, err)
			return signed
		}},
		{"hmac algorithm", func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
				Events:           map[string]Event{entities.RISCEventSessionsRevoked: subjectEvent("s")},
				RegisteredClaims: jwt.RegisteredClaims{ID: "j", Issuer: testIssuer, Audience: jwt.ClaimStrings{testAudience}},
			})
			signed, err := token.SignedString([]byte("secret"))
			require.NoError(t, err)
			return signed
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.receiver.Verify(tt.raw())
			assert.ErrorIs(t, err, entities.ErrInvalidSecurityEvent)
		})
	}
}

func TestNewJWKSKeyfunc(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "test-key",
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	kf, err := NewJWKSKeyfunc(ctx, srv.URL)
	require.NoError(t, err)

	f := newFixture(t)
	f.key = key
	f.receiver.keyfunc = kf

	claims, err := f.receiver.Verify(f.sign(t, "jti-jwks", entities.RISCEventSessionsRevoked, subjectEvent("google-sub-1")))
	require.NoError(t, err)
	assert.Equal(t, "jti-jwks", claims.ID)
}
