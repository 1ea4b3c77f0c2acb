package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/ftfc/crm/internal/domain/entities"
)

// memberToken is the token source handed out by FakeCredentials; the
// access token is the member's email so fakes can tell members apart
type memberToken struct{ email string }

func (t memberToken) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: t.email, Expiry: time.Now().Add(time.Hour)}, nil
}

// TokenOwner returns the member email behind a fake token source
func TokenOwner(ts oauth2.TokenSource) string {
	tok, err := ts.Token()
	if err != nil {
		return ""
	}
	return tok.AccessToken
}

// FakeCredentials hands out a token source per member
type FakeCredentials struct {
	mu   sync.Mutex
	Errs map[string]error // by member email
}

func (f *FakeCredentials) TokenSource(_ context.Context, member *entities.TeamMember) (oauth2.TokenSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errs[member.Email]; err != nil {
		return nil, err
	}
	return memberToken{email: member.Email}, nil
}

// FakeDrive returns canned candidate lists per member
type FakeDrive struct {
	mu    sync.Mutex
	Docs  map[string][]entities.CandidateDocument // by member email
	Errs  map[string]error
	Calls int
	Since time.Time
}

func NewFakeDrive() *FakeDrive {
	return &FakeDrive{
		Docs: make(map[string][]entities.CandidateDocument),
		Errs: make(map[string]error),
	}
}

func (f *FakeDrive) ListCandidates(_ context.Context, ts oauth2.TokenSource, since time.Time) ([]entities.CandidateDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.Since = since
	owner := TokenOwner(ts)
	if err := f.Errs[owner]; err != nil {
		return nil, err
	}
	return append([]entities.CandidateDocument(nil), f.Docs[owner]...), nil
}

// FakeDocs returns canned document text
type FakeDocs struct {
	mu      sync.Mutex
	Texts   map[string]string
	Errs    map[string]error
	Fetched []string
}

func NewFakeDocs() *FakeDocs {
	return &FakeDocs{
		Texts: make(map[string]string),
		Errs:  make(map[string]error),
	}
}

func (f *FakeDocs) FetchText(_ context.Context, _ oauth2.TokenSource, docID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fetched = append(f.Fetched, docID)
	if err := f.Errs[docID]; err != nil {
		return "", err
	}
	text, ok := f.Texts[docID]
	if !ok {
		return "", errors.New("document not found")
	}
	return text, nil
}

// FetchCount returns how many times docID was fetched
func (f *FakeDocs) FetchCount(docID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range f.Fetched {
		if id == docID {
			n++
		}
	}
	return n
}
