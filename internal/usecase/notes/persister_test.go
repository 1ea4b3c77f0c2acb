package notes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/testutil"
)

type fakeArchive struct {
	mu      sync.Mutex
	objects map[string]string
	err     error
}

func (a *fakeArchive) ArchiveTranscript(_ context.Context, objectName, content string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.objects == nil {
		a.objects = make(map[string]string)
	}
	a.objects[objectName] = content
	return nil
}

func claimedInput(t *testing.T, store *testutil.MockStore, doc entities.CandidateDocument) PersistInput {
	t.Helper()
	entity := store.AddEntity(entities.EntityTypeInvestor, "Fund", "lp@fund.com")
	result, err := NewGate(store, claimTTL).Claim(context.Background(), doc.ID, "run-1")
	require.NoError(t, err)
	require.Equal(t, entities.ClaimAcquired, result)
	return PersistInput{
		RunID:        "run-1",
		Document:     doc,
		Text:         "lp@fund.com joined",
		Participants: []string{"lp@fund.com"},
		Entity:       &entities.ResolvedEntity{Type: entities.EntityTypeInvestor, ID: entity.ID, Data: entity},
	}
}

func TestPersister_ArchivesText(t *testing.T) {
	store := testutil.NewMockStore()
	archive := &fakeArchive{}
	p := NewPersister(store, archive, zap.NewNop())
	in := claimedInput(t, store, entities.CandidateDocument{ID: "doc9", Name: "Fund update"})

	transcript, err := p.Persist(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "transcripts/gemini/investor/doc9.txt", transcript.ArchiveKey)
	assert.Equal(t, "lp@fund.com joined", archive.objects[transcript.ArchiveKey])
}

func TestPersister_ArchiveFailureDoesNotBlockCommit(t *testing.T) {
	store := testutil.NewMockStore()
	p := NewPersister(store, &fakeArchive{err: errors.New("bucket unavailable")}, zap.NewNop())
	in := claimedInput(t, store, entities.CandidateDocument{ID: "doc9", Name: "Fund update"})

	transcript, err := p.Persist(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, transcript.ArchiveKey)
	assert.Equal(t, 1, store.TranscriptCount())
}

func TestPersister_MissingCreatedTimeUsesNow(t *testing.T) {
	store := testutil.NewMockStore()
	p := NewPersister(store, nil, zap.NewNop())
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }
	in := claimedInput(t, store, entities.CandidateDocument{ID: "doc9", Name: "Fund update"})

	transcript, err := p.Persist(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, fixed, transcript.Date)
	assert.Equal(t, entities.SourceTypeGemini, transcript.SourceType)
}

func TestPersister_EntityGoneFailsCommit(t *testing.T) {
	store := testutil.NewMockStore()
	p := NewPersister(store, nil, zap.NewNop())
	in := claimedInput(t, store, entities.CandidateDocument{ID: "doc9", Name: "Fund update"})
	delete(store.Entities[entities.EntityTypeInvestor], in.Entity.ID)

	_, err := p.Persist(context.Background(), in)
	assert.ErrorIs(t, err, entities.ErrEntityNotFound)
	assert.Zero(t, store.TranscriptCount())
	assert.Zero(t, store.ActivityCount())
}

func TestPersister_RequiresEntity(t *testing.T) {
	p := NewPersister(testutil.NewMockStore(), nil, zap.NewNop())

	_, err := p.Persist(context.Background(), PersistInput{Document: entities.CandidateDocument{ID: "doc9"}})
	assert.Error(t, err)
}
