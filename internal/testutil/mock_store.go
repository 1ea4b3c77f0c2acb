package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ftfc/crm/internal/domain/entities"
)

// MockStore is a thread-safe in-memory implementation of every repository
// interface, for tests.
type MockStore struct {
	mu sync.Mutex

	Entities       map[entities.EntityType]map[uuid.UUID]*entities.Entity
	Contacts       []*entities.Contact
	Transcripts    map[uuid.UUID]*entities.Transcript
	Activities     []*entities.Activity
	ProcessedNotes map[string]*entities.ProcessedNote
	Members        map[uuid.UUID]*entities.TeamMember
	SecurityEvents map[string]*entities.SecurityEvent
	Meetings       map[string]*entities.ScheduledMeeting

	ClaimErr       error
	CommitErr      error
	FindEntityErr  error
	FindContactErr error
	ListMembersErr error
	RecordEventErr error
	UpsertMeetErr  error
	CreateActErr   error

	// OnCommit runs inside CommitTranscript before anything is written
	OnCommit func(owner string, transcript *entities.Transcript)

	ClaimCalls        int
	ReleaseCalls      int
	CommitCalls       int
	FindByEmailsCalls int
	FindContactsCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{
		Entities: map[entities.EntityType]map[uuid.UUID]*entities.Entity{
			entities.EntityTypeClient:   {},
			entities.EntityTypeInvestor: {},
			entities.EntityTypePartner:  {},
		},
		Transcripts:    make(map[uuid.UUID]*entities.Transcript),
		ProcessedNotes: make(map[string]*entities.ProcessedNote),
		Members:        make(map[uuid.UUID]*entities.TeamMember),
		SecurityEvents: make(map[string]*entities.SecurityEvent),
		Meetings:       make(map[string]*entities.ScheduledMeeting),
	}
}

// AddEntity seeds an entity and returns it
func (m *MockStore) AddEntity(entityType entities.EntityType, name, email string) *entities.Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &entities.Entity{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().Add(time.Duration(len(m.Entities[entityType])) * time.Millisecond),
	}
	m.Entities[entityType][e.ID] = e
	return e
}

// AddContact seeds a contact and returns it
func (m *MockStore) AddContact(c *entities.Contact) *entities.Contact {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.Contacts = append(m.Contacts, c)
	return c
}

// AddMember seeds a team member and returns it
func (m *MockStore) AddMember(member *entities.TeamMember) *entities.TeamMember {
	m.mu.Lock()
	defer m.mu.Unlock()
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	m.Members[member.ID] = member
	return member
}

// Entity returns a copy of a stored entity
func (m *MockStore) Entity(entityType entities.EntityType, id uuid.UUID) *entities.Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Entities[entityType][id]
	if !ok {
		return nil
	}
	cp := *e
	cp.Transcripts = append([]entities.TranscriptRef(nil), e.Transcripts...)
	return &cp
}

// TranscriptCount returns the number of stored transcripts
func (m *MockStore) TranscriptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Transcripts)
}

// ActivityCount returns the number of logged activities
func (m *MockStore) ActivityCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Activities)
}

// Note returns a copy of the processed-note record for fileID
func (m *MockStore) Note(fileID string) *entities.ProcessedNote {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.ProcessedNotes[fileID]
	if !ok {
		return nil
	}
	cp := *n
	return &cp
}

// Notes repository

func (m *MockStore) ClaimNote(_ context.Context, fileID, owner string, staleBefore time.Time) (entities.ClaimResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClaimCalls++
	if m.ClaimErr != nil {
		return entities.ClaimHeld, m.ClaimErr
	}
	existing, ok := m.ProcessedNotes[fileID]
	switch {
	case !ok:
	case existing.IsProcessed():
		return entities.ClaimAlreadyProcessed, nil
	case existing.ClaimedAt.Before(staleBefore):
	default:
		return entities.ClaimHeld, nil
	}
	m.ProcessedNotes[fileID] = &entities.ProcessedNote{
		FileID:    fileID,
		Status:    entities.ProcessedNoteStatusProcessing,
		ClaimedBy: owner,
		ClaimedAt: time.Now(),
	}
	return entities.ClaimAcquired, nil
}

func (m *MockStore) ReleaseNote(_ context.Context, fileID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseCalls++
	if n, ok := m.ProcessedNotes[fileID]; ok && !n.IsProcessed() && n.ClaimedBy == owner {
		delete(m.ProcessedNotes, fileID)
	}
	return nil
}

func (m *MockStore) CommitTranscript(_ context.Context, owner string, transcript *entities.Transcript, activity *entities.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CommitCalls++
	if m.OnCommit != nil {
		m.OnCommit(owner, transcript)
	}
	if m.CommitErr != nil {
		return m.CommitErr
	}
	entity, ok := m.Entities[transcript.EntityType][transcript.EntityID]
	if !ok {
		return entities.ErrEntityNotFound
	}
	note, ok := m.ProcessedNotes[transcript.SourceID]
	if !ok || note.IsProcessed() || note.ClaimedBy != owner {
		return entities.ErrClaimHeld
	}

	m.Transcripts[transcript.ID] = transcript
	entity.Transcripts = append(entity.Transcripts, transcript.Ref())
	m.Activities = append(m.Activities, activity)

	now := time.Now()
	entityID, transcriptID := transcript.EntityID, transcript.ID
	note.Status = entities.ProcessedNoteStatusProcessed
	note.ProcessedAt = &now
	note.EntityType = transcript.EntityType
	note.EntityID = &entityID
	note.TranscriptID = &transcriptID
	return nil
}

func (m *MockStore) GetProcessedNote(_ context.Context, fileID string) (*entities.ProcessedNote, error) {
	return m.Note(fileID), nil
}

// Entity repositories

func (m *MockStore) FindByEmails(_ context.Context, entityType entities.EntityType, emails []string) (*entities.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindByEmailsCalls++
	if m.FindEntityErr != nil {
		return nil, m.FindEntityErr
	}
	var matches []*entities.Entity
	for _, e := range m.Entities[entityType] {
		if containsFold(emails, e.Email) {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches[0], nil
}

func (m *MockStore) FindByID(_ context.Context, entityType entities.EntityType, id uuid.UUID) (*entities.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindEntityErr != nil {
		return nil, m.FindEntityErr
	}
	e, ok := m.Entities[entityType][id]
	if !ok {
		return nil, nil
	}
	return e, nil
}

// ContactStore adapts MockStore to the contact repository, whose
// FindByEmails signature differs from the entity one.
type ContactStore struct{ *MockStore }

func (c ContactStore) FindByEmails(_ context.Context, emails []string) ([]*entities.Contact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FindContactsCalls++
	if c.FindContactErr != nil {
		return nil, c.FindContactErr
	}
	var out []*entities.Contact
	for _, contact := range c.Contacts {
		if containsFold(emails, contact.Email) {
			out = append(out, contact)
		}
	}
	return out, nil
}

// ActivityStore adapts MockStore to the activity repository
type ActivityStore struct{ *MockStore }

func (a ActivityStore) Create(_ context.Context, activity *entities.Activity) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.CreateActErr != nil {
		return a.CreateActErr
	}
	a.Activities = append(a.Activities, activity)
	return nil
}

// TranscriptStore adapts MockStore to the transcript repository
type TranscriptStore struct{ *MockStore }

func (t TranscriptStore) FindByID(_ context.Context, id uuid.UUID) (*entities.Transcript, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Transcripts[id], nil
}

func (t TranscriptStore) ListByEntity(_ context.Context, entityType entities.EntityType, entityID uuid.UUID, limit, offset int) ([]*entities.Transcript, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*entities.Transcript
	for _, tr := range t.Transcripts {
		if tr.EntityType == entityType && tr.EntityID == entityID {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if offset >= len(out) {
		return []*entities.Transcript{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemberStore adapts MockStore to the team member repository
type MemberStore struct{ *MockStore }

func (s MemberStore) Create(_ context.Context, member *entities.TeamMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Members[member.ID] = member
	return nil
}

func (s MemberStore) FindByID(_ context.Context, id uuid.UUID) (*entities.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.Members[id]
	if !ok {
		return nil, entities.ErrMemberNotFound
	}
	return member, nil
}

func (s MemberStore) FindByEmail(_ context.Context, email string) (*entities.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, member := range s.Members {
		if strings.EqualFold(member.Email, email) {
			return member, nil
		}
	}
	return nil, entities.ErrMemberNotFound
}

func (s MemberStore) FindByGoogleSubject(_ context.Context, subject string) (*entities.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, member := range s.Members {
		if member.GoogleSubject != nil && *member.GoogleSubject == subject {
			return member, nil
		}
	}
	return nil, entities.ErrMemberNotFound
}

func (s MemberStore) Update(_ context.Context, member *entities.TeamMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Members[member.ID] = member
	return nil
}

func (s MemberStore) ListConnected(_ context.Context) ([]*entities.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListMembersErr != nil {
		return nil, s.ListMembersErr
	}
	var out []*entities.TeamMember
	for _, member := range s.Members {
		if member.IsConnected() {
			out = append(out, member)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s MemberStore) SetGoogleStatus(_ context.Context, id uuid.UUID, status entities.GoogleStatus, reason string, clearToken bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	member, ok := s.Members[id]
	if !ok {
		return entities.ErrMemberNotFound
	}
	member.GoogleStatus = status
	member.StatusReason = reason
	if clearToken {
		member.RefreshToken = nil
	}
	return nil
}

func (s MemberStore) MarkScanned(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if member, ok := s.Members[id]; ok {
		member.LastScanAt = &at
	}
	return nil
}

// SecurityEventStore adapts MockStore to the security event repository
type SecurityEventStore struct{ *MockStore }

func (s SecurityEventStore) Seen(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.SecurityEvents[jti]
	return ok, nil
}

func (s SecurityEventStore) Record(_ context.Context, event *entities.SecurityEvent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RecordEventErr != nil {
		return false, s.RecordEventErr
	}
	if _, ok := s.SecurityEvents[event.JTI]; ok {
		return false, nil
	}
	s.SecurityEvents[event.JTI] = event
	return true, nil
}

// MeetingStore adapts MockStore to the meeting repository
type MeetingStore struct{ *MockStore }

func (s MeetingStore) Upsert(_ context.Context, meeting *entities.ScheduledMeeting) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertMeetErr != nil {
		return false, s.UpsertMeetErr
	}
	existing, ok := s.Meetings[meeting.InviteeURI]
	if ok {
		meeting.ID = existing.ID
		meeting.CreatedAt = existing.CreatedAt
	}
	if meeting.ID == uuid.Nil {
		meeting.ID = uuid.New()
	}
	s.Meetings[meeting.InviteeURI] = meeting
	return !ok, nil
}

func (s MeetingStore) FindByInviteeURI(_ context.Context, inviteeURI string) (*entities.ScheduledMeeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Meetings[inviteeURI], nil
}

func (s MeetingStore) MarkCanceled(_ context.Context, inviteeURI, reason string) (*entities.ScheduledMeeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meeting, ok := s.Meetings[inviteeURI]
	if !ok {
		return nil, nil
	}
	meeting.Status = entities.MeetingStatusCanceled
	meeting.CancelReason = reason
	return meeting, nil
}

func containsFold(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
