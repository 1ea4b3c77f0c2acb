package notes

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/internal/testutil"
	"github.com/ftfc/crm/pkg/metrics"
)

func newTestResolver(store *testutil.MockStore, order ...entities.EntityType) (*Resolver, *metrics.Metrics) {
	m := metrics.NewNop()
	return NewResolver(store, testutil.ContactStore{MockStore: store}, m, zap.NewNop(), order...), m
}

func TestResolver_DirectMatch(t *testing.T) {
	store := testutil.NewMockStore()
	acme := store.AddEntity(entities.EntityTypeClient, "Acme", "jane@acme.com")
	r, m := newTestResolver(store)

	got, err := r.Resolve(context.Background(), []string{"bob@ftfc.com", "jane@acme.com"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entities.EntityTypeClient, got.Type)
	assert.Equal(t, acme.ID, got.ID)
	assert.Equal(t, "Acme", got.Data.Name)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.EntityResolutionsTotal.WithLabelValues("client", "direct")))
}

func TestResolver_CaseInsensitive(t *testing.T) {
	store := testutil.NewMockStore()
	acme := store.AddEntity(entities.EntityTypeClient, "Acme", "Jane@Acme.com")
	r, _ := newTestResolver(store)

	got, err := r.Resolve(context.Background(), []string{"jane@acme.com"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, acme.ID, got.ID)
}

func TestResolver_ClientBeatsInvestor(t *testing.T) {
	store := testutil.NewMockStore()
	store.AddEntity(entities.EntityTypeInvestor, "Fund", "lp@fund.com")
	client := store.AddEntity(entities.EntityTypeClient, "Acme", "jane@acme.com")
	r, _ := newTestResolver(store)

	got, err := r.Resolve(context.Background(), []string{"lp@fund.com", "jane@acme.com"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entities.EntityTypeClient, got.Type)
	assert.Equal(t, client.ID, got.ID)
}

func TestResolver_DirectClientBeatsInvestorContact(t *testing.T) {
	store := testutil.NewMockStore()
	fund := store.AddEntity(entities.EntityTypeInvestor, "Fund", "lp@fund.com")
	client := store.AddEntity(entities.EntityTypeClient, "Acme", "jane@acme.com")
	store.AddContact(&entities.Contact{
		Name:            "Jane",
		Email:           "jane@acme.com",
		InvestmentFirms: []entities.Association{{ID: fund.ID, Name: "Fund", Primary: true}},
	})
	r, m := newTestResolver(store)

	got, err := r.Resolve(context.Background(), []string{"jane@acme.com"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entities.EntityTypeClient, got.Type)
	assert.Equal(t, client.ID, got.ID)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.EntityResolutionsTotal.WithLabelValues("client", "direct")))
	assert.Equal(t, 0.0, promtest.ToFloat64(m.EntityResolutionsTotal.WithLabelValues("investor", "contact")))
}

func TestResolver_OldestDirectMatchWins(t *testing.T) {
	store := testutil.NewMockStore()
	first := store.AddEntity(entities.EntityTypeClient, "First", "a@first.com")
	store.AddEntity(entities.EntityTypeClient, "Second", "b@second.com")
	r, _ := newTestResolver(store)

	got, err := r.Resolve(context.Background(), []string{"b@second.com", "a@first.com"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
}

func TestResolver_ContactAssociationBeforeNextCollection(t *testing.T) {
	store := testutil.NewMockStore()
	client := store.AddEntity(entities.EntityTypeClient, "Acme", "info@acme.com")
	store.AddEntity(entities.EntityTypeInvestor, "Fund", "jane@acme.com")
	store.AddContact(&entities.Contact{
		Name:      "Jane",
		Email:     "jane@acme.com",
		Companies: []entities.Association{{ID: client.ID, Name: "Acme", Primary: true}},
	})
	r, m := newTestResolver(store)

	got, err := r.Resolve(context.Background(), []string{"jane@acme.com"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entities.EntityTypeClient, got.Type)
	assert.Equal(t, client.ID, got.ID)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.EntityResolutionsTotal.WithLabelValues("client", "contact")))
}

func TestResolver_NonPrimaryAssociationIgnored(t *testing.T) {
	store := testutil.NewMockStore()
	client := store.AddEntity(entities.EntityTypeClient, "Acme", "info@acme.com")
	store.AddContact(&entities.Contact{
		Email:     "jane@acme.com",
		Companies: []entities.Association{{ID: client.ID, Primary: false}},
	})
	r, _ := newTestResolver(store)

	got, err := r.Resolve(context.Background(), []string{"jane@acme.com"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolver_DanglingAssociationSkipped(t *testing.T) {
	store := testutil.NewMockStore()
	partner := store.AddEntity(entities.EntityTypePartner, "Bank", "ops@bank.com")
	store.AddContact(&entities.Contact{
		Email:        "jane@acme.com",
		Companies:    []entities.Association{{ID: uuid.New(), Primary: true}},
		PartnerFirms: []entities.Association{{ID: partner.ID, Primary: true}},
	})
	r, _ := newTestResolver(store)

	got, err := r.Resolve(context.Background(), []string{"jane@acme.com"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entities.EntityTypePartner, got.Type)
	assert.Equal(t, partner.ID, got.ID)
}

func TestResolver_ContactsLoadedOnce(t *testing.T) {
	store := testutil.NewMockStore()
	r, _ := newTestResolver(store)

	got, err := r.Resolve(context.Background(), []string{"nobody@nowhere.com"})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 3, store.FindByEmailsCalls)
	assert.Equal(t, 1, store.FindContactsCalls)
}

func TestResolver_CustomOrder(t *testing.T) {
	store := testutil.NewMockStore()
	store.AddEntity(entities.EntityTypeClient, "Acme", "jane@acme.com")
	investor := store.AddEntity(entities.EntityTypeInvestor, "Fund", "jane@acme.com")
	r, _ := newTestResolver(store, entities.EntityTypeInvestor, entities.EntityTypeClient)

	got, err := r.Resolve(context.Background(), []string{"jane@acme.com"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, investor.ID, got.ID)
}

func TestResolver_EmptyEmails(t *testing.T) {
	store := testutil.NewMockStore()
	r, _ := newTestResolver(store)

	got, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, store.FindByEmailsCalls)
}

func TestResolver_StoreError(t *testing.T) {
	store := testutil.NewMockStore()
	store.FindEntityErr = errors.New("connection lost")
	r, _ := newTestResolver(store)

	_, err := r.Resolve(context.Background(), []string{"jane@acme.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection lost")
}
