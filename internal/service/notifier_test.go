package service

import (
	"context"
	"strings"
	"testing"

	"pos-order-api/internal/models"
	"pos-order-api/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStrategy struct {
	name  string
	ok    bool
	err   error
	calls int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Attempt(context.Context, Payload) (bool, error) {
	s.calls++
	return s.ok, s.err
}

func samplePayload(orderID int64) Payload {
	return Payload{
		OrderID:     orderID,
		Reference:   "ORD-1",
		PartnerID:   1,
		PosName:     "ECommerce",
		AmountTotal: dec("10.8"),
	}
}

func createOrder(t *testing.T, repo *memstore.Store) *models.Order {
	t.Helper()
	order := &models.Order{PartnerID: 1, SessionID: 1}
	require.NoError(t, repo.CreateOrder(context.Background(), order))
	return order
}

func TestNotifierStopsAtFirstSuccess(t *testing.T) {
	failing := &stubStrategy{name: "a", err: errInjected}
	silent := &stubStrategy{name: "b"}
	working := &stubStrategy{name: "c", ok: true}
	never := &stubStrategy{name: "d", ok: true}

	name, ok := NewNotifier(failing, silent, working, never).Notify(context.Background(), samplePayload(1))
	assert.True(t, ok)
	assert.Equal(t, "c", name)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, silent.calls)
	assert.Equal(t, 0, never.calls)
}

func TestNotifierReportsTotalFailure(t *testing.T) {
	name, ok := NewNotifier(&stubStrategy{name: "a"}).Notify(context.Background(), samplePayload(1))
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestBroadcastReachesEveryInternalUser(t *testing.T) {
	repo := memstore.New()
	addUser(repo, "cashier")
	portal := &models.User{Login: "portal", Active: true, Share: true}
	require.NoError(t, repo.CreateUser(context.Background(), portal))

	bus := &fakeBus{}
	n, err := NewBroadcastStrategy(repo, bus).Broadcast(context.Background(), samplePayload(1))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, bus.sent, 2)
	msg := bus.sent[0]
	assert.Equal(t, int64(1), msg.partnerID)
	assert.Equal(t, models.BusKindSimpleNotification, msg.kind)
	assert.Equal(t, "New Ecommerce Order", msg.payload.Title)
	assert.Equal(t, "Order ORD-1 - Customer: Administrator - Total: $10.80", msg.payload.Message)
	assert.True(t, msg.payload.Sticky)

	activities := repo.Activities()
	require.Len(t, activities, 2)
	assert.Equal(t, models.ModelResUsers, activities[0].ResModel)
	assert.Contains(t, activities[0].Note, "ORD-1")
}

func TestBroadcastWithoutBusReachesNobody(t *testing.T) {
	repo := memstore.New()
	strategy := NewBroadcastStrategy(repo, nil)

	n, err := strategy.Broadcast(context.Background(), samplePayload(1))
	require.NoError(t, err)
	assert.Zero(t, n)

	ok, err := strategy.Attempt(context.Background(), samplePayload(1))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, repo.Activities())
}

func TestBroadcastCountsOnlyCompleteDeliveries(t *testing.T) {
	repo := &faultyStore{Store: memstore.New(), failActivity: true}
	ok, err := NewBroadcastStrategy(repo, &fakeBus{}).Attempt(context.Background(), samplePayload(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGroupedRecipientsFallBackToAdministrator(t *testing.T) {
	repo := memstore.New()
	addUser(repo, "cashier")

	users := NewGroupedStrategy(repo, nil, "admin").Recipients(context.Background())
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Login)
}

func TestGroupedRecipientsDeduplicateGroupsAndSessions(t *testing.T) {
	ctx := context.Background()
	repo := memstore.New()
	cashier := addUser(repo, "cashier")
	manager := addUser(repo, "manager")
	grant(repo, models.GroupPosManager, manager.ID)
	grant(repo, models.GroupPosUser, manager.ID, cashier.ID)
	require.NoError(t, repo.CreateSession(ctx, &models.Session{ConfigID: 1, UserID: cashier.ID, State: models.SessionStateClosed}))

	users := NewGroupedStrategy(repo, nil, "admin").Recipients(ctx)
	require.Len(t, users, 2)
	assert.Equal(t, manager.ID, users[0].ID)
	assert.Equal(t, cashier.ID, users[1].ID)
}

func TestGroupedCreatesActivitiesAndOrderNote(t *testing.T) {
	repo := memstore.New()
	order := createOrder(t, repo)

	ok, err := NewGroupedStrategy(repo, nil, "admin").Attempt(context.Background(), samplePayload(order.ID))
	require.NoError(t, err)
	assert.True(t, ok)

	activities := repo.Activities()
	require.Len(t, activities, 1)
	assert.True(t, strings.HasPrefix(activities[0].Note, "New order received:\n- Reference: ORD-1"))

	messages := repo.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "Ecommerce order: ORD-1", messages[0].Subject)
	assert.Equal(t, order.ID, messages[0].ResID)
	assert.Contains(t, messages[0].Body, "1 user(s) notified")
}

func TestGroupedFallsBackToBusWhenActivityFails(t *testing.T) {
	repo := &faultyStore{Store: memstore.New(), failActivity: true}
	bus := &fakeBus{}

	ok, err := NewGroupedStrategy(repo, bus, "admin").Attempt(context.Background(), samplePayload(1))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, bus.sent, 1)
}

func TestGroupedReachesNobodyWithoutUsers(t *testing.T) {
	ok, err := NewGroupedStrategy(memstore.NewEmpty(), nil, "admin").Attempt(context.Background(), samplePayload(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTimelineNeedsTheOrder(t *testing.T) {
	repo := memstore.New()
	strategy := NewTimelineStrategy(repo)

	ok, err := strategy.Attempt(context.Background(), samplePayload(42))
	require.NoError(t, err)
	assert.False(t, ok)

	order := createOrder(t, repo)
	ok, err = strategy.Attempt(context.Background(), samplePayload(order.ID))
	require.NoError(t, err)
	assert.True(t, ok)

	messages := repo.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "New Ecommerce Order: ORD-1", messages[0].Subject)
	assert.Equal(t, models.ModelPosOrder, messages[0].ResModel)
	assert.Contains(t, messages[0].Body, "$10.80")
}

func TestLogAlwaysSucceeds(t *testing.T) {
	ok, err := NewLogStrategy(memstore.NewEmpty()).Attempt(context.Background(), samplePayload(1))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDefaultStrategiesOrder(t *testing.T) {
	strategies := DefaultStrategies(memstore.New(), nil, "admin")
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{"broadcast", "grouped", "timeline", "log"}, names)
}
