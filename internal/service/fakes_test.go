package service

import (
	"context"
	"errors"
	"sync"

	"pos-order-api/internal/models"
	"pos-order-api/internal/store/memstore"
)

var errInjected = errors.New("injected failure")

// faultyStore fails selected writes on top of the in-memory store
type faultyStore struct {
	*memstore.Store
	failOrders   int
	failProducts bool
	failActivity bool
	failSessions bool
	failPartners bool
}

func (f *faultyStore) CreateSession(ctx context.Context, session *models.Session) error {
	if f.failSessions {
		return errInjected
	}
	return f.Store.CreateSession(ctx, session)
}

func (f *faultyStore) CreatePartner(ctx context.Context, partner *models.Partner) error {
	if f.failPartners {
		return errInjected
	}
	return f.Store.CreatePartner(ctx, partner)
}

func (f *faultyStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if f.failOrders > 0 {
		f.failOrders--
		return errInjected
	}
	return f.Store.CreateOrder(ctx, order)
}

func (f *faultyStore) CreateProduct(ctx context.Context, product *models.Product) error {
	if f.failProducts {
		return errInjected
	}
	return f.Store.CreateProduct(ctx, product)
}

func (f *faultyStore) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if f.failActivity {
		return errInjected
	}
	return f.Store.CreateActivity(ctx, activity)
}

type fakeCache struct {
	mu        sync.Mutex
	ids       map[string]int64
	err       error
	forgotten []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{ids: map[string]int64{}}
}

func (c *fakeCache) GetProductID(_ context.Context, name string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, false, c.err
	}
	id, ok := c.ids[name]
	return id, ok, nil
}

func (c *fakeCache) SetProductID(_ context.Context, name string, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[name] = id
	return nil
}

func (c *fakeCache) ForgetProduct(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ids, name)
	c.forgotten = append(c.forgotten, name)
	return nil
}

type sentMessage struct {
	partnerID int64
	kind      string
	payload   models.BusNotification
}

type fakeBus struct {
	sent []sentMessage
	err  error
}

func (b *fakeBus) SendOne(_ context.Context, partnerID int64, kind string, payload models.BusNotification) error {
	if b.err != nil {
		return b.err
	}
	b.sent = append(b.sent, sentMessage{partnerID: partnerID, kind: kind, payload: payload})
	return nil
}

type fakePublisher struct {
	events []*models.OrderCreatedEvent
	err    error
}

func (p *fakePublisher) PublishOrderEvent(_ context.Context, event *models.OrderCreatedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

// addUser creates an internal user with its own partner
func addUser(s *memstore.Store, login string) models.User {
	ctx := context.Background()
	partner := &models.Partner{Name: login, CompanyID: 1}
	_ = s.CreatePartner(ctx, partner)
	user := &models.User{Login: login, Name: login, Active: true, PartnerID: partner.ID}
	_ = s.CreateUser(ctx, user)
	return *user
}

func grant(s *memstore.Store, xmlID string, userIDs ...int64) {
	ctx := context.Background()
	group, _ := s.FindGroup(ctx, xmlID)
	_, _ = s.AddGroupMembers(ctx, group.ID, userIDs)
}
