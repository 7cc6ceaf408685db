// Package memstore is an in-memory implementation of the store repositories.
//
// Transactions are serialised and rolled back by restoring a snapshot, so
// writes made outside a transaction while one is running are lost if it
// rolls back. It is meant for local development and tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"pos-order-api/internal/models"
	"pos-order-api/internal/store"
)

type txKey struct{}

type membership struct {
	groupID int64
	userID  int64
}

type state struct {
	nextID     map[string]int64
	companies  []models.Company
	journals   []models.Journal
	configs    []models.PosConfig
	sessions   []models.Session
	partners   []models.Partner
	categories []models.Category
	uoms       []models.Uom
	products   []models.Product
	orders     []models.Order
	users      []models.User
	groups     []models.Group
	members    []membership
	activities []models.Activity
	messages   []models.Message
	params     map[string]string
}

func (st *state) clone() *state {
	c := &state{
		nextID:     make(map[string]int64, len(st.nextID)),
		companies:  append([]models.Company(nil), st.companies...),
		journals:   append([]models.Journal(nil), st.journals...),
		configs:    append([]models.PosConfig(nil), st.configs...),
		sessions:   append([]models.Session(nil), st.sessions...),
		partners:   append([]models.Partner(nil), st.partners...),
		categories: append([]models.Category(nil), st.categories...),
		uoms:       append([]models.Uom(nil), st.uoms...),
		products:   append([]models.Product(nil), st.products...),
		orders:     append([]models.Order(nil), st.orders...),
		users:      append([]models.User(nil), st.users...),
		groups:     append([]models.Group(nil), st.groups...),
		members:    append([]membership(nil), st.members...),
		activities: append([]models.Activity(nil), st.activities...),
		messages:   append([]models.Message(nil), st.messages...),
		params:     make(map[string]string, len(st.params)),
	}
	for k, v := range st.nextID {
		c.nextID[k] = v
	}
	for k, v := range st.params {
		c.params[k] = v
	}
	return c
}

func (st *state) id(table string) int64 {
	st.nextID[table]++
	return st.nextID[table]
}

// Store keeps every table in memory
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
	now  func() time.Time
}

var _ store.Repository = (*Store)(nil)

// NewEmpty creates a store with no rows at all
func NewEmpty() *Store {
	return &Store{
		data: &state{nextID: map[string]int64{}, params: map[string]string{}},
		now:  time.Now,
	}
}

// New creates a store holding the same seed rows as schema.sql
func New() *Store {
	s := NewEmpty()
	st := s.data

	st.companies = append(st.companies, models.Company{ID: st.id("company"), Name: "My Company"})
	st.partners = append(st.partners, models.Partner{ID: st.id("partner"), Name: "Administrator", CompanyID: 1})
	st.users = append(st.users, models.User{
		ID: st.id("user"), Login: "admin", Name: "Administrator", Active: true, PartnerID: 1,
	})
	st.uoms = append(st.uoms, models.Uom{ID: st.id("uom"), Name: "Units"})

	for _, g := range []models.Group{
		{XMLID: models.GroupPosManager, Name: "Point of Sale / Administrator"},
		{XMLID: models.GroupPosUser, Name: "Point of Sale / User"},
		{XMLID: models.GroupSaleSalesman, Name: "Sales / User: Own Documents Only"},
		{XMLID: models.GroupSaleManager, Name: "Sales / Administrator"},
		{XMLID: models.GroupInternalUser, Name: "Internal User"},
		{XMLID: models.GroupSystem, Name: "Settings"},
	} {
		g.ID = st.id("group")
		st.groups = append(st.groups, g)
	}

	st.params[models.ParamAutoAssignGroups] = "True"
	return s
}

// Execute runs fn as a serialised transaction, restoring the previous
// state when fn fails.
func (s *Store) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	return s.withSnapshot(context.WithValue(ctx, txKey{}, true), fn)
}

// Savepoint restores the state from before fn when fn fails
func (s *Store) Savepoint(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if !inTx(ctx) {
		return s.Execute(ctx, fn)
	}
	return s.withSnapshot(ctx, fn)
}

func (s *Store) withSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// CreateUser adds a user; the Postgres schema leaves this to the user directory.
func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.ID = s.data.id("user")
	s.data.users = append(s.data.users, *user)
	return nil
}

// Activities returns every activity created so far
func (s *Store) Activities() []models.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Activity(nil), s.data.activities...)
}

// Messages returns every timeline message posted so far
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.data.messages...)
}

// Orders returns every order created so far
func (s *Store) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order(nil), s.data.orders...)
}

// Products returns every product created so far
func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product(nil), s.data.products...)
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

func first[T any](items []T, match func(T) bool) *T {
	for i := range items {
		if match(items[i]) {
			item := items[i]
			return &item
		}
	}
	return nil
}

func last[T any](items []T, match func(T) bool) *T {
	for i := len(items) - 1; i >= 0; i-- {
		if match(items[i]) {
			item := items[i]
			return &item
		}
	}
	return nil
}

func always[T any](T) bool { return true }

// Sessions, configurations, companies and journals

func (s *Store) FindOpenSession(_ context.Context) (out *models.Session, _ error) {
	s.read(func(st *state) {
		out = first(st.sessions, func(x models.Session) bool { return x.State == models.SessionStateOpened })
	})
	return out, nil
}

func (s *Store) FindLatestSessionByConfig(_ context.Context, configID int64) (out *models.Session, _ error) {
	s.read(func(st *state) {
		out = last(st.sessions, func(x models.Session) bool { return x.ConfigID == configID })
	})
	return out, nil
}

func (s *Store) FindLatestSession(_ context.Context) (out *models.Session, _ error) {
	s.read(func(st *state) { out = last(st.sessions, always[models.Session]) })
	return out, nil
}

func (s *Store) GetSession(_ context.Context, id int64) (out *models.Session, _ error) {
	s.read(func(st *state) {
		out = first(st.sessions, func(x models.Session) bool { return x.ID == id })
	})
	return out, nil
}

func (s *Store) CreateSession(_ context.Context, session *models.Session) error {
	if session.State == "" {
		session.State = models.SessionStateOpeningControl
	}
	s.write(func(st *state) {
		session.ID = st.id("session")
		st.sessions = append(st.sessions, *session)
	})
	return nil
}

func (s *Store) OpenSession(_ context.Context, id int64) error {
	s.write(func(st *state) {
		for i := range st.sessions {
			if st.sessions[i].ID == id {
				st.sessions[i].State = models.SessionStateOpened
				st.sessions[i].StartAt.Time = s.now()
				st.sessions[i].StartAt.Valid = true
			}
		}
	})
	return nil
}

func (s *Store) FindPosConfigByName(_ context.Context, name string) (out *models.PosConfig, _ error) {
	s.read(func(st *state) {
		out = first(st.configs, func(x models.PosConfig) bool { return x.Name == name })
	})
	return out, nil
}

func (s *Store) FindAnyPosConfig(_ context.Context) (out *models.PosConfig, _ error) {
	s.read(func(st *state) { out = first(st.configs, always[models.PosConfig]) })
	return out, nil
}

func (s *Store) GetPosConfig(_ context.Context, id int64) (out *models.PosConfig, _ error) {
	s.read(func(st *state) {
		out = first(st.configs, func(x models.PosConfig) bool { return x.ID == id })
	})
	return out, nil
}

func (s *Store) CreatePosConfig(_ context.Context, cfg *models.PosConfig) error {
	s.write(func(st *state) {
		cfg.ID = st.id("config")
		st.configs = append(st.configs, *cfg)
	})
	return nil
}

func (s *Store) DefaultCompany(_ context.Context) (out *models.Company, _ error) {
	s.read(func(st *state) {
		out = first(st.companies, func(x models.Company) bool { return x.ID == 1 })
		if out == nil {
			out = first(st.companies, always[models.Company])
		}
	})
	return out, nil
}

func (s *Store) FindPosJournal(_ context.Context, companyID int64) (out *models.Journal, _ error) {
	s.read(func(st *state) {
		out = first(st.journals, func(x models.Journal) bool {
			return x.Type == "general" && x.CompanyID == companyID && strings.HasPrefix(x.Code, "POS")
		})
	})
	return out, nil
}

func (s *Store) CreateJournal(_ context.Context, journal *models.Journal) error {
	s.write(func(st *state) {
		journal.ID = st.id("journal")
		st.journals = append(st.journals, *journal)
	})
	return nil
}

// Partners

func (s *Store) GetPartner(_ context.Context, id int64) (out *models.Partner, _ error) {
	s.read(func(st *state) {
		out = first(st.partners, func(x models.Partner) bool { return x.ID == id })
	})
	return out, nil
}

func (s *Store) FindEligibleCustomer(_ context.Context) (out *models.Partner, _ error) {
	s.read(func(st *state) {
		out = first(st.partners, func(x models.Partner) bool { return !x.IsCompany && x.SupplierRank == 0 })
	})
	return out, nil
}

func (s *Store) FindAnyPartner(_ context.Context) (out *models.Partner, _ error) {
	s.read(func(st *state) { out = first(st.partners, always[models.Partner]) })
	return out, nil
}

func (s *Store) CreatePartner(_ context.Context, partner *models.Partner) error {
	s.write(func(st *state) {
		partner.ID = st.id("partner")
		st.partners = append(st.partners, *partner)
	})
	return nil
}

// Products, categories and units

func (s *Store) GetProduct(_ context.Context, id int64) (out *models.Product, _ error) {
	s.read(func(st *state) {
		out = first(st.products, func(x models.Product) bool { return x.ID == id })
	})
	return out, nil
}

func (s *Store) FindProductByName(_ context.Context, name string) (out *models.Product, _ error) {
	s.read(func(st *state) {
		out = first(st.products, func(x models.Product) bool { return x.Name == name })
	})
	return out, nil
}

func (s *Store) FindPosProduct(_ context.Context) (out *models.Product, _ error) {
	s.read(func(st *state) {
		out = first(st.products, func(x models.Product) bool { return x.AvailableInPos })
	})
	return out, nil
}

func (s *Store) FindAnyProduct(_ context.Context) (out *models.Product, _ error) {
	s.read(func(st *state) { out = first(st.products, always[models.Product]) })
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, product *models.Product) error {
	s.write(func(st *state) {
		product.ID = st.id("product")
		st.products = append(st.products, *product)
	})
	return nil
}

func (s *Store) FindCategoryByName(_ context.Context, name string) (out *models.Category, _ error) {
	s.read(func(st *state) {
		out = first(st.categories, func(x models.Category) bool { return x.Name == name })
	})
	return out, nil
}

func (s *Store) FindAnyCategory(_ context.Context) (out *models.Category, _ error) {
	s.read(func(st *state) { out = first(st.categories, always[models.Category]) })
	return out, nil
}

func (s *Store) CreateCategory(_ context.Context, category *models.Category) error {
	s.write(func(st *state) {
		category.ID = st.id("category")
		st.categories = append(st.categories, *category)
	})
	return nil
}

func (s *Store) FindUomByName(_ context.Context, name string) (out *models.Uom, _ error) {
	s.read(func(st *state) {
		out = first(st.uoms, func(x models.Uom) bool { return x.Name == name })
	})
	return out, nil
}

func (s *Store) FindAnyUom(_ context.Context) (out *models.Uom, _ error) {
	s.read(func(st *state) { out = first(st.uoms, always[models.Uom]) })
	return out, nil
}

// Orders, messages and activities

func (s *Store) CreateOrder(_ context.Context, order *models.Order) error {
	s.write(func(st *state) {
		order.ID = st.id("order")
		order.CreatedAt = s.now()
		if order.PosReference == "" {
			order.PosReference = "ORD-" + strconv.FormatInt(order.ID, 10)
		}
		lines := make([]models.OrderLine, len(order.Lines))
		for i := range order.Lines {
			order.Lines[i].ID = st.id("order_line")
			order.Lines[i].OrderID = order.ID
			lines[i] = order.Lines[i]
		}
		stored := *order
		stored.Lines = lines
		st.orders = append(st.orders, stored)
	})
	return nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (out *models.Order, _ error) {
	s.read(func(st *state) {
		out = first(st.orders, func(x models.Order) bool { return x.ID == id })
		if out != nil {
			out.Lines = append([]models.OrderLine(nil), out.Lines...)
		}
	})
	return out, nil
}

func (s *Store) PostMessage(_ context.Context, msg *models.Message) error {
	s.write(func(st *state) {
		msg.ID = st.id("message")
		msg.CreatedAt = s.now()
		st.messages = append(st.messages, *msg)
	})
	return nil
}

func (s *Store) CreateActivity(_ context.Context, activity *models.Activity) error {
	s.write(func(st *state) {
		activity.ID = st.id("activity")
		activity.CreatedAt = s.now()
		st.activities = append(st.activities, *activity)
	})
	return nil
}

// Users and groups

func (s *Store) GetUser(_ context.Context, id int64) (out *models.User, _ error) {
	s.read(func(st *state) {
		out = first(st.users, func(x models.User) bool { return x.ID == id })
	})
	return out, nil
}

func (s *Store) FindUserByLogin(_ context.Context, login string) (out *models.User, _ error) {
	s.read(func(st *state) {
		out = first(st.users, func(x models.User) bool { return x.Login == login })
	})
	return out, nil
}

func (s *Store) ListInternalUsers(_ context.Context, limit int) (out []models.User, _ error) {
	s.read(func(st *state) {
		for _, u := range st.users {
			if limit > 0 && len(out) == limit {
				break
			}
			if u.Internal() {
				out = append(out, u)
			}
		}
	})
	return out, nil
}

func (s *Store) ListSessionUsers(_ context.Context, states []string, limit int) (out []models.User, _ error) {
	s.read(func(st *state) {
		seen := 0
		for i := len(st.sessions) - 1; i >= 0 && seen < limit; i-- {
			session := st.sessions[i]
			if !slices.Contains(states, session.State) {
				continue
			}
			seen++
			if u := first(st.users, func(x models.User) bool { return x.ID == session.UserID }); u != nil {
				out = append(out, *u)
			}
		}
	})
	return out, nil
}

func (s *Store) FindGroup(_ context.Context, xmlID string) (out *models.Group, _ error) {
	s.read(func(st *state) {
		out = first(st.groups, func(x models.Group) bool { return x.XMLID == xmlID })
	})
	return out, nil
}

func (s *Store) ListGroupUsers(_ context.Context, groupID int64) (out []models.User, _ error) {
	s.read(func(st *state) {
		for _, m := range st.members {
			if m.groupID != groupID {
				continue
			}
			if u := first(st.users, func(x models.User) bool { return x.ID == m.userID }); u != nil {
				out = append(out, *u)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListUserGroups(_ context.Context, userID int64) (out []models.Group, _ error) {
	s.read(func(st *state) {
		for _, m := range st.members {
			if m.userID != userID {
				continue
			}
			if g := first(st.groups, func(x models.Group) bool { return x.ID == m.groupID }); g != nil {
				out = append(out, *g)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AddGroupMembers(_ context.Context, groupID int64, userIDs []int64) (added int, _ error) {
	s.write(func(st *state) {
		for _, userID := range userIDs {
			m := membership{groupID: groupID, userID: userID}
			if first(st.members, func(x membership) bool { return x == m }) != nil {
				continue
			}
			st.members = append(st.members, m)
			added++
		}
	})
	return added, nil
}

// Parameters

func (s *Store) GetParam(_ context.Context, key string) (value string, found bool, _ error) {
	s.read(func(st *state) { value, found = st.params[key] })
	return value, found, nil
}

func (s *Store) SetParam(_ context.Context, key, value string) error {
	s.write(func(st *state) { st.params[key] = value })
	return nil
}
