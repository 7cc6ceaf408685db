package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"pos-order-api/internal/models"
	"pos-order-api/internal/store"
	"pos-order-api/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	unknownCustomer     = "Unknown customer"
	activityTypeTodo    = "todo"
	notificationTitle   = "New Ecommerce Order"
	maxSessionRecipient = 50
	maxLastResortUsers  = 10
)

// Payload is the order summary handed to the notification strategies
type Payload struct {
	OrderID     int64
	Reference   string
	PartnerID   int64
	PosName     string
	AmountTotal decimal.Decimal
}

// Strategy is one way of telling staff about a new order. Attempt reports
// false when it ran but reached nobody.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, p Payload) (bool, error)
}

// Notifier tries its strategies in order until one succeeds
type Notifier struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewNotifier creates a notifier over the given strategies
func NewNotifier(strategies ...Strategy) *Notifier {
	return &Notifier{strategies: strategies, logger: util.GetLogger()}
}

// DefaultStrategies returns Broadcast, Grouped, Timeline and Log in that order
func DefaultStrategies(repo store.Repository, bus Bus, adminLogin string) []Strategy {
	return []Strategy{
		NewBroadcastStrategy(repo, bus),
		NewGroupedStrategy(repo, bus, adminLogin),
		NewTimelineStrategy(repo),
		NewLogStrategy(repo),
	}
}

// Notify returns the name of the strategy that succeeded. Failures are
// logged and never returned.
func (n *Notifier) Notify(ctx context.Context, p Payload) (string, bool) {
	ctx, span := util.StartSpan(ctx, "Notifier.Notify")
	defer span.End()

	for _, s := range n.strategies {
		ok, err := s.Attempt(ctx, p)
		switch {
		case err != nil:
			util.NotificationsTotal.WithLabelValues(s.Name(), "error").Inc()
			n.logger.Warn("Notification strategy failed",
				zap.String("strategy", s.Name()),
				zap.String("pos_reference", p.Reference),
				zap.Error(err))
		case !ok:
			util.NotificationsTotal.WithLabelValues(s.Name(), "no_effect").Inc()
			n.logger.Info("Notification strategy reached nobody",
				zap.String("strategy", s.Name()),
				zap.String("pos_reference", p.Reference))
		default:
			util.NotificationsTotal.WithLabelValues(s.Name(), "success").Inc()
			n.logger.Info("Notification sent",
				zap.String("strategy", s.Name()),
				zap.String("pos_reference", p.Reference))
			return s.Name(), true
		}
	}

	n.logger.Error("No notification could be sent", zap.String("pos_reference", p.Reference))
	return "", false
}

var (
	activityNoteTmpl = template.Must(template.New("activity").Parse(
		`<p><strong>New order received from the storefront</strong></p>` +
			`<ul>` +
			`<li><strong>Reference:</strong> {{.Reference}}</li>` +
			`<li><strong>Customer:</strong> {{.Customer}}</li>` +
			`<li><strong>Total:</strong> ${{.Total}}</li>` +
			`<li><strong>Store:</strong> {{.PosName}}</li>` +
			`<li><strong>ID:</strong> {{.OrderID}}</li>` +
			`</ul>`))

	groupedNoteTmpl = template.Must(template.New("grouped").Parse(
		`<div style="background: #e8f5e8; padding: 10px; border-left: 3px solid #28a745;">` +
			`<h4>Ecommerce order processed</h4>` +
			`<p><strong>Ref:</strong> {{.Reference}} | <strong>Customer:</strong> {{.Customer}} | <strong>Total:</strong> ${{.Total}}</p>` +
			`<p>{{.Notified}} user(s) notified</p>` +
			`</div>`))

	timelineNoteTmpl = template.Must(template.New("timeline").Parse(
		`<div style="background: #f0f8ff; padding: 15px; border-left: 4px solid #007bff; margin: 10px 0;">` +
			`<h3 style="color: #007bff; margin: 0 0 10px 0;">New Ecommerce Order</h3>` +
			`<p><strong>Reference:</strong> {{.Reference}}</p>` +
			`<p><strong>Total:</strong> ${{.Total}}</p>` +
			`<p><strong>Order ID:</strong> {{.OrderID}}</p>` +
			`<p style="color: #28a745;"><strong>Order processed successfully</strong></p>` +
			`</div>`))
)

type noteData struct {
	Reference string
	Customer  string
	Total     string
	PosName   string
	OrderID   int64
	Notified  int
}

func render(tmpl *template.Template, data noteData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func noteFor(p Payload, customer string) noteData {
	return noteData{
		Reference: p.Reference,
		Customer:  customer,
		Total:     p.AmountTotal.StringFixed(2),
		PosName:   p.PosName,
		OrderID:   p.OrderID,
	}
}

func customerName(ctx context.Context, repo store.PartnerRepository, partnerID int64) string {
	partner, err := repo.GetPartner(ctx, partnerID)
	if err != nil || partner == nil {
		return unknownCustomer
	}
	return partner.Name
}

func busNotification(p Payload, customer string) models.BusNotification {
	return models.BusNotification{
		Type:    "success",
		Title:   notificationTitle,
		Message: fmt.Sprintf("Order %s - Customer: %s - Total: $%s", p.Reference, customer, p.AmountTotal.StringFixed(2)),
		Sticky:  true,
	}
}

func userActivity(userID int64, summary, note string) *models.Activity {
	return &models.Activity{
		ActivityType: activityTypeTodo,
		Summary:      summary,
		Note:         note,
		ResModel:     models.ModelResUsers,
		ResID:        userID,
		UserID:       userID,
		DateDeadline: time.Now().UTC().Truncate(24 * time.Hour),
	}
}

// BroadcastStrategy pushes a bus message and creates an activity for every
// internal user
type BroadcastStrategy struct {
	repo   store.Repository
	bus    Bus
	logger *zap.Logger
}

// NewBroadcastStrategy creates a new broadcast strategy. bus may be nil.
func NewBroadcastStrategy(repo store.Repository, bus Bus) *BroadcastStrategy {
	return &BroadcastStrategy{repo: repo, bus: bus, logger: util.GetLogger()}
}

// Name returns the metric label of the strategy
func (s *BroadcastStrategy) Name() string { return "broadcast" }

// Attempt succeeds when at least one user was reached
func (s *BroadcastStrategy) Attempt(ctx context.Context, p Payload) (bool, error) {
	n, err := s.Broadcast(ctx, p)
	return n > 0, err
}

// Broadcast returns how many users got both the bus message and the
// activity. Without a bus nobody can be reached and the count is zero.
func (s *BroadcastStrategy) Broadcast(ctx context.Context, p Payload) (int, error) {
	if s.bus == nil {
		s.logger.Warn("No bus configured, broadcast skipped", zap.String("pos_reference", p.Reference))
		return 0, nil
	}

	users, err := s.repo.ListInternalUsers(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list internal users: %w", err)
	}

	customer := customerName(ctx, s.repo, p.PartnerID)
	note, err := render(activityNoteTmpl, noteFor(p, customer))
	if err != nil {
		return 0, err
	}
	message := busNotification(p, customer)
	summary := notificationTitle + ": " + p.Reference

	count := 0
	for _, user := range users {
		if err := s.bus.SendOne(ctx, user.PartnerID, models.BusKindSimpleNotification, message); err != nil {
			s.logger.Warn("Failed to notify user", zap.Int64("user_id", user.ID), zap.Error(err))
			continue
		}
		if err := s.repo.CreateActivity(ctx, userActivity(user.ID, summary, note)); err != nil {
			s.logger.Warn("Failed to create activity", zap.Int64("user_id", user.ID), zap.Error(err))
			continue
		}
		count++
	}

	s.logger.Info("Broadcast notification sent", zap.Int("users", count), zap.String("pos_reference", p.Reference))
	return count, nil
}

// GroupedStrategy notifies the users of the POS and sales roles, widening
// the audience step by step when nobody is found
type GroupedStrategy struct {
	repo       store.Repository
	bus        Bus
	adminLogin string
	logger     *zap.Logger
}

// NewGroupedStrategy creates a new grouped strategy. bus may be nil.
func NewGroupedStrategy(repo store.Repository, bus Bus, adminLogin string) *GroupedStrategy {
	return &GroupedStrategy{repo: repo, bus: bus, adminLogin: adminLogin, logger: util.GetLogger()}
}

// Name returns the metric label of the strategy
func (s *GroupedStrategy) Name() string { return "grouped" }

// Attempt notifies every recipient and notes the order; it reports false
// only when there is nobody to notify
func (s *GroupedStrategy) Attempt(ctx context.Context, p Payload) (bool, error) {
	users := s.Recipients(ctx)
	if len(users) == 0 {
		s.logger.Warn("No users found to notify")
		return false, nil
	}

	customer := customerName(ctx, s.repo, p.PartnerID)
	summary := notificationTitle + ": " + p.Reference
	note := fmt.Sprintf("New order received:\n- Reference: %s\n- Customer: %s\n- Total: $%s\n- Store: %s\n- ID: %d",
		p.Reference, customer, p.AmountTotal.StringFixed(2), p.PosName, p.OrderID)

	for _, user := range users {
		err := s.repo.CreateActivity(ctx, userActivity(user.ID, summary, note))
		if err == nil {
			continue
		}
		s.logger.Error("Failed to create activity, sending bus message instead",
			zap.Int64("user_id", user.ID), zap.Error(err))
		if s.bus == nil {
			continue
		}
		if err := s.bus.SendOne(ctx, user.PartnerID, models.BusKindSimpleNotification, busNotification(p, customer)); err != nil {
			s.logger.Error("Bus notification failed", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	data := noteFor(p, customer)
	data.Notified = len(users)
	if err := postOrderNote(ctx, s.repo, p, "Ecommerce order: "+p.Reference, groupedNoteTmpl, data); err != nil {
		s.logger.Error("Failed to add note to order", zap.Int64("order_id", p.OrderID), zap.Error(err))
	}
	return true, nil
}

// Recipients returns deduplicated active internal users in priority order
func (s *GroupedStrategy) Recipients(ctx context.Context) []models.User {
	var users []models.User
	for _, xmlID := range []string{models.GroupPosManager, models.GroupPosUser, models.GroupSaleSalesman} {
		users = append(users, s.groupUsers(ctx, xmlID)...)
	}

	states := []string{models.SessionStateOpened, models.SessionStateClosingControl, models.SessionStateClosed}
	sessionUsers, err := s.repo.ListSessionUsers(ctx, states, maxSessionRecipient)
	if err != nil {
		s.logger.Warn("Failed to list POS session users", zap.Error(err))
	}
	users = append(users, sessionUsers...)

	if len(users) == 0 {
		users = s.groupUsers(ctx, models.GroupSystem)
	}
	if len(users) == 0 {
		admin, err := s.repo.FindUserByLogin(ctx, s.adminLogin)
		if err != nil {
			s.logger.Warn("Failed to find administrator", zap.Error(err))
		}
		if admin != nil {
			users = append(users, *admin)
		}
	}
	if len(users) == 0 {
		users, err = s.repo.ListInternalUsers(ctx, maxLastResortUsers)
		if err != nil {
			s.logger.Warn("Failed to list internal users", zap.Error(err))
		}
	}

	seen := make(map[int64]bool, len(users))
	unique := make([]models.User, 0, len(users))
	for _, user := range users {
		if !user.Internal() || seen[user.ID] {
			continue
		}
		seen[user.ID] = true
		unique = append(unique, user)
	}
	return unique
}

func (s *GroupedStrategy) groupUsers(ctx context.Context, xmlID string) []models.User {
	group, err := s.repo.FindGroup(ctx, xmlID)
	if err != nil || group == nil {
		s.logger.Warn("Group not available", zap.String("group", xmlID), zap.Error(err))
		return nil
	}
	users, err := s.repo.ListGroupUsers(ctx, group.ID)
	if err != nil {
		s.logger.Warn("Failed to list group users", zap.String("group", xmlID), zap.Error(err))
		return nil
	}
	return users
}

// TimelineStrategy appends a note to the order's own timeline
type TimelineStrategy struct {
	repo store.Repository
}

// NewTimelineStrategy creates a new timeline strategy
func NewTimelineStrategy(repo store.Repository) *TimelineStrategy {
	return &TimelineStrategy{repo: repo}
}

// Name returns the metric label of the strategy
func (s *TimelineStrategy) Name() string { return "timeline" }

// Attempt reports false when the order does not exist
func (s *TimelineStrategy) Attempt(ctx context.Context, p Payload) (bool, error) {
	order, err := s.repo.GetOrder(ctx, p.OrderID)
	if err != nil {
		return false, err
	}
	if order == nil {
		return false, nil
	}
	err = postOrderNote(ctx, s.repo, p, "New Ecommerce Order: "+p.Reference, timelineNoteTmpl, noteFor(p, ""))
	return err == nil, err
}

func postOrderNote(ctx context.Context, repo store.Repository, p Payload, subject string, tmpl *template.Template, data noteData) error {
	order, err := repo.GetOrder(ctx, p.OrderID)
	if err != nil || order == nil {
		return err
	}

	body, err := render(tmpl, data)
	if err != nil {
		return err
	}
	return repo.PostMessage(ctx, &models.Message{
		ResModel:    models.ModelPosOrder,
		ResID:       order.ID,
		Subject:     subject,
		Body:        body,
		MessageType: "comment",
	})
}

// LogStrategy only writes a log line; it always succeeds
type LogStrategy struct {
	repo   store.PartnerRepository
	logger *zap.Logger
}

// NewLogStrategy creates a new log strategy
func NewLogStrategy(repo store.PartnerRepository) *LogStrategy {
	return &LogStrategy{repo: repo, logger: util.GetLogger()}
}

// Name returns the metric label of the strategy
func (s *LogStrategy) Name() string { return "log" }

// Attempt always succeeds
func (s *LogStrategy) Attempt(ctx context.Context, p Payload) (bool, error) {
	s.logger.Info("New ecommerce order",
		zap.String("pos_reference", p.Reference),
		zap.String("customer", customerName(ctx, s.repo, p.PartnerID)),
		zap.String("amount_total", p.AmountTotal.StringFixed(2)),
		zap.String("pos_name", p.PosName),
		zap.Int64("order_id", p.OrderID))
	return true, nil
}
