package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pos-order-api/internal/models"
	"pos-order-api/internal/store"
	"pos-order-api/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	posNamePrefix  = "ECommerce "
	unknownPosName = "Unknown"
)

// OrderService handles order business logic
type OrderService struct {
	repo           store.Repository
	resolver       *Resolver
	persister      *Persister
	notifier       *Notifier
	eventPublisher EventPublisher
	defaultPosName string
	logger         *zap.Logger
}

// NewOrderService creates a new order service. eventPublisher may be nil.
func NewOrderService(
	repo store.Repository,
	resolver *Resolver,
	persister *Persister,
	notifier *Notifier,
	eventPublisher EventPublisher,
	defaultPosName string,
) *OrderService {
	return &OrderService{
		repo:           repo,
		resolver:       resolver,
		persister:      persister,
		notifier:       notifier,
		eventPublisher: eventPublisher,
		defaultPosName: defaultPosName,
		logger:         util.GetLogger(),
	}
}

// CreateOrderRequest represents a storefront order
type CreateOrderRequest struct {
	PosName      *string          `json:"pos_name"`
	PartnerID    *int64           `json:"partner_id"`
	AmountTax    *decimal.Decimal `json:"amount_tax"`
	AmountPaid   *decimal.Decimal `json:"amount_paid"`
	AmountReturn *decimal.Decimal `json:"amount_return"`
	PricelistID  *int64           `json:"pricelist_id"`
	Lines        []LineInput      `json:"lines"`
}

// CalculatedTotals are the order amounts echoed back to the caller
type CalculatedTotals struct {
	AmountTotal  float64 `json:"amount_total"`
	AmountPaid   float64 `json:"amount_paid"`
	AmountTax    float64 `json:"amount_tax"`
	AmountReturn float64 `json:"amount_return"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	Success          bool              `json:"success"`
	OrderID          int64             `json:"order_id"`
	PosReference     string            `json:"pos_reference"`
	SessionID        int64             `json:"session_id"`
	PartnerID        int64             `json:"partner_id"`
	PosName          string            `json:"pos_name"`
	CalculatedTotals *CalculatedTotals `json:"calculated_totals,omitempty"`
	Warning          string            `json:"warning,omitempty"`
	OriginalError    string            `json:"original_error,omitempty"`
}

// posName maps the requested store to a POS configuration name
func (s *OrderService) posName(req *CreateOrderRequest) string {
	if req.PosName != nil {
		return posNamePrefix + *req.PosName
	}
	return s.defaultPosName
}

// CreateOrder validates, resolves, assembles and persists one order in a
// single transaction, then publishes the event and notifies staff.
//
// Entities created while resolving are committed even when a product
// cannot be resolved and the request fails.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderCreationLatency.Observe(time.Since(start).Seconds())
	}()

	if err := ValidateLines(req.Lines); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	lines, totals := Assemble(req.Lines, Overrides{
		AmountTax:    req.AmountTax,
		AmountPaid:   req.AmountPaid,
		AmountReturn: req.AmountReturn,
	})

	var (
		result     *PersistResult
		posName    string
		unresolved error
	)
	err := s.repo.Execute(ctx, func(ctx context.Context) error {
		session := s.resolver.ResolveSession(ctx, s.posName(req))
		partner := s.resolver.ResolvePartner(ctx, req.PartnerID)

		for i, in := range req.Lines {
			product := s.resolver.ResolveProduct(ctx, in.ProductName, in.PriceUnit)
			if product.Outcome == OutcomeFailed {
				unresolved = fmt.Errorf("%w: %s", ErrProductUnresolved, in.ProductName)
				return nil
			}
			lines[i].ProductID = product.ID
		}

		order := &models.Order{
			PartnerID:    partner.ID,
			SessionID:    session.ID,
			AmountTotal:  totals.AmountTotal,
			AmountTax:    totals.AmountTax,
			AmountPaid:   totals.AmountPaid,
			AmountReturn: totals.AmountReturn,
			Lines:        lines,
		}
		if req.PricelistID != nil {
			order.PricelistID = sql.NullInt64{Int64: *req.PricelistID, Valid: true}
		}

		var err error
		result, err = s.persister.Persist(ctx, order)
		if err != nil {
			return err
		}

		posName = fallbackPosName
		if !result.Emergency() {
			posName = s.sessionPosName(ctx, result.SessionID)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create POS order", zap.Error(err))
		return nil, err
	}
	if unresolved != nil {
		util.OrdersFailedTotal.WithLabelValues("product_unresolved").Inc()
		s.logger.Error("Order rejected", zap.Error(unresolved))
		return nil, unresolved
	}

	resp := &CreateOrderResponse{
		Success:      true,
		OrderID:      result.OrderID,
		PosReference: result.Reference,
		SessionID:    result.SessionID,
		PartnerID:    result.PartnerID,
		PosName:      posName,
	}

	afterCommit := context.WithoutCancel(ctx)
	if result.Emergency() {
		resp.Warning = result.Warning
		resp.OriginalError = result.OriginalError
		s.publish(afterCommit, models.EventTypeOrderFallback, resp, decimal.Zero)
		return resp, nil
	}

	resp.CalculatedTotals = &CalculatedTotals{
		AmountTotal:  totals.AmountTotal.InexactFloat64(),
		AmountPaid:   totals.AmountPaid.InexactFloat64(),
		AmountTax:    totals.AmountTax.InexactFloat64(),
		AmountReturn: totals.AmountReturn.InexactFloat64(),
	}
	s.publish(afterCommit, models.EventTypeOrderCreated, resp, totals.AmountTotal)

	if s.notifier != nil {
		s.notifier.Notify(afterCommit, Payload{
			OrderID:     resp.OrderID,
			Reference:   resp.PosReference,
			PartnerID:   resp.PartnerID,
			PosName:     resp.PosName,
			AmountTotal: totals.AmountTotal,
		})
	}
	return resp, nil
}

func (s *OrderService) sessionPosName(ctx context.Context, sessionID int64) string {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil || session == nil {
		return unknownPosName
	}
	cfg, err := s.repo.GetPosConfig(ctx, session.ConfigID)
	if err != nil || cfg == nil {
		return unknownPosName
	}
	return cfg.Name
}

// publish is best-effort: the order is already committed
func (s *OrderService) publish(ctx context.Context, eventType string, resp *CreateOrderResponse, total decimal.Decimal) {
	if s.eventPublisher == nil {
		return
	}

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now(),
		},
		OrderID:      resp.OrderID,
		PosReference: resp.PosReference,
		SessionID:    resp.SessionID,
		PartnerID:    resp.PartnerID,
		PosName:      resp.PosName,
		AmountTotal:  total.InexactFloat64(),
		Warning:      resp.Warning,
	}

	if err := s.eventPublisher.PublishOrderEvent(ctx, event); err != nil {
		util.EventsPublishedTotal.WithLabelValues(eventType, "error").Inc()
		s.logger.Error("Failed to publish order event",
			zap.String("event_type", eventType),
			zap.Int64("order_id", resp.OrderID),
			zap.Error(err))
		return
	}
	util.EventsPublishedTotal.WithLabelValues(eventType, "success").Inc()
}
