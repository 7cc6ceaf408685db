package service

import (
	"context"
	"errors"
	"fmt"

	"pos-order-api/internal/models"
	"pos-order-api/internal/store"
	"pos-order-api/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	fallbackPosName     = "Fallback"
	fallbackWarning     = "Order created with fallback data due to errors in normal creation"
	emergencyNotePrefix = "Emergency order - original error: "
	originalErrorMaxLen = 100
)

// PersistResult describes the order that was written
type PersistResult struct {
	OrderID       int64
	Reference     string
	SessionID     int64
	PartnerID     int64
	Outcome       Outcome
	Warning       string
	OriginalError string
}

// Emergency reports whether the minimal fallback order was written
func (r *PersistResult) Emergency() bool {
	return r.Outcome == OutcomeFellBack
}

// Persister writes assembled orders
type Persister struct {
	repo   store.Repository
	logger *zap.Logger
}

// NewPersister creates a new persister
func NewPersister(repo store.Repository) *Persister {
	return &Persister{repo: repo, logger: util.GetLogger()}
}

// Persist writes the order and its lines inside a savepoint. If that fails,
// a single zero-value line order is written against the sentinel partner
// and session instead, annotated with the original error. An error is
// returned only when both attempts fail.
func (p *Persister) Persist(ctx context.Context, order *models.Order) (*PersistResult, error) {
	ctx, span := util.StartSpan(ctx, "Persister.Persist")
	defer span.End()

	err := p.repo.Savepoint(ctx, "create_pos_order", func(ctx context.Context) error {
		return p.repo.CreateOrder(ctx, order)
	})
	if err == nil {
		util.OrdersCreatedTotal.WithLabelValues("normal").Inc()
		p.logger.Info("Order created",
			zap.Int64("order_id", order.ID),
			zap.String("pos_reference", order.PosReference))
		return &PersistResult{
			OrderID:   order.ID,
			Reference: order.PosReference,
			SessionID: order.SessionID,
			PartnerID: order.PartnerID,
			Outcome:   OutcomeCreated,
		}, nil
	}

	p.logger.Error("Order creation failed, trying emergency order", zap.Error(err))

	result, fbErr := p.emergency(ctx, err)
	if fbErr != nil {
		util.OrdersFailedTotal.WithLabelValues("persist").Inc()
		p.logger.Error("Emergency order failed", zap.Error(fbErr))
		return nil, fmt.Errorf("%w (emergency order failed: %v)", err, fbErr)
	}

	util.OrdersCreatedTotal.WithLabelValues("emergency").Inc()
	return result, nil
}

func (p *Persister) emergency(ctx context.Context, cause error) (*PersistResult, error) {
	product, err := p.repo.FindPosProduct(ctx)
	if err == nil && product == nil {
		product, err = p.repo.FindAnyProduct(ctx)
	}
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("no product available for an emergency order")
	}

	order := &models.Order{
		PartnerID:    models.SentinelID,
		SessionID:    models.SentinelID,
		AmountTotal:  decimal.Zero,
		AmountTax:    decimal.Zero,
		AmountPaid:   decimal.Zero,
		AmountReturn: decimal.Zero,
		Lines: []models.OrderLine{{
			ProductID:         product.ID,
			Qty:               decimal.NewFromInt(1),
			PriceUnit:         decimal.Zero,
			Discount:          decimal.Zero,
			PriceSubtotal:     decimal.Zero,
			PriceSubtotalIncl: decimal.Zero,
			CustomerNote:      emergencyNotePrefix + truncate(cause.Error(), originalErrorMaxLen),
		}},
	}

	err = p.repo.Savepoint(ctx, "create_emergency_order", func(ctx context.Context) error {
		return p.repo.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Warn("Emergency order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("product_id", product.ID))
	return &PersistResult{
		OrderID:       order.ID,
		Reference:     fmt.Sprintf("ORD-FALLBACK-%d", order.ID),
		SessionID:     order.SessionID,
		PartnerID:     order.PartnerID,
		Outcome:       OutcomeFellBack,
		Warning:       fallbackWarning,
		OriginalError: cause.Error(),
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
