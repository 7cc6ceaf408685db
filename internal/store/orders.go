package store

import (
	"context"
	"fmt"

	"pos-order-api/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateOrder creates an order with its lines
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO pos_order (
			pos_reference, partner_id, session_id, pricelist_id,
			amount_total, amount_tax, amount_paid, amount_return
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	row := s.ext(ctx).QueryRowxContext(ctx, query,
		order.PosReference, order.PartnerID, order.SessionID, order.PricelistID,
		order.AmountTotal, order.AmountTax, order.AmountPaid, order.AmountReturn)
	if err := row.Scan(&order.ID, &order.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if order.PosReference == "" {
		order.PosReference = fmt.Sprintf("ORD-%d", order.ID)
		if _, err := s.exec(ctx, "UPDATE pos_order SET pos_reference = $1 WHERE id = $2",
			order.PosReference, order.ID); err != nil {
			return fmt.Errorf("failed to set order reference: %w", err)
		}
	}

	lineQuery := `
		INSERT INTO pos_order_line (
			order_id, product_id, qty, price_unit, discount,
			price_subtotal, price_subtotal_incl, customer_note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		if err := s.insert(ctx, &line.ID, lineQuery,
			line.OrderID, line.ProductID, line.Qty, line.PriceUnit, line.Discount,
			line.PriceSubtotal, line.PriceSubtotalIncl, line.CustomerNote); err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	return nil
}

// GetOrder retrieves an order and its lines
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	found, err := s.get(ctx, &order, "SELECT * FROM pos_order WHERE id = $1", id)
	if err != nil || !found {
		return nil, err
	}

	if err := s.selectAll(ctx, &order.Lines,
		"SELECT * FROM pos_order_line WHERE order_id = $1 ORDER BY id", id); err != nil {
		return nil, err
	}
	return &order, nil
}

// PostMessage appends a message to a record's timeline
func (s *Store) PostMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO mail_message (res_model, res_id, subject, body, message_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return sqlx.GetContext(ctx, s.ext(ctx), msg, query, msg.ResModel, msg.ResID, msg.Subject, msg.Body, msg.MessageType)
}

// CreateActivity creates a to-do for a user
func (s *Store) CreateActivity(ctx context.Context, activity *models.Activity) error {
	query := `
		INSERT INTO mail_activity (activity_type, summary, note, res_model, res_id, user_id, date_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return sqlx.GetContext(ctx, s.ext(ctx), activity, query,
		activity.ActivityType, activity.Summary, activity.Note,
		activity.ResModel, activity.ResID, activity.UserID, activity.DateDeadline)
}
