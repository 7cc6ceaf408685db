package service

import (
	"context"

	"pos-order-api/internal/models"
)

// ProductCache maps full product names to product ids.
type ProductCache interface {
	GetProductID(ctx context.Context, name string) (int64, bool, error)
	SetProductID(ctx context.Context, name string, id int64) error
	ForgetProduct(ctx context.Context, name string) error
}

// Bus pushes transient notifications to a partner's live session.
type Bus interface {
	SendOne(ctx context.Context, partnerID int64, kind string, payload models.BusNotification) error
}

// EventPublisher emits order events once the order is committed.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event *models.OrderCreatedEvent) error
}
