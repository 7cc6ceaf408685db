package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"pos-order-api/internal/models"
	"pos-order-api/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher writes keyed events; Producer implements it
type Publisher interface {
	PublishEvent(ctx context.Context, key, eventType string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer Publisher
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer Publisher) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderEvent publishes an ORDER_CREATED or ORDER_FALLBACK event
// keyed by order id
func (ep *EventPublisher) PublishOrderEvent(ctx context.Context, event *models.OrderCreatedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event.EventType, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onUserCreated func(context.Context, *models.UserCreatedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnUserCreated registers a handler for UserCreated events
func (eh *EventHandler) OnUserCreated(handler func(context.Context, *models.UserCreatedEvent) error) {
	eh.onUserCreated = handler
}

// HandleMessage routes messages to appropriate handlers. Messages whose
// event type header names an unhandled type are skipped undecoded.
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	if eventType, ok := headerValue(msg, EventTypeHeader); ok && eventType != models.EventTypeUserCreated {
		return nil
	}

	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger := util.GetLogger()
	logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeUserCreated:
		if eh.onUserCreated != nil {
			var event models.UserCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal UserCreated event: %w", err)
			}
			return eh.onUserCreated(ctx, &event)
		}

	default:
		logger.Debug("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}

func headerValue(msg kafka.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}
