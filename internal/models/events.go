package models

import "time"

// Event types
const (
	EventTypeOrderCreated  = "ORDER_CREATED"
	EventTypeOrderFallback = "ORDER_FALLBACK"
	EventTypeUserCreated   = "USER_CREATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published after an order commits, emergency orders included
type OrderCreatedEvent struct {
	BaseEvent
	OrderID      int64   `json:"order_id"`
	PosReference string  `json:"pos_reference"`
	SessionID    int64   `json:"session_id"`
	PartnerID    int64   `json:"partner_id"`
	PosName      string  `json:"pos_name"`
	AmountTotal  float64 `json:"amount_total"`
	Warning      string  `json:"warning,omitempty"`
}

// UserCreatedEvent is consumed when the user directory creates a user
type UserCreatedEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
}

// BusNotification is the payload pushed to a user's live session
type BusNotification struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Sticky  bool   `json:"sticky"`
}

// BusMessage wraps a notification with its channel kind
type BusMessage struct {
	Kind    string          `json:"kind"`
	Payload BusNotification `json:"payload"`
}

// Bus message kinds
const BusKindSimpleNotification = "simple_notification"
