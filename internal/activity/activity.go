// Package activity records what the user did during a session: logins,
// checkouts, cancellations. Events are best-effort; emitting never blocks or
// fails a state transition.
package activity

import (
	"context"
	"time"

	"forkful/pkg/requestcontext"
)

// Action names a user-visible outcome.
type Action string

const (
	ActionLogin            Action = "login"
	ActionRegister         Action = "register"
	ActionLogout           Action = "logout"
	ActionSessionExpired   Action = "session_expired"
	ActionProfileUpdated   Action = "profile_updated"
	ActionPasswordChanged  Action = "password_changed"
	ActionReviewCreated    Action = "review_created"
	ActionCartCleared      Action = "cart_cleared"
	ActionOrderCreated     Action = "order_created"
	ActionOrderCancelled   Action = "order_cancelled"
	ActionPaymentProcessed Action = "payment_processed"
	ActionRefundRequested  Action = "refund_requested"
)

// Event is one entry of the activity trail.
type Event struct {
	Action       Action    `json:"action"`
	UserID       string    `json:"user_id,omitempty"`
	OrderID      int       `json:"order_id,omitempty"`
	RestaurantID int       `json:"restaurant_id,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Detail       string    `json:"detail,omitempty"`
}

// Publisher accepts events.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Sink persists or forwards a batch of events.
type Sink interface {
	Write(ctx context.Context, events []Event) error
}

// stamp fills Timestamp and RequestID from ctx when unset.
func stamp(ctx context.Context, event Event) Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	return event
}

type discard struct{}

func (discard) Emit(context.Context, Event) error { return nil }

// Discard drops every event.
var Discard Publisher = discard{}
