package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions recorded for the subscription lifecycle.
const (
	ActionSubscriptionRequested = "subscription.requested"
	ActionSubscriptionConfirmed = "subscription.confirmed"
	ActionEmailDispatchFailed   = "subscription.email_failed"
)

// Event is one append-only audit record. Email is the only potentially
// sensitive field; it is stored so operators can answer "what happened to
// this address" questions.
type Event struct {
	ID           uuid.UUID
	Action       string
	SubscriberID string
	Email        string
	RequestID    string
	Timestamp    time.Time
}

// Store is the persistence sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
