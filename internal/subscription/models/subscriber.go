package models

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates the states a subscriber can be in. The only legal
// transition is StatusPendingConfirmation -> StatusConfirmed.
type Status string

const (
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusConfirmed           Status = "confirmed"
)

// SubscriberID identifies a subscriber. It is randomly generated at creation
// and never derived from the email address.
type SubscriberID uuid.UUID

// NewSubscriberID returns a fresh random subscriber ID.
func NewSubscriberID() SubscriberID {
	return SubscriberID(uuid.New())
}

// ParseSubscriberID constructs a SubscriberID from its string form.
func ParseSubscriberID(s string) (SubscriberID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return SubscriberID{}, err
	}
	return SubscriberID(id), nil
}

func (id SubscriberID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the ID is the zero value.
func (id SubscriberID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// Subscriber is a mailing-list member. Rows are created in
// StatusPendingConfirmation and mutated only by the confirm workflow.
type Subscriber struct {
	ID           SubscriberID `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	SubscribedAt time.Time    `json:"subscribed_at"`
	Status       Status       `json:"status"`
}

// MarshalJSON renders the ID in its canonical string form.
func (id SubscriberID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON parses the canonical string form.
func (id *SubscriberID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseSubscriberID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
