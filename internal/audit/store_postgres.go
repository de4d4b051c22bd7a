package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore appends audit events to the subscription_audit table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscription_audit (id, action, subscriber_id, email, request_id, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID.String(), event.Action, event.SubscriberID, event.Email, event.RequestID, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
