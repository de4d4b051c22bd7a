package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"bulletin/internal/subscription/models"
	"bulletin/pkg/platform/sentinel"
	txcontext "bulletin/pkg/platform/tx"
)

// PostgresStore persists subscribers and confirmation tokens in PostgreSQL.
// Mutations executed inside a transaction carried by the context join that
// transaction; otherwise they run against the pool directly.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed subscriber store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// CreatePendingSubscriber writes a subscriber row. The caller supplies the
// fully populated model; no column is defaulted by the database.
func (s *PostgresStore) CreatePendingSubscriber(ctx context.Context, sub *models.Subscriber) error {
	if sub == nil {
		return fmt.Errorf("subscriber is required")
	}
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		sub.ID.String(), sub.Email, sub.Name, sub.SubscribedAt, string(sub.Status),
	)
	if err != nil {
		return fmt.Errorf("insert subscriber: %w", translateError(err))
	}
	return nil
}

// AttachToken writes the confirmation token row for a subscriber. Must run in
// the same transaction as CreatePendingSubscriber so the pairing is atomic.
func (s *PostgresStore) AttachToken(ctx context.Context, confirmationToken string, id models.SubscriberID) error {
	_, err := s.execer(ctx).ExecContext(ctx,
		`INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		 VALUES ($1, $2)`,
		confirmationToken, id.String(),
	)
	if err != nil {
		return fmt.Errorf("insert confirmation token: %w", translateError(err))
	}
	return nil
}

// FindSubscriberIDByToken resolves a confirmation token to its subscriber.
// Returns sentinel.ErrNotFound when the token is unknown; storage failures
// surface as distinct errors.
func (s *PostgresStore) FindSubscriberIDByToken(ctx context.Context, confirmationToken string) (models.SubscriberID, error) {
	var raw string
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1`,
		confirmationToken,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SubscriberID{}, sentinel.ErrNotFound
		}
		return models.SubscriberID{}, fmt.Errorf("find subscriber by token: %w", err)
	}

	id, err := models.ParseSubscriberID(raw)
	if err != nil {
		return models.SubscriberID{}, fmt.Errorf("parse subscriber id %q: %w", raw, err)
	}
	return id, nil
}

// MarkConfirmed promotes a subscriber to confirmed. Re-confirming an already
// confirmed subscriber is not an error.
func (s *PostgresStore) MarkConfirmed(ctx context.Context, id models.SubscriberID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE subscriptions SET status = $1 WHERE id = $2`,
		string(models.StatusConfirmed), id.String(),
	)
	if err != nil {
		return fmt.Errorf("mark confirmed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark confirmed rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// List returns all subscribers, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Subscriber, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT id, email, name, subscribed_at, status
		 FROM subscriptions ORDER BY subscribed_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []*models.Subscriber
	for rows.Next() {
		var (
			rawID  string
			sub    models.Subscriber
			status string
		)
		if err := rows.Scan(&rawID, &sub.Email, &sub.Name, &sub.SubscribedAt, &status); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		id, err := models.ParseSubscriberID(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse subscriber id %q: %w", rawID, err)
		}
		sub.ID = id
		sub.Status = models.Status(status)
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return subs, nil
}

// translateError maps Postgres constraint violations onto sentinel errors so
// services never match on driver-specific error text.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503", "23505": // foreign_key_violation, unique_violation
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pqErr.Code)
		}
	}
	return err
}
