// Package service orchestrates the subscription workflow: creating pending
// subscribers together with their confirmation tokens, dispatching
// confirmation emails, and promoting subscribers on confirmation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bulletin/internal/audit"
	"bulletin/internal/platform/metrics"
	"bulletin/internal/platform/middleware"
	"bulletin/internal/subscription/models"
	"bulletin/internal/subscription/token"
	dErrors "bulletin/pkg/domain-errors"
	"bulletin/pkg/platform/sentinel"
)

// Store is the persistence surface the service depends on. Implementations
// joining a context-carried transaction must apply CreatePendingSubscriber
// and AttachToken within it.
type Store interface {
	CreatePendingSubscriber(ctx context.Context, sub *models.Subscriber) error
	AttachToken(ctx context.Context, confirmationToken string, id models.SubscriberID) error
	FindSubscriberIDByToken(ctx context.Context, confirmationToken string) (models.SubscriberID, error)
	MarkConfirmed(ctx context.Context, id models.SubscriberID) error
	List(ctx context.Context) ([]*models.Subscriber, error)
}

// TxRunner executes a closure inside a single unit of work.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EmailSender delivers a single email with both HTML and plain-text bodies.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// Service implements the subscription workflow.
type Service struct {
	store   Store
	txr     TxRunner
	sender  EmailSender
	audit   *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	baseURL string
	tracer  trace.Tracer
}

// New constructs a subscription service. baseURL is the public address of
// this application, used to build confirmation links.
func New(store Store, txr TxRunner, sender EmailSender, publisher *audit.Publisher, m *metrics.Metrics, logger *slog.Logger, baseURL string) *Service {
	return &Service{
		store:   store,
		txr:     txr,
		sender:  sender,
		audit:   publisher,
		metrics: m,
		logger:  logger,
		baseURL: baseURL,
		tracer:  otel.Tracer("bulletin/subscription"),
	}
}

// Subscribe registers a new pending subscriber and sends the confirmation
// email. The subscriber row and its token are written in one transaction;
// the email is dispatched only after that transaction commits. A dispatch
// failure leaves the committed subscriber in place and is reported to the
// caller, who may retry by subscribing again.
func (s *Service) Subscribe(ctx context.Context, email, name string) error {
	ctx, span := s.tracer.Start(ctx, "subscription.subscribe")
	defer span.End()

	newSub, err := models.ParseNewSubscriber(email, name)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("subscriber.email", newSub.Email()))

	sub := &models.Subscriber{
		ID:           models.NewSubscriberID(),
		Email:        newSub.Email(),
		Name:         newSub.Name(),
		SubscribedAt: time.Now().UTC(),
		Status:       models.StatusPendingConfirmation,
	}

	var confirmationToken string
	err = s.txr.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreatePendingSubscriber(ctx, sub); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store subscriber")
		}
		generated, genErr := token.Generate()
		if genErr != nil {
			return dErrors.Wrap(genErr, dErrors.CodeInternal, "failed to generate confirmation token")
		}
		confirmationToken = generated
		if err := s.store.AttachToken(ctx, confirmationToken, sub.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store confirmation token")
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to register subscriber",
			"email", sub.Email,
			"error", err,
		)
		return err
	}

	s.metrics.IncrementSubscribersCreated()
	s.audit.Emit(ctx, audit.Event{
		Action:       audit.ActionSubscriptionRequested,
		SubscriberID: sub.ID.String(),
		Email:        sub.Email,
		RequestID:    middleware.GetRequestID(ctx),
	})
	s.logger.InfoContext(ctx, "pending subscriber registered",
		"subscriber_id", sub.ID,
	)

	if err := s.sendConfirmation(ctx, sub, confirmationToken); err != nil {
		s.metrics.IncrementEmailDispatchFailed()
		s.audit.Emit(ctx, audit.Event{
			Action:       audit.ActionEmailDispatchFailed,
			SubscriberID: sub.ID.String(),
			Email:        sub.Email,
			RequestID:    middleware.GetRequestID(ctx),
		})
		s.logger.ErrorContext(ctx, "failed to dispatch confirmation email",
			"subscriber_id", sub.ID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeDispatchFailed, "failed to send confirmation email")
	}

	return nil
}

// Confirm promotes the subscriber identified by confirmationToken to
// confirmed. Unknown tokens are rejected as unauthorized; confirming an
// already confirmed subscriber succeeds.
func (s *Service) Confirm(ctx context.Context, confirmationToken string) error {
	ctx, span := s.tracer.Start(ctx, "subscription.confirm")
	defer span.End()

	id, err := s.store.FindSubscriberIDByToken(ctx, confirmationToken)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "confirmation token not recognized")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up confirmation token")
	}
	span.SetAttributes(attribute.String("subscriber.id", id.String()))

	if err := s.store.MarkConfirmed(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Token row exists but the subscriber is gone. Treat like an
			// unknown token rather than leaking storage state.
			return dErrors.New(dErrors.CodeUnauthorized, "confirmation token not recognized")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to confirm subscriber")
	}

	s.metrics.IncrementSubscribersConfirmed()
	s.audit.Emit(ctx, audit.Event{
		Action:       audit.ActionSubscriptionConfirmed,
		SubscriberID: id.String(),
		RequestID:    middleware.GetRequestID(ctx),
	})
	s.logger.InfoContext(ctx, "subscriber confirmed",
		"subscriber_id", id,
	)
	return nil
}

// List returns all subscribers, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Subscriber, error) {
	ctx, span := s.tracer.Start(ctx, "subscription.list")
	defer span.End()

	subs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list subscribers")
	}
	return subs, nil
}

func (s *Service) sendConfirmation(ctx context.Context, sub *models.Subscriber, confirmationToken string) error {
	link, err := s.confirmationLink(confirmationToken)
	if err != nil {
		return err
	}

	htmlBody := fmt.Sprintf(
		"Welcome to our newsletter!<br />Click <a href=%q>here</a> to confirm your subscription.",
		link,
	)
	textBody := fmt.Sprintf(
		"Welcome to our newsletter!\nVisit %s to confirm your subscription.",
		link,
	)
	return s.sender.Send(ctx, sub.Email, "Welcome!", htmlBody, textBody)
}

// confirmationLink builds <baseURL>/confirm?token=<t>.
func (s *Service) confirmationLink(confirmationToken string) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", s.baseURL, err)
	}
	u = u.JoinPath("confirm")
	q := u.Query()
	q.Set("token", confirmationToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
