package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bulletin/internal/subscription/models"
	"bulletin/internal/subscription/store"
	"bulletin/pkg/platform/sentinel"
)

func newPendingSubscriber(email string) *models.Subscriber {
	return &models.Subscriber{
		ID:           models.NewSubscriberID(),
		Email:        email,
		Name:         "Ursula le Guin",
		SubscribedAt: time.Now().UTC(),
		Status:       models.StatusPendingConfirmation,
	}
}

func TestMemoryStoreCreateAndFindByToken(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	sub := newPendingSubscriber("ursula@example.com")

	err := s.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.CreatePendingSubscriber(ctx, sub); err != nil {
			return err
		}
		return s.AttachToken(ctx, "tokentokentokentokentoken", sub.ID)
	})
	require.NoError(t, err)

	id, err := s.FindSubscriberIDByToken(ctx, "tokentokentokentokentoken")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, id)

	stored, ok := s.Get(sub.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusPendingConfirmation, stored.Status)
}

func TestMemoryStoreRollbackDiscardsAllWrites(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	sub := newPendingSubscriber("ursula@example.com")
	boom := errors.New("attach failed")

	err := s.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.CreatePendingSubscriber(ctx, sub); err != nil {
			return err
		}
		// Simulated token-attachment failure after a successful insert.
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, ok := s.Get(sub.ID)
	assert.False(t, ok, "rolled-back subscriber must not be observable")
	assert.Zero(t, s.TokenCount())

	subs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestMemoryStoreUnknownTokenIsNotFound(t *testing.T) {
	s := store.NewMemory()
	_, err := s.FindSubscriberIDByToken(context.Background(), "gibberish")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreAttachTokenRequiresSubscriber(t *testing.T) {
	s := store.NewMemory()
	err := s.AttachToken(context.Background(), "sometoken", models.NewSubscriberID())
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestMemoryStoreMarkConfirmedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	sub := newPendingSubscriber("ursula@example.com")
	require.NoError(t, s.CreatePendingSubscriber(ctx, sub))

	require.NoError(t, s.MarkConfirmed(ctx, sub.ID))
	require.NoError(t, s.MarkConfirmed(ctx, sub.ID))

	stored, ok := s.Get(sub.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
}

func TestMemoryStoreDuplicateEmailsCreateIndependentRows(t *testing.T) {
	// Email uniqueness is deliberately not enforced by the storage layer.
	ctx := context.Background()
	s := store.NewMemory()

	first := newPendingSubscriber("same@example.com")
	second := newPendingSubscriber("same@example.com")
	require.NoError(t, s.CreatePendingSubscriber(ctx, first))
	require.NoError(t, s.CreatePendingSubscriber(ctx, second))

	subs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
	assert.NotEqual(t, subs[0].ID, subs[1].ID)
}
