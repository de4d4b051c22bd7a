package store

import (
	"context"
	"sort"
	"sync"

	"bulletin/internal/subscription/models"
	"bulletin/pkg/platform/sentinel"
)

// MemoryStore is an in-memory subscriber store for tests and local runs. Its
// RunInTx stages writes on copies of the maps and swaps them in only on
// success, giving the same all-or-nothing visibility as a SQL transaction.
type MemoryStore struct {
	mu          sync.Mutex
	subscribers map[models.SubscriberID]models.Subscriber
	tokens      []tokenRow
}

// tokenRow mirrors the subscription_tokens table: tokens are not
// deduplicated, matching the storage layer's lack of a uniqueness constraint.
type tokenRow struct {
	token        string
	subscriberID models.SubscriberID
}

type memStaging struct {
	subscribers map[models.SubscriberID]models.Subscriber
	tokens      []tokenRow
}

type memTxKey struct{}

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[models.SubscriberID]models.Subscriber),
	}
}

// RunInTx executes fn against a staged copy of the store. The staging is
// published only when fn returns nil; on error every staged write is
// discarded, so no partially created subscriber is ever observable.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staging := &memStaging{
		subscribers: make(map[models.SubscriberID]models.Subscriber, len(s.subscribers)),
		tokens:      append([]tokenRow(nil), s.tokens...),
	}
	for id, sub := range s.subscribers {
		staging.subscribers[id] = sub
	}

	if err := fn(context.WithValue(ctx, memTxKey{}, staging)); err != nil {
		return err
	}

	s.subscribers = staging.subscribers
	s.tokens = staging.tokens
	return nil
}

// staging returns the transaction staging area when ctx carries one. The
// second return mirrors pkg/platform/tx.From.
func stagingFrom(ctx context.Context) (*memStaging, bool) {
	st, ok := ctx.Value(memTxKey{}).(*memStaging)
	return st, ok
}

func (s *MemoryStore) CreatePendingSubscriber(ctx context.Context, sub *models.Subscriber) error {
	if st, ok := stagingFrom(ctx); ok {
		st.subscribers[sub.ID] = *sub
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers[sub.ID] = *sub
	return nil
}

func (s *MemoryStore) AttachToken(ctx context.Context, confirmationToken string, id models.SubscriberID) error {
	row := tokenRow{token: confirmationToken, subscriberID: id}
	if st, ok := stagingFrom(ctx); ok {
		if _, exists := st.subscribers[id]; !exists {
			return sentinel.ErrConflict
		}
		st.tokens = append(st.tokens, row)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subscribers[id]; !exists {
		return sentinel.ErrConflict
	}
	s.tokens = append(s.tokens, row)
	return nil
}

func (s *MemoryStore) FindSubscriberIDByToken(ctx context.Context, confirmationToken string) (models.SubscriberID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.tokens {
		if row.token == confirmationToken {
			return row.subscriberID, nil
		}
	}
	return models.SubscriberID{}, sentinel.ErrNotFound
}

func (s *MemoryStore) MarkConfirmed(ctx context.Context, id models.SubscriberID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscribers[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	sub.Status = models.StatusConfirmed
	s.subscribers[id] = sub
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*models.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]*models.Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		copied := sub
		subs = append(subs, &copied)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].SubscribedAt.After(subs[j].SubscribedAt)
	})
	return subs, nil
}

// Get returns a subscriber by ID for test assertions.
func (s *MemoryStore) Get(id models.SubscriberID) (models.Subscriber, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscribers[id]
	return sub, ok
}

// TokenCount returns the number of token rows for test assertions.
func (s *MemoryStore) TokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
