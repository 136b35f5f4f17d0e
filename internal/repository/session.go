package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/cache"
	"storefront-checkout/internal/model"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// SessionRepository persists the checkout aggregate in the TTL store.
// Writes rewrite the whole session with the full TTL and no version
// check: two concurrent writers race and the last one wins.
type SessionRepository interface {
	Save(ctx context.Context, session *model.CheckoutSession) error
	Find(ctx context.Context, token string) (*model.CheckoutSession, error)
	Update(ctx context.Context, session *model.CheckoutSession) error
	Delete(ctx context.Context, token string) error
}

type sessionRepoImpl struct {
	store cache.Store
	ttl   time.Duration
}

func NewSessionRepository(store cache.Store, ttl time.Duration) SessionRepository {
	return &sessionRepoImpl{
		store: store,
		ttl:   ttl,
	}
}

func sessionKey(token string) string {
	return fmt.Sprintf("checkout:session:%s", token)
}

func (r *sessionRepoImpl) Save(ctx context.Context, session *model.CheckoutSession) error {
	return r.store.Set(ctx, sessionKey(session.Token), session, r.ttl)
}

// Find loads the session and refreshes its reported TTL from the store.
func (r *sessionRepoImpl) Find(ctx context.Context, token string) (*model.CheckoutSession, error) {
	var session model.CheckoutSession
	err := r.store.Get(ctx, sessionKey(token), &session)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout session: %w", err)
	}

	remaining, err := r.store.TTL(ctx, sessionKey(token))
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("read session ttl: %w", err)
	}
	session.TTL = int(remaining / time.Second)

	return &session, nil
}

// Update stamps updatedAt and rewrites the session with the full TTL.
// Token and createdAt are preserved by the caller passing the loaded
// aggregate back, not re-derived here.
func (r *sessionRepoImpl) Update(ctx context.Context, session *model.CheckoutSession) error {
	session.UpdatedAt = time.Now()
	return r.store.Set(ctx, sessionKey(session.Token), session, r.ttl)
}

func (r *sessionRepoImpl) Delete(ctx context.Context, token string) error {
	return r.store.Delete(ctx, sessionKey(token))
}
