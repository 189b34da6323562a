// Package guard keeps a short-lived record of outbox events a consumer has
// already handed off, so a rolled back batch does not deliver them twice.
package guard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL outlives the longest retry window of the publisher.
const DefaultTTL = 7 * 24 * time.Hour

// Store is the subset of the redis client the guard needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Guard is bound to one consumer. Keys look like
// `ro:idempotency:delivered:<consumer>:<event_id>`.
type Guard struct {
	store    Store
	consumer string
	ttl      time.Duration
}

func New(store Store, consumer string, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("guard store is required")
	}
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return nil, errors.New("guard consumer is required")
	}
	if ttl < 0 {
		return nil, errors.New("guard ttl must be non-negative")
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Guard{store: store, consumer: consumer, ttl: ttl}, nil
}

// Claim reports whether the caller won the right to deliver eventID. A false
// result with a nil error means an earlier delivery already claimed it.
func (g *Guard) Claim(ctx context.Context, eventID uuid.UUID) (bool, error) {
	key, err := g.key(eventID)
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
}

// Release drops a claim after a failed delivery so the retry is not skipped.
func (g *Guard) Release(ctx context.Context, eventID uuid.UUID) error {
	key, err := g.key(eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

// Consumer returns the name the guard was built for.
func (g *Guard) Consumer() string {
	return g.consumer
}

func (g *Guard) key(eventID uuid.UUID) (string, error) {
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey("delivered:"+g.consumer, eventID.String()), nil
}
