// Package history stores bounded per-session conversation history.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
)

const keyPrefix = "ragdex:session:"

// store is the consumer interface for history persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Repo keeps conversation history per session, bounded to capacity turns.
// Sessions expire after ttl of inactivity; every append refreshes the TTL.
type Repo struct {
	store    store
	capacity int
	ttl      time.Duration
}

// New creates a history repository.
func New(s store, capacity int, ttl time.Duration) *Repo {
	if capacity <= 0 {
		capacity = domain.DefaultHistoryCapacity
	}
	return &Repo{store: s, capacity: capacity, ttl: ttl}
}

// Load returns the session's history, oldest first. An unknown session
// yields domain.ErrSessionNotFound.
func (r *Repo) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	data, err := r.store.Get(ctx, keyPrefix+sessionID)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load history %s: %w", sessionID, err)
	}

	var history []domain.Message
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", sessionID, err)
	}
	return history, nil
}

// Append adds messages to the session, evicting the oldest entries past
// capacity, and persists the result. The updated transcript is returned.
func (r *Repo) Append(ctx context.Context, sessionID string, messages ...domain.Message) ([]domain.Message, error) {
	history, err := r.Load(ctx, sessionID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}

	for _, m := range messages {
		history = domain.AppendBounded(history, m, r.capacity)
	}

	data, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("encode history %s: %w", sessionID, err)
	}
	if err := r.store.SetWithTTL(ctx, keyPrefix+sessionID, data, r.ttl); err != nil {
		return nil, fmt.Errorf("save history %s: %w", sessionID, err)
	}
	return history, nil
}

// Clear removes the session's history. Clearing an unknown session is a no-op.
func (r *Repo) Clear(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, keyPrefix+sessionID); err != nil {
		return fmt.Errorf("clear history %s: %w", sessionID, err)
	}
	return nil
}
