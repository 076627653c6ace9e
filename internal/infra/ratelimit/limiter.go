package ratelimit

import (
	"context"
	"time"

	"wallet/internal/domain/service"
	"wallet/internal/errors"
)

const keyPrefix = "ratelimit:"

// Limiter evaluates rules against a store.
type Limiter struct {
	store service.RateLimitStore
	now   func() time.Time
}

// NewLimiter creates a limiter over store using the wall clock.
func NewLimiter(store service.RateLimitStore) service.RateLimiter {
	return newLimiter(store, time.Now)
}

func newLimiter(store service.RateLimitStore, now func() time.Time) *Limiter {
	return &Limiter{store: store, now: now}
}

// Allow records a hit and decides. Rejected hits are undone so that
// a blocked client hammering the endpoint does not extend its own block.
func (l *Limiter) Allow(ctx context.Context, rule service.RateLimitRule, key string) (*service.RateLimitDecision, error) {
	now := l.now()
	storeKey := keyPrefix + rule.Name + ":" + key

	hit, err := l.store.Hit(ctx, storeKey, rule.Window, now)
	if err != nil {
		return nil, errors.Wrapf(err, "rate limit %s", rule.Name)
	}

	decision := &service.RateLimitDecision{
		Allowed:    hit.Count <= rule.Max,
		Limit:      rule.Max,
		Remaining:  max(rule.Max-hit.Count, 0),
		Key:        storeKey,
		Ticket:     hit.Ticket,
		ResetAfter: max(hit.OldestAt.Add(rule.Window).Sub(now), 0),
	}
	if decision.Allowed {
		return decision, nil
	}

	decision.RetryAfter = max(decision.ResetAfter, time.Second)
	if err := l.store.Undo(ctx, storeKey, hit.Ticket); err != nil {
		return nil, errors.Wrapf(err, "rate limit %s", rule.Name)
	}
	decision.Ticket = ""

	return decision, nil
}

// Refund undoes an allowed hit.
func (l *Limiter) Refund(ctx context.Context, decision *service.RateLimitDecision) error {
	if decision == nil || decision.Ticket == "" {
		return nil
	}

	return l.store.Undo(ctx, decision.Key, decision.Ticket)
}
