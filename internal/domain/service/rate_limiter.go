package service

import (
	"context"
	"time"
)

// RateLimitStore holds per-key hit logs. Implementations must make Hit atomic
// with respect to concurrent callers on the same key.
type RateLimitStore interface {
	// Hit records one request at now and reports how many requests, including
	// this one, fall inside the trailing window (now-window, now].
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (*RateLimitHit, error)

	// Undo removes a previously recorded hit. Unknown tickets are ignored.
	Undo(ctx context.Context, key, ticket string) error
}

// RateLimitHit is the store's view of a key right after a hit.
type RateLimitHit struct {
	Count    int       // Hits inside the window, including this one.
	Ticket   string    // Identifies this hit for Undo.
	OldestAt time.Time // Oldest hit still inside the window.
}

// RateLimitRule describes one throttling tier.
type RateLimitRule struct {
	Name           string
	Window         time.Duration
	Max            int
	SkipSuccessful bool // Successful requests are refunded after the response.
}

// RateLimitDecision is the outcome of evaluating a rule for one request.
type RateLimitDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // Set only when the request is rejected.
	ResetAfter time.Duration // Until the oldest hit leaves the window.
	Key        string
	Ticket     string
}

// RateLimiter evaluates rules against a RateLimitStore.
type RateLimiter interface {
	// Allow records a hit for key under rule and decides whether the request may proceed.
	Allow(ctx context.Context, rule RateLimitRule, key string) (*RateLimitDecision, error)

	// Refund undoes the hit recorded by a previous decision.
	Refund(ctx context.Context, decision *RateLimitDecision) error
}
