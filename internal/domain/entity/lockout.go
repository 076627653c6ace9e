package entity

import "time"

const (
	DefaultLockoutMaxAttempts = 5
	DefaultLockoutDuration    = 30 * time.Minute
)

// LockoutPolicy is the per-account brute-force state machine (OPEN/LOCKED).
// It only mutates the snapshot it is given; persisting the result atomically
// is the caller's job.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

// NewLockoutPolicy returns a policy, substituting defaults for non-positive values.
func NewLockoutPolicy(maxAttempts int, duration time.Duration) LockoutPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultLockoutMaxAttempts
	}
	if duration <= 0 {
		duration = DefaultLockoutDuration
	}

	return LockoutPolicy{MaxAttempts: maxAttempts, Duration: duration}
}

// IsLocked reports whether the account rejects attempts at now.
func (p LockoutPolicy) IsLocked(acc *Account, now time.Time) bool {
	return acc.IsLocked(now)
}

// RegisterFailure records a failed password check and reports whether the
// account is locked as a result.
func (p LockoutPolicy) RegisterFailure(acc *Account, now time.Time) bool {
	acc.FailedAttemptCount++
	if acc.FailedAttemptCount >= p.MaxAttempts {
		lockedUntil := now.Add(p.Duration)
		acc.LockedUntil = &lockedUntil

		return true
	}

	return false
}

// RegisterSuccess resets the counters and stamps the login time.
func (p LockoutPolicy) RegisterSuccess(acc *Account, now time.Time) {
	acc.FailedAttemptCount = 0
	acc.LockedUntil = nil
	lastLogin := now
	acc.LastLoginAt = &lastLogin
}

// Unlock clears the lock and the failure counter unconditionally.
func (p LockoutPolicy) Unlock(acc *Account) {
	acc.FailedAttemptCount = 0
	acc.LockedUntil = nil
}
