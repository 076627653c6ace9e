// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is the core entity in the system, representing one registered identity.
type Account struct {
	ID                 uuid.UUID  // Opaque identifier assigned at creation, immutable afterwards.
	Email              string     // Normalized login key, unique across all accounts.
	PasswordHash       string     // bcrypt hash of the password, never exposed outward.
	IsActive           bool       // Inactive accounts are rejected at login regardless of credentials.
	IsEmailVerified    bool       // Informational only.
	FailedAttemptCount int        // Consecutive failed password checks.
	LockedUntil        *time.Time // Lock expiry; the account is locked while this lies in the future.
	LastLoginAt        *time.Time // Timestamp of the last successful login.
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewAccount builds an active, unverified account for the given email and hash.
func NewAccount(email, passwordHash string) *Account {
	return &Account{
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		IsActive:     true,
	}
}

// IsLocked reports whether the account is locked at the given instant.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
