// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"wallet/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrAccountNotFound is a domain-specific error returned when an account is not found.
var ErrAccountNotFound = errors.New("account not found")

// AccountRepository defines the standard operations for account persistence (the credential store).
// Emails passed in are expected to be normalized already.
type AccountRepository interface {
	// FindByID retrieves a single account by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	// FindByEmail retrieves a single account by its normalized email address.
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	// FindByEmailForUpdate is FindByEmail holding a row lock until the surrounding transaction ends.
	FindByEmailForUpdate(ctx context.Context, email string) (*entity.Account, error)

	// FindByIDForUpdate is FindByID holding a row lock until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	// Create persists a new account, assigning its ID and timestamps.
	Create(ctx context.Context, account *entity.Account) error

	// Update writes the mutable fields of an existing account.
	Update(ctx context.Context, account *entity.Account) error
}
