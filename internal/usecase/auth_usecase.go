// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"wallet/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string // Optional; when set it must equal Password.
}

// LoginInput defines the data required for an account to log in.
type LoginInput struct {
	Email    string
	Password string
}

// --- Output DTOs ---

// AccountView is the outward projection of an account. It never carries
// the password hash or lockout bookkeeping.
type AccountView struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}

// NewAccountView projects an account entity.
func NewAccountView(acc *entity.Account) *AccountView {
	if acc == nil {
		return nil
	}

	return &AccountView{
		ID:              acc.ID,
		Email:           acc.Email,
		IsEmailVerified: acc.IsEmailVerified,
		CreatedAt:       acc.CreatedAt,
		LastLoginAt:     acc.LastLoginAt,
	}
}

// AuthOutput returns the generated tokens after a successful register or login.
type AuthOutput struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        time.Duration
	RefreshExpiresIn time.Duration
	Account          *AccountView
}

// AuthUsecase defines the interface for authentication business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error)
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)
	// VerifySession resolves a bearer access token to its account.
	VerifySession(ctx context.Context, accessToken string) (*AccountView, error)
	// Logout records the logout. Issued tokens stay valid until they expire.
	Logout(ctx context.Context, accountID uuid.UUID) error
	// Unlock clears the lockout state of an account.
	Unlock(ctx context.Context, accountID uuid.UUID) error
	GetProfile(ctx context.Context, accountID uuid.UUID) (*AccountView, error)
}
