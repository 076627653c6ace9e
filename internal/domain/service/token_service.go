package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Token verification failures.
var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenWrongType        = errors.New("token has the wrong type")
)

// Claims defines the custom claims for the JWT tokens.
// The account ID travels in the registered "sub" claim.
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// AccountID parses the subject claim.
func (c *Claims) AccountID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrTokenMalformed
	}

	return id, nil
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration // Lifetime of the access token.
}

// TokenService defines the interface for generating and validating JWTs.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// IssuePair creates a new access token and refresh token for a given account.
	IssuePair(accountID uuid.UUID) (*TokenPair, error)

	// Verify checks signature, expiry and type of an access token.
	Verify(tokenString string) (*Claims, error)

	// DecodeWithoutVerify returns the claims without checking signature or expiry.
	// It must never be used for authorization decisions.
	DecodeWithoutVerify(tokenString string) (*Claims, error)

	// GetRefreshTokenDuration returns the configured duration for refresh tokens.
	GetRefreshTokenDuration() time.Duration
}
