package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/config"
	"wallet/internal/domain/service"
)

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
	}
	cfg.SecretKey.Access = "test_access_secret_key_very_long_for_testing"
	cfg.SecretKey.Refresh = "test_refresh_secret_key_very_long_for_testing"

	return cfg
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestJWTService_IssueAndVerify(t *testing.T) {
	jwtService, err := NewJWTService(newTestConfig())
	require.NoError(t, err)

	accountID := uuid.New()
	pair, err := jwtService.IssuePair(accountID)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, time.Hour, pair.ExpiresIn)

	claims, err := jwtService.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, service.TokenTypeAccess, claims.Type)

	id, err := claims.AccountID()
	require.NoError(t, err)
	assert.Equal(t, accountID, id)
}

func TestJWTService_RefreshTokenIsNotAnAccessToken(t *testing.T) {
	jwtService, err := NewJWTService(newTestConfig())
	require.NoError(t, err)

	pair, err := jwtService.IssuePair(uuid.New())
	require.NoError(t, err)

	// Signed with the refresh secret, so the access verifier rejects the signature.
	_, err = jwtService.Verify(pair.RefreshToken)
	assert.ErrorIs(t, err, service.ErrTokenInvalidSignature)

	decoded, err := jwtService.DecodeWithoutVerify(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, service.TokenTypeRefresh, decoded.Type)
	assert.Equal(t, 24*time.Hour, jwtService.GetRefreshTokenDuration())
}

func TestJWTService_WrongTypeWithAccessSecret(t *testing.T) {
	cfg := newTestConfig()
	svc, err := newJWTService(cfg, time.Now)
	require.NoError(t, err)

	forged, err := svc.generateToken(uuid.New(), time.Hour, svc.accessSecret, service.TokenTypeRefresh)
	require.NoError(t, err)

	_, err = svc.Verify(forged)
	assert.ErrorIs(t, err, service.ErrTokenWrongType)
}

func TestJWTService_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc, err := newJWTService(newTestConfig(), clock.Now)
	require.NoError(t, err)

	pair, err := svc.IssuePair(uuid.New())
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour - time.Second)
	_, err = svc.Verify(pair.AccessToken)
	assert.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Second)
	_, err = svc.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, service.ErrTokenExpired)

	// Decoding still works after expiry.
	_, err = svc.DecodeWithoutVerify(pair.AccessToken)
	assert.NoError(t, err)
}

func TestJWTService_TamperedToken(t *testing.T) {
	jwtService, err := NewJWTService(newTestConfig())
	require.NoError(t, err)

	pair, err := jwtService.IssuePair(uuid.New())
	require.NoError(t, err)

	other := newTestConfig()
	other.SecretKey.Access = "a_completely_different_access_secret"
	otherService, err := NewJWTService(other)
	require.NoError(t, err)

	_, err = otherService.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, service.ErrTokenInvalidSignature)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	jwtService, err := NewJWTService(newTestConfig())
	require.NoError(t, err)

	claims := service.Claims{
		Type: service.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.Verify(unsigned)
	assert.ErrorIs(t, err, service.ErrTokenInvalidSignature)
}

func TestJWTService_InvalidToken(t *testing.T) {
	jwtService, err := NewJWTService(newTestConfig())
	require.NoError(t, err)

	claims, err := jwtService.Verify("clearly-not-a-jwt-token-format")
	assert.ErrorIs(t, err, service.ErrTokenMalformed)
	assert.Nil(t, claims)

	_, err = jwtService.DecodeWithoutVerify("clearly-not-a-jwt-token-format")
	assert.ErrorIs(t, err, service.ErrTokenMalformed)
}

func TestJWTService_ConfigValidation(t *testing.T) {
	cfg := newTestConfig()
	cfg.SecretKey.Refresh = ""
	_, err := NewJWTService(cfg)
	assert.Error(t, err)

	cfg = newTestConfig()
	cfg.SecretKey.Refresh = cfg.SecretKey.Access
	_, err = NewJWTService(cfg)
	assert.Error(t, err)
}
