package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"wallet/config"
	apimiddleware "wallet/internal/delivery/api/middleware"
	"wallet/internal/delivery/api/router"
	"wallet/internal/delivery/api/router/handler"
	deliverycontext "wallet/internal/delivery/context"
	"wallet/internal/infra/auth"
	"wallet/internal/infra/persistence/memory"
	"wallet/internal/infra/pubsub"
	"wallet/internal/infra/ratelimit"
	"wallet/internal/usecase/impl"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testEmail    = "bob@example.com"
	testPassword = "StrongPass123!"
	adminKey     = "admin-secret"
)

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Admin: &config.AdminConfig{APIKey: adminKey},
	}
	cfg.Env.ServiceName = "Wallet App API"
	cfg.Env.Version = "1.0.0"
	cfg.HTTP.MaxRequestBodySize = "100KB"
	cfg.SecretKey.Access = "test_access_secret_key_very_long_for_testing"
	cfg.SecretKey.Refresh = "test_refresh_secret_key_very_long_for_testing"
	cfg.RateLimit = &config.RateLimitConfig{
		API:  config.RateLimitRule{Window: 15 * time.Minute, Max: 100},
		Auth: config.RateLimitRule{Window: 15 * time.Minute, Max: 100},
	}
	cfg.Auth = &config.AuthConfig{
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		StoreTimeout:    time.Second,
		Lockout:         config.LockoutConfig{MaxAttempts: 5, Duration: 30 * time.Minute},
	}

	return cfg
}

// newTestServer assembles the full middleware and route stack over in-memory stores.
func newTestServer(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	store := memory.NewStore()
	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	uc := impl.NewAuthService(impl.AuthServiceParams{
		TxManager:    memory.NewTransactionManager(store),
		AccountRepo:  memory.NewAccountRepository(store),
		Hasher:       auth.NewBcryptHasherWithCost(bcrypt.MinCost),
		TokenService: tokens,
		Publisher:    pubsub.NewNoopPublisher(logger),
		Config:       cfg,
		Logger:       logger,
	})

	return newEcho(cfg, logger, router.RouterParams{
		AuthHandler:         handler.NewAuthHandler(uc),
		UserHandler:         handler.NewUserHandler(uc),
		AdminHandler:        handler.NewAdminHandler(uc),
		HealthHandler:       handler.NewHealthHandler(cfg),
		AuthMiddleware:      apimiddleware.NewAuthMiddleware(uc),
		AdminMiddleware:     apimiddleware.NewAdminMiddleware(cfg),
		RateLimitMiddleware: apimiddleware.NewRateLimitMiddleware(ratelimit.NewLimiter(ratelimit.NewMemoryStore()), cfg, logger),
	})
}

type call struct {
	method     string
	path       string
	body       any
	token      string
	headers    map[string]string
	remoteAddr string
}

func do(t *testing.T, e *echo.Echo, c call) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.remoteAddr != "" {
		req.RemoteAddr = c.remoteAddr
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())

	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) (code, message string) {
	t.Helper()

	body := decodeMap(t, rec)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok, rec.Body.String())

	return errBody["code"].(string), errBody["message"].(string)
}

func register(t *testing.T, e *echo.Echo) handler.AuthResponse {
	t.Helper()

	rec := do(t, e, call{method: http.MethodPost, path: "/auth/register", body: map[string]string{"email": testEmail, "password": testPassword}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out handler.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func login(t *testing.T, e *echo.Echo, password string) *httptest.ResponseRecorder {
	t.Helper()

	return do(t, e, call{method: http.MethodPost, path: "/auth/login", body: map[string]string{"email": testEmail, "password": password}})
}

func TestServer_SessionLifecycle(t *testing.T) {
	e := newTestServer(t, newTestConfig())

	registered := register(t, e)
	assert.Equal(t, "Registration successful", registered.Message)
	assert.Equal(t, "1h0m0s", registered.ExpiresIn)
	assert.Equal(t, int64(3600), registered.ExpiresInSeconds)
	assert.Equal(t, int64(24*3600), registered.RefreshExpiresInSeconds)
	require.NotNil(t, registered.User)
	assert.Equal(t, testEmail, registered.User.Email)

	rec := login(t, e, testPassword)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	user := body["user"].(map[string]any)
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "failedAttemptCount")
	assert.NotContains(t, user, "lockedUntil")
	token := body["accessToken"].(string)

	rec = do(t, e, call{method: http.MethodGet, path: "/auth/verify", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	verified := decodeMap(t, rec)
	assert.Equal(t, true, verified["valid"])
	assert.Equal(t, testEmail, verified["user"].(map[string]any)["email"])

	rec = do(t, e, call{method: http.MethodGet, path: "/user/profile", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testEmail, decodeMap(t, rec)["user"].(map[string]any)["email"])

	for range 2 {
		rec = do(t, e, call{method: http.MethodPost, path: "/auth/logout", token: token})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Logout successful"}`, rec.Body.String())
	}
}

func TestServer_RegisterErrors(t *testing.T) {
	e := newTestServer(t, newTestConfig())
	register(t, e)

	rec := do(t, e, call{method: http.MethodPost, path: "/auth/register", body: map[string]string{"email": "BOB@example.com", "password": testPassword}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	code, message := errorCode(t, rec)
	assert.Equal(t, "ACCOUNT_ALREADY_EXISTS", code)
	assert.Equal(t, "User with this email already exists", message)

	rec = do(t, e, call{method: http.MethodPost, path: "/auth/register", body: map[string]string{"email": "bad", "password": "weak"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeMap(t, rec)["error"].(map[string]any)["details"].([]any)
	assert.Len(t, details, 2)

	rec = do(t, e, call{method: http.MethodPost, path: "/auth/register", body: "not an object"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_LoginLockout(t *testing.T) {
	e := newTestServer(t, newTestConfig())
	register(t, e)

	for range 5 {
		rec := login(t, e, "WrongPass999!")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		code, _ := errorCode(t, rec)
		assert.Equal(t, "INVALID_CREDENTIALS", code)
	}

	rec := login(t, e, testPassword)
	assert.Equal(t, http.StatusLocked, rec.Code)
	code, _ := errorCode(t, rec)
	assert.Equal(t, "ACCOUNT_LOCKED", code)

	unknown := do(t, e, call{method: http.MethodPost, path: "/auth/login", body: map[string]string{"email": "nobody@example.com", "password": testPassword}})
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	code, message := errorCode(t, unknown)
	assert.Equal(t, "INVALID_CREDENTIALS", code)
	assert.Equal(t, "Invalid email or password", message)
}

func TestServer_AuthLimitPrecedesLockout(t *testing.T) {
	cfg := newTestConfig()
	cfg.RateLimit.Auth.Max = 5
	e := newTestServer(t, cfg)
	register(t, e)

	const attacker = "198.51.100.7:4000"
	attempt := func(password, remoteAddr string) *httptest.ResponseRecorder {
		return do(t, e, call{
			method:     http.MethodPost,
			path:       "/auth/login",
			body:       map[string]string{"email": testEmail, "password": password},
			remoteAddr: remoteAddr,
		})
	}

	for range 5 {
		require.Equal(t, http.StatusUnauthorized, attempt("WrongPass999!", attacker).Code)
	}

	// The same IP has spent its auth budget before reaching the lock check.
	rec := attempt(testPassword, attacker)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	code, _ := errorCode(t, rec)
	assert.Equal(t, "TOO_MANY_AUTH_ATTEMPTS", code)

	rec = attempt(testPassword, "203.0.113.9:4000")
	assert.Equal(t, http.StatusLocked, rec.Code)
	code, _ = errorCode(t, rec)
	assert.Equal(t, "ACCOUNT_LOCKED", code)
}

func TestServer_AdminUnlock(t *testing.T) {
	e := newTestServer(t, newTestConfig())
	registered := register(t, e)
	for range 5 {
		login(t, e, "WrongPass999!")
	}
	unlockPath := "/admin/accounts/" + registered.User.ID.String() + "/unlock"

	rec := do(t, e, call{method: http.MethodPost, path: unlockPath, headers: map[string]string{"X-Admin-Key": "wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, call{method: http.MethodPost, path: "/admin/accounts/00000000-0000-0000-0000-000000000001/unlock", headers: map[string]string{"X-Admin-Key": adminKey}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, call{method: http.MethodPost, path: "/admin/accounts/not-a-uuid/unlock", headers: map[string]string{"X-Admin-Key": adminKey}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, call{method: http.MethodPost, path: unlockPath, headers: map[string]string{"X-Admin-Key": adminKey}})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusOK, login(t, e, testPassword).Code)
}

func TestServer_AdminRouteAbsentWithoutKey(t *testing.T) {
	cfg := newTestConfig()
	cfg.Admin = nil
	e := newTestServer(t, cfg)

	rec := do(t, e, call{method: http.MethodPost, path: "/admin/accounts/00000000-0000-0000-0000-000000000001/unlock", headers: map[string]string{"X-Admin-Key": ""}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_BearerFailures(t *testing.T) {
	e := newTestServer(t, newTestConfig())
	registered := register(t, e)

	tests := []struct {
		name    string
		headers map[string]string
		code    string
		message string
	}{
		{"missing header", nil, "TOKEN_MISSING", "Access denied. No token provided."},
		{"not bearer", map[string]string{"Authorization": "Basic abc"}, "TOKEN_MISSING", "Access denied. No token provided."},
		{"garbage token", map[string]string{"Authorization": "Bearer garbage"}, "TOKEN_INVALID", "Invalid token."},
		{"refresh token", map[string]string{"Authorization": "Bearer " + registered.RefreshToken}, "TOKEN_INVALID", "Invalid token."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, e, call{method: http.MethodGet, path: "/user/profile", headers: tt.headers})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			code, message := errorCode(t, rec)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, message)
			assert.NotContains(t, decodeMap(t, rec)["error"], "details")
		})
	}
}

func TestServer_GeneralRateLimit(t *testing.T) {
	cfg := newTestConfig()
	cfg.RateLimit.API.Max = 100
	e := newTestServer(t, cfg)

	for i := range 100 {
		rec := do(t, e, call{method: http.MethodGet, path: "/user/profile"})
		require.Equal(t, http.StatusUnauthorized, rec.Code, "request %d", i+1)
	}

	rec := do(t, e, call{method: http.MethodGet, path: "/user/profile"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	code, message := errorCode(t, rec)
	assert.Equal(t, "TOO_MANY_REQUESTS", code)
	assert.Equal(t, "Too many requests from this IP, please try again later.", message)
	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Positive(t, retryAfter)
	assert.Equal(t, "100", rec.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("RateLimit-Remaining"))

	// Health is never throttled.
	assert.Equal(t, http.StatusOK, do(t, e, call{method: http.MethodGet, path: "/health"}).Code)
}

func TestServer_AuthRateLimitCountsOnlyFailures(t *testing.T) {
	cfg := newTestConfig()
	cfg.RateLimit.Auth.Max = 5
	e := newTestServer(t, cfg)
	register(t, e)

	// Successes are refunded.
	for range 3 {
		require.Equal(t, http.StatusOK, login(t, e, testPassword).Code)
	}

	// Failures across different accounts share the per-IP budget.
	for i := range 5 {
		rec := do(t, e, call{method: http.MethodPost, path: "/auth/login", body: map[string]string{
			"email":    "user" + strconv.Itoa(i) + "@example.com",
			"password": "WrongPass999!",
		}})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := login(t, e, testPassword)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	code, _ := errorCode(t, rec)
	assert.Equal(t, "TOO_MANY_AUTH_ATTEMPTS", code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestServer_HealthAndRequestID(t *testing.T) {
	e := newTestServer(t, newTestConfig())

	rec := do(t, e, call{method: http.MethodGet, path: "/health", headers: map[string]string{deliverycontext.HeaderXRequestID: "trace-42"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trace-42", rec.Header().Get(deliverycontext.HeaderXRequestID))

	body := decodeMap(t, rec)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "Wallet App API", body["service"])
	assert.Equal(t, "1.0.0", body["version"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err)

	rec = do(t, e, call{method: http.MethodGet, path: "/nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, rec.Header().Get(deliverycontext.HeaderXRequestID), decodeMap(t, rec)["meta"].(map[string]any)["request_id"])
}
