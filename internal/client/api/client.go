// Package api is the HTTP client of the wallet auth service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"wallet/config"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/errors"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 3
	defaultRetryBase  = time.Second
	maxErrorBodyBytes = 64 << 10
)

// ErrUnavailable reports that the server could not be reached.
var ErrUnavailable = errors.New("auth service unavailable")

// User is the account view returned by the server.
type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}

// AuthResult is the body of a successful register or login.
type AuthResult struct {
	Message          string `json:"message"`
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        string `json:"expiresIn"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
	User             *User  `json:"user"`
}

// Health is the body of GET /health.
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// Client calls the auth service. Idempotent GETs are retried on network failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryBase  time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetryBase sets the first retry delay; later delays grow exponentially.
func WithRetryBase(base time.Duration) Option {
	return func(c *Client) {
		c.retryBase = base
	}
}

// New creates a client from the client config section.
func New(cfg *config.ClientConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		retryBase:  defaultRetryBase,
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = defaultTimeout
	}
	if c.maxRetries < 0 {
		c.maxRetries = defaultMaxRetries
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

type credentials struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password, confirmPassword string) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", credentials{email, password, confirmPassword}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Login exchanges credentials for tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", credentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Verify checks an access token and returns its account.
func (c *Client) Verify(ctx context.Context, token string) (*User, error) {
	var out struct {
		Valid bool  `json:"valid"`
		User  *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/verify", token, nil, &out); err != nil {
		return nil, err
	}
	if !out.Valid || out.User == nil {
		return nil, errors.Wrap(domainerrors.ErrUnauthenticated, "token rejected")
	}

	return out.User, nil
}

// Profile fetches the account behind token.
func (c *Client) Profile(ctx context.Context, token string) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/profile", token, nil, &out); err != nil {
		return nil, err
	}

	return out.User, nil
}

// Logout records the logout server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// Health reports server liveness.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", "", nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return errors.Wrap(err, "encode request")
		}
	}

	if method != http.MethodGet || c.maxRetries == 0 {
		return c.send(ctx, method, path, token, payload, out)
	}

	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(c.retryBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.send(ctx, method, path, token, payload, out)
		if isRetryable(err) {
			return retry.RetryableError(err)
		}

		return err
	})
}

func (c *Client) send(ctx context.Context, method, path, token string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.WithStack(ctx.Err())
		}

		return errors.Wrap(ErrUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}

	return nil
}

// isRetryable reports network failures and gateway errors.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}
