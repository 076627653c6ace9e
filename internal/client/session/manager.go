// Package session keeps the client's authenticated session in local storage
// and checks it against the server.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"wallet/internal/client/api"
	"wallet/internal/client/storage"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/errors"

	"github.com/google/uuid"
)

// DefaultValidationDelay postpones the background token check after startup.
const DefaultValidationDelay = 100 * time.Millisecond

// Storage is the key/value store the session is persisted in.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// AuthAPI is the subset of the auth service the manager talks to.
type AuthAPI interface {
	Register(ctx context.Context, email, password, confirmPassword string) (*api.AuthResult, error)
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Verify(ctx context.Context, token string) (*api.User, error)
	Profile(ctx context.Context, token string) (*api.User, error)
	Logout(ctx context.Context, token string) error
}

// State is a snapshot of the session.
type State struct {
	IsAuthenticated bool
	AccountID       uuid.UUID
	Email           string
	AccessToken     string
}

type userData struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Manager owns the client session. It is safe for concurrent use.
type Manager struct {
	api    AuthAPI
	store  Storage
	logger *slog.Logger

	mu    sync.Mutex
	state State
	// epoch increments on every sign-in and sign-out so that a stale
	// background validation cannot act on a newer session.
	epoch uint64
}

// NewManager creates a signed-out manager.
func NewManager(authAPI AuthAPI, store Storage, logger *slog.Logger) *Manager {
	return &Manager{
		api:    authAPI,
		store:  store,
		logger: logger,
	}
}

// State returns a snapshot of the session.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Restore loads the persisted session. A partial or corrupt record is cleared
// and leaves the manager signed out; only storage failures are returned.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, hasToken, err := m.store.Get(ctx, storage.KeyToken)
	if err != nil {
		return errors.Wrap(err, "restore session")
	}
	raw, hasUser, err := m.store.Get(ctx, storage.KeyUserData)
	if err != nil {
		return errors.Wrap(err, "restore session")
	}

	m.signOutLocked()
	if !hasToken && !hasUser {
		return nil
	}

	var data userData
	if hasToken && hasUser && token != "" && json.Unmarshal([]byte(raw), &data) == nil && data.ID != uuid.Nil {
		m.state = State{
			IsAuthenticated: true,
			AccountID:       data.ID,
			Email:           data.Email,
			AccessToken:     token,
		}

		return nil
	}

	m.logger.Warn("Discarding corrupt session record",
		slog.Bool("has_token", hasToken),
		slog.Bool("has_user_data", hasUser),
	)

	return m.clearStorage(ctx)
}

// Login authenticates with the server and persists the session.
func (m *Manager) Login(ctx context.Context, email, password string) (State, error) {
	result, err := m.api.Login(ctx, email, password)
	if err != nil {
		return m.State(), err
	}

	return m.establish(ctx, result)
}

// Register creates an account and signs in with it.
func (m *Manager) Register(ctx context.Context, email, password, confirmPassword string) (State, error) {
	result, err := m.api.Register(ctx, email, password, confirmPassword)
	if err != nil {
		return m.State(), err
	}

	return m.establish(ctx, result)
}

func (m *Manager) establish(ctx context.Context, result *api.AuthResult) (State, error) {
	if result.AccessToken == "" || result.User == nil {
		return m.State(), errors.New("auth response without token or user")
	}

	raw, err := json.Marshal(userData{ID: result.User.ID, Email: result.User.Email})
	if err != nil {
		return m.State(), errors.Wrap(err, "encode user data")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(ctx, storage.KeyToken, result.AccessToken); err != nil {
		return m.state, errors.Wrap(err, "persist session")
	}
	if err := m.store.Set(ctx, storage.KeyUserData, string(raw)); err != nil {
		_ = m.store.Delete(ctx, storage.KeyToken)

		return m.state, errors.Wrap(err, "persist session")
	}

	m.epoch++
	m.state = State{
		IsAuthenticated: true,
		AccountID:       result.User.ID,
		Email:           result.User.Email,
		AccessToken:     result.AccessToken,
	}

	return m.state, nil
}

// Logout clears the session locally, then tells the server on a best-effort basis.
// It is idempotent.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	token := m.state.AccessToken
	m.signOutLocked()
	err := m.clearStorage(ctx)
	m.mu.Unlock()

	if token != "" {
		if logoutErr := m.api.Logout(ctx, token); logoutErr != nil {
			m.logger.Warn("Server logout failed", slog.Any("error", logoutErr))
		}
	}

	return err
}

// Profile fetches the signed-in account. A 401 ends the session.
func (m *Manager) Profile(ctx context.Context) (*api.User, error) {
	m.mu.Lock()
	token, epoch := m.state.AccessToken, m.epoch
	m.mu.Unlock()

	if token == "" {
		return nil, domainerrors.ErrUnauthenticated
	}

	user, err := m.api.Profile(ctx, token)
	if domainerrors.IsKind(err, domainerrors.KindUnauthenticated) {
		m.invalidate(ctx, epoch, err)
	}

	return user, err
}

// StartValidation verifies the stored token with the server after delay.
// Any verification failure signs out. Calling the returned cancel before
// the check completes discards it.
func (m *Manager) StartValidation(ctx context.Context, delay time.Duration) (cancel func()) {
	if delay <= 0 {
		delay = DefaultValidationDelay
	}

	ctx, cancelCtx := context.WithCancel(ctx)
	timer := time.AfterFunc(delay, func() {
		m.Validate(ctx)
	})

	return func() {
		timer.Stop()
		cancelCtx()
	}
}

// Validate verifies the stored token with the server now. Any verification
// failure signs out. A canceled ctx leaves the session untouched.
func (m *Manager) Validate(ctx context.Context) {
	m.mu.Lock()
	token, epoch := m.state.AccessToken, m.epoch
	m.mu.Unlock()

	if token == "" || ctx.Err() != nil {
		return
	}

	user, err := m.api.Verify(ctx, token)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		m.invalidate(ctx, epoch, err)

		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch == epoch && user != nil {
		m.state.Email = user.Email
	}
}

// invalidate signs out unless the session changed since epoch was read.
func (m *Manager) invalidate(ctx context.Context, epoch uint64, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch || !m.state.IsAuthenticated {
		return
	}

	m.logger.Info("Session invalidated", slog.Any("cause", cause))
	m.signOutLocked()
	if err := m.clearStorage(context.WithoutCancel(ctx)); err != nil {
		m.logger.Warn("Failed to clear session storage", slog.Any("error", err))
	}
}

func (m *Manager) signOutLocked() {
	if m.state.IsAuthenticated {
		m.epoch++
	}
	m.state = State{}
}

func (m *Manager) clearStorage(ctx context.Context) error {
	return errors.Join(
		m.store.Delete(ctx, storage.KeyToken),
		m.store.Delete(ctx, storage.KeyUserData),
	)
}
