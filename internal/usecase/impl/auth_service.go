// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"wallet/config"
	deliverycontext "wallet/internal/delivery/context"
	"wallet/internal/domain/entity"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/domain/repository"
	"wallet/internal/domain/service"
	"wallet/internal/errors"
	"wallet/internal/usecase"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/fx"
)

const defaultStoreTimeout = 5 * time.Second

// dummyPassword is hashed once and compared against for unknown emails,
// so that a miss costs about as much as a wrong password.
const dummyPassword = "wallet-timing-equalizer"

// authService implements the AuthUsecase interface.
type authService struct {
	txManager    repository.TransactionManager
	accountRepo  repository.AccountRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	publisher    service.EventPublisher
	policy       entity.LockoutPolicy
	storeTimeout time.Duration
	validate     *validator.Validate
	now          func() time.Time
	logger       *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	AccountRepo  repository.AccountRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Publisher    service.EventPublisher
	Config       *config.Config
	Logger       *slog.Logger
	Now          func() time.Time `optional:"true"`
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	srv := &authService{
		txManager:    params.TxManager,
		accountRepo:  params.AccountRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		publisher:    params.Publisher,
		policy:       entity.NewLockoutPolicy(0, 0),
		storeTimeout: defaultStoreTimeout,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		now:          params.Now,
		logger:       params.Logger,
	}
	if srv.now == nil {
		srv.now = time.Now
	}
	if params.Config != nil && params.Config.Auth != nil {
		auth := params.Config.Auth
		srv.policy = entity.NewLockoutPolicy(auth.Lockout.MaxAttempts, auth.Lockout.Duration)
		if auth.StoreTimeout > 0 {
			srv.storeTimeout = auth.StoreTimeout
		}
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates an active, unverified account and issues its first token pair.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	if err := srv.validateRegistration(email, input); err != nil {
		return nil, err
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	account := entity.NewAccount(email, hash)
	err = srv.withStore(ctx, func(storeCtx context.Context) error {
		return srv.txManager.Execute(storeCtx, func(repoFactory repository.RepositoryFactory) error {
			accountRepo := repoFactory.NewAccountRepository()

			_, findErr := accountRepo.FindByEmailForUpdate(storeCtx, email)
			if findErr == nil {
				return domainerrors.ErrAccountAlreadyExists
			}
			if !errors.Is(findErr, repository.ErrAccountNotFound) {
				return errors.Wrap(findErr, "failed to check existing account")
			}

			return accountRepo.Create(storeCtx, account)
		})
	})
	if err != nil {
		if domainerrors.IsKind(err, domainerrors.KindConflict) {
			srv.log(ctx).Info("Registration rejected, email taken", slog.String("email", email))
		} else {
			srv.log(ctx).Error("Failed to register account", slog.String("email", email), slog.Any("error", err))
		}

		return nil, errors.Wrap(err, "failed to register account")
	}

	srv.publish(ctx, service.AuthEventRegistered, account, "")
	srv.log(ctx).Info("Account registered", slog.String("accountID", account.ID.String()))

	return srv.issue(account)
}

func (srv *authService) validateRegistration(email string, input *usecase.RegisterInput) error {
	var fields []domainerrors.FieldError
	if err := srv.validate.Var(email, "required,email,max=255"); err != nil {
		fields = append(fields, domainerrors.FieldError{Field: "email", Message: "Please provide a valid email"})
	}
	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		fields = append(fields, passwordFieldErrors(err)...)
	}
	if input.ConfirmPassword != "" && input.ConfirmPassword != input.Password {
		fields = append(fields, domainerrors.FieldError{Field: "confirmPassword", Message: "Passwords do not match"})
	}
	if len(fields) > 0 {
		return domainerrors.ErrValidationFailed.WithDetails(fields)
	}

	return nil
}

// passwordFieldErrors extracts the field messages of a strength failure.
func passwordFieldErrors(err error) []domainerrors.FieldError {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if details, ok := appErr.Details().([]domainerrors.FieldError); ok && len(details) > 0 {
			return details
		}
	}

	return []domainerrors.FieldError{{Field: "password", Message: "Password does not meet the strength requirements"}}
}

// Login verifies credentials under the lockout policy and issues a token pair.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails([]domainerrors.FieldError{
			{Field: "email", Message: "Email and password are required"},
		})
	}
	srv.log(ctx).Debug("Starting login", slog.String("email", email))

	// 1. Read without a lock; bcrypt is CPU-bound and must not hold the row.
	var account *entity.Account
	err := srv.withStore(ctx, func(storeCtx context.Context) error {
		var findErr error
		account, findErr = srv.accountRepo.FindByEmail(storeCtx, email)

		return findErr
	})
	if errors.Is(err, repository.ErrAccountNotFound) {
		srv.hasher.Check(input.Password, srv.dummy())
		srv.publish(ctx, service.AuthEventLoginFailed, &entity.Account{Email: email}, "unknown_email")

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}
	if err != nil {
		srv.log(ctx).Error("Failed to load account for login", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to load account")
	}

	if !account.IsActive {
		srv.publish(ctx, service.AuthEventLoginFailed, account, "disabled")

		return nil, errors.Wrap(domainerrors.ErrAccountDisabled, "login failed")
	}
	if srv.policy.IsLocked(account, srv.now()) {
		srv.publish(ctx, service.AuthEventLoginFailed, account, "locked")

		return nil, errors.Wrap(domainerrors.ErrAccountLocked, "login failed")
	}

	// 2. Check password outside the transaction.
	matched := srv.hasher.Check(input.Password, account.PasswordHash)

	// 3. Apply the outcome to a row-locked snapshot.
	var lockedNow, lockedBefore bool
	err = srv.withStore(ctx, func(storeCtx context.Context) error {
		return srv.txManager.Execute(storeCtx, func(repoFactory repository.RepositoryFactory) error {
			accountRepo := repoFactory.NewAccountRepository()

			current, findErr := accountRepo.FindByIDForUpdate(storeCtx, account.ID)
			if findErr != nil {
				return errors.Wrap(findErr, "failed to lock account")
			}

			now := srv.now()
			if srv.policy.IsLocked(current, now) {
				// A concurrent attempt locked the account after our first read.
				lockedBefore = true

				return nil
			}
			if matched {
				srv.policy.RegisterSuccess(current, now)
			} else {
				lockedNow = srv.policy.RegisterFailure(current, now)
			}
			account = current

			return accountRepo.Update(storeCtx, current)
		})
	})
	if err != nil {
		srv.log(ctx).Error("Failed to record login attempt", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to record login attempt")
	}

	switch {
	case lockedBefore:
		srv.publish(ctx, service.AuthEventLoginFailed, account, "locked")

		return nil, errors.Wrap(domainerrors.ErrAccountLocked, "login failed")
	case !matched:
		srv.publish(ctx, service.AuthEventLoginFailed, account, "invalid_password")
		if lockedNow {
			srv.log(ctx).Warn("Account locked after repeated failures",
				slog.String("accountID", account.ID.String()),
				slog.Int("failedAttempts", account.FailedAttemptCount),
			)
			srv.publish(ctx, service.AuthEventAccountLocked, account, "")
		}

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	srv.publish(ctx, service.AuthEventLoginSucceeded, account, "")
	srv.log(ctx).Debug("Account logged in", slog.String("accountID", account.ID.String()))

	return srv.issue(account)
}

// VerifySession resolves a bearer access token to its account.
func (srv *authService) VerifySession(ctx context.Context, accessToken string) (*usecase.AccountView, error) {
	claims, err := srv.tokenService.Verify(accessToken)
	if err != nil {
		if errors.Is(err, service.ErrTokenExpired) {
			srv.logExpiredSubject(ctx, accessToken)

			return nil, errors.Wrap(domainerrors.ErrTokenExpired, err.Error())
		}

		return nil, errors.Wrap(domainerrors.ErrTokenInvalid, err.Error())
	}

	accountID, err := claims.AccountID()
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrTokenInvalid, err.Error())
	}

	account, err := srv.findByID(ctx, accountID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, errors.Wrap(domainerrors.ErrSessionAccountGone, "account no longer exists")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session account")
	}

	return usecase.NewAccountView(account), nil
}

// logExpiredSubject notes whose token expired. The claims are unverified.
func (srv *authService) logExpiredSubject(ctx context.Context, accessToken string) {
	claims, err := srv.tokenService.DecodeWithoutVerify(accessToken)
	if err != nil {
		return
	}

	attrs := []any{slog.String("subject", claims.Subject)}
	if claims.ExpiresAt != nil {
		attrs = append(attrs, slog.Time("expiredAt", claims.ExpiresAt.Time))
	}
	srv.log(ctx).Debug("Rejected expired access token", attrs...)
}

// Logout only records the event; tokens remain valid until expiry.
func (srv *authService) Logout(ctx context.Context, accountID uuid.UUID) error {
	account, err := srv.findByID(ctx, accountID)
	if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
		return errors.Wrap(err, "failed to load account")
	}
	if account == nil {
		account = &entity.Account{ID: accountID}
	}

	srv.publish(ctx, service.AuthEventLoggedOut, account, "")
	srv.log(ctx).Info("Account logged out", slog.String("accountID", accountID.String()))

	return nil
}

// Unlock clears failed attempts and any active lock.
func (srv *authService) Unlock(ctx context.Context, accountID uuid.UUID) error {
	var unlocked *entity.Account
	err := srv.withStore(ctx, func(storeCtx context.Context) error {
		return srv.txManager.Execute(storeCtx, func(repoFactory repository.RepositoryFactory) error {
			accountRepo := repoFactory.NewAccountRepository()

			account, err := accountRepo.FindByIDForUpdate(storeCtx, accountID)
			if err != nil {
				return err
			}
			srv.policy.Unlock(account)
			unlocked = account

			return accountRepo.Update(storeCtx, account)
		})
	})
	if errors.Is(err, repository.ErrAccountNotFound) {
		return errors.Wrap(domainerrors.ErrAccountNotFound, accountID.String())
	}
	if err != nil {
		return errors.Wrap(err, "failed to unlock account")
	}

	srv.publish(ctx, service.AuthEventUnlocked, unlocked, "")
	srv.log(ctx).Info("Account unlocked", slog.String("accountID", accountID.String()))

	return nil
}

// GetProfile fetches the outward view of an account.
func (srv *authService) GetProfile(ctx context.Context, accountID uuid.UUID) (*usecase.AccountView, error) {
	account, err := srv.findByID(ctx, accountID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, errors.Wrap(domainerrors.ErrSessionAccountGone, "account no longer exists")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load profile")
	}

	return usecase.NewAccountView(account), nil
}

func (srv *authService) findByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var account *entity.Account
	err := srv.withStore(ctx, func(storeCtx context.Context) error {
		var findErr error
		account, findErr = srv.accountRepo.FindByID(storeCtx, id)

		return findErr
	})

	return account, err
}

// withStore bounds a credential store round trip. A timeout fails closed.
func (srv *authService) withStore(ctx context.Context, fn func(context.Context) error) error {
	storeCtx, cancel := context.WithTimeout(ctx, srv.storeTimeout)
	defer cancel()

	err := fn(storeCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(domainerrors.ErrStoreTimeout, err.Error())
	}

	return err
}

func (srv *authService) issue(account *entity.Account) (*usecase.AuthOutput, error) {
	pair, err := srv.tokenService.IssuePair(account.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate tokens")
	}

	return &usecase.AuthOutput{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		ExpiresIn:        pair.ExpiresIn,
		RefreshExpiresIn: srv.tokenService.GetRefreshTokenDuration(),
		Account:          usecase.NewAccountView(account),
	}, nil
}

func (srv *authService) dummy() string {
	srv.dummyOnce.Do(func() {
		hash, err := srv.hasher.Hash(dummyPassword)
		if err != nil {
			srv.logger.Warn("Failed to prepare dummy hash", slog.Any("error", err))

			return
		}
		srv.dummyHash = hash
	})

	return srv.dummyHash
}

// publish emits an audit event. Publishing failures are logged and never fail the request.
func (srv *authService) publish(ctx context.Context, eventType service.AuthEventType, account *entity.Account, reason string) {
	event := &service.AuthEvent{
		RequestID:  deliverycontext.GetRequestIDFromContext(ctx),
		EventID:    uuid.NewString(),
		Type:       eventType,
		Email:      account.Email,
		Reason:     reason,
		OccurredAt: srv.now().UTC(),
	}
	if account.ID != uuid.Nil {
		event.AccountID = account.ID.String()
	}

	if err := srv.publisher.PublishAuthEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish audit event",
			slog.String("event_type", string(eventType)),
			slog.Any("error", err),
		)
	}
}
