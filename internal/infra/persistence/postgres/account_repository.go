// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"wallet/internal/domain/entity"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/domain/repository"
	"wallet/internal/errors"
	"wallet/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// accountRepository implements the domain.AccountRepository interface using GORM.
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository is the constructor for accountRepository.
// It returns the repository as a domain.AccountRepository interface, adhering to dependency inversion.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// FindByID retrieves a single account by its unique ID.
func (repo *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return repo.first(byIDQuery(repo.db.WithContext(ctx), id, false), "failed to find account by id")
}

// FindByEmail retrieves a single account by its normalized email address.
func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return repo.first(byEmailQuery(repo.db.WithContext(ctx), email, false), "failed to find account by email")
}

// FindByEmailForUpdate locks the account row until the surrounding transaction ends.
func (repo *accountRepository) FindByEmailForUpdate(ctx context.Context, email string) (*entity.Account, error) {
	return repo.first(byEmailQuery(repo.db.WithContext(ctx), email, true), "failed to lock account by email")
}

// FindByIDForUpdate locks the account row until the surrounding transaction ends.
func (repo *accountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return repo.first(byIDQuery(repo.db.WithContext(ctx), id, true), "failed to lock account by id")
}

func byIDQuery(db *gorm.DB, id uuid.UUID, forUpdate bool) *gorm.DB {
	return withLock(db, forUpdate).Where("id = ?", id)
}

func byEmailQuery(db *gorm.DB, email string, forUpdate bool) *gorm.DB {
	return withLock(db, forUpdate).Where("email = ?", email)
}

func withLock(db *gorm.DB, forUpdate bool) *gorm.DB {
	if !forUpdate {
		return db
	}

	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

// Create persists a new account, assigning its ID when unset.
func (repo *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if account.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Wrap(err, "failed to generate account id")
		}
		account.ID = id
	}

	accountM := fromAccountDomain(account)
	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrAccountAlreadyExists.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrAccountCreationFailed.WrapMessage("missing required account information")
		}
		if isCheckConstraintViolation(err) {
			return domainerrors.ErrAccountCreationFailed.WrapMessage("account violates a check constraint")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create account")
	}

	account.CreatedAt = accountM.CreatedAt
	account.UpdatedAt = accountM.UpdatedAt

	return nil
}

// Update writes the mutable fields of an existing account.
func (repo *accountRepository) Update(ctx context.Context, account *entity.Account) error {
	accountM := fromAccountDomain(account)

	// Select lists every mutable column so zero values (count=0, nil lock) are written.
	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{ID: account.ID}).
		Select("PasswordHash", "IsActive", "IsEmailVerified", "FailedAttemptCount", "LockedUntil", "LastLoginAt", "UpdatedAt").
		Updates(accountM)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update account")
	}
	if result.RowsAffected == 0 {
		return repository.ErrAccountNotFound
	}

	account.UpdatedAt = accountM.UpdatedAt

	return nil
}

func (repo *accountRepository) first(query *gorm.DB, msg string) (*entity.Account, error) {
	var accountM model.AccountModel
	if err := query.First(&accountM).Error; err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.Wrap(err, msg)
	}

	// Map the persistence model back to a pure domain entity before returning.
	return toAccountDomain(&accountM), nil
}

func toAccountDomain(data *model.AccountModel) *entity.Account {
	if data == nil {
		return nil
	}

	return &entity.Account{
		ID:                 data.ID,
		Email:              data.Email,
		PasswordHash:       data.PasswordHash,
		IsActive:           data.IsActive,
		IsEmailVerified:    data.IsEmailVerified,
		FailedAttemptCount: data.FailedAttemptCount,
		LockedUntil:        data.LockedUntil,
		LastLoginAt:        data.LastLoginAt,
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
	}
}

func fromAccountDomain(data *entity.Account) *model.AccountModel {
	if data == nil {
		return nil
	}

	return &model.AccountModel{
		ID:                 data.ID,
		Email:              data.Email,
		PasswordHash:       data.PasswordHash,
		IsActive:           data.IsActive,
		IsEmailVerified:    data.IsEmailVerified,
		FailedAttemptCount: data.FailedAttemptCount,
		LockedUntil:        data.LockedUntil,
		LastLoginAt:        data.LastLoginAt,
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
	}
}
