// Package postgres stores accounts in PostgreSQL through GORM.
package postgres

import (
	"context"
	"time"

	"wallet/internal/domain/repository"
	"wallet/internal/errors"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

const (
	txMaxRetries   = 3
	txRetryBackoff = 20 * time.Millisecond
)

// gormTransactionManager runs use case callbacks inside one GORM transaction.
type gormTransactionManager struct {
	db      *gorm.DB
	backoff func() retry.Backoff
}

// gormRepositoryFactory hands out repositories bound to one transaction.
type gormRepositoryFactory struct {
	tx *gorm.DB
}

// NewAccountRepository returns an account repository bound to the transaction.
func (f *gormRepositoryFactory) NewAccountRepository() repository.AccountRepository {
	return NewAccountRepository(f.tx)
}

// NewTransactionManager returns a transaction manager over db.
func NewTransactionManager(db *gorm.DB) repository.TransactionManager {
	return &gormTransactionManager{
		db: db,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(txMaxRetries, retry.NewExponential(txRetryBackoff))
		},
	}
}

// Execute runs fn in a transaction, committing when fn returns nil.
// A transaction aborted by a serialization failure or deadlock is replayed
// from the start, so fn must not have side effects outside the transaction.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	err := retry.Do(ctx, tm.backoff(), func(ctx context.Context) error {
		// gorm.Transaction rolls back on error or panic
		err := tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormRepositoryFactory{tx: tx})
		})
		if isTransientTxError(err) {
			return retry.RetryableError(err)
		}

		return err
	})

	if isTransientTxError(err) {
		return errors.Wrap(err, "transaction aborted after retries")
	}

	return err
}
