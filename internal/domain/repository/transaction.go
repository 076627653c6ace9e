package repository

import "context"

// TransactionManager runs a unit of work atomically. Implementations may
// replay fn after a serialization failure, so fn must only touch the store
// through the factory it receives.
type TransactionManager interface {
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory returns repositories bound to the running transaction.
type RepositoryFactory interface {
	NewAccountRepository() AccountRepository
}
