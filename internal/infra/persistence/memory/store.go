// Package memory provides an in-process credential store for development and tests.
// It honours the same contracts as the postgres store: unique normalized emails,
// copies in and out, and serialized transactions.
package memory

import (
	"context"
	"sync"
	"time"

	"wallet/internal/domain/entity"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/domain/repository"

	"github.com/google/uuid"
)

// Store holds accounts in memory.
type Store struct {
	mu      sync.RWMutex
	txMu    sync.Mutex // Serializes writers, both transactional and direct.
	byID    map[uuid.UUID]*entity.Account
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byID:    make(map[uuid.UUID]*entity.Account),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

// NewAccountRepository returns a repository writing straight to the store.
func NewAccountRepository(store *Store) repository.AccountRepository {
	return &accountRepository{store: store}
}

// NewTransactionManager returns a transaction manager over the store.
func NewTransactionManager(store *Store) repository.TransactionManager {
	return &transactionManager{store: store}
}

type transactionManager struct {
	store *Store
}

// Execute runs fn with exclusive write access. Writes are staged and applied only when fn succeeds.
func (tm *transactionManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	tx := &txState{staged: make(map[uuid.UUID]*entity.Account)}
	if err := fn(&repositoryFactory{store: tm.store, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.store.apply(tx)

	return nil
}

type repositoryFactory struct {
	store *Store
	tx    *txState
}

// NewAccountRepository creates an account repository bound to the transaction.
func (f *repositoryFactory) NewAccountRepository() repository.AccountRepository {
	return &accountRepository{store: f.store, tx: f.tx}
}

// txState collects the writes of one transaction in order.
type txState struct {
	staged map[uuid.UUID]*entity.Account
	order  []uuid.UUID
}

func (t *txState) stage(acc *entity.Account) {
	if _, ok := t.staged[acc.ID]; !ok {
		t.order = append(t.order, acc.ID)
	}
	t.staged[acc.ID] = acc
}

func (t *txState) findByEmail(email string) *entity.Account {
	for _, id := range t.order {
		if acc := t.staged[id]; acc.Email == email {
			return acc
		}
	}

	return nil
}

func (s *Store) apply(tx *txState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range tx.order {
		acc := tx.staged[id]
		s.byID[id] = acc
		s.byEmail[acc.Email] = id
	}
}

func (s *Store) get(id uuid.UUID) *entity.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byID[id]
}

func (s *Store) getByEmail(email string) *entity.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil
	}

	return s.byID[id]
}

type accountRepository struct {
	store *Store
	tx    *txState // nil outside a transaction
}

// FindByID retrieves a single account by its unique ID.
func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.tx != nil {
		if acc, ok := r.tx.staged[id]; ok {
			return cloneAccount(acc), nil
		}
	}

	acc := r.store.get(id)
	if acc == nil {
		return nil, repository.ErrAccountNotFound
	}

	return cloneAccount(acc), nil
}

// FindByEmail retrieves a single account by its normalized email address.
func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.tx != nil {
		if acc := r.tx.findByEmail(email); acc != nil {
			return cloneAccount(acc), nil
		}
	}

	acc := r.store.getByEmail(email)
	if acc == nil {
		return nil, repository.ErrAccountNotFound
	}

	return cloneAccount(acc), nil
}

// FindByEmailForUpdate is FindByEmail; transactions already hold the writer lock.
func (r *accountRepository) FindByEmailForUpdate(ctx context.Context, email string) (*entity.Account, error) {
	return r.FindByEmail(ctx, email)
}

// FindByIDForUpdate is FindByID; transactions already hold the writer lock.
func (r *accountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return r.FindByID(ctx, id)
}

// Create persists a new account, assigning its ID and timestamps.
func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.write(func(tx *txState) error {
		if r.store.getByEmail(account.Email) != nil || tx.findByEmail(account.Email) != nil {
			return domainerrors.ErrAccountAlreadyExists.WrapMessage("email already exists")
		}

		if account.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return domainerrors.ErrAccountCreationFailed.WrapMessage(err.Error())
			}
			account.ID = id
		}
		now := r.store.now()
		account.CreatedAt = now
		account.UpdatedAt = now

		tx.stage(cloneAccount(account))

		return nil
	})
}

// Update writes the mutable fields of an existing account.
func (r *accountRepository) Update(ctx context.Context, account *entity.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.write(func(tx *txState) error {
		current, ok := tx.staged[account.ID]
		if !ok {
			current = r.store.get(account.ID)
		}
		if current == nil {
			return repository.ErrAccountNotFound
		}

		updated := cloneAccount(account)
		// Identity columns are immutable.
		updated.Email = current.Email
		updated.CreatedAt = current.CreatedAt
		updated.UpdatedAt = r.store.now()
		account.UpdatedAt = updated.UpdatedAt

		tx.stage(updated)

		return nil
	})
}

// write stages into the surrounding transaction, or runs a one-shot transaction.
func (r *accountRepository) write(fn func(tx *txState) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}

	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()

	tx := &txState{staged: make(map[uuid.UUID]*entity.Account)}
	if err := fn(tx); err != nil {
		return err
	}
	r.store.apply(tx)

	return nil
}

func cloneAccount(acc *entity.Account) *entity.Account {
	cp := *acc
	if acc.LockedUntil != nil {
		t := *acc.LockedUntil
		cp.LockedUntil = &t
	}
	if acc.LastLoginAt != nil {
		t := *acc.LastLoginAt
		cp.LastLoginAt = &t
	}

	return &cp
}
