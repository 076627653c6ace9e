// Package repository provides testify mocks of the domain repositories.
package repository

import (
	"context"

	"wallet/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock type for the AccountRepository type
type MockAccountRepository struct {
	mock.Mock
}

// NewMockAccountRepository creates a new instance of MockAccountRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockAccountRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAccountRepository {
	m := &MockAccountRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockAccountRepository) account(args mock.Arguments) (*entity.Account, error) {
	var acc *entity.Account
	if v := args.Get(0); v != nil {
		acc = v.(*entity.Account)
	}

	return acc, args.Error(1)
}

// FindByID provides a mock function with given fields: ctx, id
func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return m.account(m.Called(ctx, id))
}

// FindByEmail provides a mock function with given fields: ctx, email
func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return m.account(m.Called(ctx, email))
}

// FindByEmailForUpdate provides a mock function with given fields: ctx, email
func (m *MockAccountRepository) FindByEmailForUpdate(ctx context.Context, email string) (*entity.Account, error) {
	return m.account(m.Called(ctx, email))
}

// FindByIDForUpdate provides a mock function with given fields: ctx, id
func (m *MockAccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return m.account(m.Called(ctx, id))
}

// Create provides a mock function with given fields: ctx, account
func (m *MockAccountRepository) Create(ctx context.Context, account *entity.Account) error {
	return m.Called(ctx, account).Error(0)
}

// Update provides a mock function with given fields: ctx, account
func (m *MockAccountRepository) Update(ctx context.Context, account *entity.Account) error {
	return m.Called(ctx, account).Error(0)
}
