package service

import (
	"time"

	"wallet/internal/domain/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTokenService is a mock type for the TokenService type
type MockTokenService struct {
	mock.Mock
}

// NewMockTokenService creates a new instance of MockTokenService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTokenService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTokenService {
	m := &MockTokenService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func claimsResult(args mock.Arguments) (*service.Claims, error) {
	var claims *service.Claims
	if v := args.Get(0); v != nil {
		claims = v.(*service.Claims)
	}

	return claims, args.Error(1)
}

// IssuePair provides a mock function with given fields: accountID
func (m *MockTokenService) IssuePair(accountID uuid.UUID) (*service.TokenPair, error) {
	args := m.Called(accountID)
	var pair *service.TokenPair
	if v := args.Get(0); v != nil {
		pair = v.(*service.TokenPair)
	}

	return pair, args.Error(1)
}

// Verify provides a mock function with given fields: tokenString
func (m *MockTokenService) Verify(tokenString string) (*service.Claims, error) {
	return claimsResult(m.Called(tokenString))
}

// DecodeWithoutVerify provides a mock function with given fields: tokenString
func (m *MockTokenService) DecodeWithoutVerify(tokenString string) (*service.Claims, error) {
	return claimsResult(m.Called(tokenString))
}

// GetRefreshTokenDuration provides a mock function with no fields
func (m *MockTokenService) GetRefreshTokenDuration() time.Duration {
	return m.Called().Get(0).(time.Duration)
}
