// Package service provides testify mocks of the domain services.
package service

import (
	"context"
	"sync"

	"wallet/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock type for the EventPublisher type.
// Every published event is also recorded for inspection.
type MockEventPublisher struct {
	mock.Mock

	mu     sync.Mutex
	events []*service.AuthEvent
}

// NewMockEventPublisher creates a new instance of MockEventPublisher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEventPublisher {
	m := &MockEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// PublishAuthEvent provides a mock function with given fields: ctx, event
func (m *MockEventPublisher) PublishAuthEvent(ctx context.Context, event *service.AuthEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()

	return m.Called(ctx, event).Error(0)
}

// Close provides a mock function with no fields
func (m *MockEventPublisher) Close() error {
	return m.Called().Error(0)
}

// Types returns the types of the recorded events in publish order.
func (m *MockEventPublisher) Types() []service.AuthEventType {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]service.AuthEventType, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.Type)
	}

	return types
}
