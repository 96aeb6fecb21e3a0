package mocks

import (
	"context"

	"sustainability-council/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// MockUsageEventPublisher is a mock type for the UsageEventPublisher type
type MockUsageEventPublisher struct {
	mock.Mock
}

// PublishUsageEvent provides a mock function with given fields: ctx, event
func (_m *MockUsageEventPublisher) PublishUsageEvent(ctx context.Context, event messaging.UsageEvent) error {
	ret := _m.Called(ctx, event)
	return ret.Error(0)
}

// Close provides a mock function with given fields:
func (_m *MockUsageEventPublisher) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

// NewMockUsageEventPublisher creates a new instance of MockUsageEventPublisher.
func NewMockUsageEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUsageEventPublisher {
	m := &MockUsageEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ messaging.UsageEventPublisher = (*MockUsageEventPublisher)(nil)
