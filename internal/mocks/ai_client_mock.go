package mocks

import (
	"context"

	"sustainability-council/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockAIClient is a mock type for the AIClient type
type MockAIClient struct {
	mock.Mock
}

// GenerateText provides a mock function with given fields: ctx, userID, systemPrompt, messages, opts
func (_m *MockAIClient) GenerateText(ctx context.Context, userID string, systemPrompt string, messages []service.ChatMessage, opts service.GenerationOptions) (string, service.UsageInfo, error) {
	ret := _m.Called(ctx, userID, systemPrompt, messages, opts)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, string, []service.ChatMessage, service.GenerationOptions) string); ok {
		r0 = rf(ctx, userID, systemPrompt, messages, opts)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}

	var r1 service.UsageInfo
	if v, ok := ret.Get(1).(service.UsageInfo); ok {
		r1 = v
	}

	return r0, r1, ret.Error(2)
}

// Provider provides a mock function with given fields:
func (_m *MockAIClient) Provider() string {
	ret := _m.Called()
	return ret.String(0)
}

// Model provides a mock function with given fields:
func (_m *MockAIClient) Model() string {
	ret := _m.Called()
	return ret.String(0)
}

// NewMockAIClient creates a new instance of MockAIClient. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockAIClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.AIClient = (*MockAIClient)(nil)
