package mocks

import (
	"context"

	"sustainability-council/internal/auth"
	models "sustainability-council/shared/models"

	"github.com/stretchr/testify/mock"
)

// MockAuthenticator is a mock type for the Authenticator type
type MockAuthenticator struct {
	mock.Mock
}

// Login provides a mock function with given fields: ctx, name
func (_m *MockAuthenticator) Login(ctx context.Context, name string) (*models.Session, string, error) {
	ret := _m.Called(ctx, name)

	var r0 *models.Session
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Session)
	}
	return r0, ret.String(1), ret.Error(2)
}

// Logout provides a mock function with given fields: ctx, token
func (_m *MockAuthenticator) Logout(ctx context.Context, token string) error {
	ret := _m.Called(ctx, token)
	return ret.Error(0)
}

// CurrentUser provides a mock function with given fields: ctx, token
func (_m *MockAuthenticator) CurrentUser(ctx context.Context, token string) (*models.Session, error) {
	ret := _m.Called(ctx, token)

	var r0 *models.Session
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Session)
	}
	return r0, ret.Error(1)
}

// NewMockAuthenticator creates a new instance of MockAuthenticator.
func NewMockAuthenticator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAuthenticator {
	m := &MockAuthenticator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ auth.Authenticator = (*MockAuthenticator)(nil)
