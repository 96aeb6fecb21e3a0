package mocks

import (
	"context"

	"sustainability-council/internal/model"
	"sustainability-council/internal/service"
	models "sustainability-council/shared/models"

	"github.com/stretchr/testify/mock"
)

// MockCouncilService is a mock type for the CouncilService type
type MockCouncilService struct {
	mock.Mock
}

// RunCouncilDebate provides a mock function with given fields: ctx, session, scenario, scenarioType
func (_m *MockCouncilService) RunCouncilDebate(ctx context.Context, session *models.Session, scenario, scenarioType string) (*model.CouncilResponse, error) {
	ret := _m.Called(ctx, session, scenario, scenarioType)

	var r0 *model.CouncilResponse
	if rf, ok := ret.Get(0).(func(context.Context, *models.Session, string, string) *model.CouncilResponse); ok {
		r0 = rf(ctx, session, scenario, scenarioType)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.CouncilResponse)
	}

	return r0, ret.Error(1)
}

// ChatReply provides a mock function with given fields: ctx, session, history, message
func (_m *MockCouncilService) ChatReply(ctx context.Context, session *models.Session, history []model.ChatTurn, message string) string {
	ret := _m.Called(ctx, session, history, message)
	if rf, ok := ret.Get(0).(func(context.Context, *models.Session, []model.ChatTurn, string) string); ok {
		return rf(ctx, session, history, message)
	}
	return ret.String(0)
}

// NewMockCouncilService creates a new instance of MockCouncilService.
func NewMockCouncilService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCouncilService {
	m := &MockCouncilService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.CouncilService = (*MockCouncilService)(nil)
