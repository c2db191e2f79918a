// Package mocks provides test doubles for the session ports.
package mocks

import (
	"context"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockAPI is a mock implementation of session.API.
type MockAPI struct {
	mock.Mock
}

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func NewMockAPI(t testingT) *MockAPI {
	m := &MockAPI{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAPI) SessionUser() domain.UserID {
	args := m.Called()
	return args.Get(0).(domain.UserID)
}

func (m *MockAPI) JoinRoom(ctx context.Context, id domain.RoomID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPI) LeaveRoom(ctx context.Context, id domain.RoomID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPI) InviteToRoom(ctx context.Context, id domain.RoomID, user domain.UserID) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockAPI) SendMessage(ctx context.Context, id domain.RoomID, body string) (domain.Message, error) {
	args := m.Called(ctx, id, body)
	return args.Get(0).(domain.Message), args.Error(1)
}

func (m *MockAPI) SendCustom(ctx context.Context, id domain.RoomID, body, subtag string, msgCtx map[string]string) (domain.Message, error) {
	args := m.Called(ctx, id, body, subtag, msgCtx)
	return args.Get(0).(domain.Message), args.Error(1)
}

func (m *MockAPI) SetMark(ctx context.Context, id domain.RoomID, ts domain.Timestamp) error {
	args := m.Called(ctx, id, ts)
	return args.Error(0)
}

func (m *MockAPI) SendTyping(ctx context.Context, id domain.RoomID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPI) RoomHistory(ctx context.Context, id domain.RoomID, offset, limit int) (domain.Paginated, error) {
	args := m.Called(ctx, id, offset, limit)
	return args.Get(0).(domain.Paginated), args.Error(1)
}

func (m *MockAPI) RoomHistoryLast(ctx context.Context, id domain.RoomID, count int) (domain.Paginated, error) {
	args := m.Called(ctx, id, count)
	return args.Get(0).(domain.Paginated), args.Error(1)
}

func (m *MockAPI) RoomUsers(ctx context.Context, id domain.RoomID) ([]domain.UserID, error) {
	args := m.Called(ctx, id)
	users, _ := args.Get(0).([]domain.UserID)
	return users, args.Error(1)
}

func (m *MockAPI) JoinCall(ctx context.Context, id domain.CallID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPI) LeaveCall(ctx context.Context, id domain.CallID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockAPI) InviteToCall(ctx context.Context, id domain.CallID, user domain.UserID) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockAPI) AnswerCall(ctx context.Context, id domain.CallID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPI) RejectCall(ctx context.Context, id domain.CallID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockAPI) PullCall(ctx context.Context, id domain.CallID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPI) CallHistory(ctx context.Context, id domain.CallID, offset, limit int) (domain.Paginated, error) {
	args := m.Called(ctx, id, offset, limit)
	return args.Get(0).(domain.Paginated), args.Error(1)
}

func (m *MockAPI) CallUsers(ctx context.Context, id domain.CallID) ([]domain.UserID, error) {
	args := m.Called(ctx, id)
	users, _ := args.Get(0).([]domain.UserID)
	return users, args.Error(1)
}
