// Package mocks provides test doubles for the rtc ports.
package mocks

import (
	"context"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/mock"
)

// MockSignalingPort is a mock implementation of rtc.SignalingPort.
type MockSignalingPort struct {
	mock.Mock
}

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func NewMockSignalingPort(t testingT) *MockSignalingPort {
	m := &MockSignalingPort{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSignalingPort) SendDescription(ctx context.Context, callID domain.CallID, peerID domain.UserID, desc webrtc.SessionDescription) error {
	args := m.Called(ctx, callID, peerID, desc)
	return args.Error(0)
}

func (m *MockSignalingPort) SendCandidate(ctx context.Context, callID domain.CallID, peerID domain.UserID, candidate webrtc.ICECandidateInit) error {
	args := m.Called(ctx, callID, peerID, candidate)
	return args.Error(0)
}
