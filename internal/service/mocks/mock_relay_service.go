package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"schooldocs/internal/service"
	"schooldocs/internal/webhook"
)

type MockRelayService struct {
	mock.Mock
}

func (m *MockRelayService) Relay(ctx context.Context, p webhook.Payload) service.RelayResult {
	args := m.Called(ctx, p)
	return args.Get(0).(service.RelayResult)
}
