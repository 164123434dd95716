package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"schooldocs/internal/webhook"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, p webhook.Payload) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}
