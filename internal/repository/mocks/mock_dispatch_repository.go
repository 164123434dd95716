package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"schooldocs/internal/model"
	"schooldocs/internal/repository"
)

type MockDispatchRepository struct {
	mock.Mock
}

func (m *MockDispatchRepository) Create(ctx context.Context, d *model.Dispatch) (*model.Dispatch, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dispatch), args.Error(1)
}

func (m *MockDispatchRepository) FindByID(ctx context.Context, id string) (*model.Dispatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dispatch), args.Error(1)
}

func (m *MockDispatchRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Dispatch], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Dispatch]), args.Error(1)
}
