package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"schooldocs/internal/model"
)

type MockStudentService struct {
	mock.Mock
}

func (m *MockStudentService) Search(ctx context.Context, term string, exclude []int64) ([]model.Student, error) {
	args := m.Called(ctx, term, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Student), args.Error(1)
}

func (m *MockStudentService) Classes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStudentService) ClassRoster(ctx context.Context, className string, exclude []int64) ([]model.Recipient, error) {
	args := m.Called(ctx, className, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipient), args.Error(1)
}

func (m *MockStudentService) Get(ctx context.Context, code int64) (*model.Student, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *MockStudentService) Import(ctx context.Context, rows []model.RawStudent) (int, error) {
	args := m.Called(ctx, rows)
	return args.Int(0), args.Error(1)
}
