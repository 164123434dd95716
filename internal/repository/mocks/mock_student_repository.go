package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"schooldocs/internal/model"
)

type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) Search(ctx context.Context, term string, limit int) ([]model.Student, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Student), args.Error(1)
}

func (m *MockStudentRepository) ListByClass(ctx context.Context, className string) ([]model.Student, error) {
	args := m.Called(ctx, className)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Student), args.Error(1)
}

func (m *MockStudentRepository) ListClasses(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStudentRepository) FindByCode(ctx context.Context, code int64) (*model.Student, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *MockStudentRepository) Upsert(ctx context.Context, s model.RawStudent) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
