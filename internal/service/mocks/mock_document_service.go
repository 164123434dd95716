package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"schooldocs/internal/model"
	"schooldocs/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Templates() []model.Template {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.Template)
}

func (m *MockDocumentService) Template(id string) (model.Template, error) {
	args := m.Called(id)
	return args.Get(0).(model.Template), args.Error(1)
}

func (m *MockDocumentService) Preview(ctx context.Context, req service.DocumentRequest) ([]service.RenderedDocument, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.RenderedDocument), args.Error(1)
}

func (m *MockDocumentService) ExportPDF(ctx context.Context, req service.DocumentRequest) (*service.PDFDocument, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PDFDocument), args.Error(1)
}

func (m *MockDocumentService) Dispatch(ctx context.Context, req service.DocumentRequest) (*service.DispatchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DispatchResult), args.Error(1)
}

func (m *MockDocumentService) History(ctx context.Context, limit, offset int) (*service.DispatchListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DispatchListResult), args.Error(1)
}

func (m *MockDocumentService) ExportHistory(ctx context.Context, w io.Writer) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockDocumentService) ArchivedURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}
