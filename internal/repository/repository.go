package repository

import (
	"context"

	"schooldocs/internal/model"
)

// StudentRepository defines read/write access to the student directory.
// No business logic here, only persistence.
type StudentRepository interface {
	// Search returns students whose name contains term (case-insensitive), ordered by name.
	Search(ctx context.Context, term string, limit int) ([]model.Student, error)

	// ListByClass returns every student of a class, ordered by name.
	ListByClass(ctx context.Context, className string) ([]model.Student, error)

	// ListClasses returns the distinct, non-empty class names in ascending order.
	ListClasses(ctx context.Context) ([]string, error)

	// FindByCode returns a student by its school code.
	FindByCode(ctx context.Context, code int64) (*model.Student, error)

	// Upsert inserts or replaces a student row keyed by code.
	Upsert(ctx context.Context, s model.RawStudent) error
}

// DispatchRepository persists the history of documents sent for signature.
type DispatchRepository interface {
	// Create inserts a new dispatch record and returns the stored row.
	Create(ctx context.Context, d *model.Dispatch) (*model.Dispatch, error)

	// FindByID returns a dispatch by its ID.
	FindByID(ctx context.Context, id string) (*model.Dispatch, error)

	// List returns a paginated list of dispatches, newest first, and the total rows count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Dispatch], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
