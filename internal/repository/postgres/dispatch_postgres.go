package postgres

import (
	"context"
	"database/sql"

	"schooldocs/internal/model"
	"schooldocs/internal/repository"
)

// DispatchPostgres is a PostgreSQL implementation of repository.DispatchRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DispatchPostgres struct {
	db *sql.DB
}

// NewDispatchPostgres creates a new DispatchPostgres repository.
func NewDispatchPostgres(db *sql.DB) *DispatchPostgres {
	return &DispatchPostgres{db: db}
}

var _ repository.DispatchRepository = (*DispatchPostgres)(nil)

func scanDispatch(row scanner) (model.Dispatch, error) {
	var d model.Dispatch
	var status string
	if err := row.Scan(
		&d.ID,
		&d.StudentCode,
		&d.StudentName,
		&d.GuardianName,
		&d.TemplateID,
		&status,
		&d.Error,
		&d.StoragePath,
		&d.CreatedAt,
	); err != nil {
		return model.Dispatch{}, err
	}
	d.Status = model.DispatchStatus(status)
	return d, nil
}

// Create inserts a new dispatch row and returns the stored record.
func (r *DispatchPostgres) Create(ctx context.Context, d *model.Dispatch) (*model.Dispatch, error) {
	const q = `
		INSERT INTO dispatches (id, student_code, student_name, guardian_name, template_id, status, error, storage_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, student_code, student_name, guardian_name, template_id, status, error, storage_path, created_at
	`
	out, err := scanDispatch(r.db.QueryRowContext(ctx, q,
		d.ID,
		d.StudentCode,
		d.StudentName,
		d.GuardianName,
		d.TemplateID,
		string(d.Status),
		d.Error,
		d.StoragePath,
		d.CreatedAt,
	))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByID fetches a single dispatch by its ID.
func (r *DispatchPostgres) FindByID(ctx context.Context, id string) (*model.Dispatch, error) {
	const q = `
		SELECT id, student_code, student_name, guardian_name, template_id, status, error, storage_path, created_at
		FROM dispatches
		WHERE id = $1
	`
	d, err := scanDispatch(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns dispatches using LIMIT/OFFSET pagination and a total count.
func (r *DispatchPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Dispatch], error) {
	const qCount = `SELECT COUNT(*) FROM dispatches`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, student_code, student_name, guardian_name, template_id, status, error, storage_path, created_at
		FROM dispatches
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Dispatch, 0)
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Dispatch]{
		Items: items,
		Total: total,
	}, nil
}
