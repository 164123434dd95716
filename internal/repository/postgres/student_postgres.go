package postgres

import (
	"context"
	"database/sql"
	"strings"

	"schooldocs/internal/model"
	"schooldocs/internal/repository"
)

const studentColumns = `code, name, class_name,
		father_name, father_cpf, father_ddd, father_phone, father_email,
		mother_name, mother_cpf, mother_ddd, mother_phone, mother_email,
		billing_whatsapp`

// StudentPostgres is a PostgreSQL implementation of repository.StudentRepository.
type StudentPostgres struct {
	db *sql.DB
}

// NewStudentPostgres creates a new StudentPostgres repository.
func NewStudentPostgres(db *sql.DB) *StudentPostgres {
	return &StudentPostgres{db: db}
}

var _ repository.StudentRepository = (*StudentPostgres)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (model.Student, error) {
	var r model.RawStudent
	if err := row.Scan(
		&r.Code,
		&r.Name,
		&r.ClassName,
		&r.FatherName,
		&r.FatherCPF,
		&r.FatherDDD,
		&r.FatherPhone,
		&r.FatherEmail,
		&r.MotherName,
		&r.MotherCPF,
		&r.MotherDDD,
		&r.MotherPhone,
		&r.MotherEmail,
		&r.BillingWhatsApp,
	); err != nil {
		return model.Student{}, err
	}
	return r.Student(), nil
}

func (r *StudentPostgres) queryStudents(ctx context.Context, q string, args ...any) ([]model.Student, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Search matches term anywhere in the student name using ILIKE.
func (r *StudentPostgres) Search(ctx context.Context, term string, limit int) ([]model.Student, error) {
	q := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE name ILIKE $1 ESCAPE '\'
		ORDER BY name, code
		LIMIT $2
	`
	return r.queryStudents(ctx, q, "%"+escapeLike(term)+"%", limit)
}

// ListByClass returns the full roster of a class.
func (r *StudentPostgres) ListByClass(ctx context.Context, className string) ([]model.Student, error) {
	q := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE class_name = $1
		ORDER BY name, code
	`
	return r.queryStudents(ctx, q, className)
}

// ListClasses returns distinct class names.
func (r *StudentPostgres) ListClasses(ctx context.Context) ([]string, error) {
	const q = `
		SELECT DISTINCT class_name
		FROM students
		WHERE class_name <> ''
		ORDER BY class_name
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return classes, nil
}

// FindByCode fetches a single student. It returns sql.ErrNoRows when absent.
func (r *StudentPostgres) FindByCode(ctx context.Context, code int64) (*model.Student, error) {
	q := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE code = $1
	`
	s, err := scanStudent(r.db.QueryRowContext(ctx, q, code))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert writes the raw row, replacing any existing row with the same code.
func (r *StudentPostgres) Upsert(ctx context.Context, s model.RawStudent) error {
	const q = `
		INSERT INTO students (code, name, class_name,
			father_name, father_cpf, father_ddd, father_phone, father_email,
			mother_name, mother_cpf, mother_ddd, mother_phone, mother_email,
			billing_whatsapp, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			class_name = EXCLUDED.class_name,
			father_name = EXCLUDED.father_name,
			father_cpf = EXCLUDED.father_cpf,
			father_ddd = EXCLUDED.father_ddd,
			father_phone = EXCLUDED.father_phone,
			father_email = EXCLUDED.father_email,
			mother_name = EXCLUDED.mother_name,
			mother_cpf = EXCLUDED.mother_cpf,
			mother_ddd = EXCLUDED.mother_ddd,
			mother_phone = EXCLUDED.mother_phone,
			mother_email = EXCLUDED.mother_email,
			billing_whatsapp = EXCLUDED.billing_whatsapp,
			updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, q,
		s.Code,
		s.Name,
		s.ClassName,
		s.FatherName,
		s.FatherCPF,
		s.FatherDDD,
		s.FatherPhone,
		s.FatherEmail,
		s.MotherName,
		s.MotherCPF,
		s.MotherDDD,
		s.MotherPhone,
		s.MotherEmail,
		s.BillingWhatsApp,
	)
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
