package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_pg_trgm",
		SQL:  `CREATE EXTENSION IF NOT EXISTS pg_trgm;`,
	},
	{
		Name: "create_table_students",
		SQL: `CREATE TABLE IF NOT EXISTS students (
  code             BIGINT      PRIMARY KEY,
  name             TEXT        NOT NULL,
  class_name       TEXT        NOT NULL DEFAULT '',
  father_name      TEXT        NOT NULL DEFAULT '',
  father_cpf       TEXT        NOT NULL DEFAULT '',
  father_ddd       TEXT        NOT NULL DEFAULT '',
  father_phone     TEXT        NOT NULL DEFAULT '',
  father_email     TEXT        NOT NULL DEFAULT '',
  mother_name      TEXT        NOT NULL DEFAULT '',
  mother_cpf       TEXT        NOT NULL DEFAULT '',
  mother_ddd       TEXT        NOT NULL DEFAULT '',
  mother_phone     TEXT        NOT NULL DEFAULT '',
  mother_email     TEXT        NOT NULL DEFAULT '',
  billing_whatsapp TEXT        NOT NULL DEFAULT '',
  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_students_name_trgm",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_students_name_trgm ON students USING gin (name gin_trgm_ops);`,
	},
	{
		Name: "create_index_students_class_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_students_class_name ON students (class_name);`,
	},
	{
		Name: "create_table_dispatches",
		SQL: `CREATE TABLE IF NOT EXISTS dispatches (
  id            UUID        PRIMARY KEY,
  student_code  BIGINT      NOT NULL,
  student_name  TEXT        NOT NULL,
  guardian_name TEXT        NOT NULL,
  template_id   TEXT        NOT NULL,
  status        TEXT        NOT NULL CHECK (status IN ('sent', 'failed')),
  error         TEXT        NOT NULL DEFAULT '',
  storage_path  TEXT        NOT NULL DEFAULT '',
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_dispatches_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_dispatches_created_at ON dispatches (created_at);`,
	},
	{
		Name: "create_index_dispatches_student_code",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_dispatches_student_code ON dispatches (student_code);`,
	},
}

// EnsureMigrated checks if the 'dispatches' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *slog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With("component", "database", "db_host", dbHost)

	log.Info("db_migration_check", "status", "starting")

	var exists bool
	query := "SELECT to_regclass('public.dispatches') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			"status", "success",
			"detail", "schema already exists, skipping migration",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.Info("db_migration_start", "status", "in_progress")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Info("db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
