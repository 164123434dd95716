// Package cli implements the schooldocs-admin maintenance commands.
package cli

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"schooldocs/internal/cache"
	"schooldocs/internal/config"
	"schooldocs/internal/database"
)

// commandDeps carries what every subcommand needs. openDB and openCache are
// swapped in tests.
type commandDeps struct {
	out       io.Writer
	log       *slog.Logger
	loc       *time.Location
	dbHost    string
	openDB    func(ctx context.Context) (*sql.DB, error)
	openCache func(ctx context.Context) (cache.Cache, func(), error)
}

// NewRootCommand builds the admin command tree for cfg.
func NewRootCommand(out io.Writer, cfg *config.AppConfig, log *slog.Logger) *cobra.Command {
	return newRootCommand(commandDeps{
		out:    out,
		log:    log,
		loc:    cfg.Location(),
		dbHost: cfg.Database.Host,
		openDB: func(ctx context.Context) (*sql.DB, error) {
			return database.NewPostgres(ctx, cfg.Database, log)
		},
		openCache: func(ctx context.Context) (cache.Cache, func(), error) {
			if cfg.Redis.Addr == "" {
				return cache.Noop{}, func() {}, nil
			}
			rc, err := cache.NewRedis(ctx, cfg.Redis)
			if err != nil {
				return nil, nil, err
			}
			return rc, func() { _ = rc.Close() }, nil
		},
	})
}

func newRootCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "schooldocs-admin",
		Short:         "Maintenance tasks for the school documents service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(deps.out)
	cmd.SetErr(deps.out)

	cmd.AddCommand(newMigrateCommand(deps))
	cmd.AddCommand(newImportStudentsCommand(deps))
	cmd.AddCommand(newTemplatesCommand(deps))
	cmd.AddCommand(newExportDispatchesCommand(deps))
	return cmd
}

// withDB opens the database for the duration of fn.
func withDB(ctx context.Context, deps commandDeps, fn func(db *sql.DB) error) error {
	db, err := deps.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

// withCache opens the student cache for the duration of fn. A nil opener
// yields a Noop cache.
func withCache(ctx context.Context, deps commandDeps, fn func(c cache.Cache) error) error {
	if deps.openCache == nil {
		return fn(cache.Noop{})
	}
	c, closeFn, err := deps.openCache(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(c)
}
