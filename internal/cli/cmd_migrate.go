package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"schooldocs/internal/database/migration"
)

func newMigrateCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the students and dispatches tables when missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), deps, func(db *sql.DB) error {
				if err := migration.EnsureMigrated(cmd.Context(), db, deps.log, deps.dbHost); err != nil {
					return err
				}
				_, err := fmt.Fprintln(deps.out, "schema ready")
				return err
			})
		},
	}
}
