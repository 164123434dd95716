package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schooldocs/internal/cache"
	"schooldocs/internal/repository/postgres"
	"schooldocs/internal/service"
	"schooldocs/internal/spreadsheet"
)

func newImportStudentsCommand(deps commandDeps) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:     "import-students <file.xlsx>",
		Short:   "Load the student directory export into the database",
		Example: "  schooldocs-admin import-students alunos.xlsx\n  schooldocs-admin import-students --dry-run alunos.xlsx",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := spreadsheet.ImportStudents(f)
			if err != nil {
				return err
			}
			if dryRun {
				_, err = fmt.Fprintf(deps.out, "parsed=%d skipped_rows=%v\n", len(res.Students), res.Skipped)
				return err
			}

			return withDB(cmd.Context(), deps, func(db *sql.DB) error {
				return withCache(cmd.Context(), deps, func(c cache.Cache) error {
					svc := service.NewStudentService(postgres.NewStudentPostgres(db), c, deps.log)
					n, err := svc.Import(cmd.Context(), res.Students)
					if err != nil {
						return fmt.Errorf("imported %d of %d: %w", n, len(res.Students), err)
					}
					_, err = fmt.Fprintf(deps.out, "imported=%d skipped_rows=%v\n", n, res.Skipped)
					return err
				})
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse the file without writing to the database")
	return cmd
}
