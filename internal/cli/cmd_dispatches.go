package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schooldocs/internal/repository/postgres"
	"schooldocs/internal/service"
)

func newExportDispatchesCommand(deps commandDeps) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-dispatches",
		Short: "Write the dispatch history to an xlsx report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), deps, func(db *sql.DB) error {
				f, err := os.Create(out)
				if err != nil {
					return err
				}

				svc := service.NewDocumentService(service.DocumentDeps{
					Dispatches: postgres.NewDispatchPostgres(db),
					Location:   deps.loc,
					Log:        deps.log,
				})
				if err := svc.ExportHistory(cmd.Context(), f); err != nil {
					_ = f.Close()
					_ = os.Remove(out)
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				_, err = fmt.Fprintf(deps.out, "wrote %s\n", out)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "envios.xlsx", "Output file")
	return cmd
}
