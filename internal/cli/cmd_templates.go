package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"schooldocs/internal/mergefield"
)

func newTemplatesCommand(deps commandDeps) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the built-in document templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := mergefield.NewCatalog()
			if err != nil {
				return err
			}
			list := catalog.List()
			if asJSON {
				for i := range list {
					list[i].Content = ""
				}
				enc := json.NewEncoder(deps.out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			for _, t := range list {
				if _, err := fmt.Fprintf(deps.out, "%s\t%s\n", t.ID, t.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print templates as JSON")
	return cmd
}
