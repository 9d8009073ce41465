package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daun-gatal/chouse-ui-sub004/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply metadata store migrations and synchronise roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			v, err := db.MigrationVersion(s.writeDB)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"path":    s.cfg.MetaDBPath,
					"version": v,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "metadata store %s at version %d\n", s.cfg.MetaDBPath, v)
			return nil
		},
	}
}
