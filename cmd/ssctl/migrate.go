package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"supplysphere/internal/core/database"
)

func newMigrateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := g.openDB()
			if err != nil {
				return err
			}
			defer closeDB()
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
