package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"supplysphere/internal/repo"
	"supplysphere/internal/service"
)

func newSeedCmd(g *globals) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo accounts (existing emails are skipped)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := g.openDB()
			if err != nil {
				return err
			}
			defer closeDB()
			if password == "" {
				password = g.cfg.Seed.DefaultPassword
			}
			n, err := service.Seed(cmd.Context(), repo.NewUserRepo(db), password, g.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password for seeded accounts (default seed.default_password)")
	return cmd
}
