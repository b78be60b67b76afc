package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"supplysphere/internal/app"
	"supplysphere/internal/core/config"
	"supplysphere/internal/core/logger"
)

type globals struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger
	cleanup    func()
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "ssctl",
		Short:         "SupplySphere operator CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := g.configPath
			if path == "" {
				path = os.Getenv("CONFIG_PATH")
			}
			if path == "" {
				path = "./configs/config.local.yaml"
			}
			cfg, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			g.cfg = cfg
			g.log, g.cleanup = logger.New(config.Log{Level: "warn"})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if g.cleanup != nil {
				g.cleanup()
			}
		},
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./configs/config.local.yaml)")

	root.AddCommand(newMigrateCmd(g), newSeedCmd(g), newUserCmd(g))
	return root
}

func (g *globals) openDB() (*gorm.DB, func(), error) {
	db, err := app.OpenDB(g.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, closeFn, nil
}
