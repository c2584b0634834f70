package main

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/database"
)

var migrateSteps int

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := newLogger()
			if err != nil {
				return err
			}
			return database.RunMigrations(cfg.Database.Connection(), cfg.Database.MigrationsPath, log)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := newLogger()
			if err != nil {
				return err
			}
			return database.MigrateDown(cfg.Database.Connection(), cfg.Database.MigrationsPath, migrateSteps, log)
		},
	}
	down.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}
