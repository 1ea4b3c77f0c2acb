package main

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/ftfc/crm/internal/infrastructure/database"
	"github.com/ftfc/crm/pkg/config"
)

var (
	migrateUpSteps   int
	migrateDownSteps int
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, migrate.Up, migrateUpSteps)
		},
	}
	up.Flags().IntVar(&migrateUpSteps, "steps", 0, "Maximum migrations to apply (0 applies all)")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, migrate.Down, migrateDownSteps)
		},
	}
	down.Flags().IntVar(&migrateDownSteps, "steps", 1, "Number of migrations to roll back (0 rolls back all)")

	cmd.AddCommand(up, down)
	return cmd
}

func runMigrate(cmd *cobra.Command, direction migrate.MigrationDirection, steps int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	n, err := database.Migrate(db, direction, steps)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", n)
	return nil
}
