package cli

import (
	"github.com/spf13/cobra"

	"github.com/dentalcare/aftercare/internal/database"
)

func init() {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return database.RollbackMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath, steps)
		},
	}
	down.Flags().Int("steps", 1, "Number of migrations to revert")

	cmd.AddCommand(up, down)
	RootCmd.AddCommand(cmd)
}
