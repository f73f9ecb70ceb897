package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/golang-migrate/migrate/v4"
	"github.com/grigden22/temnet-parser/internal/config"
	"github.com/grigden22/temnet-parser/internal/database"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the 'migrate' subcommand for managing the schema.
// Usage: temnet-parser migrate up|down|version
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the archive database schema",
		Long: `Apply, roll back or inspect the embedded schema migrations.

Example:
  temnet-parser migrate up
  temnet-parser migrate down
  temnet-parser migrate version`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			return database.RunMigrations(url)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			return database.RollbackMigration(url)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			version, dirty, err := database.GetMigrationVersion(url)
			return printVersion(cmd.OutOrStdout(), version, dirty, err)
		},
	})

	return cmd
}

func databaseURL() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg.Database.URL, nil
}

// printVersion reports the schema version; an unmigrated database is not an error.
func printVersion(w io.Writer, version uint, dirty bool, err error) error {
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(w, "no migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	if dirty {
		fmt.Fprintf(w, "version %d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(w, "version %d\n", version)
	return nil
}
