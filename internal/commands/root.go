// Package commands implements the CLI commands for the message archive service
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the 'temnet-parser' command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "temnet-parser",
		Short: "Search service for the group message archive",
		Long: `temnet-parser serves full-text search over an archive of group chat messages.

It exposes a JSON API reporting how many matching messages each user posted in a
time range, the matching messages themselves, and a small HTML search page.

Configuration is read from the environment (and a .env file when present).
DATABASE_URL is required.

Example:
  temnet-parser migrate up
  temnet-parser serve`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())

	return cmd
}
