package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matchdesk/cms/internal/bootstrap"
	"github.com/matchdesk/cms/internal/config"
	"github.com/matchdesk/cms/internal/infrastructure/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the CMS tables in the configured database",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := bootstrap.InitializeSchema(cmd.Context(), db, log); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema applied to %s\n", cfg.Database.Name)
	return nil
}
