package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/reckless-spender/internal/cli"
	"github.com/Veraticus/reckless-spender/internal/config"
	"github.com/Veraticus/reckless-spender/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the store's database schema to the latest version.

The store runs migrations on start, so this is only needed to prepare a
database ahead of time or to check its version.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	status, _ := cmd.Flags().GetBool("status")
	if status {
		dbPath := config.ExpandPath(viper.GetString("database.path"))
		store, err := storage.NewSQLiteStorage(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = store.Close() }()

		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		fmt.Fprintln(out, cli.FormatTitle("Database Migration Status"))
		fmt.Fprintf(out, "Database:        %s\n", dbPath)
		fmt.Fprintf(out, "Current version: %d\n", current)
		fmt.Fprintf(out, "Latest version:  %d\n", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			fmt.Fprintln(out, cli.FormatWarning("Migrations pending; run `reckless migrate`"))
		} else {
			fmt.Fprintln(out, cli.FormatSuccess("Schema is up to date"))
		}
		return nil
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	slog.Info("database migrations completed", "database", store.Path())
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database at %s is at version %d", store.Path(), storage.ExpectedSchemaVersion)))
	return nil
}
