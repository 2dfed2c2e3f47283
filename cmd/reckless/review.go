package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/reckless-spender/internal/common"
	"github.com/Veraticus/reckless-spender/internal/config"
	"github.com/Veraticus/reckless-spender/internal/tui"
	"github.com/Veraticus/reckless-spender/internal/tui/themes"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review and edit transactions interactively",
		Long: `Open the interactive transaction list.

Toggle reconciliation with space and cycle categories with c / C. Changes
appear at once and are reverted, with an error shown, if the store
refuses them.`,
		RunE: runReview,
	}

	cmd.Flags().String("theme", "", "color theme (default, catppuccin-mocha)")

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	// The screen owns the terminal, so logs go to a file instead of stderr.
	logPath := filepath.Join(config.DataDir(), "review.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	if err := common.SetupLoggerTo(logFile, viper.GetString("logging.level"), "json"); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	c, err := newCore()
	if err != nil {
		return err
	}

	theme := viper.GetString("ui.theme")
	if flag, _ := cmd.Flags().GetString("theme"); flag != "" {
		theme = flag
	}

	session := tui.Session{
		Transactions: c.cache,
		Categories:   c.directory,
		Editor:       c.coordinator,
		Loader:       c.loader,
	}
	return tui.Run(cmd.Context(), session, tui.WithTheme(themes.GetTheme(theme)))
}
