package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/Veraticus/reckless-spender/internal/api"
	"github.com/Veraticus/reckless-spender/internal/api/middleware"
	"github.com/Veraticus/reckless-spender/internal/ofx"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the transaction store",
		Long: `Serve the transaction store's JSON API over the local database.

The store accepts OFX/QFX statement uploads, lists transactions and
categories, and applies single-field updates sent by reckless review.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default: :8000)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	addr := viper.GetString("server.addr")
	if flag, _ := cmd.Flags().GetString("addr"); flag != "" {
		addr = flag
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	server := api.NewServer(addr, api.Config{
		Logger:         slog.Default(),
		Handler:        api.NewHandler(store, ofx.NewParser()),
		Limiter:        middleware.NewRateLimiter(rate.Limit(viper.GetFloat64("server.rate_limit")), viper.GetInt("server.rate_burst")),
		AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
	})

	slog.Info("starting store", "addr", addr, "database", store.Path())
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("store server failed: %w", err)
	}
	return nil
}
