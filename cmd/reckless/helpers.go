package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/Veraticus/reckless-spender/internal/cache"
	"github.com/Veraticus/reckless-spender/internal/common"
	"github.com/Veraticus/reckless-spender/internal/config"
	"github.com/Veraticus/reckless-spender/internal/directory"
	"github.com/Veraticus/reckless-spender/internal/edits"
	"github.com/Veraticus/reckless-spender/internal/loader"
	"github.com/Veraticus/reckless-spender/internal/remote"
	"github.com/Veraticus/reckless-spender/internal/storage"
)

// core is the client side synchronization stack over one store.
type core struct {
	client      *remote.Client
	cache       *cache.Cache
	directory   *directory.Directory
	coordinator *edits.Coordinator
	loader      *loader.Orchestrator
}

func newStoreClient() (*remote.Client, error) {
	client, err := remote.NewClient(
		viper.GetString("store.url"),
		remote.WithTimeout(viper.GetDuration("store.timeout")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create store client: %w", err)
	}
	return client, nil
}

func newCore() (*core, error) {
	client, err := newStoreClient()
	if err != nil {
		return nil, err
	}

	c := cache.New()
	d := directory.New(client)
	return &core{
		client:      client,
		cache:       c,
		directory:   d,
		coordinator: edits.New(c, client),
		loader: loader.New(client, c, d, loader.WithStateHook(func(s loader.State, err error) {
			common.LogDebug("load state changed", common.Fields{"state": s.String(), "error": err})
		})),
	}, nil
}

// load fills the cache and directory, failing with a message naming the store.
func (c *core) load(ctx context.Context) error {
	if err := c.loader.Load(ctx); err != nil {
		return common.NewUserError(
			fmt.Sprintf("could not load data from %s", viper.GetString("store.url")), err)
	}
	return nil
}

// openStorage opens and migrates the store's database.
func openStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Debug("opened database", "path", dbPath)
	return store, nil
}
