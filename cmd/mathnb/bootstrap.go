package main

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/mathnb/internal/adapters/driven/compute/local"
	"github.com/custodia-labs/mathnb/internal/adapters/driven/compute/remote"
	"github.com/custodia-labs/mathnb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/mathnb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/mathnb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/mathnb/internal/adapters/driving/cli"
	"github.com/custodia-labs/mathnb/internal/core/domain"
	"github.com/custodia-labs/mathnb/internal/core/ports/driven"
	"github.com/custodia-labs/mathnb/internal/core/services"
	"github.com/custodia-labs/mathnb/internal/logger"
	"github.com/custodia-labs/mathnb/internal/providers"
)

// bootstrap wires the adapters selected by the settings into the core
// services.
func bootstrap(opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if opts.DataDir != "" {
		settings.Storage.DataDir = opts.DataDir
	}

	store, closeStore, err := openStore(settings.Storage)
	if err != nil {
		return nil, err
	}

	deps, err := providerDeps(settings.Compute)
	if err != nil {
		return nil, errors.Join(err, closeStore())
	}

	registry := providers.NewRegistry()
	providers.RegisterDefaults(registry)
	factories, err := registry.Factories(settings.Providers.Enabled, deps)
	if err != nil {
		return nil, errors.Join(err, closeStore())
	}

	notebookService := services.NewNotebookService(store, factories,
		services.WithMaxRounds(settings.Engine.MaxRounds),
		services.WithRoundTimeout(settings.Engine.RoundTimeout),
	)

	return &cli.Services{
		Notebook: notebookService,
		Settings: settingsService,
		Close: func() error {
			return errors.Join(notebookService.Close(), closeStore())
		},
	}, nil
}

func openStore(cfg domain.StorageSettings) (driven.SnapshotStore, func() error, error) {
	switch cfg.Backend {
	case domain.StorageMemory:
		logger.Debug("storage: memory")
		return memory.NewSnapshotStore(), func() error { return nil }, nil
	case domain.StorageSQLite, "":
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening storage: %w", err)
		}
		logger.Debug("storage: sqlite at %s", store.Path())
		return store.SnapshotStore(), store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: storage backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}

// providerDeps uses the remote backend when an endpoint is configured,
// and the built-in simplifier without ink recognition otherwise.
func providerDeps(cfg domain.ComputeSettings) (providers.Deps, error) {
	if cfg.Endpoint == "" {
		logger.Debug("compute: built-in simplifier")
		return providers.Deps{Engine: local.New()}, nil
	}

	client, err := remote.NewClient(remote.Config{
		Endpoint:          cfg.Endpoint,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})
	if err != nil {
		return providers.Deps{}, fmt.Errorf("creating compute client: %w", err)
	}
	logger.Debug("compute: remote at %s", cfg.Endpoint)
	return providers.Deps{Engine: client, Recognizer: client}, nil
}
