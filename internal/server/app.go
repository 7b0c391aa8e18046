// Package server initializes and runs the application: it selects the
// storage backend, loads or generates the server identity, wires the device
// registry, envelope codec and vault together, and serves the HTTP API with
// graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/onionkeep/onionkeep/internal/lockx"
	"github.com/onionkeep/onionkeep/internal/logging"
	"github.com/onionkeep/onionkeep/internal/server/config"
	"github.com/onionkeep/onionkeep/internal/server/devices"
	"github.com/onionkeep/onionkeep/internal/server/envelope"
	"github.com/onionkeep/onionkeep/internal/server/httpapi"
	"github.com/onionkeep/onionkeep/internal/server/identity"
	"github.com/onionkeep/onionkeep/internal/server/storage"
	"github.com/onionkeep/onionkeep/internal/server/vault"
)

type App struct {
	config *config.Config
	logger logging.Logger
	api    *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	store, err := newStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	store = storage.NewTimeoutStorage(store, cfg.StorageTimeout)

	id, err := identity.LoadOrGenerate(context.Background(), store, logger)
	if err != nil {
		return nil, fmt.Errorf("identity init error: %w", err)
	}

	locks := lockx.NewKeyedRWMutex()
	vaultRepo := vault.NewStorageRepository(store)
	deviceSvc := devices.NewService(devices.NewStorageRepository(store), id, vaultRepo, locks, logger)
	vaultSvc := vault.NewService(vaultRepo, deviceSvc, locks, logger)
	codec := envelope.NewCodec(deviceSvc, logger)

	api := httpapi.NewServer(cfg.EndpointAddr, cfg.AllowNonLoopback, deviceSvc, vaultSvc, codec, logger)

	return &App{config: cfg, logger: logger, api: api}, nil
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemoryStorage(), nil
	case config.BackendPostgres:
		return storage.NewPostgresStorage(cfg.DatabaseDSN)
	case config.BackendS3:
		return storage.NewS3Storage(context.Background(), storage.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "starting app...", "backend", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.api.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
}
