package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/teemow/mailwright/internal/config"
	"github.com/teemow/mailwright/internal/logging"
	"github.com/teemow/mailwright/internal/storage/sqlite"
)

// app bundles what every command needs: the configuration, the database
// holding settings and the analysis cache, and the process logger.
type app struct {
	cfg    *config.Config
	store  *sqlite.Store
	logger *slog.Logger
	closer io.Closer
}

// openApp loads the configuration in two passes: the first locates the
// database, the second layers the settings stored in it.
func openApp(ctx context.Context, debug bool) (*app, error) {
	base, err := config.Load(ctx, config.LoadOptions{File: configFile})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := sqlite.Open(base.Storage.Path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(ctx, config.LoadOptions{File: configFile, Settings: store})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	logger, closer, err := logging.New(cfg.Logging())
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	slog.SetDefault(logger)

	return &app{cfg: cfg, store: store, logger: logger, closer: closer}, nil
}

func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.closer.Close())
}
