// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/review-trust/internal/acquire"
	"github.com/pdiddy/review-trust/internal/cache"
	"github.com/pdiddy/review-trust/internal/extract"
	"github.com/pdiddy/review-trust/internal/httputil"
	"github.com/pdiddy/review-trust/internal/kv"
	"github.com/pdiddy/review-trust/internal/logging"
	"github.com/pdiddy/review-trust/internal/secrets"
	"github.com/pdiddy/review-trust/internal/trust"
	"github.com/pdiddy/review-trust/pkg/types"
)

// app is the wired process: one kv store, one queue, one service.
type app struct {
	cfg     types.Config
	log     *slog.Logger
	store   kv.Store
	cache   *cache.Cache
	breaker *acquire.CircuitBreaker
	queue   *acquire.Queue
	svc     *trust.Service
}

// newFetcher is replaced in tests.
var newFetcher = func(creds secrets.Credentials) httputil.Fetcher {
	return httputil.NewClient(creds.UserAgent, creds.Cookie)
}

// openApp loads the configuration and wires every component.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if eph, _ := cmd.Flags().GetBool("ephemeral"); eph {
		cfg.KV.Driver = "memory"
	}
	if w, err := cmd.Flags().GetInt("workers"); err == nil && w > 0 {
		cfg.Workers = w
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ex, err := extract.New(cfg.Markers)
	if err != nil {
		return nil, fmt.Errorf("compiling extraction rules: %w", err)
	}

	store, err := kv.Open(cmd.Context(), cfg.KV)
	if err != nil {
		return nil, fmt.Errorf("opening kv store: %w", err)
	}

	c, err := cache.New(store, cfg.Cache, acquire.LockKey)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("configuring cache: %w", err)
	}

	a := &app{
		cfg:     cfg,
		log:     logger,
		store:   store,
		cache:   c,
		breaker: acquire.NewCircuitBreaker(store, cfg.Network.LockDuration),
	}
	creds := secrets.CredentialsFrom(loadedSecrets, cfg.Network.UserAgent)
	a.queue = acquire.NewQueue(newFetcher(creds), a.breaker, cfg.Network, logger)
	a.svc = trust.New(trust.Deps{
		Queue:     a.queue,
		Cache:     a.cache,
		Extractor: ex,
		Source:    cfg.Source,
		Scoring:   cfg.Scoring,
		Logger:    logger,
		Workers:   cfg.Workers,
	})
	logger.Debug("wired", "kv", cfg.KV.Driver, "workers", cfg.Workers)
	return a, nil
}

// Close stops the queue and releases the store.
func (a *app) Close() error {
	a.queue.Close()
	return a.store.Close()
}

// failedCount returns an error naming how many results failed, or nil.
func failedCount(results []trust.Result) error {
	n := 0
	for _, r := range results {
		if r.Outcome.Failure != nil {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return fmt.Errorf("%d reviewer(s) failed analysis", n)
}

// closeApp folds the close error into err.
func closeApp(a *app, err *error) {
	if cerr := a.Close(); cerr != nil {
		*err = errors.Join(*err, fmt.Errorf("closing: %w", cerr))
	}
}
