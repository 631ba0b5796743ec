// Package app wires the long-lived dependencies shared by the binaries.
package app

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"SodiumWatch/pkg/config"
	"SodiumWatch/pkg/database"
	"SodiumWatch/pkg/engine"
	"SodiumWatch/pkg/gateway"
	"SodiumWatch/pkg/logger"
	"SodiumWatch/pkg/messaging"
	"SodiumWatch/pkg/metrics"
)

type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Location *time.Location
	Store    *database.Store
	// NATS is nil when no url is configured.
	NATS     *messaging.NATSClient
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Gateway  *gateway.Service
}

// LoadConfig reads .env if present, then the YAML file at path (or the
// default path when empty) with environment overrides.
func LoadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, pkgerrors.Wrap(err, "failed to load .env")
	}
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	return config.LoadConfig(path)
}

// New opens the store, connects to NATS when configured and builds the
// gateway. The caller owns the result and must Close it.
func New(cfg *config.Config, service string) (*App, error) {
	log := logger.New(service, cfg.Log.Level)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	policy, err := engine.NewPolicy(cfg.Sodium.DailyLimitMG)
	if err != nil {
		return nil, err
	}

	store, err := database.Open(cfg, log)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to open store")
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		Location: loc,
		Store:    store,
		Registry: prometheus.NewRegistry(),
	}

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if a.Metrics, err = metrics.New(a.Registry); err != nil {
		a.Close()
		return nil, err
	}

	var events messaging.Publisher = messaging.NoopPublisher{}
	if cfg.NATS.URL != "" {
		a.NATS, err = messaging.NewNATSClient(cfg.NATS.URL, cfg.NATS.Name, cfg.NATS.Stream, log)
		if err != nil {
			a.Close()
			return nil, pkgerrors.Wrap(err, "failed to connect to NATS")
		}
		events = a.NATS
	} else {
		log.Info().Msg("nats.url is empty, events are disabled")
	}

	clock := engine.SystemClock{}
	a.Gateway = gateway.NewService(gateway.Deps{
		Store:        store,
		Identity:     gateway.NewStoreIdentity(store, clock, loc),
		Policy:       policy,
		Clock:        clock,
		Events:       events,
		Metrics:      a.Metrics,
		Log:          log,
		AlertHistory: cfg.Sodium.AlertHistoryLimit,
	})
	return a, nil
}

func (a *App) Close() {
	if a.NATS != nil {
		if err := a.NATS.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("failed to close NATS connection")
		}
	}
	if err := a.Store.Close(); err != nil {
		a.Log.Warn().Err(err).Msg("failed to close store")
	}
}
