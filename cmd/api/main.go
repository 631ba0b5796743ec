package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"SodiumWatch/pkg/api"
	"SodiumWatch/pkg/app"
	"SodiumWatch/pkg/monitor"
	"SodiumWatch/pkg/scheduler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		migrate    bool
	)
	cmd := &cobra.Command{
		Use:           "sodiumwatch-api",
		Short:         "Serve the sodium intake API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, configPath, migrate)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default configs/<APP_ENV>/app.yaml)")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "migrate the schema on startup")
	return cmd
}

func run(ctx context.Context, configPath string, migrate bool) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, "sodiumwatch-api")
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate {
		if err := a.Store.Migrate(); err != nil {
			return err
		}
	}

	mon := monitor.NewMonitor(func(component, status, message string) {
		a.Log.Warn().Str("target", component).Str("status", status).Str("message", message).Msg("component unhealthy")
	})
	mon.RegisterComponent("database", a.Store.Ping)
	if a.NATS != nil {
		mon.RegisterComponent("nats", func(context.Context) error {
			if !a.NATS.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		})
	}

	server := api.NewServer(cfg, api.NewHandlers(a.Gateway, mon, a.Log), a.Registry, a.Log)
	sched := scheduler.NewScheduler(mon, a.Log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return sched.Run(gctx, cfg.Scheduler.HealthCheckSpec) })

	a.Log.Info().
		Str("env", cfg.App.Env).
		Int64("daily_limit_mg", cfg.Sodium.DailyLimitMG).
		Str("time_zone", a.Location.String()).
		Msg("sodiumwatch started")
	return g.Wait()
}
