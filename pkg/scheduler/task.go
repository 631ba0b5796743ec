// Package scheduler runs the periodic background jobs of the API process.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"SodiumWatch/pkg/monitor"
)

// probeTimeout bounds a single health probe.
const probeTimeout = 5 * time.Second

type Scheduler struct {
	cron    *cron.Cron
	monitor *monitor.Monitor
	log     zerolog.Logger
}

func NewScheduler(mon *monitor.Monitor, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		monitor: mon,
		log:     log.With().Str("component", "scheduler").Logger(),
	}
}

// Run schedules the health probes on spec, runs them once immediately and
// blocks until ctx is done. Running jobs are waited for before returning.
func (s *Scheduler) Run(ctx context.Context, spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.checkHealth(ctx) }); err != nil {
		return fmt.Errorf("invalid health check schedule %q: %w", spec, err)
	}

	s.checkHealth(ctx)
	s.cron.Start()
	s.log.Info().Str("spec", spec).Msg("scheduler started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
	return nil
}

func (s *Scheduler) checkHealth(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.monitor.CheckAll(ctx, probeTimeout)
	for _, st := range s.monitor.GetAllStatus() {
		s.log.Debug().
			Str("target", st.Component).
			Str("status", st.Status).
			Str("message", st.Message).
			Msg("health check")
	}
}
