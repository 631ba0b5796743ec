// Package gateway records meals and serves the sodium read views. It owns
// the transaction that ties the ledger, the daily summary and the alert slot
// together.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"SodiumWatch/pkg/database"
	"SodiumWatch/pkg/engine"
	"SodiumWatch/pkg/messaging"
	"SodiumWatch/pkg/metrics"
	"SodiumWatch/pkg/model"
)

// maxAttempts bounds the meal transaction: the first try plus one retry.
const maxAttempts = 2

// MealInput is an unvalidated meal submission.
type MealInput struct {
	Name       string
	SodiumMG   json.RawMessage
	RecordedAt string
	Portion    string
	// Source overrides the derived source. Only bulk import sets it.
	Source model.MealSource
}

// Deps are the collaborators of a Service.
type Deps struct {
	Store        *database.Store
	Identity     IdentityResolver
	Policy       *engine.Policy
	Clock        engine.Clock
	Events       messaging.Publisher
	Metrics      *metrics.Metrics
	Log          zerolog.Logger
	AlertHistory int
}

type Service struct {
	store        *database.Store
	identity     IdentityResolver
	policy       *engine.Policy
	aggregator   *engine.Aggregator
	alerts       *engine.AlertEngine
	weekly       *engine.WeeklyReporter
	clock        engine.Clock
	events       messaging.Publisher
	metrics      *metrics.Metrics
	log          zerolog.Logger
	alertHistory int
}

func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = engine.SystemClock{}
	}
	if d.Events == nil {
		d.Events = messaging.NoopPublisher{}
	}
	if d.AlertHistory <= 0 {
		d.AlertHistory = 50
	}
	return &Service{
		store:        d.Store,
		identity:     d.Identity,
		policy:       d.Policy,
		aggregator:   engine.NewAggregator(d.Policy, d.Clock),
		alerts:       engine.NewAlertEngine(d.Policy),
		weekly:       engine.NewWeeklyReporter(d.Policy),
		clock:        d.Clock,
		events:       d.Events,
		metrics:      d.Metrics,
		log:          d.Log.With().Str("component", "gateway").Logger(),
		alertHistory: d.AlertHistory,
	}
}

// Authenticate resolves the acting identity of a meal submission. A known
// device token wins over the session; an unknown token falls back to the
// session user.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	id, err := s.authenticate(ctx, creds)
	if err != nil {
		s.metrics.RecordFailure(failureReason(err))
		return nil, err
	}
	return id, nil
}

func (s *Service) authenticate(ctx context.Context, creds Credentials) (*Identity, error) {
	if token, ok := ParseDeviceToken(creds.Authorization, creds.DeviceToken); ok {
		id, err := s.identity.ResolveDevice(ctx, token)
		if err != nil {
			return nil, storageErr(err)
		}
		if id != nil {
			return id, nil
		}
		s.log.Debug().Msg("unknown device token presented")
	}
	return s.sessionIdentity(ctx, creds.SessionUserID)
}

func (s *Service) sessionIdentity(ctx context.Context, userID string) (*Identity, error) {
	if userID == "" {
		return nil, ErrAuthenticationRequired
	}
	id, err := s.identity.ResolveUser(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	if id == nil {
		return nil, ErrAuthenticationRequired
	}
	return id, nil
}

// RecordMeal authenticates the caller and records one meal.
func (s *Service) RecordMeal(ctx context.Context, creds Credentials, in MealInput) (*RecordResult, error) {
	id, err := s.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.RecordFor(ctx, id, in)
}

type recorded struct {
	meal      model.Meal
	summary   *model.DailySummary
	outcome   *engine.Outcome
	alertSafe bool
}

// RecordFor records a meal for an already resolved identity. Ledger append,
// summary recompute and alert evaluation commit together; a failed
// transaction is retried once before ErrStorage is returned.
func (s *Service) RecordFor(ctx context.Context, id *Identity, in MealInput) (*RecordResult, error) {
	started := s.clock.Now()

	meal, err := s.buildMeal(id, in, started)
	if err != nil {
		s.metrics.RecordFailure(failureReason(err))
		return nil, err
	}
	day := engine.DayOf(meal.RecordedAt, id.Location)

	var rec *recorded
	for attempt := 1; ; attempt++ {
		rec, err = s.record(ctx, id, meal, day)
		if err == nil {
			break
		}
		if attempt >= maxAttempts || ctx.Err() != nil || errors.Is(err, engine.ErrInvalidAmount) || errors.Is(err, engine.ErrTotalOverflow) {
			s.metrics.RecordFailure("storage")
			s.log.Error().Err(err).
				Str("user_id", id.UserID).
				Str("date", engine.FormatDay(day)).
				Int("attempts", attempt).
				Msg("meal transaction failed")
			return nil, storageErr(err)
		}
		s.metrics.RecordRetry()
		s.log.Warn().Err(err).
			Str("user_id", id.UserID).
			Bool("conflict", database.IsConflict(err)).
			Msg("meal transaction failed, retrying")
	}

	s.metrics.RecordMeal(string(rec.meal.Source), s.clock.Now().Sub(started))
	s.publish(id, rec)

	res := &RecordResult{
		MealID:  rec.meal.ID,
		Summary: summaryView(rec.summary),
		Advice:  s.policy.Advice(rec.summary),
	}
	if rec.outcome != nil {
		level, msg := string(rec.outcome.Level), rec.outcome.Message
		res.AlertLevel, res.AlertMessage = &level, &msg
	}
	return res, nil
}

func (s *Service) buildMeal(id *Identity, in MealInput, now time.Time) (model.Meal, error) {
	mg, err := ParseSodium(in.SodiumMG)
	if err != nil {
		return model.Meal{}, err
	}

	recordedAt, ok := ParseRecordedAt(in.RecordedAt, id.Location, now)
	if !ok && in.RecordedAt != "" {
		s.log.Debug().Str("recorded_at", in.RecordedAt).Msg("unparsable timestamp, using now")
	}

	source := in.Source
	if source == "" {
		source = model.SourceManual
		if id.DeviceID != "" {
			source = model.SourceDevice
		}
	}
	if !source.Valid() {
		return model.Meal{}, &PayloadError{Field: "source", Reason: fmt.Sprintf("unknown source %q", source)}
	}

	return model.Meal{
		UserID:     id.UserID,
		DeviceID:   id.DeviceID,
		Name:       truncate(in.Name, maxNameLen),
		SodiumMG:   mg,
		Portion:    truncate(in.Portion, maxPortionLen),
		Source:     source,
		RecordedAt: recordedAt.UTC(),
	}, nil
}

// record runs one attempt. meal is copied so a retry starts clean.
func (s *Service) record(ctx context.Context, id *Identity, meal model.Meal, day datatypes.Date) (*recorded, error) {
	rec := &recorded{meal: meal}
	err := s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.LockDay(id.UserID, day); err != nil {
			return err
		}
		if err := tx.Meal().Append(&rec.meal); err != nil {
			return err
		}
		summary, err := s.aggregator.Recompute(tx.Meal(), tx.Summary(), id.UserID, day, id.Location)
		if err != nil {
			return err
		}
		rec.summary = summary
		rec.outcome, rec.alertSafe = s.evaluate(ctx, tx, id, day, summary)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// evaluate runs the alert engine inside a savepoint. A failure rolls back
// only the alert write; it is logged and the level is still reported.
func (s *Service) evaluate(ctx context.Context, tx *database.Store, id *Identity, day datatypes.Date, summary *model.DailySummary) (*engine.Outcome, bool) {
	var outcome *engine.Outcome
	err := tx.Transaction(ctx, func(sp *database.Store) error {
		var err error
		outcome, err = s.alerts.Evaluate(sp.Alert(), id.UserID, id.DeviceID, day, summary)
		return err
	})
	if err == nil {
		return outcome, true
	}

	s.metrics.RecordAlertFailure()
	s.log.Warn().Err(err).
		Str("user_id", id.UserID).
		Str("device_id", id.DeviceID).
		Str("date", engine.FormatDay(day)).
		Msg("alert not persisted")

	if outcome == nil {
		if th, ok := s.alerts.Level(summary); ok {
			outcome = &engine.Outcome{Level: th.Severity, Message: th.Message, Threshold: th.Code}
		}
	}
	return outcome, false
}

func (s *Service) publish(id *Identity, rec *recorded) {
	ev := messaging.MealRecorded{
		MealID:     rec.meal.ID,
		UserID:     id.UserID,
		DeviceID:   id.DeviceID,
		SodiumMG:   rec.meal.SodiumMG,
		Source:     string(rec.meal.Source),
		RecordedAt: rec.meal.RecordedAt,
	}
	if rec.summary != nil {
		ev.Date = engine.FormatDay(rec.summary.Date)
		ev.TotalMG = rec.summary.TotalMG
		ev.PercentOfLimit = rec.summary.PercentOfLimit
	}
	if err := s.events.Publish(messaging.SubjectMealRecorded, ev); err != nil {
		s.log.Warn().Err(err).Str("meal_id", rec.meal.ID).Msg("failed to publish meal event")
	}

	out := rec.outcome
	if out == nil || !rec.alertSafe || out.Alert == nil {
		return
	}
	s.metrics.RecordAlert(string(out.Level), string(out.Action))
	if out.Action == engine.ActionKept {
		return
	}
	a := out.Alert
	alertEv := messaging.AlertChanged{
		AlertID:   a.ID,
		UserID:    a.UserID,
		DeviceID:  a.DeviceID,
		Date:      engine.FormatDay(a.Date),
		Threshold: a.Threshold,
		Severity:  string(a.Severity),
		Action:    string(out.Action),
		TotalMG:   a.SodiumTotal,
		Percent:   a.ThresholdPercent,
	}
	if err := s.events.Publish(messaging.AlertSubject(a.Severity), alertEv); err != nil {
		s.log.Warn().Err(err).Str("alert_id", a.ID).Msg("failed to publish alert event")
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return "auth"
	case errors.Is(err, ErrInvalidPayload):
		return "payload"
	default:
		return "storage"
	}
}
