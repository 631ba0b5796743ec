package engine

import (
	"fmt"

	"gorm.io/datatypes"

	"SodiumWatch/pkg/model"
)

// AlertAction describes what Evaluate did to the slot.
type AlertAction string

const (
	ActionCreated   AlertAction = "created"
	ActionUpgraded  AlertAction = "upgraded"
	ActionRefreshed AlertAction = "refreshed"
	// ActionKept means the slot already holds a higher severity.
	ActionKept AlertAction = "kept"
)

// AlertSlotStore persists alerts for one (user, device, day) slot.
type AlertSlotStore interface {
	ListSlot(userID, deviceID string, day datatypes.Date) ([]model.Alert, error)
	Create(alert *model.Alert) error
	Save(alert *model.Alert) error
}

// Outcome is the alert level reached by a summary and what happened to the
// slot. Level and Message are valid even when persisting failed.
type Outcome struct {
	Level     model.AlertSeverity
	Message   string
	Threshold string
	Action    AlertAction
	Alert     *model.Alert
}

// AlertEngine turns a daily summary into at most one alert row per slot,
// escalating the existing row instead of adding new ones.
type AlertEngine struct {
	policy *Policy
}

func NewAlertEngine(policy *Policy) *AlertEngine {
	return &AlertEngine{policy: policy}
}

// Level returns the highest threshold the summary reaches, if any.
func (e *AlertEngine) Level(summary *model.DailySummary) (Threshold, bool) {
	if summary == nil {
		return Threshold{}, false
	}
	return e.policy.Match(summary.TotalMG)
}

// Evaluate applies the slot rules for summary:
//   - an alert of the same severity is refreshed in place;
//   - otherwise the closest lower-severity alert is upgraded in place;
//   - otherwise a new alert is created.
//
// An alert of strictly higher severity already in the slot is left alone.
// A nil Outcome means no threshold was reached and nothing was touched.
func (e *AlertEngine) Evaluate(store AlertSlotStore, userID, deviceID string, day datatypes.Date, summary *model.DailySummary) (*Outcome, error) {
	th, ok := e.Level(summary)
	if !ok {
		return nil, nil
	}

	out := &Outcome{Level: th.Severity, Message: th.Message, Threshold: th.Code}

	existing, err := store.ListSlot(userID, deviceID, day)
	if err != nil {
		return out, fmt.Errorf("failed to load alert slot: %w", err)
	}

	var exact, lower *model.Alert
	weight := th.Severity.Weight()
	for i := range existing {
		a := &existing[i]
		w := a.Severity.Weight()
		switch {
		case w == weight:
			exact = a
		case w > weight:
			out.Action = ActionKept
			out.Alert = a
			return out, nil
		case lower == nil || w > lower.Severity.Weight():
			lower = a
		}
	}

	switch {
	case exact != nil:
		e.apply(exact, th, summary)
		if err := store.Save(exact); err != nil {
			return out, fmt.Errorf("failed to refresh %s alert: %w", th.Severity, err)
		}
		out.Action, out.Alert = ActionRefreshed, exact
	case lower != nil:
		e.apply(lower, th, summary)
		if err := store.Save(lower); err != nil {
			return out, fmt.Errorf("failed to upgrade alert to %s: %w", th.Severity, err)
		}
		out.Action, out.Alert = ActionUpgraded, lower
	default:
		a := &model.Alert{UserID: userID, DeviceID: deviceID, Date: day}
		e.apply(a, th, summary)
		if err := store.Create(a); err != nil {
			return out, fmt.Errorf("failed to create %s alert: %w", th.Severity, err)
		}
		out.Action, out.Alert = ActionCreated, a
	}
	return out, nil
}

func (e *AlertEngine) apply(a *model.Alert, th Threshold, summary *model.DailySummary) {
	a.Severity = th.Severity
	a.Threshold = th.Code
	a.Message = th.Message
	a.SodiumTotal = summary.TotalMG
	a.ThresholdPercent = summary.PercentOfLimit
}
