package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"SodiumWatch/pkg/model"
)

var (
	// ErrInvalidLimit is returned when the configured daily limit is not positive.
	ErrInvalidLimit = errors.New("daily sodium limit must be positive")
	// ErrInvalidAmount is returned by the ledger for a negative sodium amount.
	ErrInvalidAmount = errors.New("sodium amount must not be negative")
)

// DefaultDailyLimitMG is the recommended daily maximum.
const DefaultDailyLimitMG int64 = 2000

// Threshold is one row of the advisory table. The absolute milligram value
// depends on the daily limit and is computed by Policy.
type Threshold struct {
	Code     string
	Percent  int64
	Severity model.AlertSeverity
	Message  string
}

var thresholdTable = []Threshold{
	{Code: "50", Percent: 50, Severity: model.SeverityInfo,
		Message: "You have reached 50% of your daily sodium limit."},
	{Code: "75", Percent: 75, Severity: model.SeverityWarning,
		Message: "You have reached 75% of your daily sodium limit - consider reducing intake."},
	{Code: "100", Percent: 100, Severity: model.SeverityDanger,
		Message: "You have reached or exceeded your daily sodium limit."},
	{Code: "120", Percent: 120, Severity: model.SeverityDanger,
		Message: "Sodium intake is above 120% of your daily limit - high risk."},
}

// Policy is the immutable daily limit and threshold table shared by the
// aggregator, the alert engine and the weekly reporter.
type Policy struct {
	limit      int64
	thresholds []Threshold
}

// NewPolicy builds a Policy for dailyLimitMG, which must be positive.
func NewPolicy(dailyLimitMG int64) (*Policy, error) {
	if dailyLimitMG <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, dailyLimitMG)
	}
	t := make([]Threshold, len(thresholdTable))
	copy(t, thresholdTable)
	return &Policy{limit: dailyLimitMG, thresholds: t}, nil
}

// DailyLimit returns the configured limit in milligrams.
func (p *Policy) DailyLimit() int64 { return p.limit }

// Thresholds returns the table in ascending percent order.
func (p *Policy) Thresholds() []Threshold {
	out := make([]Threshold, len(p.thresholds))
	copy(out, p.thresholds)
	return out
}

// AbsoluteMG is the milligram value at which t is reached.
func (p *Policy) AbsoluteMG(t Threshold) int64 {
	return t.Percent * p.limit / 100
}

// Match returns the highest threshold reached by totalMG. The table is
// scanned in ascending order and every match replaces the previous one.
func (p *Policy) Match(totalMG int64) (Threshold, bool) {
	var (
		found Threshold
		ok    bool
	)
	for _, t := range p.thresholds {
		if totalMG >= p.AbsoluteMG(t) {
			found, ok = t, true
		}
	}
	return found, ok
}

// PercentOfLimit returns 100*total/limit rounded half-up to one decimal.
func (p *Policy) PercentOfLimit(totalMG int64) float64 {
	return decimal.NewFromInt(totalMG).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(p.limit)).
		Round(1).
		InexactFloat64()
}

// NoMealsAdvice is shown when the day has no summary yet.
const NoMealsAdvice = "No meals recorded today. Add a meal or take a spoon reading."

// Advice returns the advisory text for a summary; nil means no meals today.
func (p *Policy) Advice(summary *model.DailySummary) string {
	if summary == nil {
		return NoMealsAdvice
	}
	pct := summary.PercentOfLimit
	switch {
	case pct >= 120:
		return "You have exceeded recommended sodium intake. Rest, hydrate, and consider contacting your clinician if symptomatic."
	case pct >= 100:
		return "You reached today's sodium limit - avoid salty foods for the remainder of the day."
	case pct >= 75:
		return "You are above 75% of the daily limit - reduce salt in next meals."
	case pct >= 50:
		return "You reached half of the daily limit - aim for low-sodium choices now."
	default:
		return "You are within safe limits - keep choosing low-sodium options."
	}
}
