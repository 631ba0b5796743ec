package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"

	"SodiumWatch/pkg/model"
)

// ErrTotalOverflow is returned when a day's meals cannot be summed exactly.
var ErrTotalOverflow = errors.New("daily sodium total out of range")

// MealReader lists ledger entries for a user in [start, end).
type MealReader interface {
	ListBetween(userID string, start, end time.Time) ([]model.Meal, error)
}

// SummaryStore reads and upserts the per-day summary row.
type SummaryStore interface {
	Get(userID string, day datatypes.Date) (*model.DailySummary, error)
	Save(summary *model.DailySummary) error
}

// Aggregator rebuilds DailySummary rows from the ledger.
type Aggregator struct {
	policy *Policy
	clock  Clock
}

func NewAggregator(policy *Policy, clock Clock) *Aggregator {
	return &Aggregator{policy: policy, clock: clock}
}

// Recompute sums every meal of day (in loc) for userID and upserts the
// summary. The row is written only when its values change, so repeated calls
// without new meals leave it untouched. It returns nil when the day has no
// meals and no stored row.
func (a *Aggregator) Recompute(meals MealReader, summaries SummaryStore, userID string, day datatypes.Date, loc *time.Location) (*model.DailySummary, error) {
	start, end := DayBounds(day, loc)
	list, err := meals.ListBetween(userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load meals for %s: %w", FormatDay(day), err)
	}

	existing, err := summaries.Get(userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary for %s: %w", FormatDay(day), err)
	}
	if len(list) == 0 && existing == nil {
		return nil, nil
	}

	var (
		total   int64
		highest *model.Meal
	)
	for i := range list {
		m := &list[i]
		if m.SodiumMG < 0 || total > math.MaxInt64-m.SodiumMG {
			return nil, fmt.Errorf("%w: %s total for %s", ErrTotalOverflow, FormatDay(day), userID)
		}
		total += m.SodiumMG
		if highest == nil || outranks(m, highest) {
			highest = m
		}
	}

	next := model.DailySummary{
		UserID:         userID,
		Date:           day,
		TotalMG:        total,
		PercentOfLimit: a.policy.PercentOfLimit(total),
	}
	if highest != nil {
		id := highest.ID
		next.HighestMealID = &id
	}

	if existing != nil {
		if sameFigures(existing, &next) {
			return existing, nil
		}
		next.ID = existing.ID
		next.CreatedAt = existing.CreatedAt
	}
	next.LastUpdated = a.clock.Now().UTC()

	if err := summaries.Save(&next); err != nil {
		return nil, fmt.Errorf("failed to save summary for %s: %w", FormatDay(day), err)
	}
	return &next, nil
}

// outranks reports whether m beats cur as the day's highest meal: more sodium
// first, then the later timestamp, then the later insert.
func outranks(m, cur *model.Meal) bool {
	if m.SodiumMG != cur.SodiumMG {
		return m.SodiumMG > cur.SodiumMG
	}
	if !m.RecordedAt.Equal(cur.RecordedAt) {
		return m.RecordedAt.After(cur.RecordedAt)
	}
	return m.CreatedAt.After(cur.CreatedAt)
}

func sameFigures(a, b *model.DailySummary) bool {
	if a.TotalMG != b.TotalMG || a.PercentOfLimit != b.PercentOfLimit {
		return false
	}
	switch {
	case a.HighestMealID == nil && b.HighestMealID == nil:
		return true
	case a.HighestMealID == nil || b.HighestMealID == nil:
		return false
	default:
		return *a.HighestMealID == *b.HighestMealID
	}
}
