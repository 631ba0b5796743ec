package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"SodiumWatch/pkg/model"
)

// WeekDays is the length of the reporting window.
const WeekDays = 7

// SummaryRangeReader lists summaries with start <= date <= end, oldest first.
type SummaryRangeReader interface {
	ListRange(userID string, start, end datatypes.Date) ([]model.DailySummary, error)
}

// WeeklyReport is the on-demand rollup over [WeekStart, WeekEnd].
type WeeklyReport struct {
	WeekStart     datatypes.Date
	WeekEnd       datatypes.Date
	AvgDailyMG    float64
	DaysOverLimit int
	HighestDay    *datatypes.Date
	Days          []model.DailySummary
}

// WeeklyReporter reads stored daily summaries only; it never touches meals.
type WeeklyReporter struct {
	policy *Policy
}

func NewWeeklyReporter(policy *Policy) *WeeklyReporter {
	return &WeeklyReporter{policy: policy}
}

// Weekly reports the seven days ending at end. Days without a summary row
// are left out of the average rather than counted as zero.
func (r *WeeklyReporter) Weekly(reader SummaryRangeReader, userID string, end datatypes.Date) (*WeeklyReport, error) {
	start := AddDays(end, -(WeekDays - 1))
	rows, err := reader.ListRange(userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load summaries %s..%s: %w", FormatDay(start), FormatDay(end), err)
	}

	report := &WeeklyReport{WeekStart: start, WeekEnd: end, Days: rows}
	if len(rows) == 0 {
		return report, nil
	}

	var (
		sum     int64
		highest *model.DailySummary
	)
	for i := range rows {
		s := &rows[i]
		sum += s.TotalMG
		if s.TotalMG >= r.policy.DailyLimit() {
			report.DaysOverLimit++
		}
		if highest == nil || s.TotalMG >= highest.TotalMG {
			highest = s
		}
	}

	report.AvgDailyMG = decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(len(rows)))).
		Round(1).
		InexactFloat64()
	d := highest.Date
	report.HighestDay = &d
	return report, nil
}
