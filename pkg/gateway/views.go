package gateway

import (
	"time"

	"SodiumWatch/pkg/engine"
	"SodiumWatch/pkg/model"
)

// SummaryView is the wire form of a daily summary.
type SummaryView struct {
	Date           string  `json:"date"`
	TotalMG        int64   `json:"total_mg"`
	PercentOfLimit float64 `json:"percent_of_limit"`
}

func summaryView(s *model.DailySummary) *SummaryView {
	if s == nil {
		return nil
	}
	return &SummaryView{
		Date:           engine.FormatDay(s.Date),
		TotalMG:        s.TotalMG,
		PercentOfLimit: s.PercentOfLimit,
	}
}

// RecordResult is returned for every recorded meal.
type RecordResult struct {
	MealID       string       `json:"meal_id"`
	Summary      *SummaryView `json:"summary"`
	Advice       string       `json:"advice"`
	AlertLevel   *string      `json:"alert_level"`
	AlertMessage *string      `json:"alert_message"`
}

type TodayAlertView struct {
	Threshold string    `json:"threshold"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

type TodayView struct {
	Summary *SummaryView     `json:"summary"`
	Advice  string           `json:"advice"`
	Alerts  []TodayAlertView `json:"alerts"`
}

type WeeklyView struct {
	WeekStart      string        `json:"week_start"`
	WeekEnd        string        `json:"week_end"`
	AvgDailyMG     float64       `json:"avg_daily_mg"`
	DaysOverLimit  int           `json:"days_over_limit"`
	HighestDay     *string       `json:"highest_day"`
	DailySummaries []SummaryView `json:"daily_summaries"`
}

func weeklyView(r *engine.WeeklyReport) *WeeklyView {
	v := &WeeklyView{
		WeekStart:      engine.FormatDay(r.WeekStart),
		WeekEnd:        engine.FormatDay(r.WeekEnd),
		AvgDailyMG:     r.AvgDailyMG,
		DaysOverLimit:  r.DaysOverLimit,
		DailySummaries: make([]SummaryView, 0, len(r.Days)),
	}
	if r.HighestDay != nil {
		d := engine.FormatDay(*r.HighestDay)
		v.HighestDay = &d
	}
	for i := range r.Days {
		v.DailySummaries = append(v.DailySummaries, *summaryView(&r.Days[i]))
	}
	return v
}

type AlertView struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Threshold string    `json:"threshold"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

type AlertsView struct {
	Alerts      []AlertView `json:"alerts"`
	UnreadCount int64       `json:"unread_count"`
}

type MealView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SodiumMG   int64     `json:"sodium_mg"`
	Portion    string    `json:"portion"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at"`
}

type MealsView struct {
	Date  string     `json:"date"`
	Meals []MealView `json:"meals"`
}
