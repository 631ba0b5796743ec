package gateway

import (
	"context"
	"errors"

	"SodiumWatch/pkg/database"
	"SodiumWatch/pkg/engine"
)

// SessionIdentity resolves a session-only caller. Read views never accept a
// device token.
func (s *Service) SessionIdentity(ctx context.Context, userID string) (*Identity, error) {
	return s.sessionIdentity(ctx, userID)
}

// Today returns the current day's summary, advice and unread alerts.
func (s *Service) Today(ctx context.Context, id *Identity) (*TodayView, error) {
	store := s.store.WithContext(ctx)
	day := engine.DayOf(s.clock.Now(), id.Location)

	summary, err := store.Summary().Get(id.UserID, day)
	if err != nil {
		return nil, storageErr(err)
	}
	alerts, err := store.Alert().ListUnread(id.UserID, day)
	if err != nil {
		return nil, storageErr(err)
	}

	view := &TodayView{
		Summary: summaryView(summary),
		Advice:  s.policy.Advice(summary),
		Alerts:  make([]TodayAlertView, 0, len(alerts)),
	}
	for _, a := range alerts {
		view.Alerts = append(view.Alerts, TodayAlertView{
			Threshold: a.Threshold,
			Message:   a.Message,
			Severity:  string(a.Severity),
			CreatedAt: a.CreatedAt,
		})
	}
	return view, nil
}

// Weekly reports the seven days ending at the user's local today.
func (s *Service) Weekly(ctx context.Context, id *Identity) (*WeeklyView, error) {
	end := engine.DayOf(s.clock.Now(), id.Location)
	report, err := s.weekly.Weekly(s.store.WithContext(ctx).Summary(), id.UserID, end)
	if err != nil {
		return nil, storageErr(err)
	}
	return weeklyView(report), nil
}

// Alerts lists the user's most recent alerts, newest first.
func (s *Service) Alerts(ctx context.Context, id *Identity) (*AlertsView, error) {
	store := s.store.WithContext(ctx)
	alerts, err := store.Alert().ListRecent(id.UserID, s.alertHistory)
	if err != nil {
		return nil, storageErr(err)
	}
	unread, err := store.Alert().GetUnreadCount(id.UserID)
	if err != nil {
		return nil, storageErr(err)
	}

	view := &AlertsView{Alerts: make([]AlertView, 0, len(alerts)), UnreadCount: unread}
	for _, a := range alerts {
		view.Alerts = append(view.Alerts, AlertView{
			ID:        a.ID,
			Date:      engine.FormatDay(a.Date),
			Threshold: a.Threshold,
			Severity:  string(a.Severity),
			Message:   a.Message,
			CreatedAt: a.CreatedAt,
			IsRead:    a.IsRead,
		})
	}
	return view, nil
}

// MarkAlertRead flags one of the user's alerts. Unknown ids and other users'
// alerts both yield ErrNotFound.
func (s *Service) MarkAlertRead(ctx context.Context, id *Identity, alertID string) error {
	err := s.store.WithContext(ctx).Alert().MarkAsRead(id.UserID, alertID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr(err)
	}
	return nil
}

// TodayMeals lists the meals of the user's local today, oldest first.
func (s *Service) TodayMeals(ctx context.Context, id *Identity) (*MealsView, error) {
	day := engine.DayOf(s.clock.Now(), id.Location)
	start, end := engine.DayBounds(day, id.Location)

	meals, err := s.store.WithContext(ctx).Meal().ListBetween(id.UserID, start, end)
	if err != nil {
		return nil, storageErr(err)
	}

	view := &MealsView{Date: engine.FormatDay(day), Meals: make([]MealView, 0, len(meals))}
	for _, m := range meals {
		view.Meals = append(view.Meals, MealView{
			ID:         m.ID,
			Name:       m.Name,
			SodiumMG:   m.SodiumMG,
			Portion:    m.Portion,
			Source:     string(m.Source),
			RecordedAt: m.RecordedAt,
		})
	}
	return view, nil
}
