package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/datatypes"

	"SodiumWatch/pkg/model"
)

type fakeMeals struct {
	meals []model.Meal
}

func (f *fakeMeals) add(id string, mg int64, at time.Time) {
	f.meals = append(f.meals, model.Meal{ID: id, UserID: "u1", SodiumMG: mg, RecordedAt: at.UTC(), CreatedAt: at.UTC()})
}

func (f *fakeMeals) ListBetween(userID string, start, end time.Time) ([]model.Meal, error) {
	var out []model.Meal
	for _, m := range f.meals {
		if m.UserID == userID && !m.RecordedAt.Before(start) && m.RecordedAt.Before(end) {
			out = append(out, m)
		}
	}
	return out, nil
}

type summaryKey struct {
	user string
	day  string
}

type fakeSummaries struct {
	rows   map[summaryKey]model.DailySummary
	writes int
}

func newFakeSummaries() *fakeSummaries {
	return &fakeSummaries{rows: map[summaryKey]model.DailySummary{}}
}

func (f *fakeSummaries) Get(userID string, day datatypes.Date) (*model.DailySummary, error) {
	s, ok := f.rows[summaryKey{userID, FormatDay(day)}]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSummaries) Save(s *model.DailySummary) error {
	f.writes++
	if s.ID == "" {
		s.ID = "sum-" + FormatDay(s.Date)
	}
	f.rows[summaryKey{s.UserID, FormatDay(s.Date)}] = *s
	return nil
}

func (f *fakeSummaries) ListRange(userID string, start, end datatypes.Date) ([]model.DailySummary, error) {
	var out []model.DailySummary
	for k, s := range f.rows {
		if k.user != userID {
			continue
		}
		if k.day >= FormatDay(start) && k.day <= FormatDay(end) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return FormatDay(out[i].Date) < FormatDay(out[j].Date) })
	return out, nil
}

type fakeAlerts struct {
	rows    []*model.Alert
	seq     int
	failErr error
}

func (f *fakeAlerts) ListSlot(userID, deviceID string, day datatypes.Date) ([]model.Alert, error) {
	var out []model.Alert
	for _, a := range f.rows {
		if a.UserID == userID && a.DeviceID == deviceID && FormatDay(a.Date) == FormatDay(day) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAlerts) Create(a *model.Alert) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.seq++
	a.ID = fmt.Sprintf("alert-%d", f.seq)
	cp := *a
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeAlerts) Save(a *model.Alert) error {
	if f.failErr != nil {
		return f.failErr
	}
	for i, r := range f.rows {
		if r.ID == a.ID {
			cp := *a
			f.rows[i] = &cp
			return nil
		}
	}
	return errors.New("alert not found")
}

func (f *fakeAlerts) bySeverity(sev model.AlertSeverity) int {
	n := 0
	for _, a := range f.rows {
		if a.Severity == sev {
			n++
		}
	}
	return n
}
