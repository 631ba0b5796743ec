package engine

import (
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the wire format of calendar days.
const DateLayout = "2006-01-02"

// DayOf returns the calendar date of t in loc, normalised to UTC midnight so
// that stored dates compare equal regardless of the writer's zone.
func DayOf(t time.Time, loc *time.Location) datatypes.Date {
	y, m, d := t.In(loc).Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// DayBounds returns the UTC instants [start, end) covering day in loc.
func DayBounds(day datatypes.Date, loc *time.Location) (time.Time, time.Time) {
	y, m, d := time.Time(day).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	return start.UTC(), end.UTC()
}

// AddDays shifts a calendar date.
func AddDays(day datatypes.Date, n int) datatypes.Date {
	return datatypes.Date(time.Time(day).AddDate(0, 0, n))
}

// FormatDay renders day as YYYY-MM-DD.
func FormatDay(day datatypes.Date) string {
	return time.Time(day).Format(DateLayout)
}

// ParseDay parses YYYY-MM-DD into a stored date.
func ParseDay(s string) (datatypes.Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}
