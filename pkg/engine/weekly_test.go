package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SodiumWatch/pkg/model"
)

func seedSummary(t *testing.T, f *fakeSummaries, day string, total int64) {
	t.Helper()
	d, err := ParseDay(day)
	require.NoError(t, err)
	require.NoError(t, f.Save(&model.DailySummary{UserID: "u1", Date: d, TotalMG: total}))
}

func TestWeeklyAveragesOnlyDaysWithRows(t *testing.T) {
	sums := newFakeSummaries()
	seedSummary(t, sums, "2026-03-01", 1000)
	seedSummary(t, sums, "2026-03-03", 2000)
	seedSummary(t, sums, "2026-03-07", 2600)
	seedSummary(t, sums, "2026-02-20", 9999) // outside the window

	end, err := ParseDay("2026-03-07")
	require.NoError(t, err)

	r, err := NewWeeklyReporter(mustPolicy(t, 2000)).Weekly(sums, "u1", end)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-01", FormatDay(r.WeekStart))
	assert.Equal(t, "2026-03-07", FormatDay(r.WeekEnd))
	assert.Len(t, r.Days, 3)
	assert.Equal(t, 1866.7, r.AvgDailyMG)
	assert.Equal(t, 2, r.DaysOverLimit)
	require.NotNil(t, r.HighestDay)
	assert.Equal(t, "2026-03-07", FormatDay(*r.HighestDay))
}

func TestWeeklyEmptyWindow(t *testing.T) {
	end, err := ParseDay("2026-03-07")
	require.NoError(t, err)

	r, err := NewWeeklyReporter(mustPolicy(t, 2000)).Weekly(newFakeSummaries(), "u1", end)
	require.NoError(t, err)
	assert.Zero(t, r.AvgDailyMG)
	assert.Zero(t, r.DaysOverLimit)
	assert.Nil(t, r.HighestDay)
	assert.Empty(t, r.Days)
}

func TestWeeklyHighestDayTieGoesToLaterDate(t *testing.T) {
	sums := newFakeSummaries()
	seedSummary(t, sums, "2026-03-02", 1800)
	seedSummary(t, sums, "2026-03-05", 1800)

	end, err := ParseDay("2026-03-07")
	require.NoError(t, err)
	r, err := NewWeeklyReporter(mustPolicy(t, 2000)).Weekly(sums, "u1", end)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", FormatDay(*r.HighestDay))
	assert.Equal(t, 0, r.DaysOverLimit)
}
