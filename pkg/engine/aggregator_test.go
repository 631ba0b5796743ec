package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func TestRecomputeSumsOnlyTheLocalDay(t *testing.T) {
	meals := &fakeMeals{}
	meals.add("m1", 900, testNow.Add(-2*time.Hour))
	meals.add("m2", 700, testNow.Add(-time.Hour))
	meals.add("other-day", 5000, testNow.Add(-24*time.Hour))
	sums := newFakeSummaries()

	agg := NewAggregator(mustPolicy(t, 2000), FixedClock(testNow))
	day := DayOf(testNow, time.UTC)

	s, err := agg.Recompute(meals, sums, "u1", day, time.UTC)
	require.NoError(t, err)
	require.NotNil(t, s)

	assert.Equal(t, int64(1600), s.TotalMG)
	assert.Equal(t, 80.0, s.PercentOfLimit)
	require.NotNil(t, s.HighestMealID)
	assert.Equal(t, "m1", *s.HighestMealID)
	assert.Equal(t, testNow, s.LastUpdated)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	meals := &fakeMeals{}
	meals.add("m1", 400, testNow)
	sums := newFakeSummaries()
	day := DayOf(testNow, time.UTC)

	first, err := NewAggregator(mustPolicy(t, 2000), FixedClock(testNow)).Recompute(meals, sums, "u1", day, time.UTC)
	require.NoError(t, err)

	// a later clock must not change an unchanged summary
	later := NewAggregator(mustPolicy(t, 2000), FixedClock(testNow.Add(time.Hour)))
	second, err := later.Recompute(meals, sums, "u1", day, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
	assert.Equal(t, 1, sums.writes)
}

func TestRecomputeAdditivityWithZeroMeal(t *testing.T) {
	meals := &fakeMeals{}
	meals.add("m1", 250, testNow)
	meals.add("m2", 330, testNow)
	sums := newFakeSummaries()
	agg := NewAggregator(mustPolicy(t, 2000), FixedClock(testNow))
	day := DayOf(testNow, time.UTC)

	before, err := agg.Recompute(meals, sums, "u1", day, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, int64(580), before.TotalMG)

	meals.add("zero", 0, testNow.Add(time.Minute))
	after, err := agg.Recompute(meals, sums, "u1", day, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, before.TotalMG, after.TotalMG)
}

func TestRecomputeHighestTieGoesToLatest(t *testing.T) {
	meals := &fakeMeals{}
	meals.add("early", 600, testNow.Add(-3*time.Hour))
	meals.add("late", 600, testNow.Add(-time.Hour))
	meals.add("small", 100, testNow)
	sums := newFakeSummaries()

	s, err := NewAggregator(mustPolicy(t, 2000), FixedClock(testNow)).
		Recompute(meals, sums, "u1", DayOf(testNow, time.UTC), time.UTC)
	require.NoError(t, err)
	require.NotNil(t, s.HighestMealID)
	assert.Equal(t, "late", *s.HighestMealID)
}

func TestRecomputeEmptyDayWithoutRowReturnsNil(t *testing.T) {
	s, err := NewAggregator(mustPolicy(t, 2000), FixedClock(testNow)).
		Recompute(&fakeMeals{}, newFakeSummaries(), "u1", DayOf(testNow, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRecomputeRespectsUserTimeZone(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	meals := &fakeMeals{}
	// 2026-03-01 19:00 UTC is 2026-03-02 00:30 in Kolkata.
	meals.add("after-midnight", 300, time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC))
	// 2026-03-01 18:00 UTC is still 2026-03-01 in Kolkata.
	meals.add("before-midnight", 800, time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))

	day, err := ParseDay("2026-03-02")
	require.NoError(t, err)
	s, err := NewAggregator(mustPolicy(t, 2000), FixedClock(testNow)).
		Recompute(meals, newFakeSummaries(), "u1", day, kolkata)
	require.NoError(t, err)
	assert.Equal(t, int64(300), s.TotalMG)
}

func TestRecomputeRejectsOverflowingTotal(t *testing.T) {
	meals := &fakeMeals{}
	meals.add("huge", math.MaxInt64, testNow.Add(-time.Hour))
	meals.add("m2", 2000, testNow)
	sums := newFakeSummaries()
	day := DayOf(testNow, time.UTC)

	s, err := NewAggregator(mustPolicy(t, 2000), FixedClock(testNow)).Recompute(meals, sums, "u1", day, time.UTC)
	require.ErrorIs(t, err, ErrTotalOverflow)
	assert.Nil(t, s)
	assert.Equal(t, 0, sums.writes)
}
