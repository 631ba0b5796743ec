package database_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SodiumWatch/pkg/database"
	"SodiumWatch/pkg/database/dbtest"
	"SodiumWatch/pkg/engine"
	"SodiumWatch/pkg/model"
)

func TestAppendValidates(t *testing.T) {
	store := dbtest.NewStore(t)
	user := dbtest.NewUser(t, store, "alice", "")
	ledger := store.Meal()

	err := ledger.Append(&model.Meal{UserID: user.ID, SodiumMG: -1, Source: model.SourceManual, RecordedAt: baseNow})
	assert.ErrorIs(t, err, engine.ErrInvalidAmount)

	err = ledger.Append(&model.Meal{UserID: user.ID, SodiumMG: 1, Source: "spoon", RecordedAt: baseNow})
	assert.Error(t, err)

	err = ledger.Append(&model.Meal{SodiumMG: 1, Source: model.SourceManual, RecordedAt: baseNow})
	assert.Error(t, err)
}

func TestAppendStoresUTCAndAssignsID(t *testing.T) {
	store := dbtest.NewStore(t)
	user := dbtest.NewUser(t, store, "alice", "")
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	meal := &model.Meal{UserID: user.ID, Name: "Pickle", SodiumMG: 450, Source: model.SourceDevice, RecordedAt: baseNow.In(kolkata)}
	require.NoError(t, store.Meal().Append(meal))
	assert.NotEmpty(t, meal.ID)
	assert.Equal(t, time.UTC, meal.RecordedAt.Location())

	got, err := store.Meal().GetByID(meal.ID)
	require.NoError(t, err)
	assert.True(t, got.RecordedAt.Equal(baseNow))
	assert.Equal(t, int64(450), got.SodiumMG)
}

func TestListBetweenIsHalfOpenAndOrdered(t *testing.T) {
	store := dbtest.NewStore(t)
	user := dbtest.NewUser(t, store, "alice", "")
	other := dbtest.NewUser(t, store, "bob", "")
	ledger := store.Meal()

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	for _, m := range []model.Meal{
		{UserID: user.ID, Name: "late", SodiumMG: 3, RecordedAt: start.Add(20 * time.Hour)},
		{UserID: user.ID, Name: "first", SodiumMG: 1, RecordedAt: start},
		{UserID: user.ID, Name: "next-day", SodiumMG: 5, RecordedAt: end},
		{UserID: other.ID, Name: "not-mine", SodiumMG: 7, RecordedAt: start.Add(time.Hour)},
	} {
		m := m
		m.Source = model.SourceManual
		require.NoError(t, ledger.Append(&m))
	}

	meals, err := ledger.ListBetween(user.ID, start, end)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, "first", meals[0].Name)
	assert.Equal(t, "late", meals[1].Name)
}

func TestGetByIDNotFound(t *testing.T) {
	store := dbtest.NewStore(t)
	_, err := store.Meal().GetByID("missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
}
