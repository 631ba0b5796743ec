// Package dbtest opens throwaway in-memory stores for tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"SodiumWatch/pkg/database"
	"SodiumWatch/pkg/model"
)

// NewStore returns a migrated SQLite in-memory store closed at test end.
func NewStore(t testing.TB) *database.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := database.New(db)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// NewUser inserts a user with the given time zone ("" for the default).
func NewUser(t testing.TB, store *database.Store, username, tz string) *model.User {
	t.Helper()
	u := &model.User{Username: username, TimeZone: tz}
	require.NoError(t, store.User().Create(u))
	return u
}
