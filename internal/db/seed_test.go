package db_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/fall-in/internal/db"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(database))
	return database
}

func count(t *testing.T, database *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.Model(model).Count(&n).Error)
	return n
}

func TestSeedSampleData(t *testing.T) {
	database := setupTestDB(t)

	// seeding twice resets instead of duplicating
	require.NoError(t, db.SeedSampleData(database))
	require.NoError(t, db.SeedSampleData(database))

	assert.Equal(t, int64(len(db.SampleUsers)), count(t, database, &db.User{}))
	assert.Equal(t, int64(len(db.SampleUsers)*len(db.ProfilePrompts)), count(t, database, &db.UserPrompt{}))
	assert.Equal(t, int64(3), count(t, database, &db.Like{}))
	assert.Equal(t, int64(1), count(t, database, &db.Match{}))
	assert.Equal(t, int64(2), count(t, database, &db.Confession{}))

	var m db.Match
	require.NoError(t, database.Take(&m).Error)
	assert.Less(t, m.User1ID, m.User2ID)

	var users []db.User
	require.NoError(t, database.Find(&users).Error)
	for _, u := range users {
		assert.True(t, u.Complete(), u.Email)
		assert.True(t, u.IsVerified, u.Email)
	}
}

func TestDisplayName(t *testing.T) {
	var nilUser *db.User
	assert.Equal(t, "Someone", nilUser.DisplayName())
	assert.Equal(t, "Someone", (&db.User{}).DisplayName())
	assert.Equal(t, "Ada", (&db.User{Name: "Ada"}).DisplayName())
}

func TestMatchOther(t *testing.T) {
	m := db.Match{User1ID: "a", User2ID: "b"}
	assert.Equal(t, "b", m.Other("a"))
	assert.Equal(t, "a", m.Other("b"))
}
