// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"comicnest/internal/db"
	"comicnest/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB returns a migrated SQLite database private to the calling test.
// A single connection keeps the shared-cache memory database free of lock contention.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func CreateUser(t *testing.T, gdb *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Avatar:   "🐼",
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

// CreateChapter creates a comic with one chapter and returns both.
func CreateChapter(t *testing.T, gdb *gorm.DB, externalID string) (*models.Comic, *models.Chapter) {
	t.Helper()
	comic := &models.Comic{
		Slug:           "comic-" + externalID,
		Title:          "Comic " + externalID,
		ExternalID:     "comic-" + externalID,
		LastViewUpdate: time.Now(),
	}
	require.NoError(t, gdb.Create(comic).Error)

	chapter := &models.Chapter{
		ComicID:       comic.ID,
		ChapterNumber: 1,
		ExternalID:    externalID,
	}
	require.NoError(t, gdb.Create(chapter).Error)
	return comic, chapter
}

func Reload[T any](t *testing.T, gdb *gorm.DB, id uint) *T {
	t.Helper()
	var v T
	require.NoError(t, gdb.First(&v, id).Error)
	return &v
}
