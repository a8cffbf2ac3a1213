package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"comicnest/internal/apperr"
	"comicnest/internal/models"
	"comicnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollViewWindows(t *testing.T) {
	base := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	monthStart := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name               string
		last, now          time.Time
		today, week, month int
	}{
		{"same day", base.Add(-time.Hour), base, 6, 6, 6},
		{"next day", base.AddDate(0, 0, -1), base, 1, 6, 6},
		{"same day of month, previous month", base.AddDate(0, -1, 0), base, 1, 1, 1},
		{"eight days ago", base.AddDate(0, 0, -8), base, 1, 1, 6},
		{"new month within the week", time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC), monthStart, 1, 6, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &models.Comic{Views: 100, ViewsToday: 5, ViewsThisWeek: 5, ViewsThisMonth: 5, LastViewUpdate: tt.last}
			rollViewWindows(c, tt.now)
			assert.Equal(t, 101, c.Views)
			assert.Equal(t, tt.today, c.ViewsToday)
			assert.Equal(t, tt.week, c.ViewsThisWeek)
			assert.Equal(t, tt.month, c.ViewsThisMonth)
			assert.Equal(t, tt.now, c.LastViewUpdate)
		})
	}
}

func newComicService(t *testing.T) (*ComicService, *models.Comic, *models.Chapter, *models.User) {
	t.Helper()
	gdb := testutil.NewDB(t)
	comic, chapter := testutil.CreateChapter(t, gdb, "c1")
	user := testutil.CreateUser(t, gdb, "reader")
	return NewComicService(gdb, NewUserService(gdb, 3)), comic, chapter, user
}

func TestRecordComicViewAddsHistory(t *testing.T) {
	svc, comic, _, reader := newComicService(t)
	ctx := context.Background()

	got, err := svc.RecordComicView(ctx, comic.Slug, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)

	got, err = svc.RecordComicView(ctx, comic.Slug, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views)

	history, page, err := svc.users.History(ctx, reader.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, comic.ID, history[0].ID)
	assert.EqualValues(t, 1, page.TotalItems)

	_, err = svc.RecordComicView(ctx, "missing", 0)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestRecordChapterView(t *testing.T) {
	svc, _, chapter, _ := newComicService(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		views, err := svc.RecordChapterView(ctx, chapter.ExternalID)
		require.NoError(t, err)
		assert.Equal(t, i, views)
	}

	_, err := svc.RecordChapterView(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestToggleFollow(t *testing.T) {
	svc, comic, _, reader := newComicService(t)
	ctx := context.Background()

	res, err := svc.ToggleFollow(ctx, reader.ID, comic.ID)
	require.NoError(t, err)
	assert.True(t, res.Followed)
	assert.Equal(t, 1, res.Followers)

	m, err := svc.Metrics(ctx, comic.Slug, reader.ID)
	require.NoError(t, err)
	require.NotNil(t, m.IsFollowed)
	assert.True(t, *m.IsFollowed)
	assert.Equal(t, 1, m.Followers)
	assert.Len(t, m.Chapters, 1)

	res, err = svc.ToggleFollow(ctx, reader.ID, comic.ID)
	require.NoError(t, err)
	assert.False(t, res.Followed)
	assert.Equal(t, 0, res.Followers)

	m, err = svc.Metrics(ctx, comic.Slug, 0)
	require.NoError(t, err)
	assert.Nil(t, m.IsFollowed)
	assert.Equal(t, 0, m.Followers)

	_, err = svc.ToggleFollow(ctx, reader.ID, 9999)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestTopComics(t *testing.T) {
	svc, _, _, _ := newComicService(t)
	ctx := context.Background()

	for i, today := range []int{3, 9, 1, 7, 5, 2, 8, 4, 6} {
		c := &models.Comic{
			Slug:           "top-" + string(rune('a'+i)),
			ViewsToday:     today,
			ViewsThisWeek:  10 - today,
			LastViewUpdate: time.Now(),
		}
		require.NoError(t, svc.db.Create(c).Error)
	}

	top, err := svc.TopComics(ctx, "day")
	require.NoError(t, err)
	require.Len(t, top, 7)
	assert.Equal(t, 9, top[0].PeriodViews)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].PeriodViews, top[i].PeriodViews)
	}

	week, err := svc.TopComics(ctx, "week")
	require.NoError(t, err)
	assert.Equal(t, 9, week[0].PeriodViews)

	_, err = svc.TopComics(ctx, "year")
	require.Error(t, err)
	assert.Equal(t, 400, apperr.Status(err))
}
