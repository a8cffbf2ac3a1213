package services

import (
	"context"
	"errors"
	"time"

	"comicnest/internal/apperr"
	"comicnest/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const topComicsLimit = 7

// ComicService 漫画浏览量（日/周/月窗口）、章节浏览量、追更与排行
type ComicService struct {
	db    *gorm.DB
	users *UserService
	now   func() time.Time
}

func NewComicService(db *gorm.DB, users *UserService) *ComicService {
	return &ComicService{db: db, users: users, now: time.Now}
}

// rollViewWindows 清零过期的统计窗口，然后计入一次浏览。
// 日窗口在日期变化时清零，周窗口距上次更新超过 7 天清零，月窗口在月份变化时清零。
func rollViewWindows(c *models.Comic, now time.Time) {
	last := c.LastViewUpdate
	if last.Year() != now.Year() || last.YearDay() != now.YearDay() {
		c.ViewsToday = 0
	}
	if now.Sub(last) > 7*24*time.Hour {
		c.ViewsThisWeek = 0
	}
	if last.Year() != now.Year() || last.Month() != now.Month() {
		c.ViewsThisMonth = 0
	}

	c.Views++
	c.ViewsToday++
	c.ViewsThisWeek++
	c.ViewsThisMonth++
	c.LastViewUpdate = now
}

func (s *ComicService) BySlug(ctx context.Context, slug string) (*models.Comic, error) {
	var comic models.Comic
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&comic).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Comic not found")
		}
		return nil, err
	}
	return &comic, nil
}

// RecordComicView counts one view of the comic. viewerID 0 means anonymous;
// otherwise the comic moves to the front of the viewer's reading history.
func (s *ComicService) RecordComicView(ctx context.Context, slug string, viewerID uint) (*models.Comic, error) {
	var comic models.Comic
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("slug = ?", slug).
			First(&comic).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Comic not found")
			}
			return err
		}

		rollViewWindows(&comic, s.now())
		return tx.Model(&comic).UpdateColumns(map[string]interface{}{
			"views":            comic.Views,
			"views_today":      comic.ViewsToday,
			"views_this_week":  comic.ViewsThisWeek,
			"views_this_month": comic.ViewsThisMonth,
			"last_view_update": comic.LastViewUpdate,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	comicViews.WithLabelValues("comic").Inc()

	if viewerID != 0 && s.users != nil {
		// 历史记录失败不影响浏览计数
		if err := s.users.AddToHistory(ctx, viewerID, comic.ID); err != nil {
			log.Error().Err(err).Uint("user_id", viewerID).Uint("comic_id", comic.ID).Msg("failed to add comic to history")
		}
	}
	return &comic, nil
}

// RecordChapterView atomically increments the chapter's view counter.
func (s *ComicService) RecordChapterView(ctx context.Context, externalID string) (int, error) {
	var views int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Chapter{}).
			Where("external_id = ?", externalID).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Chapter not found")
		}
		return tx.Model(&models.Chapter{}).
			Where("external_id = ?", externalID).
			Pluck("views", &views).Error
	})
	if err != nil {
		return 0, err
	}
	comicViews.WithLabelValues("chapter").Inc()
	return views, nil
}

type FollowResult struct {
	Followed  bool           `json:"followed"`
	Followers int            `json:"followers"`
	Follow    *models.Follow `json:"follow,omitempty"`
}

// ToggleFollow adds or removes the comic from the user's wishlist; the
// comic's followers counter moves in the same transaction.
func (s *ComicService) ToggleFollow(ctx context.Context, userID, comicID uint) (*FollowResult, error) {
	result := &FollowResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comic models.Comic
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&comic, comicID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Comic not found")
			}
			return err
		}

		var existing models.Follow
		found := tx.Where("user_id = ? AND comic_id = ?", userID, comicID).Limit(1).Find(&existing)
		if found.Error != nil {
			return found.Error
		}

		delta := 1
		if found.RowsAffected > 0 {
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			delta = -1
		} else {
			follow := models.Follow{UserID: userID, ComicID: comicID}
			if err := tx.Create(&follow).Error; err != nil {
				return err
			}
			result.Followed = true
			result.Follow = &follow
		}

		if err := tx.Model(&models.Comic{}).
			Where("id = ?", comicID).
			UpdateColumn("followers", clampedAdd("followers", delta)).Error; err != nil {
			return err
		}
		result.Followers = max(comic.Followers+delta, 0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type TopComic struct {
	ID          uint   `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	ExternalID  string `json:"external_id"`
	Views       int    `json:"views"`
	PeriodViews int    `json:"period_views"`
}

var periodColumns = map[string]string{
	"day":   "views_today",
	"week":  "views_this_week",
	"month": "views_this_month",
}

// TopComics 按窗口浏览量取前 7
func (s *ComicService) TopComics(ctx context.Context, period string) ([]TopComic, error) {
	col, ok := periodColumns[period]
	if !ok {
		return nil, apperr.Validation(`Invalid period. Use "day", "week", or "month".`)
	}

	comics := make([]TopComic, 0, topComicsLimit)
	err := s.db.WithContext(ctx).Model(&models.Comic{}).
		Select("id, slug, title, external_id, views, " + col + " AS period_views").
		Order(col + " DESC, id ASC").
		Limit(topComicsLimit).
		Scan(&comics).Error
	return comics, err
}

type ComicMetrics struct {
	ID            uint             `json:"id"`
	Slug          string           `json:"slug"`
	Views         int              `json:"views"`
	Followers     int              `json:"followers"`
	TotalComments int              `json:"total_comments"`
	Chapters      []models.Chapter `json:"chapters"`
	IsFollowed    *bool            `json:"is_followed,omitempty"`
}

// Metrics returns the public counters of a comic. is_followed is only filled
// in for an identified viewer.
func (s *ComicService) Metrics(ctx context.Context, slug string, viewerID uint) (*ComicMetrics, error) {
	comic, err := s.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	chapters := make([]models.Chapter, 0)
	if err := s.db.WithContext(ctx).
		Where("comic_id = ?", comic.ID).
		Order("chapter_number ASC").
		Find(&chapters).Error; err != nil {
		return nil, err
	}

	m := &ComicMetrics{
		ID:            comic.ID,
		Slug:          comic.Slug,
		Views:         comic.Views,
		Followers:     comic.Followers,
		TotalComments: comic.TotalComments,
		Chapters:      chapters,
	}

	if viewerID != 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Follow{}).
			Where("user_id = ? AND comic_id = ?", viewerID, comic.ID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		followed := count > 0
		m.IsFollowed = &followed
	}
	return m, nil
}
