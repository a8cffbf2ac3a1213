package services

import (
	"context"
	"time"

	"comicnest/internal/models"
	"comicnest/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Pagination struct {
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	TotalItems  int64 `json:"total_items"`
}

func newPagination(total int64, page, items int) Pagination {
	return Pagination{
		TotalPages:  utils.TotalPages(total, items),
		CurrentPage: page,
		TotalItems:  total,
	}
}

// UserService 用户追更列表、阅读历史和评论引用
type UserService struct {
	db           *gorm.DB
	historyLimit int
}

func NewUserService(db *gorm.DB, historyLimit int) *UserService {
	if historyLimit <= 0 {
		historyLimit = 40
	}
	return &UserService{db: db, historyLimit: historyLimit}
}

// Wishlist 用户关注的漫画，最近关注的在前
func (s *UserService) Wishlist(ctx context.Context, userID uint, page, items int) ([]models.Comic, Pagination, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var follows []models.Follow
	if err := s.db.WithContext(ctx).
		Preload("Comic").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * items).
		Limit(items).
		Find(&follows).Error; err != nil {
		return nil, Pagination{}, err
	}

	comics := make([]models.Comic, 0, len(follows))
	for _, f := range follows {
		comics = append(comics, f.Comic)
	}
	return comics, newPagination(total, page, items), nil
}

// History 阅读历史，最近阅读的在前
func (s *UserService) History(ctx context.Context, userID uint, page, items int) ([]models.Comic, Pagination, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.ReadingHistory{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var rows []models.ReadingHistory
	if err := s.db.WithContext(ctx).
		Preload("Comic").
		Where("user_id = ?", userID).
		Order("viewed_at DESC, id DESC").
		Offset((page - 1) * items).
		Limit(items).
		Find(&rows).Error; err != nil {
		return nil, Pagination{}, err
	}

	comics := make([]models.Comic, 0, len(rows))
	for _, r := range rows {
		comics = append(comics, r.Comic)
	}
	return comics, newPagination(total, page, items), nil
}

// AddToHistory moves the comic to the front of the user's history and keeps
// only the most recent historyLimit entries.
func (s *UserService) AddToHistory(ctx context.Context, userID, comicID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.ReadingHistory{UserID: userID, ComicID: comicID, ViewedAt: time.Now()}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "comic_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"viewed_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}

		keep := tx.Model(&models.ReadingHistory{}).
			Select("id").
			Where("user_id = ?", userID).
			Order("viewed_at DESC, id DESC").
			Limit(s.historyLimit)
		return tx.Where("user_id = ? AND id NOT IN (?)", userID, keep).
			Delete(&models.ReadingHistory{}).Error
	})
}

// Comments 用户的评论引用列表
func (s *UserService) Comments(ctx context.Context, userID uint) ([]uint, error) {
	return NewUserDirectory(s.db).CommentRefs(ctx, userID)
}
