package services

import (
	"context"
	"errors"

	"comicnest/internal/apperr"
	"comicnest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserDirectory 评论子系统对用户表的全部依赖：存在性查询、展示信息、评论引用列表
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

func (d *UserDirectory) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Lookup 批量加载用户，缺失的 id 不报错
func (d *UserDirectory) Lookup(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	out := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.User
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (d *UserDirectory) AppendCommentRef(ctx context.Context, userID, commentID uint) error {
	ref := models.UserCommentRef{UserID: userID, CommentID: commentID}
	return d.db.WithContext(ctx).Create(&ref).Error
}

// RemoveCommentRefs pulls every id in commentIDs out of each listed user's reference list.
func (d *UserDirectory) RemoveCommentRefs(ctx context.Context, userIDs, commentIDs []uint) (int64, error) {
	if len(userIDs) == 0 || len(commentIDs) == 0 {
		return 0, nil
	}
	var removed int64
	for _, chunk := range chunkIDs(commentIDs, inClauseChunk) {
		res := d.db.WithContext(ctx).
			Where("user_id IN ? AND comment_id IN ?", userIDs, chunk).
			Delete(&models.UserCommentRef{})
		if res.Error != nil {
			return removed, res.Error
		}
		removed += res.RowsAffected
	}
	return removed, nil
}

// CommentRefs 用户的评论 id 列表，按创建顺序
func (d *UserDirectory) CommentRefs(ctx context.Context, userID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := d.db.WithContext(ctx).Model(&models.UserCommentRef{}).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Pluck("comment_id", &ids).Error
	return ids, err
}

// ChapterDirectory 容器（章节）查询与评论计数器
type ChapterDirectory struct {
	db *gorm.DB
}

func NewChapterDirectory(db *gorm.DB) *ChapterDirectory {
	return &ChapterDirectory{db: db}
}

func (d *ChapterDirectory) ResolveExternal(ctx context.Context, externalID string) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := d.db.WithContext(ctx).Where("external_id = ?", externalID).First(&chapter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Chapter not found")
		}
		return nil, err
	}
	return &chapter, nil
}

func (d *ChapterDirectory) Get(ctx context.Context, id uint) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := d.db.WithContext(ctx).First(&chapter, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Chapter not found")
		}
		return nil, err
	}
	return &chapter, nil
}

// AdjustCommentCount moves the chapter counter and its comic's total by delta.
// Both counters are clamped at zero.
func (d *ChapterDirectory) AdjustCommentCount(ctx context.Context, chapter *models.Chapter, delta int) error {
	if delta == 0 {
		return nil
	}
	tx := d.db.WithContext(ctx)
	if err := tx.Model(&models.Chapter{}).
		Where("id = ?", chapter.ID).
		UpdateColumn("comment_count", clampedAdd("comment_count", delta)).Error; err != nil {
		return err
	}
	return tx.Model(&models.Comic{}).
		Where("id = ?", chapter.ComicID).
		UpdateColumn("total_comments", clampedAdd("total_comments", delta)).Error
}

// clampedAdd 生成 col + delta，但不低于 0（PostgreSQL 与 SQLite 通用写法）
func clampedAdd(col string, delta int) clause.Expr {
	return gorm.Expr("CASE WHEN "+col+" + ? < 0 THEN 0 ELSE "+col+" + ? END", delta, delta)
}
