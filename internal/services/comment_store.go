package services

import (
	"context"
	"errors"

	"comicnest/internal/apperr"
	"comicnest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// inClauseChunk keeps IN lists well below the PostgreSQL bind parameter limit.
const inClauseChunk = 1000

// CommentStore 评论表的持久化操作。树结构以 id 为索引，节点只存 parent_id。
type CommentStore struct {
	db *gorm.DB
}

func NewCommentStore(db *gorm.DB) *CommentStore {
	return &CommentStore{db: db}
}

func (s *CommentStore) Create(ctx context.Context, comment *models.Comment) error {
	return s.db.WithContext(ctx).Create(comment).Error
}

func (s *CommentStore) Get(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Comment not found")
		}
		return nil, err
	}
	return &comment, nil
}

// GetForUpdate row-locks the comment until the surrounding transaction ends.
func (s *CommentStore) GetForUpdate(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Comment not found")
		}
		return nil, err
	}
	return &comment, nil
}

// ListRoots 章节下的根评论，按创建时间升序，id 作为并列时的次序
func (s *CommentStore) ListRoots(ctx context.Context, chapterID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("chapter_id = ? AND parent_id IS NULL", chapterID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

// ListByChapter returns every comment on the chapter, roots and replies, in creation order.
func (s *CommentStore) ListByChapter(ctx context.Context, chapterID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("chapter_id = ?", chapterID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

// ChildIDs 直接回复的 id，按回复顺序
func (s *CommentStore) ChildIDs(ctx context.Context, id uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("parent_id = ?", id).
		Order("created_at ASC, id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// Descendants walks parent links breadth-first and returns every transitive reply of rootID.
// Rows removed concurrently simply stop showing up; that is not an error.
func (s *CommentStore) Descendants(ctx context.Context, rootID uint) ([]models.Comment, error) {
	out := make([]models.Comment, 0)
	seen := map[uint]bool{rootID: true}
	frontier := []uint{rootID}

	for len(frontier) > 0 {
		next := make([]uint, 0)
		for _, chunk := range chunkIDs(frontier, inClauseChunk) {
			var children []models.Comment
			err := s.db.WithContext(ctx).
				Where("parent_id IN ?", chunk).
				Order("created_at ASC, id ASC").
				Find(&children).Error
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				if seen[child.ID] {
					continue
				}
				seen[child.ID] = true
				out = append(out, child)
				next = append(next, child.ID)
			}
		}
		frontier = next
	}
	return out, nil
}

// DeleteMany removes the comments and their reactions. Absent ids are ignored;
// the returned count is the number of comment rows actually removed.
func (s *CommentStore) DeleteMany(ctx context.Context, ids []uint) (int64, error) {
	var deleted int64
	for _, chunk := range chunkIDs(ids, inClauseChunk) {
		if err := s.db.WithContext(ctx).
			Where("comment_id IN ?", chunk).
			Delete(&models.CommentReaction{}).Error; err != nil {
			return deleted, err
		}
		res := s.db.WithContext(ctx).Where("id IN ?", chunk).Delete(&models.Comment{})
		if res.Error != nil {
			return deleted, res.Error
		}
		deleted += res.RowsAffected
	}
	return deleted, nil
}

// Reactions 批量加载评论的点赞/点踩记录
func (s *CommentStore) Reactions(ctx context.Context, commentIDs []uint) ([]models.CommentReaction, error) {
	out := make([]models.CommentReaction, 0)
	for _, chunk := range chunkIDs(commentIDs, inClauseChunk) {
		var rows []models.CommentReaction
		if err := s.db.WithContext(ctx).
			Where("comment_id IN ?", chunk).
			Order("id ASC").
			Find(&rows).Error; err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func chunkIDs(ids []uint, size int) [][]uint {
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]uint, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
