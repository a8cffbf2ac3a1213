package services

import (
	"context"

	"comicnest/internal/models"

	"gorm.io/gorm"
)

type ReactionAction string

const (
	ActionLike    ReactionAction = "like"
	ActionDislike ReactionAction = "dislike"
)

// Transition is the whole toggle rule for one (user, comment) pair:
// pressing the active button clears it, pressing the other button switches to it.
// The deltas are what the comment's like/dislike counters must move by.
func Transition(current models.ReactionState, action ReactionAction) (next models.ReactionState, likeDelta, dislikeDelta int) {
	switch action {
	case ActionLike:
		switch current {
		case models.ReactionLiked:
			return models.ReactionNone, -1, 0
		case models.ReactionDisliked:
			return models.ReactionLiked, 1, -1
		default:
			return models.ReactionLiked, 1, 0
		}
	case ActionDislike:
		switch current {
		case models.ReactionDisliked:
			return models.ReactionNone, 0, -1
		case models.ReactionLiked:
			return models.ReactionDisliked, -1, 1
		default:
			return models.ReactionDisliked, 0, 1
		}
	}
	return current, 0, 0
}

type ReactionResult struct {
	CommentID uint                 `json:"comment_id"`
	ChapterID uint                 `json:"-"`
	Likes     int                  `json:"likes"`
	Dislikes  int                  `json:"dislikes"`
	State     models.ReactionState `json:"reaction"`
}

// ReactionToggler 点赞/点踩切换。评论行加锁后在同一事务里改 reaction 行和计数列，
// 并发请求因此串行化，计数永远等于 reaction 行数。
type ReactionToggler struct {
	db *gorm.DB
}

func NewReactionToggler(db *gorm.DB) *ReactionToggler {
	return &ReactionToggler{db: db}
}

func (r *ReactionToggler) ToggleLike(ctx context.Context, commentID, userID uint) (*ReactionResult, error) {
	return r.Toggle(ctx, commentID, userID, ActionLike)
}

func (r *ReactionToggler) ToggleDislike(ctx context.Context, commentID, userID uint) (*ReactionResult, error) {
	return r.Toggle(ctx, commentID, userID, ActionDislike)
}

func (r *ReactionToggler) Toggle(ctx context.Context, commentID, userID uint, action ReactionAction) (*ReactionResult, error) {
	var result ReactionResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comment, err := NewCommentStore(tx).GetForUpdate(ctx, commentID)
		if err != nil {
			return err
		}

		var existing models.CommentReaction
		found := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).
			Limit(1).
			Find(&existing)
		if found.Error != nil {
			return found.Error
		}
		current := models.ReactionNone
		if found.RowsAffected > 0 {
			current = existing.State
		}

		next, likeDelta, dislikeDelta := Transition(current, action)

		switch {
		case next == current:
		case next == models.ReactionNone:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case current == models.ReactionNone:
			row := models.CommentReaction{CommentID: commentID, UserID: userID, State: next}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		default:
			if err := tx.Model(&existing).Update("state", next).Error; err != nil {
				return err
			}
		}

		if likeDelta != 0 || dislikeDelta != 0 {
			if err := tx.Model(&models.Comment{}).
				Where("id = ?", comment.ID).
				UpdateColumns(map[string]interface{}{
					"likes":    clampedAdd("likes", likeDelta),
					"dislikes": clampedAdd("dislikes", dislikeDelta),
				}).Error; err != nil {
				return err
			}
		}

		result = ReactionResult{
			CommentID: comment.ID,
			ChapterID: comment.ChapterID,
			Likes:     max(comment.Likes+likeDelta, 0),
			Dislikes:  max(comment.Dislikes+dislikeDelta, 0),
			State:     next,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
