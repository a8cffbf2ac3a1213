package models

import (
	"time"
)

// ReactionState 用户对单条评论的态度，三选一
type ReactionState string

const (
	ReactionNone     ReactionState = ""
	ReactionLiked    ReactionState = "liked"
	ReactionDisliked ReactionState = "disliked"
)

// CommentReaction 每个 (comment, user) 最多一行；没有行即 ReactionNone。
// Comment.Likes / Dislikes 与本表在同一事务里维护。
type CommentReaction struct {
	ID        uint          `gorm:"primaryKey" json:"-"`
	CommentID uint          `gorm:"not null;uniqueIndex:idx_comment_user_reaction" json:"comment_id"`
	UserID    uint          `gorm:"not null;index;uniqueIndex:idx_comment_user_reaction" json:"user_id"`
	State     ReactionState `gorm:"type:varchar(10);not null" json:"state"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
