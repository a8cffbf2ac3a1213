package models

import (
	"time"
)

// Follow 关注模型 - 用户的追更列表 (wishlist)
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_comic_follow" json:"user_id"`
	ComicID   uint      `gorm:"not null;index;uniqueIndex:idx_user_comic_follow" json:"comic_id"`
	Comic     Comic     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comic"`
	CreatedAt time.Time `json:"added_at"`
}
