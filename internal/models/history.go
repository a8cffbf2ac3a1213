package models

import (
	"time"
)

// ReadingHistory 阅读历史，每个 (user, comic) 一行，按 ViewedAt 倒序展示
type ReadingHistory struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_user_comic_history" json:"user_id"`
	ComicID  uint      `gorm:"not null;index;uniqueIndex:idx_user_comic_history" json:"comic_id"`
	Comic    Comic     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comic"`
	ViewedAt time.Time `gorm:"not null;index" json:"viewed_at"`
}
