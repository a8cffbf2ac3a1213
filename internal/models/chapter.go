package models

import (
	"time"
)

// Chapter 评论挂载的容器。ExternalID 是采集端使用的章节标识，路由参数里传的也是它
type Chapter struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ComicID       uint      `gorm:"not null;index" json:"comic_id"`
	ChapterNumber float64   `gorm:"not null" json:"chapter_number"`
	ExternalID    string    `gorm:"uniqueIndex;not null" json:"external_id"`
	Views         int       `gorm:"not null;default:0" json:"views"`
	CommentCount  int       `gorm:"not null;default:0" json:"comment_count"`
	CreatedAt     time.Time `json:"created_at"`
}
