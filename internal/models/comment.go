package models

import (
	"time"
)

// Comment 章节评论。ParentID 为空表示根评论，否则是回复。
// 子评论列表不单独存储，由 parent_id 反查，按 created_at, id 排序。
// parent_id 上故意没有外键级联：子树删除由应用层完成，才能准确统计删除数量。
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChapterID uint      `gorm:"not null;index" json:"chapter_id"`
	Chapter   *Chapter  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ParentID  *uint     `gorm:"index" json:"parent_id"` // Nullable for root comments
	Content   string    `gorm:"type:text;not null" json:"content"`
	Likes     int       `gorm:"not null;default:0" json:"likes"`
	Dislikes  int       `gorm:"not null;default:0" json:"dislikes"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}
