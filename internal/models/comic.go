package models

import (
	"time"
)

type Comic struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Slug           string    `gorm:"not null;index" json:"slug"`
	Title          string    `gorm:"size:255" json:"title"`
	Cover          string    `json:"cover,omitempty"`
	ExternalID     string    `gorm:"index" json:"external_id"`
	Views          int       `gorm:"not null;default:0" json:"views"`
	ViewsToday     int       `gorm:"not null;default:0" json:"views_today"`
	ViewsThisWeek  int       `gorm:"not null;default:0" json:"views_this_week"`
	ViewsThisMonth int       `gorm:"not null;default:0" json:"views_this_month"`
	TotalComments  int       `gorm:"not null;default:0" json:"total_comments"`
	Followers      int       `gorm:"not null;default:0" json:"followers"`
	LastViewUpdate time.Time `json:"last_view_update"`
	CreatedAt      time.Time `json:"created_at"`

	Chapters []Chapter `gorm:"foreignKey:ComicID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"chapters,omitempty"`
}
