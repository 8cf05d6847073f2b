package models

import "time"

// Contribution is immutable once stored.
type Contribution struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	StoryID   uint64    `gorm:"not null;index:idx_contributions_story_created,priority:1" json:"story_id"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_contributions_story_created,priority:2" json:"created_at"`

	// Relations
	Story Story `gorm:"foreignKey:StoryID" json:"-"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
