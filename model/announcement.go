package model

import (
	"time"

	"gorm.io/gorm"
)

// Announcement is an admin-managed, portal-wide message
type Announcement struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	AuthorID  uint           `gorm:"index" json:"author_id"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	Body      string         `gorm:"type:text" json:"body"`
	Published bool           `gorm:"default:true;index" json:"published"`

	// Relationships
	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}
