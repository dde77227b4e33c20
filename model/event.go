package model

import (
	"time"

	"gorm.io/gorm"
)

// Event represents an opportunity or event posted by a partner organization
type Event struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	PartnerID   uint           `gorm:"index;not null" json:"partner_id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Location    string         `gorm:"type:varchar(255)" json:"location,omitempty"`
	StartsAt    time.Time      `json:"starts_at"`
	EndsAt      *time.Time     `json:"ends_at,omitempty"`
	Published   bool           `gorm:"default:false;index" json:"published"`

	// Relationships
	Partner PartnerOrganization `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
}
