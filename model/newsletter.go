package model

import (
	"time"

	"gorm.io/gorm"
)

// NewsletterSubscription stores a newsletter opt-in by email address
type NewsletterSubscription struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`
	UnsubscribedAt *time.Time     `json:"unsubscribed_at,omitempty"`
}
