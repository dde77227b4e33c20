package model

import (
	"time"

	"gorm.io/gorm"
)

// EmailVerificationToken stores one-shot tokens for confirming email addresses
type EmailVerificationToken struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"index;not null" json:"user_id"`
	Token     string         `gorm:"uniqueIndex;not null;type:varchar(100)" json:"token"`
	ExpiresAt time.Time      `gorm:"index;not null" json:"expires_at"`
	UsedAt    *time.Time     `json:"used_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName specifies the table name for EmailVerificationToken
func (EmailVerificationToken) TableName() string {
	return "email_verification_tokens"
}

// IsExpired checks if the verification token has expired
func (t *EmailVerificationToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsUsed checks if the verification token has been used
func (t *EmailVerificationToken) IsUsed() bool {
	return t.UsedAt != nil
}

// MarkAsUsed marks the token as used
func (t *EmailVerificationToken) MarkAsUsed() {
	now := time.Now()
	t.UsedAt = &now
}
