package model

import (
	"time"

	"gorm.io/gorm"
)

// PartnerStatus represents the verification state of a partner organization
type PartnerStatus string

const (
	PartnerStatusPending  PartnerStatus = "pending"
	PartnerStatusVerified PartnerStatus = "verified"
	PartnerStatusRejected PartnerStatus = "rejected"
)

// PartnerOrganization represents an organization posting opportunities
type PartnerOrganization struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	OwnerID     uint           `gorm:"index;not null" json:"owner_id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Website     string         `gorm:"type:varchar(512)" json:"website,omitempty"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	LogoURL     string         `gorm:"type:varchar(512)" json:"logo_url,omitempty"`
	Status      PartnerStatus  `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	VerifiedAt  *time.Time     `json:"verified_at,omitempty"`

	// Relationships
	Owner  User    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Events []Event `gorm:"foreignKey:PartnerID;constraint:OnDelete:CASCADE" json:"-"`
}
