package model

import (
	"time"

	"gorm.io/datatypes"
)

// AdminAuditLog records an administrative action for later review
type AdminAuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	AdminID   uint           `gorm:"index;not null" json:"admin_id"`
	Action    string         `gorm:"type:varchar(100);not null" json:"action"`   // e.g. application_review, partner_verify
	Resource  string         `gorm:"type:varchar(100);not null" json:"resource"` // table/entity acted on
	TargetID  string         `gorm:"type:varchar(50)" json:"target_id,omitempty"`
	Details   datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	IPAddress string         `gorm:"type:varchar(45)" json:"ip_address,omitempty"`

	// Relationships
	Admin User `gorm:"foreignKey:AdminID" json:"-"`
}
