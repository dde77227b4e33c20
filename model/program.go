package model

import (
	"time"

	"gorm.io/gorm"
)

// Program represents a grant program applicants can apply to
type Program struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	GrantAmount int64          `json:"grant_amount"` // in minor currency units
	Currency    string         `gorm:"type:varchar(3);default:'NGN'" json:"currency"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
	Active      bool           `gorm:"default:true;index" json:"active"`

	// Relationships
	Applications []Application `gorm:"foreignKey:ProgramID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsOpen reports whether the program still accepts submissions
func (p *Program) IsOpen() bool {
	if !p.Active {
		return false
	}
	if p.Deadline != nil && time.Now().After(*p.Deadline) {
		return false
	}
	return true
}
