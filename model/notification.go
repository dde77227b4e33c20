package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType represents the type/severity of notification
type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeSuccess NotificationType = "success"
	NotificationTypeWarning NotificationType = "warning"
	NotificationTypeError   NotificationType = "error"
)

// NotificationCategory represents the area of the portal a notification is about
type NotificationCategory string

const (
	NotificationCategoryApplication NotificationCategory = "application"
	NotificationCategoryMentorship  NotificationCategory = "mentorship"
	NotificationCategorySession     NotificationCategory = "session"
	NotificationCategoryPartner     NotificationCategory = "partner"
	NotificationCategoryGeneral     NotificationCategory = "general"
)

// Notification represents an in-app message to one user
type Notification struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	DeletedAt gorm.DeletedAt       `gorm:"index" json:"deleted_at,omitempty"`
	UserID    uint                 `gorm:"index;not null" json:"user_id"`
	Type      NotificationType     `gorm:"type:varchar(20);not null" json:"type"`
	Category  NotificationCategory `gorm:"type:varchar(30);not null" json:"category"`
	Title     string               `gorm:"type:varchar(255);not null" json:"title"`
	Message   string               `gorm:"type:text" json:"message"`
	Link      string               `gorm:"type:varchar(512)" json:"link,omitempty"` // deep link into the portal
	Read      bool                 `gorm:"default:false" json:"read"`
	Metadata  datatypes.JSON       `gorm:"type:jsonb" json:"metadata,omitempty"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// NotificationResponse represents the API response format for a notification
type NotificationResponse struct {
	ID        uint                 `json:"id"`
	Type      NotificationType     `json:"type"`
	Category  NotificationCategory `json:"category"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Link      string               `json:"link,omitempty"`
	Read      bool                 `json:"read"`
	Metadata  datatypes.JSON       `json:"metadata,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// ToResponse converts a Notification to NotificationResponse
func (n *Notification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Category:  n.Category,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.Read,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	}
}
