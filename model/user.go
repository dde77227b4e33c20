package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleApplicant = "applicant"
	RoleMentor    = "mentor"
	RoleAdmin     = "admin"
	RolePartner   = "partner"
)

// User represents a registered user in the system
type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email           string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash    string         `gorm:"not null" json:"-"` // Never expose password in JSON
	FullName        string         `gorm:"not null" json:"full_name"`
	Role            string         `gorm:"type:varchar(20);default:'applicant'" json:"role"` // applicant, mentor, admin, partner
	Phone           string         `gorm:"type:varchar(30)" json:"phone,omitempty"`
	AvatarURL       string         `gorm:"type:varchar(512)" json:"avatar_url,omitempty"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at,omitempty"`
	TokenVersion    int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Applications   []Application       `gorm:"foreignKey:ApplicantID;constraint:OnDelete:CASCADE" json:"-"`
	Notifications  []Notification      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	MentorProfile  *MentorProfile      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"mentor_profile,omitempty"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsEmailVerified reports whether the user has confirmed their email address
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// UserResponse represents user data in API responses
type UserResponse struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts a User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
		Verified:  u.IsEmailVerified(),
		CreatedAt: u.CreatedAt,
	}
}
