package model

import (
	"time"

	"gorm.io/gorm"
)

// MatchStatus represents the lifecycle state of a mentorship pairing
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusActive    MatchStatus = "active"
	MatchStatusRejected  MatchStatus = "rejected"
	MatchStatusWithdrawn MatchStatus = "withdrawn"
)

// IsTerminal reports whether no further transitions are exposed for the status
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusRejected || s == MatchStatusWithdrawn
}

// MentorProfile holds the mentor-facing profile of a user with the mentor role
type MentorProfile struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	UserID       uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio          string         `gorm:"type:text" json:"bio"`
	Expertise    string         `gorm:"type:varchar(255)" json:"expertise"`
	Availability string         `gorm:"type:varchar(100)" json:"availability,omitempty"`
	Accepting    bool           `gorm:"default:true" json:"accepting"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// MentorshipMatch represents a pairing between one mentor and one mentee.
// Rows are never deleted; terminal statuses preserve history.
type MentorshipMatch struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	MentorID  uint           `gorm:"index;not null" json:"mentor_id"`
	MenteeID  uint           `gorm:"index;not null" json:"mentee_id"`
	Status    MatchStatus    `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	StartDate time.Time      `json:"start_date"`
	Goals     string         `gorm:"type:text" json:"goals,omitempty"`

	// Relationships
	Mentor User `gorm:"foreignKey:MentorID" json:"mentor,omitempty"`
	Mentee User `gorm:"foreignKey:MenteeID" json:"mentee,omitempty"`
}

// MatchResponse represents the API response format for a mentorship match
type MatchResponse struct {
	ID         uint        `json:"id"`
	MentorID   uint        `json:"mentor_id"`
	MentorName string      `json:"mentor_name,omitempty"`
	MenteeID   uint        `json:"mentee_id"`
	MenteeName string      `json:"mentee_name,omitempty"`
	Status     MatchStatus `json:"status"`
	StartDate  time.Time   `json:"start_date"`
	Goals      string      `json:"goals,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// ToResponse converts a MentorshipMatch to MatchResponse
func (m *MentorshipMatch) ToResponse() MatchResponse {
	resp := MatchResponse{
		ID:        m.ID,
		MentorID:  m.MentorID,
		MenteeID:  m.MenteeID,
		Status:    m.Status,
		StartDate: m.StartDate,
		Goals:     m.Goals,
		CreatedAt: m.CreatedAt,
	}
	if m.Mentor.ID != 0 {
		resp.MentorName = m.Mentor.FullName
	}
	if m.Mentee.ID != 0 {
		resp.MenteeName = m.Mentee.FullName
	}
	return resp
}
