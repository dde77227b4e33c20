package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// SessionStatus represents the state of a logged mentorship session
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
	SessionStatusNoShow    SessionStatus = "no_show"
)

// SessionMode represents how a mentorship session was held
type SessionMode string

const (
	SessionModeVideo    SessionMode = "video"
	SessionModePhone    SessionMode = "phone"
	SessionModeInPerson SessionMode = "in_person"
)

// MentorshipSession is a logged meeting under a mentorship match
type MentorshipSession struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	MatchID          uint           `gorm:"index;not null" json:"match_id"`
	SessionDate      time.Time      `gorm:"not null" json:"session_date"`
	DurationMinutes  int            `gorm:"not null" json:"duration_minutes"`
	Mode             SessionMode    `gorm:"type:varchar(20);default:'video'" json:"mode"`
	Notes            string         `gorm:"type:text" json:"notes,omitempty"`
	TopicsCovered    pq.StringArray `gorm:"type:text[]" json:"topics_covered,omitempty"`
	ActionItems      pq.StringArray `gorm:"type:text[]" json:"action_items,omitempty"`
	NextSessionGoals string         `gorm:"type:text" json:"next_session_goals,omitempty"`
	Status           SessionStatus  `gorm:"type:varchar(20);default:'completed';index" json:"status"`

	// Relationships
	Match MentorshipMatch `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE" json:"match,omitempty"`
}

// SessionStats aggregates a listed set of sessions
type SessionStats struct {
	Total           int64            `json:"total"`
	ByStatus        map[string]int64 `json:"by_status"`
	TotalHours      float64          `json:"total_hours"`
	AverageDuration float64          `json:"average_duration"`
}
