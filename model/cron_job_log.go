package model

import (
	"time"

	"gorm.io/gorm"
)

// CronJobLog records each run of a scheduled background job
type CronJobLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	JobName     string         `gorm:"type:varchar(100);index;not null" json:"job_name"`
	Status      string         `gorm:"type:varchar(20);not null" json:"status"` // running, completed, failed
	StartedAt   time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Message     string         `gorm:"type:text" json:"message,omitempty"`
	ErrorMsg    string         `gorm:"type:text" json:"error_msg,omitempty"`
}
