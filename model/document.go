package model

import (
	"time"

	"gorm.io/gorm"
)

// DocumentType represents the kind of supporting document attached to an application
type DocumentType string

const (
	DocumentTypeAcademicTranscript   DocumentType = "academic_transcript"
	DocumentTypeEnrollmentProof      DocumentType = "enrollment_proof"
	DocumentTypeRecommendationLetter DocumentType = "recommendation_letter"
	DocumentTypeFinancialStatement   DocumentType = "financial_statement"
	DocumentTypeStateOfOrigin        DocumentType = "state_of_origin"
	DocumentTypeAdditional           DocumentType = "additional_document"
)

// ValidDocumentType reports whether t is one of the accepted upload types
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocumentTypeAcademicTranscript, DocumentTypeEnrollmentProof,
		DocumentTypeRecommendationLetter, DocumentTypeFinancialStatement,
		DocumentTypeStateOfOrigin, DocumentTypeAdditional:
		return true
	}
	return false
}

// ApplicationDocument represents an uploaded supporting document
type ApplicationDocument struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	ApplicationID uint           `gorm:"index;not null" json:"application_id"`
	UploaderID    uint           `gorm:"index;not null" json:"uploader_id"`
	Type          DocumentType   `gorm:"type:varchar(40);not null" json:"type"`
	FileName      string         `gorm:"type:varchar(255);not null" json:"file_name"`
	StorageKey    string         `gorm:"type:varchar(512);not null" json:"-"`
	FileSize      int64          `json:"file_size"`
	ContentType   string         `gorm:"type:varchar(100)" json:"content_type"`

	// Relationships
	Application Application `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"-"`
	Uploader    User        `gorm:"foreignKey:UploaderID" json:"-"`
}
