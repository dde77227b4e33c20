package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApplicationStatus represents the lifecycle state of a grant application
type ApplicationStatus string

const (
	ApplicationStatusDraft     ApplicationStatus = "draft"
	ApplicationStatusSubmitted ApplicationStatus = "submitted"
	// ApplicationStatusUnderReview is a legacy state still present in older
	// rows. It is accepted on read but never written by this codebase.
	ApplicationStatusUnderReview ApplicationStatus = "under_review"
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	// ApplicationStatusPending means the reviewer requested more information.
	ApplicationStatusPending ApplicationStatus = "pending"
)

// MoreInfoMarker prefixes reviewer notes when more information was requested,
// so the applicant UI can distinguish the decision from a plain rejection.
const MoreInfoMarker = "[MORE INFO REQUESTED] "

// Application represents one applicant's submission to one grant program
type Application struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	DeletedAt     gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
	ProgramID     uint              `gorm:"index;not null" json:"program_id"`
	ApplicantID   uint              `gorm:"index;not null" json:"applicant_id"`
	Status        ApplicationStatus `gorm:"type:varchar(20);default:'draft';index" json:"status"`
	Data          datatypes.JSON    `gorm:"column:application_data;type:jsonb" json:"application_data,omitempty"`
	ReviewerNotes string            `gorm:"type:text" json:"reviewer_notes,omitempty"`
	SubmittedAt   *time.Time        `json:"submitted_at,omitempty"`
	ReviewedAt    *time.Time        `json:"reviewed_at,omitempty"`

	// Relationships
	Program   Program `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
	Applicant User    `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
}

// IsReviewed reports whether an admin already decided on the application.
// There is no path from a reviewed state back to submitted.
func (a *Application) IsReviewed() bool {
	switch a.Status {
	case ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusPending:
		return true
	}
	return false
}

// ApplicationData is the normalized, current-version form payload. Older rows
// carry the V1 field set; NormalizeApplicationData upgrades them on read.
type ApplicationData struct {
	Version            int    `json:"version"`
	Institution        string `json:"institution"`
	ProgramOfStudy     string `json:"program_of_study"`
	GrantType          string `json:"grant_type"`
	PurposeOfGrant     string `json:"purpose_of_grant"`
	AcademicGoals      string `json:"academic_goals"`
	HowGrantWillHelp   string `json:"how_grant_will_help"`
	DeclarationAgreed  bool   `json:"declaration_agreed"`
	AdditionalComments string `json:"additional_comments,omitempty"`
}

// applicationDataV1 is the legacy field set written by the first version of
// the apply form. Field names differ; semantics map one-to-one onto V2.
type applicationDataV1 struct {
	School        string `json:"school"`
	Course        string `json:"course"`
	GrantCategory string `json:"grant_category"`
	Purpose       string `json:"purpose"`
	Goals         string `json:"goals"`
	Impact        string `json:"impact"`
	Declaration   bool   `json:"declaration"`
}

// NormalizeApplicationData decodes a stored application_data payload,
// upgrading legacy V1 rows to the current schema. A payload with an explicit
// version >= 2, or with any current-version field present, is read as V2.
func NormalizeApplicationData(raw datatypes.JSON) (*ApplicationData, error) {
	if len(raw) == 0 {
		return &ApplicationData{Version: 2}, nil
	}

	var probe struct {
		Version     int    `json:"version"`
		Institution string `json:"institution"`
		School      string `json:"school"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("failed to decode application data: %w", err)
	}

	if probe.Version >= 2 || probe.Institution != "" || probe.School == "" {
		var data ApplicationData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to decode application data: %w", err)
		}
		data.Version = 2
		return &data, nil
	}

	var legacy applicationDataV1
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("failed to decode legacy application data: %w", err)
	}
	return &ApplicationData{
		Version:           2,
		Institution:       legacy.School,
		ProgramOfStudy:    legacy.Course,
		GrantType:         legacy.GrantCategory,
		PurposeOfGrant:    legacy.Purpose,
		AcademicGoals:     legacy.Goals,
		HowGrantWillHelp:  legacy.Impact,
		DeclarationAgreed: legacy.Declaration,
	}, nil
}

// Marshal encodes the payload for storage, always at the current version
func (d *ApplicationData) Marshal() (datatypes.JSON, error) {
	d.Version = 2
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal application data: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// MissingRequiredFields returns the names of submit-time required fields that
// are empty. The declaration checkbox is validated separately.
func (d *ApplicationData) MissingRequiredFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"institution", d.Institution},
		{"program_of_study", d.ProgramOfStudy},
		{"grant_type", d.GrantType},
		{"purpose_of_grant", d.PurposeOfGrant},
		{"academic_goals", d.AcademicGoals},
		{"how_grant_will_help", d.HowGrantWillHelp},
	}
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// ApplicationResponse represents the API response format for an application
type ApplicationResponse struct {
	ID            uint              `json:"id"`
	ProgramID     uint              `json:"program_id"`
	ProgramTitle  string            `json:"program_title,omitempty"`
	ApplicantID   uint              `json:"applicant_id"`
	Status        ApplicationStatus `json:"status"`
	Data          *ApplicationData  `json:"application_data,omitempty"`
	ReviewerNotes string            `json:"reviewer_notes,omitempty"`
	SubmittedAt   *time.Time        `json:"submitted_at,omitempty"`
	ReviewedAt    *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ToResponse converts an Application to ApplicationResponse. Undecodable
// payloads are returned without data rather than failing the whole response.
func (a *Application) ToResponse() ApplicationResponse {
	resp := ApplicationResponse{
		ID:            a.ID,
		ProgramID:     a.ProgramID,
		ApplicantID:   a.ApplicantID,
		Status:        a.Status,
		ReviewerNotes: a.ReviewerNotes,
		SubmittedAt:   a.SubmittedAt,
		ReviewedAt:    a.ReviewedAt,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if a.Program.ID != 0 {
		resp.ProgramTitle = a.Program.Title
	}
	if data, err := NormalizeApplicationData(a.Data); err == nil {
		resp.Data = data
	}
	return resp
}
