package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services"
)

// ApplicationGORMStore backs the application lifecycle with GORM
type ApplicationGORMStore struct {
	db *gorm.DB
}

func NewApplicationStore(db *gorm.DB) *ApplicationGORMStore {
	return &ApplicationGORMStore{db: db}
}

func (s *ApplicationGORMStore) FindDraft(ctx context.Context, applicantID, programID uint) (*model.Application, error) {
	var app model.Application
	err := s.db.WithContext(ctx).
		Where("applicant_id = ? AND program_id = ? AND status = ?",
			applicantID, programID, model.ApplicationStatusDraft).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find draft: %w", err)
	}
	return &app, nil
}

func (s *ApplicationGORMStore) Create(ctx context.Context, app *model.Application) error {
	return s.db.WithContext(ctx).Create(app).Error
}

func (s *ApplicationGORMStore) Get(ctx context.Context, id uint) (*model.Application, error) {
	var app model.Application
	err := s.db.WithContext(ctx).
		Preload("Program").
		Preload("Applicant").
		First(&app, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

func (s *ApplicationGORMStore) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (s *ApplicationGORMStore) ListByApplicant(ctx context.Context, applicantID uint) ([]model.Application, error) {
	var apps []model.Application
	err := s.db.WithContext(ctx).
		Preload("Program").
		Where("applicant_id = ?", applicantID).
		Order("updated_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

func (s *ApplicationGORMStore) ListByStatus(ctx context.Context, status model.ApplicationStatus, limit, offset int) ([]model.Application, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Application{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	var apps []model.Application
	err := query.
		Preload("Program").
		Preload("Applicant").
		Order("submitted_at DESC NULLS LAST, updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&apps).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, total, nil
}

func (s *ApplicationGORMStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&model.Application{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (s *ApplicationGORMStore) GetProgram(ctx context.Context, id uint) (*model.Program, error) {
	var program model.Program
	err := s.db.WithContext(ctx).First(&program, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return &program, nil
}

// UserDirectory resolves accounts for notification fan-out
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) ListAdmins(ctx context.Context) ([]model.User, error) {
	var admins []model.User
	err := d.db.WithContext(ctx).
		Where("role = ?", model.RoleAdmin).
		Find(&admins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}

// MatchGORMStore backs the mentorship lifecycle with GORM
type MatchGORMStore struct {
	db *gorm.DB
}

func NewMatchStore(db *gorm.DB) *MatchGORMStore {
	return &MatchGORMStore{db: db}
}

func (s *MatchGORMStore) CreateMatch(ctx context.Context, m *model.MentorshipMatch) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *MatchGORMStore) GetMatch(ctx context.Context, id uint) (*model.MentorshipMatch, error) {
	var match model.MentorshipMatch
	err := s.db.WithContext(ctx).
		Preload("Mentor").
		Preload("Mentee").
		First(&match, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &match, nil
}

func (s *MatchGORMStore) UpdateMatch(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).
		Model(&model.MentorshipMatch{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (s *MatchGORMStore) CurrentForUser(ctx context.Context, userID uint) (*model.MentorshipMatch, error) {
	var match model.MentorshipMatch
	err := s.db.WithContext(ctx).
		Preload("Mentor").
		Preload("Mentee").
		Where("(mentee_id = ? OR mentor_id = ?) AND status IN ?",
			userID, userID, []model.MatchStatus{model.MatchStatusPending, model.MatchStatusActive}).
		Order("created_at DESC").
		First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find current match: %w", err)
	}
	return &match, nil
}

func (s *MatchGORMStore) ListForMentor(ctx context.Context, mentorID uint, statuses []model.MatchStatus) ([]model.MentorshipMatch, error) {
	query := s.db.WithContext(ctx).
		Preload("Mentee").
		Where("mentor_id = ?", mentorID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var matches []model.MentorshipMatch
	if err := query.Order("created_at DESC").Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (s *MatchGORMStore) GetMentorProfile(ctx context.Context, profileID uint) (*model.MentorProfile, error) {
	var profile model.MentorProfile
	err := s.db.WithContext(ctx).
		Preload("User").
		First(&profile, profileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mentor profile: %w", err)
	}
	return &profile, nil
}

func (s *MatchGORMStore) ListMentorProfiles(ctx context.Context, acceptingOnly bool) ([]model.MentorProfile, error) {
	query := s.db.WithContext(ctx).Preload("User")
	if acceptingOnly {
		query = query.Where("accepting = ?", true)
	}

	var profiles []model.MentorProfile
	if err := query.Order("created_at ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list mentor profiles: %w", err)
	}
	return profiles, nil
}

func (s *MatchGORMStore) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// SessionGORMStore backs the session log with GORM
type SessionGORMStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionGORMStore {
	return &SessionGORMStore{db: db}
}

func (s *SessionGORMStore) GetMatch(ctx context.Context, matchID uint) (*model.MentorshipMatch, error) {
	var match model.MentorshipMatch
	err := s.db.WithContext(ctx).First(&match, matchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return &match, nil
}

func (s *SessionGORMStore) CreateSession(ctx context.Context, sess *model.MentorshipSession) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *SessionGORMStore) GetSession(ctx context.Context, id uint) (*model.MentorshipSession, error) {
	var sess model.MentorshipSession
	err := s.db.WithContext(ctx).First(&sess, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

func (s *SessionGORMStore) UpdateSession(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.db.WithContext(ctx).
		Model(&model.MentorshipSession{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (s *SessionGORMStore) DeleteSession(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&model.MentorshipSession{}, id).Error
}

func (s *SessionGORMStore) ListSessions(ctx context.Context, f services.SessionFilter) ([]model.MentorshipSession, error) {
	query := s.db.WithContext(ctx).Model(&model.MentorshipSession{})

	if f.MatchID != 0 {
		query = query.Where("match_id = ?", f.MatchID)
	}
	if f.MentorID != 0 {
		query = query.Joins("JOIN mentorship_matches ON mentorship_matches.id = mentorship_sessions.match_id").
			Where("mentorship_matches.mentor_id = ?", f.MentorID)
	}
	if f.MenteeID != 0 {
		query = query.Joins("JOIN mentorship_matches ON mentorship_matches.id = mentorship_sessions.match_id").
			Where("mentorship_matches.mentee_id = ?", f.MenteeID)
	}
	if f.Status != "" {
		query = query.Where("mentorship_sessions.status = ?", f.Status)
	}

	var sessions []model.MentorshipSession
	if err := query.Order("session_date DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}
