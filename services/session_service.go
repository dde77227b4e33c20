package services

import (
	"context"
	"fmt"
	"time"

	"github.com/granthub/granthub-api/model"
)

// SessionFilter narrows a session listing. Zero values mean "no filter".
type SessionFilter struct {
	MatchID  uint
	MentorID uint // sessions under matches mentored by this user
	MenteeID uint // sessions under matches where this user is the mentee
	Status   model.SessionStatus
}

// SessionStore is the persistence surface for the session log.
// Find-style methods return (nil, nil) when no row matches.
type SessionStore interface {
	GetMatch(ctx context.Context, matchID uint) (*model.MentorshipMatch, error)
	CreateSession(ctx context.Context, s *model.MentorshipSession) error
	GetSession(ctx context.Context, id uint) (*model.MentorshipSession, error)
	UpdateSession(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteSession(ctx context.Context, id uint) error
	ListSessions(ctx context.Context, f SessionFilter) ([]model.MentorshipSession, error)
}

// CreateSessionRequest carries the fields for logging a session
type CreateSessionRequest struct {
	MatchID          uint
	SessionDate      time.Time
	DurationMinutes  int
	Mode             model.SessionMode
	Notes            string
	TopicsCovered    []string
	ActionItems      []string
	NextSessionGoals string
	Status           model.SessionStatus
}

// ListSessionsRequest carries the options for a session listing
type ListSessionsRequest struct {
	MatchID      uint // 0 means scope by caller role
	Status       model.SessionStatus
	IncludeStats bool
}

// SessionService manages the session log under mentorship matches. Every
// mutation verifies the caller is the owning match's mentor or an admin.
type SessionService struct {
	store SessionStore
}

// NewSessionService creates a new session log service
func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{store: store}
}

// Create logs a session under an active match
func (s *SessionService) Create(ctx context.Context, caller Caller, req CreateSessionRequest) (*model.MentorshipSession, error) {
	if req.DurationMinutes <= 0 {
		return nil, NewValidationError("duration_minutes", "duration is required")
	}
	if req.SessionDate.IsZero() {
		return nil, NewValidationError("session_date", "session date is required")
	}

	match, err := s.store.GetMatch(ctx, req.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match == nil {
		return nil, ErrNotFound
	}
	if match.MentorID != caller.ID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if match.Status != model.MatchStatusActive {
		return nil, fmt.Errorf("%w: sessions can only be logged under an active mentorship", ErrInvalidState)
	}

	status := req.Status
	if status == "" {
		status = model.SessionStatusCompleted
	}
	mode := req.Mode
	if mode == "" {
		mode = model.SessionModeVideo
	}

	session := &model.MentorshipSession{
		MatchID:          req.MatchID,
		SessionDate:      req.SessionDate,
		DurationMinutes:  req.DurationMinutes,
		Mode:             mode,
		Notes:            req.Notes,
		TopicsCovered:    req.TopicsCovered,
		ActionItems:      req.ActionItems,
		NextSessionGoals: req.NextSessionGoals,
		Status:           status,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// List returns sessions visible to the caller, optionally with aggregate
// stats over the returned set. Without a match id the scope follows the
// caller's role: mentors see sessions across all their matches, applicants
// see sessions across matches where they are the mentee, admins see all.
func (s *SessionService) List(ctx context.Context, caller Caller, req ListSessionsRequest) ([]model.MentorshipSession, *model.SessionStats, error) {
	filter := SessionFilter{Status: req.Status}

	if req.MatchID != 0 {
		match, err := s.store.GetMatch(ctx, req.MatchID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load match: %w", err)
		}
		if match == nil {
			return nil, nil, ErrNotFound
		}
		if match.MentorID != caller.ID && match.MenteeID != caller.ID && !caller.IsAdmin() {
			return nil, nil, ErrForbidden
		}
		filter.MatchID = req.MatchID
	} else {
		switch caller.Role {
		case model.RoleAdmin:
			// unrestricted
		case model.RoleMentor:
			filter.MentorID = caller.ID
		default:
			filter.MenteeID = caller.ID
		}
	}

	sessions, err := s.store.ListSessions(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var stats *model.SessionStats
	if req.IncludeStats {
		stats = computeStats(sessions)
	}
	return sessions, stats, nil
}

// computeStats aggregates the returned session set
func computeStats(sessions []model.MentorshipSession) *model.SessionStats {
	stats := &model.SessionStats{
		Total:    int64(len(sessions)),
		ByStatus: make(map[string]int64),
	}

	var totalMinutes, completedMinutes int
	for _, session := range sessions {
		stats.ByStatus[string(session.Status)]++
		totalMinutes += session.DurationMinutes
		if session.Status == model.SessionStatusCompleted {
			completedMinutes += session.DurationMinutes
		}
	}

	stats.TotalHours = float64(completedMinutes) / 60
	if len(sessions) > 0 {
		stats.AverageDuration = float64(totalMinutes) / float64(len(sessions))
	}
	return stats
}

// Update applies a partial update; only provided fields are touched
func (s *SessionService) Update(ctx context.Context, caller Caller, sessionID uint, fields map[string]interface{}) (*model.MentorshipSession, error) {
	session, err := s.authorizeMutation(ctx, caller, sessionID)
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return session, nil
	}
	if err := s.store.UpdateSession(ctx, sessionID, fields); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	updated, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload session: %w", err)
	}
	return updated, nil
}

// Delete removes a session from the log
func (s *SessionService) Delete(ctx context.Context, caller Caller, sessionID uint) error {
	if _, err := s.authorizeMutation(ctx, caller, sessionID); err != nil {
		return err
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// authorizeMutation loads a session and checks the caller may mutate it
func (s *SessionService) authorizeMutation(ctx context.Context, caller Caller, sessionID uint) (*model.MentorshipSession, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrNotFound
	}

	match := session.Match
	if match.ID == 0 {
		m, err := s.store.GetMatch(ctx, session.MatchID)
		if err != nil {
			return nil, fmt.Errorf("failed to load match: %w", err)
		}
		if m == nil {
			return nil, ErrNotFound
		}
		match = *m
	}

	if match.MentorID != caller.ID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return session, nil
}
