package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/granthub/granthub-api/model"
)

// fakeSessionStore is an in-memory SessionStore for service tests
type fakeSessionStore struct {
	matches  map[uint]*model.MentorshipMatch
	sessions map[uint]*model.MentorshipSession
	nextID   uint
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		matches:  map[uint]*model.MentorshipMatch{},
		sessions: map[uint]*model.MentorshipSession{},
	}
}

func (f *fakeSessionStore) GetMatch(ctx context.Context, matchID uint) (*model.MentorshipMatch, error) {
	return f.matches[matchID], nil
}

func (f *fakeSessionStore) CreateSession(ctx context.Context, s *model.MentorshipSession) error {
	f.nextID++
	s.ID = f.nextID
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionStore) GetSession(ctx context.Context, id uint) (*model.MentorshipSession, error) {
	return f.sessions[id], nil
}

func (f *fakeSessionStore) UpdateSession(ctx context.Context, id uint, fields map[string]interface{}) error {
	session, ok := f.sessions[id]
	if !ok {
		return errors.New("no such session")
	}
	if v, ok := fields["notes"]; ok {
		session.Notes = v.(string)
	}
	if v, ok := fields["status"]; ok {
		session.Status = v.(model.SessionStatus)
	}
	return nil
}

func (f *fakeSessionStore) DeleteSession(ctx context.Context, id uint) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) ListSessions(ctx context.Context, filter SessionFilter) ([]model.MentorshipSession, error) {
	var out []model.MentorshipSession
	for _, s := range f.sessions {
		if filter.MatchID != 0 && s.MatchID != filter.MatchID {
			continue
		}
		match := f.matches[s.MatchID]
		if filter.MentorID != 0 && (match == nil || match.MentorID != filter.MentorID) {
			continue
		}
		if filter.MenteeID != 0 && (match == nil || match.MenteeID != filter.MenteeID) {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func newSessionFixture() (*SessionService, *fakeSessionStore) {
	store := newFakeSessionStore()
	store.matches[1] = &model.MentorshipMatch{ID: 1, MentorID: 20, MenteeID: 10, Status: model.MatchStatusActive}
	store.matches[2] = &model.MentorshipMatch{ID: 2, MentorID: 20, MenteeID: 11, Status: model.MatchStatusPending}
	return NewSessionService(store), store
}

func sessionRequest(matchID uint, minutes int) CreateSessionRequest {
	return CreateSessionRequest{
		MatchID:         matchID,
		SessionDate:     time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC),
		DurationMinutes: minutes,
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	svc, _ := newSessionFixture()
	mentor := Caller{ID: 20, Role: model.RoleMentor}

	session, err := svc.Create(context.Background(), mentor, sessionRequest(1, 60))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if session.Status != model.SessionStatusCompleted {
		t.Errorf("expected default status completed, got %s", session.Status)
	}
	if session.Mode != model.SessionModeVideo {
		t.Errorf("expected default mode video, got %s", session.Mode)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	svc, _ := newSessionFixture()
	mentor := Caller{ID: 20, Role: model.RoleMentor}

	var verr *ValidationError
	if _, err := svc.Create(context.Background(), mentor, sessionRequest(1, 0)); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for missing duration, got %v", err)
	}

	req := sessionRequest(1, 60)
	req.SessionDate = time.Time{}
	if _, err := svc.Create(context.Background(), mentor, req); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for missing date, got %v", err)
	}
}

func TestCreateSessionAuthorization(t *testing.T) {
	svc, _ := newSessionFixture()

	// mentee cannot log sessions
	if _, err := svc.Create(context.Background(), Caller{ID: 10}, sessionRequest(1, 60)); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for mentee, got %v", err)
	}

	// admin can log on any match
	if _, err := svc.Create(context.Background(), Caller{ID: 1, Role: model.RoleAdmin}, sessionRequest(1, 60)); err != nil {
		t.Errorf("admin create failed: %v", err)
	}

	// pending match takes no sessions
	if _, err := svc.Create(context.Background(), Caller{ID: 20, Role: model.RoleMentor}, sessionRequest(2, 60)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for pending match, got %v", err)
	}

	if _, err := svc.Create(context.Background(), Caller{ID: 20, Role: model.RoleMentor}, sessionRequest(99, 60)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown match, got %v", err)
	}
}

func TestListSessionsStats(t *testing.T) {
	svc, _ := newSessionFixture()
	mentor := Caller{ID: 20, Role: model.RoleMentor}

	for _, s := range []struct {
		minutes int
		status  model.SessionStatus
	}{
		{60, model.SessionStatusCompleted},
		{90, model.SessionStatusCompleted},
		{30, model.SessionStatusScheduled},
	} {
		req := sessionRequest(1, s.minutes)
		req.Status = s.status
		if _, err := svc.Create(context.Background(), mentor, req); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	sessions, stats, err := svc.List(context.Background(), mentor, ListSessionsRequest{MatchID: 1, IncludeStats: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if stats.Total != 3 {
		t.Errorf("expected total 3, got %d", stats.Total)
	}
	if stats.ByStatus["completed"] != 2 || stats.ByStatus["scheduled"] != 1 {
		t.Errorf("unexpected status breakdown: %v", stats.ByStatus)
	}
	// hours count completed sessions only: (60 + 90) / 60
	if stats.TotalHours != 2.5 {
		t.Errorf("expected 2.5 total hours, got %v", stats.TotalHours)
	}
	// average covers all sessions: (60 + 90 + 30) / 3
	if stats.AverageDuration != 60 {
		t.Errorf("expected average duration 60, got %v", stats.AverageDuration)
	}
}

func TestListSessionsScoping(t *testing.T) {
	svc, store := newSessionFixture()
	store.matches[3] = &model.MentorshipMatch{ID: 3, MentorID: 21, MenteeID: 12, Status: model.MatchStatusActive}

	admin := Caller{ID: 1, Role: model.RoleAdmin}
	if _, err := svc.Create(context.Background(), admin, sessionRequest(1, 60)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), admin, sessionRequest(3, 45)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// a stranger may not list a match they are not part of
	if _, _, err := svc.List(context.Background(), Caller{ID: 99}, ListSessionsRequest{MatchID: 1}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	// the mentee sees sessions under their match
	sessions, _, err := svc.List(context.Background(), Caller{ID: 10, Role: model.RoleApplicant}, ListSessionsRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].MatchID != 1 {
		t.Errorf("expected mentee scoped to match 1, got %v", sessions)
	}

	// a mentor sees sessions across their matches only
	sessions, _, err = svc.List(context.Background(), Caller{ID: 21, Role: model.RoleMentor}, ListSessionsRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].MatchID != 3 {
		t.Errorf("expected mentor scoped to match 3, got %v", sessions)
	}

	// admins see everything
	sessions, _, err = svc.List(context.Background(), admin, ListSessionsRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("expected admin to see 2 sessions, got %d", len(sessions))
	}
}

func TestUpdateAndDeleteSessionAuthorization(t *testing.T) {
	svc, store := newSessionFixture()
	mentor := Caller{ID: 20, Role: model.RoleMentor}

	session, err := svc.Create(context.Background(), mentor, sessionRequest(1, 60))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Update(context.Background(), Caller{ID: 10}, session.ID, map[string]interface{}{"notes": "x"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for mentee update, got %v", err)
	}

	updated, err := svc.Update(context.Background(), mentor, session.ID, map[string]interface{}{"notes": "Covered budgeting"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Notes != "Covered budgeting" {
		t.Errorf("expected notes to update, got %q", updated.Notes)
	}

	if err := svc.Delete(context.Background(), Caller{ID: 10}, session.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for mentee delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), mentor, session.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(store.sessions) != 0 {
		t.Errorf("expected session removed, got %d rows", len(store.sessions))
	}

	if err := svc.Delete(context.Background(), mentor, session.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for deleted session, got %v", err)
	}
}
