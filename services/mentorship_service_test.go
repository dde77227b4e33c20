package services

import (
	"context"
	"errors"
	"testing"

	"github.com/granthub/granthub-api/model"
)

// fakeMatchStore is an in-memory MatchStore for service tests
type fakeMatchStore struct {
	matches  map[uint]*model.MentorshipMatch
	profiles map[uint]*model.MentorProfile
	users    map[uint]*model.User
	nextID   uint
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{
		matches:  map[uint]*model.MentorshipMatch{},
		profiles: map[uint]*model.MentorProfile{},
		users:    map[uint]*model.User{},
	}
}

func (f *fakeMatchStore) CreateMatch(ctx context.Context, m *model.MentorshipMatch) error {
	f.nextID++
	m.ID = f.nextID
	f.matches[m.ID] = m
	return nil
}

func (f *fakeMatchStore) GetMatch(ctx context.Context, id uint) (*model.MentorshipMatch, error) {
	return f.matches[id], nil
}

func (f *fakeMatchStore) UpdateMatch(ctx context.Context, id uint, fields map[string]interface{}) error {
	match, ok := f.matches[id]
	if !ok {
		return errors.New("no such match")
	}
	if v, ok := fields["status"]; ok {
		match.Status = v.(model.MatchStatus)
	}
	return nil
}

func (f *fakeMatchStore) CurrentForUser(ctx context.Context, userID uint) (*model.MentorshipMatch, error) {
	for _, m := range f.matches {
		if (m.MenteeID == userID || m.MentorID == userID) && !m.Status.IsTerminal() {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMatchStore) ListForMentor(ctx context.Context, mentorID uint, statuses []model.MatchStatus) ([]model.MentorshipMatch, error) {
	var out []model.MentorshipMatch
	for _, m := range f.matches {
		if m.MentorID != mentorID {
			continue
		}
		for _, s := range statuses {
			if m.Status == s {
				out = append(out, *m)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeMatchStore) GetMentorProfile(ctx context.Context, profileID uint) (*model.MentorProfile, error) {
	return f.profiles[profileID], nil
}

func (f *fakeMatchStore) ListMentorProfiles(ctx context.Context, acceptingOnly bool) ([]model.MentorProfile, error) {
	var out []model.MentorProfile
	for _, p := range f.profiles {
		if acceptingOnly && !p.Accepting {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeMatchStore) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return f.users[id], nil
}

func newMentorshipFixture() (*MentorshipService, *fakeMatchStore, *recordingDispatcher) {
	store := newFakeMatchStore()
	store.users[10] = &model.User{ID: 10, FullName: "Ada Obi", Email: "ada@example.com"}
	store.users[20] = &model.User{ID: 20, FullName: "Dr. Bello", Email: "bello@example.com", Role: model.RoleMentor}
	store.profiles[5] = &model.MentorProfile{
		ID:        5,
		UserID:    20,
		Accepting: true,
		User:      *store.users[20],
	}
	dispatcher := &recordingDispatcher{}
	return NewMentorshipService(store, dispatcher, nil, "http://localhost:3000"), store, dispatcher
}

func TestRequestMentorCreatesPendingMatch(t *testing.T) {
	svc, store, dispatcher := newMentorshipFixture()

	match, err := svc.RequestMentor(context.Background(), Caller{ID: 10}, 5, "Improve my grant writing")
	if err != nil {
		t.Fatalf("RequestMentor failed: %v", err)
	}
	if match.Status != model.MatchStatusPending {
		t.Errorf("expected pending status, got %s", match.Status)
	}
	if match.MentorID != 20 || match.MenteeID != 10 {
		t.Errorf("unexpected pairing mentor=%d mentee=%d", match.MentorID, match.MenteeID)
	}
	if len(store.matches) != 1 {
		t.Errorf("expected one match row, got %d", len(store.matches))
	}

	// mentor and mentee each get a dispatch
	if len(dispatcher.dispatches) != 2 {
		t.Fatalf("expected 2 dispatches, got %d", len(dispatcher.dispatches))
	}
	recipients := map[uint]bool{}
	for _, d := range dispatcher.dispatches {
		recipients[d.UserID] = true
	}
	if !recipients[10] || !recipients[20] {
		t.Errorf("expected dispatches to mentee 10 and mentor 20, got %v", recipients)
	}
}

func TestRequestMentorDuplicateGuard(t *testing.T) {
	svc, store, _ := newMentorshipFixture()
	caller := Caller{ID: 10}

	if _, err := svc.RequestMentor(context.Background(), caller, 5, ""); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if _, err := svc.RequestMentor(context.Background(), caller, 5, ""); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict with a pending match, got %v", err)
	}

	// an active match blocks too
	for _, m := range store.matches {
		m.Status = model.MatchStatusActive
	}
	if _, err := svc.RequestMentor(context.Background(), caller, 5, ""); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict with an active match, got %v", err)
	}
}

func TestRequestMentorGuards(t *testing.T) {
	svc, store, _ := newMentorshipFixture()

	if _, err := svc.RequestMentor(context.Background(), Caller{ID: 10}, 99, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown profile, got %v", err)
	}

	store.profiles[5].Accepting = false
	if _, err := svc.RequestMentor(context.Background(), Caller{ID: 10}, 5, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for closed mentor, got %v", err)
	}
	store.profiles[5].Accepting = true

	var verr *ValidationError
	if _, err := svc.RequestMentor(context.Background(), Caller{ID: 20}, 5, ""); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for self-request, got %v", err)
	}
}

func TestWithdrawThenRequestAgain(t *testing.T) {
	svc, _, _ := newMentorshipFixture()
	caller := Caller{ID: 10}

	match, err := svc.RequestMentor(context.Background(), caller, 5, "")
	if err != nil {
		t.Fatalf("RequestMentor failed: %v", err)
	}

	if _, err := svc.Withdraw(context.Background(), Caller{ID: 20}, match.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden when mentor withdraws, got %v", err)
	}

	withdrawn, err := svc.Withdraw(context.Background(), caller, match.ID)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if withdrawn.Status != model.MatchStatusWithdrawn {
		t.Errorf("expected withdrawn status, got %s", withdrawn.Status)
	}

	if _, err := svc.Withdraw(context.Background(), caller, match.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on repeat withdraw, got %v", err)
	}

	// a withdrawn match no longer blocks a new request
	again, err := svc.RequestMentor(context.Background(), caller, 5, "")
	if err != nil {
		t.Fatalf("request after withdraw failed: %v", err)
	}
	if again.ID == match.ID {
		t.Error("expected a new match row after withdrawal")
	}
}

func TestRespondDecision(t *testing.T) {
	svc, store, dispatcher := newMentorshipFixture()

	match, err := svc.RequestMentor(context.Background(), Caller{ID: 10}, 5, "")
	if err != nil {
		t.Fatalf("RequestMentor failed: %v", err)
	}
	store.matches[match.ID].Mentee = *store.users[10]
	store.matches[match.ID].Mentor = *store.users[20]
	dispatcher.dispatches = nil

	if _, err := svc.Respond(context.Background(), Caller{ID: 10}, match.ID, true); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden when mentee responds, got %v", err)
	}

	accepted, err := svc.Respond(context.Background(), Caller{ID: 20}, match.ID, true)
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if accepted.Status != model.MatchStatusActive {
		t.Errorf("expected active status, got %s", accepted.Status)
	}
	if len(dispatcher.dispatches) != 1 || dispatcher.dispatches[0].UserID != 10 {
		t.Errorf("expected mentee notification, got %v", dispatcher.dispatches)
	}

	if _, err := svc.Respond(context.Background(), Caller{ID: 20}, match.ID, false); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on second response, got %v", err)
	}
}

func TestRespondReject(t *testing.T) {
	svc, _, _ := newMentorshipFixture()

	match, err := svc.RequestMentor(context.Background(), Caller{ID: 10}, 5, "")
	if err != nil {
		t.Fatalf("RequestMentor failed: %v", err)
	}

	rejected, err := svc.Respond(context.Background(), Caller{ID: 20}, match.ID, false)
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if rejected.Status != model.MatchStatusRejected {
		t.Errorf("expected rejected status, got %s", rejected.Status)
	}

	// a rejected request is terminal; the mentee can try someone else
	if _, err := svc.RequestMentor(context.Background(), Caller{ID: 10}, 5, ""); err != nil {
		t.Errorf("request after rejection failed: %v", err)
	}
}

func TestCurrentMatchNotFound(t *testing.T) {
	svc, _, _ := newMentorshipFixture()

	if _, err := svc.CurrentMatch(context.Background(), Caller{ID: 10}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound without a match, got %v", err)
	}

	match, err := svc.RequestMentor(context.Background(), Caller{ID: 10}, 5, "")
	if err != nil {
		t.Fatalf("RequestMentor failed: %v", err)
	}

	current, err := svc.CurrentMatch(context.Background(), Caller{ID: 10})
	if err != nil {
		t.Fatalf("CurrentMatch failed: %v", err)
	}
	if current.ID != match.ID {
		t.Errorf("expected match %d, got %d", match.ID, current.ID)
	}
}

func TestPendingRequestsScopedToMentor(t *testing.T) {
	svc, store, _ := newMentorshipFixture()

	if _, err := svc.RequestMentor(context.Background(), Caller{ID: 10}, 5, ""); err != nil {
		t.Fatalf("RequestMentor failed: %v", err)
	}

	pending, err := svc.PendingRequests(context.Background(), Caller{ID: 20})
	if err != nil {
		t.Fatalf("PendingRequests failed: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected 1 pending request for mentor, got %d", len(pending))
	}

	other, err := svc.PendingRequests(context.Background(), Caller{ID: 99})
	if err != nil {
		t.Fatalf("PendingRequests failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no requests for unrelated mentor, got %d", len(other))
	}

	store.matches[1].Status = model.MatchStatusActive
	pending, err = svc.PendingRequests(context.Background(), Caller{ID: 20})
	if err != nil {
		t.Fatalf("PendingRequests failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected active match excluded from pending, got %d", len(pending))
	}
}
