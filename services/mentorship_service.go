package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services/realtime"
)

// MatchStore is the persistence surface for mentorship pairings.
// Find-style methods return (nil, nil) when no row matches.
type MatchStore interface {
	CreateMatch(ctx context.Context, m *model.MentorshipMatch) error
	GetMatch(ctx context.Context, id uint) (*model.MentorshipMatch, error)
	UpdateMatch(ctx context.Context, id uint, fields map[string]interface{}) error
	// CurrentForUser returns the user's non-terminal (pending or active)
	// match, as mentee or mentor, if any.
	CurrentForUser(ctx context.Context, userID uint) (*model.MentorshipMatch, error)
	ListForMentor(ctx context.Context, mentorID uint, statuses []model.MatchStatus) ([]model.MentorshipMatch, error)
	GetMentorProfile(ctx context.Context, profileID uint) (*model.MentorProfile, error)
	ListMentorProfiles(ctx context.Context, acceptingOnly bool) ([]model.MentorProfile, error)
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

// MentorshipService drives a pairing through
// pending -> (active | rejected) by mentor action, or -> withdrawn by mentee
// action. Rows are never deleted; "current match" queries filter on
// non-terminal statuses so history survives withdrawal.
type MentorshipService struct {
	store      MatchStore
	dispatcher Dispatcher
	events     EventPublisher
	appURL     string
}

// NewMentorshipService creates a new mentorship lifecycle service
func NewMentorshipService(store MatchStore, dispatcher Dispatcher, events EventPublisher, appURL string) *MentorshipService {
	return &MentorshipService{
		store:      store,
		dispatcher: dispatcher,
		events:     events,
		appURL:     appURL,
	}
}

// RequestMentor creates a pending match from the caller to a mentor. The
// caller may hold at most one non-terminal match; a withdrawn or rejected
// match does not count, so a mentee can request again after withdrawing.
// Four notification attempts follow (mentor in-app, mentor email, mentee
// in-app, mentee email), each independent of the others.
func (s *MentorshipService) RequestMentor(ctx context.Context, caller Caller, mentorProfileID uint, goals string) (*model.MentorshipMatch, error) {
	existing, err := s.store.CurrentForUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check current match: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: a pending or active mentorship already exists", ErrConflict)
	}

	profile, err := s.store.GetMentorProfile(ctx, mentorProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mentor profile: %w", err)
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	if !profile.Accepting {
		return nil, fmt.Errorf("%w: mentor is not accepting mentees", ErrInvalidState)
	}
	if profile.UserID == caller.ID {
		return nil, NewValidationError("mentor_profile_id", "you cannot request yourself as a mentor")
	}

	mentee, err := s.store.GetUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mentee: %w", err)
	}
	if mentee == nil {
		return nil, ErrNotFound
	}

	match := &model.MentorshipMatch{
		MentorID:  profile.UserID,
		MenteeID:  caller.ID,
		Status:    model.MatchStatusPending,
		StartDate: time.Now(),
		Goals:     goals,
	}
	if err := s.store.CreateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	mentor := profile.User
	menteeName := mentee.FullName

	// Mentor: new request. Mentee: confirmation. Each attempt independent.
	mentorSubject, mentorBody := MentorshipRequestReceivedEmail(mentor.FullName, menteeName, s.appURL)
	s.dispatch(ctx, Dispatch{
		UserID:       mentor.ID,
		Type:         model.NotificationTypeInfo,
		Category:     model.NotificationCategoryMentorship,
		Title:        "New Mentorship Request",
		Message:      fmt.Sprintf("%s has requested you as their mentor.", menteeName),
		Link:         "/mentorship",
		Metadata:     map[string]interface{}{"match_id": match.ID},
		EmailTo:      mentor.Email,
		EmailSubject: mentorSubject,
		EmailBody:    mentorBody,
	})

	menteeSubject, menteeBody := MentorshipRequestSentEmail(menteeName, mentor.FullName, s.appURL)
	s.dispatch(ctx, Dispatch{
		UserID:       mentee.ID,
		Type:         model.NotificationTypeSuccess,
		Category:     model.NotificationCategoryMentorship,
		Title:        "Mentorship Request Sent",
		Message:      fmt.Sprintf("Your mentorship request to %s has been sent.", mentor.FullName),
		Link:         "/mentorship",
		Metadata:     map[string]interface{}{"match_id": match.ID},
		EmailTo:      mentee.Email,
		EmailSubject: menteeSubject,
		EmailBody:    menteeBody,
	})

	s.publish(ctx, "mentorship.requested", map[string]interface{}{"match_id": match.ID, "mentor_id": mentor.ID})

	return match, nil
}

// Withdraw moves the caller's match to withdrawn. The row is kept for
// history; it simply stops matching the non-terminal filter.
func (s *MentorshipService) Withdraw(ctx context.Context, caller Caller, matchID uint) (*model.MentorshipMatch, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match == nil {
		return nil, ErrNotFound
	}
	if match.MenteeID != caller.ID {
		return nil, ErrForbidden
	}
	if match.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: match is already closed", ErrInvalidState)
	}

	if err := s.store.UpdateMatch(ctx, matchID, map[string]interface{}{"status": model.MatchStatusWithdrawn}); err != nil {
		return nil, fmt.Errorf("failed to withdraw match: %w", err)
	}
	match.Status = model.MatchStatusWithdrawn

	subject, body := MentorshipWithdrawnEmail(match.Mentor.FullName, match.Mentee.FullName)
	s.dispatch(ctx, Dispatch{
		UserID:       match.MentorID,
		Type:         model.NotificationTypeInfo,
		Category:     model.NotificationCategoryMentorship,
		Title:        "Mentorship Withdrawn",
		Message:      fmt.Sprintf("%s has withdrawn from the mentorship.", match.Mentee.FullName),
		Metadata:     map[string]interface{}{"match_id": match.ID},
		EmailTo:      match.Mentor.Email,
		EmailSubject: subject,
		EmailBody:    body,
	})

	s.publish(ctx, "mentorship.withdrawn", map[string]interface{}{"match_id": match.ID})

	return match, nil
}

// Respond records the mentor's decision on a pending request, then notifies
// the mentee either way.
func (s *MentorshipService) Respond(ctx context.Context, caller Caller, matchID uint, accept bool) (*model.MentorshipMatch, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match == nil {
		return nil, ErrNotFound
	}
	if match.MentorID != caller.ID {
		return nil, ErrForbidden
	}
	if match.Status != model.MatchStatusPending {
		return nil, fmt.Errorf("%w: request has already been handled", ErrInvalidState)
	}

	newStatus := model.MatchStatusRejected
	if accept {
		newStatus = model.MatchStatusActive
	}
	if err := s.store.UpdateMatch(ctx, matchID, map[string]interface{}{"status": newStatus}); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	match.Status = newStatus

	var d Dispatch
	if accept {
		subject, body := MentorshipRequestAcceptedEmail(match.Mentee.FullName, match.Mentor.FullName, s.appURL)
		d = Dispatch{
			Type:         model.NotificationTypeSuccess,
			Title:        "Mentorship Request Accepted",
			Message:      fmt.Sprintf("%s accepted your mentorship request.", match.Mentor.FullName),
			EmailSubject: subject,
			EmailBody:    body,
		}
	} else {
		subject, body := MentorshipRequestRejectedEmail(match.Mentee.FullName, match.Mentor.FullName, s.appURL)
		d = Dispatch{
			Type:         model.NotificationTypeWarning,
			Title:        "Mentorship Request Declined",
			Message:      fmt.Sprintf("%s is unable to take on your mentorship request.", match.Mentor.FullName),
			EmailSubject: subject,
			EmailBody:    body,
		}
	}
	d.UserID = match.MenteeID
	d.Category = model.NotificationCategoryMentorship
	d.Link = "/mentorship"
	d.Metadata = map[string]interface{}{"match_id": match.ID}
	d.EmailTo = match.Mentee.Email
	s.dispatch(ctx, d)

	s.publish(ctx, "mentorship.responded", map[string]interface{}{"match_id": match.ID, "status": newStatus})

	return match, nil
}

// CurrentMatch returns the caller's non-terminal match, or ErrNotFound
func (s *MentorshipService) CurrentMatch(ctx context.Context, caller Caller) (*model.MentorshipMatch, error) {
	match, err := s.store.CurrentForUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current match: %w", err)
	}
	if match == nil {
		return nil, ErrNotFound
	}
	return match, nil
}

// PendingRequests returns the mentor's open requests for their dashboard
func (s *MentorshipService) PendingRequests(ctx context.Context, caller Caller) ([]model.MentorshipMatch, error) {
	matches, err := s.store.ListForMentor(ctx, caller.ID, []model.MatchStatus{model.MatchStatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return matches, nil
}

// ListMentors returns browsable mentor profiles
func (s *MentorshipService) ListMentors(ctx context.Context, acceptingOnly bool) ([]model.MentorProfile, error) {
	profiles, err := s.store.ListMentorProfiles(ctx, acceptingOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list mentors: %w", err)
	}
	return profiles, nil
}

func (s *MentorshipService) dispatch(ctx context.Context, d Dispatch) {
	if s.dispatcher == nil {
		return
	}
	result := s.dispatcher.Dispatch(ctx, d)
	if result.Failed() {
		log.Printf("Mentorship: notification to user %d incomplete (in-app: %v, email: %v)", d.UserID, result.InApp, result.Email)
	}
}

func (s *MentorshipService) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, realtime.TopicMentorship, realtime.Event{Type: eventType, Payload: payload}); err != nil {
		log.Printf("realtime publish %s failed: %v", eventType, err)
	}
}
