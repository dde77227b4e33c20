package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services/realtime"
)

// ReviewDecision is an admin's decision on a submitted application
type ReviewDecision string

const (
	ReviewDecisionApprove     ReviewDecision = "approve"
	ReviewDecisionReject      ReviewDecision = "reject"
	ReviewDecisionRequestInfo ReviewDecision = "request_info"
)

// ApplicationStore is the persistence surface the application lifecycle needs.
// Find-style methods return (nil, nil) when no row matches.
type ApplicationStore interface {
	FindDraft(ctx context.Context, applicantID, programID uint) (*model.Application, error)
	Create(ctx context.Context, app *model.Application) error
	Get(ctx context.Context, id uint) (*model.Application, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	ListByApplicant(ctx context.Context, applicantID uint) ([]model.Application, error)
	ListByStatus(ctx context.Context, status model.ApplicationStatus, limit, offset int) ([]model.Application, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	GetProgram(ctx context.Context, id uint) (*model.Program, error)
}

// AdminDirectory resolves the admin accounts to notify on submission
type AdminDirectory interface {
	ListAdmins(ctx context.Context) ([]model.User, error)
}

// EventPublisher pushes lifecycle events to the realtime feed
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event realtime.Event) error
}

// ApplicationService drives a grant application through
// draft -> submitted -> (approved | rejected | pending). Status writes commit
// before any notification dispatch; dispatch failures are logged and never
// roll back the transition.
type ApplicationService struct {
	store      ApplicationStore
	admins     AdminDirectory
	dispatcher Dispatcher
	events     EventPublisher
	appURL     string
}

// NewApplicationService creates a new application lifecycle service
func NewApplicationService(store ApplicationStore, admins AdminDirectory, dispatcher Dispatcher, events EventPublisher, appURL string) *ApplicationService {
	return &ApplicationService{
		store:      store,
		admins:     admins,
		dispatcher: dispatcher,
		events:     events,
		appURL:     appURL,
	}
}

// EnsureDraft returns the caller's draft application for a program, creating
// one when none exists. The lookup-before-insert keeps at most one draft per
// (applicant, program) pair in practice; there is no storage-level constraint
// backing it, so two racing calls can still both insert.
func (s *ApplicationService) EnsureDraft(ctx context.Context, caller Caller, programID uint) (*model.Application, error) {
	program, err := s.store.GetProgram(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	if program == nil {
		return nil, ErrNotFound
	}
	if !program.IsOpen() {
		return nil, fmt.Errorf("%w: program is closed", ErrInvalidState)
	}

	existing, err := s.store.FindDraft(ctx, caller.ID, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up draft: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	draft := &model.Application{
		ProgramID:   programID,
		ApplicantID: caller.ID,
		Status:      model.ApplicationStatusDraft,
	}
	if err := s.store.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	return draft, nil
}

// SaveDraft writes the form payload of a draft application
func (s *ApplicationService) SaveDraft(ctx context.Context, caller Caller, appID uint, data *model.ApplicationData) error {
	app, err := s.store.Get(ctx, appID)
	if err != nil {
		return fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return ErrNotFound
	}
	if app.ApplicantID != caller.ID {
		return ErrForbidden
	}
	if app.Status != model.ApplicationStatusDraft {
		return fmt.Errorf("%w: application is no longer a draft", ErrInvalidState)
	}

	raw, err := data.Marshal()
	if err != nil {
		return err
	}
	if err := s.store.Update(ctx, appID, map[string]interface{}{"application_data": raw}); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Submit validates the form payload and moves a draft to submitted, then
// best-effort notifies every admin account. A notification failure does not
// undo the submission.
func (s *ApplicationService) Submit(ctx context.Context, caller Caller, appID uint, data *model.ApplicationData) (*model.Application, error) {
	app, err := s.store.Get(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if app.ApplicantID != caller.ID {
		return nil, ErrForbidden
	}
	if app.Status != model.ApplicationStatusDraft {
		return nil, fmt.Errorf("%w: application has already been submitted", ErrInvalidState)
	}

	if verr := validateSubmission(data); verr != nil {
		return nil, verr
	}

	raw, err := data.Marshal()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fields := map[string]interface{}{
		"application_data": raw,
		"status":           model.ApplicationStatusSubmitted,
		"submitted_at":     now,
	}
	if err := s.store.Update(ctx, appID, fields); err != nil {
		return nil, fmt.Errorf("failed to submit application: %w", err)
	}

	app.Data = raw
	app.Status = model.ApplicationStatusSubmitted
	app.SubmittedAt = &now

	s.notifyAdminsOfSubmission(ctx, app)
	s.publish(ctx, realtime.TopicApplications, "application.submitted", map[string]interface{}{
		"application_id": app.ID,
		"program_id":     app.ProgramID,
	})

	return app, nil
}

// validateSubmission checks the submit-time preconditions with field-specific
// messages. Drafts can be saved with any of these empty; submission cannot.
func validateSubmission(data *model.ApplicationData) *ValidationError {
	fields := map[string]string{}
	for _, name := range data.MissingRequiredFields() {
		fields[name] = fmt.Sprintf("%s is required", strings.ReplaceAll(name, "_", " "))
	}
	if !data.DeclarationAgreed {
		fields["declaration_agreed"] = "you must accept the declaration before submitting"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Review records an admin decision on an application. The status change
// commits first; applicant notification (in-app + email) is best-effort.
func (s *ApplicationService) Review(ctx context.Context, caller Caller, appID uint, decision ReviewDecision, reviewerNotes string) (*model.Application, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(reviewerNotes) == "" {
		return nil, NewValidationError("reviewer_notes", "reviewer notes are required")
	}

	app, err := s.store.Get(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return nil, ErrNotFound
	}

	switch app.Status {
	case model.ApplicationStatusSubmitted, model.ApplicationStatusUnderReview, model.ApplicationStatusPending:
		// reviewable
	default:
		return nil, fmt.Errorf("%w: application is not awaiting review", ErrInvalidState)
	}

	var newStatus model.ApplicationStatus
	notes := reviewerNotes
	switch decision {
	case ReviewDecisionApprove:
		newStatus = model.ApplicationStatusApproved
	case ReviewDecisionReject:
		newStatus = model.ApplicationStatusRejected
	case ReviewDecisionRequestInfo:
		newStatus = model.ApplicationStatusPending
		notes = model.MoreInfoMarker + reviewerNotes
	default:
		return nil, NewValidationError("decision", "decision must be approve, reject, or request_info")
	}

	now := time.Now()
	fields := map[string]interface{}{
		"status":         newStatus,
		"reviewer_notes": notes,
		"reviewed_at":    now,
	}
	if err := s.store.Update(ctx, appID, fields); err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}

	app.Status = newStatus
	app.ReviewerNotes = notes
	app.ReviewedAt = &now

	s.notifyApplicantOfDecision(ctx, app, decision, reviewerNotes)
	s.publish(ctx, realtime.TopicApplications, "application.reviewed", map[string]interface{}{
		"application_id": app.ID,
		"status":         app.Status,
	})

	return app, nil
}

// Get returns an application visible to the caller
func (s *ApplicationService) Get(ctx context.Context, caller Caller, appID uint) (*model.Application, error) {
	app, err := s.store.Get(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if app.ApplicantID != caller.ID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return app, nil
}

// ListForApplicant returns the caller's applications, newest first
func (s *ApplicationService) ListForApplicant(ctx context.Context, caller Caller) ([]model.Application, error) {
	apps, err := s.store.ListByApplicant(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// ListByStatus returns applications in one status for the admin review tabs
func (s *ApplicationService) ListByStatus(ctx context.Context, caller Caller, status model.ApplicationStatus, limit, offset int) ([]model.Application, int64, error) {
	if !caller.IsAdmin() {
		return nil, 0, ErrForbidden
	}
	apps, total, err := s.store.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, total, nil
}

// StatusCounts returns per-status totals for the admin sidebar badges
func (s *ApplicationService) StatusCounts(ctx context.Context, caller Caller) (map[string]int64, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}
	return counts, nil
}

func (s *ApplicationService) notifyAdminsOfSubmission(ctx context.Context, app *model.Application) {
	if s.dispatcher == nil || s.admins == nil {
		return
	}

	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		log.Printf("Submit: failed to list admins for notification: %v", err)
		return
	}

	programTitle := app.Program.Title
	applicantName := app.Applicant.FullName

	for _, admin := range admins {
		subject, body := NewSubmissionEmail(admin.FullName, applicantName, programTitle, s.appURL)
		result := s.dispatcher.Dispatch(ctx, Dispatch{
			UserID:   admin.ID,
			Type:     model.NotificationTypeInfo,
			Category: model.NotificationCategoryApplication,
			Title:    "New Application Submitted",
			Message:  fmt.Sprintf("%s submitted an application to %s.", applicantName, programTitle),
			Link:     "/admin/applications",
			Metadata: map[string]interface{}{"application_id": app.ID},

			EmailTo:      admin.Email,
			EmailSubject: subject,
			EmailBody:    body,
		})
		if result.Failed() {
			log.Printf("Submit: admin %d notification incomplete (in-app: %v, email: %v)", admin.ID, result.InApp, result.Email)
		}
	}
}

func (s *ApplicationService) notifyApplicantOfDecision(ctx context.Context, app *model.Application, decision ReviewDecision, reviewerNotes string) {
	if s.dispatcher == nil {
		return
	}

	applicant := app.Applicant
	programTitle := app.Program.Title

	var d Dispatch
	switch decision {
	case ReviewDecisionApprove:
		subject, body := ApplicationApprovedEmail(applicant.FullName, programTitle, reviewerNotes, s.appURL)
		d = Dispatch{
			Type:         model.NotificationTypeSuccess,
			Title:        "Application Approved!",
			Message:      fmt.Sprintf("Your application to %s has been approved. %s", programTitle, reviewerNotes),
			EmailSubject: subject,
			EmailBody:    body,
		}
	case ReviewDecisionReject:
		subject, body := ApplicationRejectedEmail(applicant.FullName, programTitle, reviewerNotes, s.appURL)
		d = Dispatch{
			Type:         model.NotificationTypeError,
			Title:        "Application Update",
			Message:      fmt.Sprintf("Your application to %s was not approved. %s", programTitle, reviewerNotes),
			EmailSubject: subject,
			EmailBody:    body,
		}
	case ReviewDecisionRequestInfo:
		subject, body := ApplicationMoreInfoEmail(applicant.FullName, programTitle, reviewerNotes, s.appURL)
		d = Dispatch{
			Type:         model.NotificationTypeWarning,
			Title:        "More Information Needed",
			Message:      fmt.Sprintf("The review team needs more information on your application to %s. %s", programTitle, reviewerNotes),
			EmailSubject: subject,
			EmailBody:    body,
		}
	}

	d.UserID = applicant.ID
	d.Category = model.NotificationCategoryApplication
	d.Link = "/dashboard"
	d.Metadata = map[string]interface{}{"application_id": app.ID}
	d.EmailTo = applicant.Email

	result := s.dispatcher.Dispatch(ctx, d)
	if result.Failed() {
		log.Printf("Review: applicant %d notification incomplete (in-app: %v, email: %v)", applicant.ID, result.InApp, result.Email)
	}
}

func (s *ApplicationService) publish(ctx context.Context, topic, eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, topic, realtime.Event{Type: eventType, Payload: payload}); err != nil {
		log.Printf("realtime publish %s failed: %v", eventType, err)
	}
}
