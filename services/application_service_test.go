package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services/realtime"
	"gorm.io/datatypes"
)

// fakeApplicationStore is an in-memory ApplicationStore for service tests
type fakeApplicationStore struct {
	programs map[uint]*model.Program
	apps     map[uint]*model.Application
	nextID   uint
	updates  []map[string]interface{}
}

func newFakeApplicationStore() *fakeApplicationStore {
	return &fakeApplicationStore{
		programs: map[uint]*model.Program{},
		apps:     map[uint]*model.Application{},
	}
}

func (f *fakeApplicationStore) FindDraft(ctx context.Context, applicantID, programID uint) (*model.Application, error) {
	for _, app := range f.apps {
		if app.ApplicantID == applicantID && app.ProgramID == programID && app.Status == model.ApplicationStatusDraft {
			return app, nil
		}
	}
	return nil, nil
}

func (f *fakeApplicationStore) Create(ctx context.Context, app *model.Application) error {
	f.nextID++
	app.ID = f.nextID
	f.apps[app.ID] = app
	return nil
}

func (f *fakeApplicationStore) Get(ctx context.Context, id uint) (*model.Application, error) {
	return f.apps[id], nil
}

func (f *fakeApplicationStore) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	f.updates = append(f.updates, fields)
	app, ok := f.apps[id]
	if !ok {
		return errors.New("no such application")
	}
	if v, ok := fields["status"]; ok {
		app.Status = v.(model.ApplicationStatus)
	}
	if v, ok := fields["application_data"]; ok {
		app.Data = v.(datatypes.JSON)
	}
	if v, ok := fields["reviewer_notes"]; ok {
		app.ReviewerNotes = v.(string)
	}
	return nil
}

func (f *fakeApplicationStore) ListByApplicant(ctx context.Context, applicantID uint) ([]model.Application, error) {
	var out []model.Application
	for _, app := range f.apps {
		if app.ApplicantID == applicantID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (f *fakeApplicationStore) ListByStatus(ctx context.Context, status model.ApplicationStatus, limit, offset int) ([]model.Application, int64, error) {
	var out []model.Application
	for _, app := range f.apps {
		if app.Status == status {
			out = append(out, *app)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeApplicationStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, app := range f.apps {
		counts[string(app.Status)]++
	}
	return counts, nil
}

func (f *fakeApplicationStore) GetProgram(ctx context.Context, id uint) (*model.Program, error) {
	return f.programs[id], nil
}

// fakeAdminDirectory returns a fixed admin roster
type fakeAdminDirectory struct {
	admins []model.User
}

func (f *fakeAdminDirectory) ListAdmins(ctx context.Context) ([]model.User, error) {
	return f.admins, nil
}

// recordingDispatcher captures dispatches and optionally reports failures
type recordingDispatcher struct {
	dispatches []Dispatch
	inAppErr   error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, req Dispatch) DispatchResult {
	d.dispatches = append(d.dispatches, req)
	return DispatchResult{InApp: d.inAppErr}
}

// recordingPublisher captures realtime events
type recordingPublisher struct {
	topics []string
	events []realtime.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, event realtime.Event) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func openProgram(id uint) *model.Program {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	return &model.Program{ID: id, Title: "Undergraduate STEM Grant", Active: true, Deadline: &deadline}
}

func completeApplicationData() *model.ApplicationData {
	return &model.ApplicationData{
		Institution:       "University of Lagos",
		ProgramOfStudy:    "Computer Science",
		GrantType:         "tuition",
		PurposeOfGrant:    "Cover final year tuition",
		AcademicGoals:     "Graduate with first class honours",
		HowGrantWillHelp:  "Removes the need to work during exams",
		DeclarationAgreed: true,
	}
}

func newTestApplicationService(store *fakeApplicationStore, admins *fakeAdminDirectory, dispatcher Dispatcher, events EventPublisher) *ApplicationService {
	return NewApplicationService(store, admins, dispatcher, events, "http://localhost:3000")
}

func TestEnsureDraftCreatesThenReuses(t *testing.T) {
	store := newFakeApplicationStore()
	store.programs[1] = openProgram(1)
	svc := newTestApplicationService(store, nil, nil, nil)
	caller := Caller{ID: 10, Role: model.RoleApplicant}

	first, err := svc.EnsureDraft(context.Background(), caller, 1)
	if err != nil {
		t.Fatalf("EnsureDraft failed: %v", err)
	}
	if first.Status != model.ApplicationStatusDraft {
		t.Errorf("expected draft status, got %s", first.Status)
	}

	second, err := svc.EnsureDraft(context.Background(), caller, 1)
	if err != nil {
		t.Fatalf("second EnsureDraft failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected existing draft %d to be reused, got %d", first.ID, second.ID)
	}
	if len(store.apps) != 1 {
		t.Errorf("expected a single draft row, got %d", len(store.apps))
	}
}

func TestEnsureDraftClosedProgram(t *testing.T) {
	store := newFakeApplicationStore()
	past := time.Now().Add(-time.Hour)
	store.programs[1] = &model.Program{ID: 1, Active: true, Deadline: &past}
	store.programs[2] = &model.Program{ID: 2, Active: false}
	svc := newTestApplicationService(store, nil, nil, nil)
	caller := Caller{ID: 10, Role: model.RoleApplicant}

	for _, programID := range []uint{1, 2} {
		if _, err := svc.EnsureDraft(context.Background(), caller, programID); !errors.Is(err, ErrInvalidState) {
			t.Errorf("program %d: expected ErrInvalidState, got %v", programID, err)
		}
	}

	if _, err := svc.EnsureDraft(context.Background(), caller, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown program, got %v", err)
	}
}

func TestSaveDraftGuards(t *testing.T) {
	store := newFakeApplicationStore()
	store.apps[1] = &model.Application{ID: 1, ApplicantID: 10, Status: model.ApplicationStatusDraft}
	store.apps[2] = &model.Application{ID: 2, ApplicantID: 10, Status: model.ApplicationStatusSubmitted}
	svc := newTestApplicationService(store, nil, nil, nil)

	if err := svc.SaveDraft(context.Background(), Caller{ID: 11}, 1, &model.ApplicationData{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for another user's draft, got %v", err)
	}
	if err := svc.SaveDraft(context.Background(), Caller{ID: 10}, 2, &model.ApplicationData{}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for submitted application, got %v", err)
	}
	if err := svc.SaveDraft(context.Background(), Caller{ID: 10}, 99, &model.ApplicationData{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := svc.SaveDraft(context.Background(), Caller{ID: 10}, 1, &model.ApplicationData{Institution: "UNILAG"}); err != nil {
		t.Fatalf("SaveDraft failed: %v", err)
	}
	if len(store.apps[1].Data) == 0 {
		t.Error("expected draft payload to be persisted")
	}
}

func TestSubmitValidatesRequiredFields(t *testing.T) {
	store := newFakeApplicationStore()
	store.apps[1] = &model.Application{ID: 1, ApplicantID: 10, Status: model.ApplicationStatusDraft}
	svc := newTestApplicationService(store, nil, nil, nil)

	_, err := svc.Submit(context.Background(), Caller{ID: 10}, 1, &model.ApplicationData{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	expected := []string{
		"institution",
		"program_of_study",
		"grant_type",
		"purpose_of_grant",
		"academic_goals",
		"how_grant_will_help",
		"declaration_agreed",
	}
	if len(verr.Fields) != len(expected) {
		t.Errorf("expected %d invalid fields, got %d: %v", len(expected), len(verr.Fields), verr.Fields)
	}
	for _, name := range expected {
		if _, ok := verr.Fields[name]; !ok {
			t.Errorf("expected field %q in validation error", name)
		}
	}

	if store.apps[1].Status != model.ApplicationStatusDraft {
		t.Errorf("failed submit must not change status, got %s", store.apps[1].Status)
	}
}

func TestSubmitTransitionsAndNotifiesAdmins(t *testing.T) {
	store := newFakeApplicationStore()
	store.apps[1] = &model.Application{
		ID:          1,
		ApplicantID: 10,
		Status:      model.ApplicationStatusDraft,
		Program:     model.Program{ID: 1, Title: "Undergraduate STEM Grant"},
		Applicant:   model.User{ID: 10, FullName: "Ada Obi", Email: "ada@example.com"},
	}
	admins := &fakeAdminDirectory{admins: []model.User{
		{ID: 1, FullName: "Admin One", Email: "one@granthub.ng"},
		{ID: 2, FullName: "Admin Two", Email: "two@granthub.ng"},
	}}
	dispatcher := &recordingDispatcher{}
	publisher := &recordingPublisher{}
	svc := newTestApplicationService(store, admins, dispatcher, publisher)

	app, err := svc.Submit(context.Background(), Caller{ID: 10}, 1, completeApplicationData())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if app.Status != model.ApplicationStatusSubmitted {
		t.Errorf("expected submitted status, got %s", app.Status)
	}
	if app.SubmittedAt == nil {
		t.Error("expected submitted_at to be set")
	}

	if len(dispatcher.dispatches) != 2 {
		t.Fatalf("expected one dispatch per admin, got %d", len(dispatcher.dispatches))
	}
	for _, d := range dispatcher.dispatches {
		if d.Title != "New Application Submitted" {
			t.Errorf("unexpected notification title %q", d.Title)
		}
		if d.EmailTo == "" {
			t.Error("expected admin email recipient on dispatch")
		}
	}

	if len(publisher.events) != 1 || publisher.events[0].Type != "application.submitted" {
		t.Errorf("expected one application.submitted event, got %v", publisher.events)
	}
	if publisher.topics[0] != realtime.TopicApplications {
		t.Errorf("expected applications topic, got %s", publisher.topics[0])
	}

	// a submitted application cannot be submitted again
	if _, err := svc.Submit(context.Background(), Caller{ID: 10}, 1, completeApplicationData()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on resubmit, got %v", err)
	}
}

func TestSubmitNotificationFailureDoesNotFailSubmit(t *testing.T) {
	store := newFakeApplicationStore()
	store.apps[1] = &model.Application{ID: 1, ApplicantID: 10, Status: model.ApplicationStatusDraft}
	admins := &fakeAdminDirectory{admins: []model.User{{ID: 1, Email: "one@granthub.ng"}}}
	dispatcher := &recordingDispatcher{inAppErr: errors.New("notification table unavailable")}
	svc := newTestApplicationService(store, admins, dispatcher, nil)

	app, err := svc.Submit(context.Background(), Caller{ID: 10}, 1, completeApplicationData())
	if err != nil {
		t.Fatalf("Submit must not propagate dispatch failure: %v", err)
	}
	if app.Status != model.ApplicationStatusSubmitted {
		t.Errorf("expected submitted status, got %s", app.Status)
	}
	if len(dispatcher.dispatches) != 1 {
		t.Errorf("expected dispatch attempt, got %d", len(dispatcher.dispatches))
	}
}

func TestReviewDecisions(t *testing.T) {
	tests := []struct {
		decision   ReviewDecision
		wantStatus model.ApplicationStatus
		wantNotes  string
	}{
		{ReviewDecisionApprove, model.ApplicationStatusApproved, "Congratulations"},
		{ReviewDecisionReject, model.ApplicationStatusRejected, "Budget exhausted"},
		{ReviewDecisionRequestInfo, model.ApplicationStatusPending, model.MoreInfoMarker + "Please attach your transcript"},
	}

	for _, tc := range tests {
		store := newFakeApplicationStore()
		store.apps[1] = &model.Application{
			ID:          1,
			ApplicantID: 10,
			Status:      model.ApplicationStatusSubmitted,
			Applicant:   model.User{ID: 10, Email: "ada@example.com"},
		}
		dispatcher := &recordingDispatcher{}
		svc := newTestApplicationService(store, nil, dispatcher, nil)

		notes := strings.TrimPrefix(tc.wantNotes, model.MoreInfoMarker)
		app, err := svc.Review(context.Background(), Caller{ID: 1, Role: model.RoleAdmin}, 1, tc.decision, notes)
		if err != nil {
			t.Fatalf("%s: Review failed: %v", tc.decision, err)
		}
		if app.Status != tc.wantStatus {
			t.Errorf("%s: expected status %s, got %s", tc.decision, tc.wantStatus, app.Status)
		}
		if app.ReviewerNotes != tc.wantNotes {
			t.Errorf("%s: expected notes %q, got %q", tc.decision, tc.wantNotes, app.ReviewerNotes)
		}
		if app.ReviewedAt == nil {
			t.Errorf("%s: expected reviewed_at to be set", tc.decision)
		}
		if len(dispatcher.dispatches) != 1 {
			t.Errorf("%s: expected applicant dispatch, got %d", tc.decision, len(dispatcher.dispatches))
		} else if dispatcher.dispatches[0].UserID != 10 {
			t.Errorf("%s: dispatch went to user %d, want applicant 10", tc.decision, dispatcher.dispatches[0].UserID)
		}
	}
}

func TestReviewGuards(t *testing.T) {
	store := newFakeApplicationStore()
	store.apps[1] = &model.Application{ID: 1, ApplicantID: 10, Status: model.ApplicationStatusSubmitted}
	store.apps[2] = &model.Application{ID: 2, ApplicantID: 10, Status: model.ApplicationStatusApproved}
	svc := newTestApplicationService(store, nil, nil, nil)
	admin := Caller{ID: 1, Role: model.RoleAdmin}

	if _, err := svc.Review(context.Background(), Caller{ID: 10, Role: model.RoleApplicant}, 1, ReviewDecisionApprove, "ok"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-admin, got %v", err)
	}

	var verr *ValidationError
	if _, err := svc.Review(context.Background(), admin, 1, ReviewDecisionApprove, "   "); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for blank notes, got %v", err)
	}
	if _, err := svc.Review(context.Background(), admin, 1, ReviewDecision("escalate"), "notes"); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for unknown decision, got %v", err)
	} else if _, ok := verr.Fields["decision"]; !ok {
		t.Errorf("expected decision field in validation error, got %v", verr.Fields)
	}

	if _, err := svc.Review(context.Background(), admin, 2, ReviewDecisionReject, "notes"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState for already reviewed application, got %v", err)
	}
	if _, err := svc.Review(context.Background(), admin, 99, ReviewDecisionApprove, "notes"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReviewRequestInfoIsReviewable(t *testing.T) {
	store := newFakeApplicationStore()
	store.apps[1] = &model.Application{ID: 1, ApplicantID: 10, Status: model.ApplicationStatusPending}
	svc := newTestApplicationService(store, nil, nil, nil)

	app, err := svc.Review(context.Background(), Caller{ID: 1, Role: model.RoleAdmin}, 1, ReviewDecisionApprove, "Transcript received")
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if app.Status != model.ApplicationStatusApproved {
		t.Errorf("expected approved, got %s", app.Status)
	}
}

func TestAdminListingsRequireAdmin(t *testing.T) {
	store := newFakeApplicationStore()
	svc := newTestApplicationService(store, nil, nil, nil)
	applicant := Caller{ID: 10, Role: model.RoleApplicant}

	if _, _, err := svc.ListByStatus(context.Background(), applicant, model.ApplicationStatusSubmitted, 20, 0); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden from ListByStatus, got %v", err)
	}
	if _, err := svc.StatusCounts(context.Background(), applicant); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden from StatusCounts, got %v", err)
	}

	admin := Caller{ID: 1, Role: model.RoleAdmin}
	store.apps[1] = &model.Application{ID: 1, Status: model.ApplicationStatusSubmitted}
	store.apps[2] = &model.Application{ID: 2, Status: model.ApplicationStatusDraft}

	apps, total, err := svc.ListByStatus(context.Background(), admin, model.ApplicationStatusSubmitted, 20, 0)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if total != 1 || len(apps) != 1 {
		t.Errorf("expected 1 submitted application, got %d (total %d)", len(apps), total)
	}

	counts, err := svc.StatusCounts(context.Background(), admin)
	if err != nil {
		t.Fatalf("StatusCounts failed: %v", err)
	}
	if counts["draft"] != 1 || counts["submitted"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
