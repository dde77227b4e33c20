package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/granthub/granthub-api/model"
	"gorm.io/datatypes"
)

// syncApplicationStore is safe for the autosaver's timer goroutines
type syncApplicationStore struct {
	mu      sync.Mutex
	apps    map[uint]*model.Application
	updates []datatypes.JSON
}

func (s *syncApplicationStore) Get(ctx context.Context, id uint) (*model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apps[id], nil
}

func (s *syncApplicationStore) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if raw, ok := fields["application_data"]; ok {
		s.updates = append(s.updates, raw.(datatypes.JSON))
	}
	return nil
}

func (s *syncApplicationStore) savedPayloads() []datatypes.JSON {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]datatypes.JSON, len(s.updates))
	copy(out, s.updates)
	return out
}

func (s *syncApplicationStore) FindDraft(ctx context.Context, applicantID, programID uint) (*model.Application, error) {
	return nil, nil
}

func (s *syncApplicationStore) Create(ctx context.Context, app *model.Application) error { return nil }

func (s *syncApplicationStore) ListByApplicant(ctx context.Context, applicantID uint) ([]model.Application, error) {
	return nil, nil
}

func (s *syncApplicationStore) ListByStatus(ctx context.Context, status model.ApplicationStatus, limit, offset int) ([]model.Application, int64, error) {
	return nil, 0, nil
}

func (s *syncApplicationStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}

func (s *syncApplicationStore) GetProgram(ctx context.Context, id uint) (*model.Program, error) {
	return nil, nil
}

func newAutosaveFixture(quiet time.Duration) (*Autosaver, *syncApplicationStore) {
	store := &syncApplicationStore{apps: map[uint]*model.Application{
		1: {ID: 1, ApplicantID: 10, Status: model.ApplicationStatusDraft},
	}}
	svc := NewApplicationService(store, nil, nil, nil, "")
	return NewAutosaver(svc, quiet), store
}

func TestAutosaveCoalescesRapidEdits(t *testing.T) {
	saver, store := newAutosaveFixture(30 * time.Millisecond)
	defer saver.Close()
	caller := Caller{ID: 10}

	saver.Save(caller, 1, &model.ApplicationData{Institution: "first"})
	saver.Save(caller, 1, &model.ApplicationData{Institution: "second"})
	saver.Save(caller, 1, &model.ApplicationData{Institution: "third"})

	time.Sleep(120 * time.Millisecond)

	saved := store.savedPayloads()
	if len(saved) != 1 {
		t.Fatalf("expected one coalesced write, got %d", len(saved))
	}
	data, err := model.NormalizeApplicationData(saved[0])
	if err != nil {
		t.Fatalf("failed to decode saved payload: %v", err)
	}
	if data.Institution != "third" {
		t.Errorf("expected latest payload to win, got institution %q", data.Institution)
	}
}

func TestAutosaveCloseFlushesPending(t *testing.T) {
	saver, store := newAutosaveFixture(time.Hour)
	caller := Caller{ID: 10}

	saver.Save(caller, 1, &model.ApplicationData{Institution: "pending edit"})
	saver.Close()

	saved := store.savedPayloads()
	if len(saved) != 1 {
		t.Fatalf("expected Close to flush the buffered edit, got %d writes", len(saved))
	}

	// a closed autosaver drops further edits
	saver.Save(caller, 1, &model.ApplicationData{Institution: "late edit"})
	time.Sleep(20 * time.Millisecond)
	if got := len(store.savedPayloads()); got != 1 {
		t.Errorf("expected no writes after Close, got %d", got)
	}
}

func TestAutosaveIndependentApplications(t *testing.T) {
	saver, store := newAutosaveFixture(20 * time.Millisecond)
	defer saver.Close()

	store.mu.Lock()
	store.apps[2] = &model.Application{ID: 2, ApplicantID: 11, Status: model.ApplicationStatusDraft}
	store.mu.Unlock()

	saver.Save(Caller{ID: 10}, 1, &model.ApplicationData{Institution: "app one"})
	saver.Save(Caller{ID: 11}, 2, &model.ApplicationData{Institution: "app two"})

	time.Sleep(100 * time.Millisecond)

	if got := len(store.savedPayloads()); got != 2 {
		t.Errorf("expected one write per application, got %d", got)
	}
}
