package services

import (
	"context"
	"errors"
	"testing"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services/realtime"
)

// fakeNotifier records in-app notification attempts
type fakeNotifier struct {
	created []CreateNotificationRequest
	err     error
}

func (f *fakeNotifier) CreateNotification(ctx context.Context, req CreateNotificationRequest) (*model.Notification, error) {
	f.created = append(f.created, req)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Notification{UserID: req.UserID, Title: req.Title}, nil
}

// fakeEmailSender records outbound email attempts
type fakeEmailSender struct {
	sent []string // recipient addresses
	err  error
}

func (f *fakeEmailSender) Send(to, subject, htmlBody string) error {
	f.sent = append(f.sent, to)
	return f.err
}

func TestDispatchAttemptsBothChannels(t *testing.T) {
	notifier := &fakeNotifier{}
	email := &fakeEmailSender{}
	d := NewDispatcher(notifier, email, nil)

	result := d.Dispatch(context.Background(), Dispatch{
		UserID:       7,
		Type:         model.NotificationTypeInfo,
		Category:     model.NotificationCategoryApplication,
		Title:        "Test",
		EmailTo:      "user@example.com",
		EmailSubject: "Test",
		EmailBody:    "<p>Test</p>",
	})

	if result.Failed() {
		t.Fatalf("expected clean dispatch, got in-app=%v email=%v", result.InApp, result.Email)
	}
	if len(notifier.created) != 1 {
		t.Errorf("expected 1 in-app notification, got %d", len(notifier.created))
	}
	if len(email.sent) != 1 {
		t.Errorf("expected 1 email, got %d", len(email.sent))
	}
}

func TestDispatchEmailAttemptedDespiteInAppFailure(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("db down")}
	email := &fakeEmailSender{}
	d := NewDispatcher(notifier, email, nil)

	result := d.Dispatch(context.Background(), Dispatch{
		UserID:       7,
		Title:        "Test",
		EmailTo:      "user@example.com",
		EmailSubject: "Test",
	})

	if result.InApp == nil {
		t.Error("expected in-app failure to be reported")
	}
	if result.Email != nil {
		t.Errorf("expected email to succeed, got %v", result.Email)
	}
	if len(email.sent) != 1 {
		t.Errorf("expected email attempt despite in-app failure, got %d attempts", len(email.sent))
	}
	if !result.Failed() {
		t.Error("expected Failed() to be true with one failed channel")
	}
}

func TestDispatchAnnouncesCreatedNotification(t *testing.T) {
	notifier := &fakeNotifier{}
	publisher := &recordingPublisher{}
	d := NewDispatcher(notifier, nil, publisher)

	result := d.Dispatch(context.Background(), Dispatch{UserID: 7, Title: "Test"})

	if result.Failed() {
		t.Fatalf("unexpected failure: in-app=%v email=%v", result.InApp, result.Email)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != "notification.created" {
		t.Errorf("unexpected event type %q", event.Type)
	}
	if publisher.topics[0] != realtime.TopicNotifications {
		t.Errorf("expected notifications topic, got %q", publisher.topics[0])
	}
	payload, ok := event.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map payload, got %T", event.Payload)
	}
	if payload["user_id"] != uint(7) {
		t.Errorf("expected recipient in payload, got %v", event.Payload)
	}
}

func TestDispatchNoEventOnInAppFailure(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("db down")}
	publisher := &recordingPublisher{}
	d := NewDispatcher(notifier, nil, publisher)

	d.Dispatch(context.Background(), Dispatch{UserID: 7, Title: "Test"})

	if len(publisher.events) != 0 {
		t.Errorf("expected no event for a failed in-app write, got %d", len(publisher.events))
	}
}

func TestDispatchSkipsEmailWithoutRecipient(t *testing.T) {
	notifier := &fakeNotifier{}
	email := &fakeEmailSender{}
	d := NewDispatcher(notifier, email, nil)

	result := d.Dispatch(context.Background(), Dispatch{UserID: 7, Title: "In-app only"})

	if result.Failed() {
		t.Fatalf("unexpected failure: in-app=%v email=%v", result.InApp, result.Email)
	}
	if len(email.sent) != 0 {
		t.Errorf("expected no email without a recipient, got %d", len(email.sent))
	}
}
