package services

import (
	"context"
	"log"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services/realtime"
)

// Notifier creates in-app notification rows
type Notifier interface {
	CreateNotification(ctx context.Context, req CreateNotificationRequest) (*model.Notification, error)
}

// EmailSender delivers a single outbound email
type EmailSender interface {
	Send(to, subject, htmlBody string) error
}

// Dispatch describes one lifecycle side effect: an in-app notification and,
// when EmailTo is set, an outbound email to the same recipient.
type Dispatch struct {
	UserID   uint
	Type     model.NotificationType
	Category model.NotificationCategory
	Title    string
	Message  string
	Link     string
	Metadata map[string]interface{}

	EmailTo      string
	EmailSubject string
	EmailBody    string
}

// DispatchResult carries the outcome of each channel separately. Callers log
// it but never propagate a failure as a failure of the parent operation.
type DispatchResult struct {
	InApp error
	Email error
}

// Failed reports whether any channel failed
func (r DispatchResult) Failed() bool {
	return r.InApp != nil || r.Email != nil
}

// Dispatcher fires best-effort notifications for lifecycle transitions
type Dispatcher interface {
	Dispatch(ctx context.Context, d Dispatch) DispatchResult
}

// BestEffortDispatcher writes the in-app row and sends the email, each
// independently. There is no retry, no delivery confirmation, and no
// idempotency key; a failure in one channel does not block the other, and no
// failure ever reverts the state change that triggered the dispatch.
// Successful in-app writes are announced on the notifications event feed so
// open clients can refresh their badge without polling.
type BestEffortDispatcher struct {
	notifier Notifier
	email    EmailSender
	events   EventPublisher
}

// NewDispatcher creates a dispatcher over the given channels. events may be
// nil when no realtime feed is available.
func NewDispatcher(notifier Notifier, email EmailSender, events EventPublisher) *BestEffortDispatcher {
	return &BestEffortDispatcher{notifier: notifier, email: email, events: events}
}

// Dispatch attempts both channels and returns their individual outcomes
func (d *BestEffortDispatcher) Dispatch(ctx context.Context, req Dispatch) DispatchResult {
	var result DispatchResult

	if d.notifier != nil {
		created, err := d.notifier.CreateNotification(ctx, CreateNotificationRequest{
			UserID:   req.UserID,
			Type:     req.Type,
			Category: req.Category,
			Title:    req.Title,
			Message:  req.Message,
			Link:     req.Link,
			Metadata: req.Metadata,
		})
		result.InApp = err
		if err != nil {
			log.Printf("Dispatch: in-app notification to user %d failed: %v", req.UserID, err)
		} else if d.events != nil {
			payload := map[string]interface{}{
				"user_id":  req.UserID,
				"title":    req.Title,
				"category": req.Category,
			}
			if created != nil {
				payload["notification_id"] = created.ID
			}
			event := realtime.Event{Type: "notification.created", Payload: payload}
			if perr := d.events.Publish(ctx, realtime.TopicNotifications, event); perr != nil {
				log.Printf("Dispatch: notification event publish failed: %v", perr)
			}
		}
	}

	if d.email != nil && req.EmailTo != "" {
		err := d.email.Send(req.EmailTo, req.EmailSubject, req.EmailBody)
		result.Email = err
		if err != nil {
			log.Printf("Dispatch: email to %s failed: %v", req.EmailTo, err)
		}
	}

	return result
}
