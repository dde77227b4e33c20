package partner

import (
	"context"
	"testing"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services/realtime"
)

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

func TestPublishDecision(t *testing.T) {
	tests := []struct {
		status    model.PartnerStatus
		wantEvent string
	}{
		{model.PartnerStatusVerified, "partner.verified"},
		{model.PartnerStatusRejected, "partner.rejected"},
	}

	for _, tc := range tests {
		publisher := &recordingPublisher{}
		h := &PartnerHandler{events: publisher}

		h.publishDecision(context.Background(), &model.PartnerOrganization{
			ID:     3,
			Name:   "Lagos Tech Foundation",
			Status: tc.status,
		})

		if len(publisher.events) != 1 {
			t.Fatalf("%s: expected 1 event, got %d", tc.status, len(publisher.events))
		}
		if publisher.topics[0] != realtime.TopicPartners {
			t.Errorf("%s: expected partners topic, got %q", tc.status, publisher.topics[0])
		}
		event := publisher.events[0]
		if event.Type != tc.wantEvent {
			t.Errorf("%s: expected event %q, got %q", tc.status, tc.wantEvent, event.Type)
		}
		payload, ok := event.Payload.(map[string]interface{})
		if !ok {
			t.Fatalf("%s: expected map payload, got %T", tc.status, event.Payload)
		}
		if payload["organization_id"] != uint(3) {
			t.Errorf("%s: expected organization id in payload, got %v", tc.status, event.Payload)
		}
	}
}

func TestPublishDecisionWithoutFeed(t *testing.T) {
	h := &PartnerHandler{}
	// must not panic when no realtime feed is wired
	h.publishDecision(context.Background(), &model.PartnerOrganization{ID: 3, Status: model.PartnerStatusVerified})
}
