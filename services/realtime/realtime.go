// Package realtime pushes lifecycle events to connected dashboards over
// Redis pub/sub. Publishing is best-effort: a dropped event only delays a
// badge count until the next full fetch.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Topics dashboards can subscribe to
const (
	TopicApplications  = "applications"
	TopicMentorship    = "mentorship"
	TopicPartners      = "partners"
	TopicNotifications = "notifications"
)

const channelPrefix = "granthub:events:"

// Event is one realtime message on a topic
type Event struct {
	Type    string      `json:"type"` // e.g. application.submitted, partner.verified
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// Publisher publishes events onto topics
type Publisher struct {
	client *redis.Client
}

// NewPublisher creates a publisher over an existing Redis client
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// Publish sends an event to all current subscribers of the topic
func (p *Publisher) Publish(ctx context.Context, topic string, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, channelPrefix+topic, raw).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", topic, err)
	}
	return nil
}

// Subscription is a live feed of one topic's events. Close it on teardown;
// abandoning it leaks the underlying pub/sub connection.
type Subscription struct {
	pubsub *redis.PubSub
	events chan Event
	done   chan struct{}
}

// Events returns the channel the subscription delivers on. It is closed when
// the subscription is closed or the context given to Subscribe ends.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close tears down the subscription and its Redis connection
func (s *Subscription) Close() error {
	select {
	case <-s.done:
		return nil
	default:
		close(s.done)
	}
	return s.pubsub.Close()
}

// Subscriber attaches consumers to topics
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber creates a subscriber over an existing Redis client
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe starts consuming a topic. The subscription ends when ctx is
// cancelled or Close is called, whichever comes first.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	pubsub := s.client.Subscribe(ctx, channelPrefix+topic)

	// Make sure the subscription is established before returning
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.events)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("realtime: dropping malformed event on %s: %v", topic, err)
					continue
				}
				select {
				case sub.events <- event:
				default:
					// Slow consumer; drop rather than block the feed
				}
			}
		}
	}()

	return sub, nil
}
