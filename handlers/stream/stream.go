// Package stream exposes the realtime event feed over Server-Sent Events.
package stream

import (
	"bufio"
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services/realtime"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
	"github.com/granthub/granthub-api/utils/sse"
)

const keepAliveInterval = 15 * time.Second

// StreamHandler bridges Redis pub/sub topics to SSE clients
type StreamHandler struct {
	subscriber *realtime.Subscriber
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(subscriber *realtime.Subscriber) *StreamHandler {
	return &StreamHandler{subscriber: subscriber}
}

// Events streams realtime events for a topic as Server-Sent Events.
// GET /api/stream/:topic
func (h *StreamHandler) Events(c *fiber.Ctx) error {
	topic := c.Params("topic")
	role, _ := middleware.GetUserRole(c)

	switch topic {
	case realtime.TopicNotifications:
		// Fine for any authenticated user; events carry the recipient ID
		// and the client filters on it.
	case realtime.TopicApplications, realtime.TopicPartners:
		if role != model.RoleAdmin {
			return response.Forbidden(c, "Admin access required for this stream")
		}
	case realtime.TopicMentorship:
		if role != model.RoleAdmin && role != model.RoleMentor {
			return response.Forbidden(c, "Mentor or admin access required for this stream")
		}
	default:
		return response.BadRequest(c, "Unknown stream topic")
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		// The Fiber context is not valid inside this writer, so the
		// subscription gets its own context tied to Close below.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sub, err := h.subscriber.Subscribe(ctx, topic)
		if err != nil {
			log.Printf("stream: subscribe %s failed for user %d: %v", topic, userID, err)
			sse.SendError(w, errors.New("stream unavailable, retry later"))
			return
		}
		defer sub.Close()

		if err := sse.Send(w, sse.Event{Event: "connected", Data: fiber.Map{"topic": topic}}); err != nil {
			return
		}

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := sse.SendKeepAlive(w); err != nil {
					return
				}
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := sse.Send(w, sse.Event{Event: event.Type, Data: event}); err != nil {
					return
				}
			}
		}
	})

	return nil
}
