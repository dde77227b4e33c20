package stream

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newStreamApp(userID uint, role string) *fiber.App {
	app := fiber.New()
	h := NewStreamHandler(nil)
	app.Get("/stream/:topic", func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("user_id", userID)
			c.Locals("user_role", role)
		}
		return h.Events(c)
	})
	return app
}

func TestEventsTopicAuthorization(t *testing.T) {
	tests := []struct {
		name       string
		userID     uint
		role       string
		topic      string
		wantStatus int
	}{
		{"unknown topic", 7, "applicant", "weather", fiber.StatusBadRequest},
		{"applications needs admin", 7, "applicant", "applications", fiber.StatusForbidden},
		{"partners needs admin", 7, "partner", "partners", fiber.StatusForbidden},
		{"mentorship needs mentor or admin", 7, "applicant", "mentorship", fiber.StatusForbidden},
		{"notifications needs auth context", 0, "", "notifications", fiber.StatusUnauthorized},
	}

	for _, tc := range tests {
		app := newStreamApp(tc.userID, tc.role)
		req := httptest.NewRequest("GET", "/stream/"+tc.topic, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: request failed: %v", tc.name, err)
		}
		if resp.StatusCode != tc.wantStatus {
			t.Errorf("%s: expected status %d, got %d", tc.name, tc.wantStatus, resp.StatusCode)
		}
	}
}
