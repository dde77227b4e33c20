package mentorship

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// CreateSessionBody carries the fields for logging a mentorship session
type CreateSessionBody struct {
	MatchID          uint     `json:"match_id" validate:"required"`
	SessionDate      string   `json:"session_date" validate:"required"` // RFC 3339 or YYYY-MM-DD
	DurationMinutes  int      `json:"duration_minutes" validate:"required,gt=0"`
	Mode             string   `json:"mode,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	TopicsCovered    []string `json:"topics_covered,omitempty"`
	ActionItems      []string `json:"action_items,omitempty"`
	NextSessionGoals string   `json:"next_session_goals,omitempty"`
	Status           string   `json:"status,omitempty"`
}

// UpdateSessionBody carries a partial session update
type UpdateSessionBody struct {
	SessionDate      *string  `json:"session_date,omitempty"`
	DurationMinutes  *int     `json:"duration_minutes,omitempty"`
	Mode             *string  `json:"mode,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
	TopicsCovered    []string `json:"topics_covered,omitempty"`
	ActionItems      []string `json:"action_items,omitempty"`
	NextSessionGoals *string  `json:"next_session_goals,omitempty"`
	Status           *string  `json:"status,omitempty"`
}

// SessionListResponse is a session listing with optional aggregates
type SessionListResponse struct {
	Sessions []model.MentorshipSession `json:"sessions"`
	Stats    *model.SessionStats       `json:"stats,omitempty"`
}

func parseSessionDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// CreateSession logs a session under a match
func (h *MentorshipHandler) CreateSession(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var body CreateSessionBody
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var sessionDate time.Time
	if body.SessionDate != "" {
		var err error
		sessionDate, err = parseSessionDate(body.SessionDate)
		if err != nil {
			return response.BadRequest(c, "session_date must be RFC 3339 or YYYY-MM-DD")
		}
	}

	sess, err := h.sessions.Create(c.Context(), caller, services.CreateSessionRequest{
		MatchID:          body.MatchID,
		SessionDate:      sessionDate,
		DurationMinutes:  body.DurationMinutes,
		Mode:             model.SessionMode(body.Mode),
		Notes:            body.Notes,
		TopicsCovered:    body.TopicsCovered,
		ActionItems:      body.ActionItems,
		NextSessionGoals: body.NextSessionGoals,
		Status:           model.SessionStatus(body.Status),
	})
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Created(c, sess)
}

// ListSessions returns sessions scoped to the caller's role, with optional stats
func (h *MentorshipHandler) ListSessions(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	req := services.ListSessionsRequest{
		MatchID:      uint(c.QueryInt("match_id", 0)),
		Status:       model.SessionStatus(c.Query("status")),
		IncludeStats: c.QueryBool("include_stats", false),
	}

	sessions, stats, err := h.sessions.List(c.Context(), caller, req)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, SessionListResponse{
		Sessions: sessions,
		Stats:    stats,
	})
}

// UpdateSession applies a partial update to a logged session
func (h *MentorshipHandler) UpdateSession(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	var body UpdateSessionBody
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	fields := map[string]interface{}{}
	if body.SessionDate != nil {
		t, err := parseSessionDate(*body.SessionDate)
		if err != nil {
			return response.BadRequest(c, "session_date must be RFC 3339 or YYYY-MM-DD")
		}
		fields["session_date"] = t
	}
	if body.DurationMinutes != nil {
		if *body.DurationMinutes <= 0 {
			return response.BadRequest(c, "duration_minutes must be positive")
		}
		fields["duration_minutes"] = *body.DurationMinutes
	}
	if body.Mode != nil {
		fields["mode"] = *body.Mode
	}
	if body.Notes != nil {
		fields["notes"] = *body.Notes
	}
	if body.TopicsCovered != nil {
		fields["topics_covered"] = pq.StringArray(body.TopicsCovered)
	}
	if body.ActionItems != nil {
		fields["action_items"] = pq.StringArray(body.ActionItems)
	}
	if body.NextSessionGoals != nil {
		fields["next_session_goals"] = *body.NextSessionGoals
	}
	if body.Status != nil {
		fields["status"] = *body.Status
	}
	if len(fields) == 0 {
		return response.BadRequest(c, "No fields to update")
	}

	sess, err := h.sessions.Update(c.Context(), caller, sessionID, fields)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, sess)
}

// DeleteSession removes a logged session
func (h *MentorshipHandler) DeleteSession(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	sessionID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid session ID")
	}

	if err := h.sessions.Delete(c.Context(), caller, sessionID); err != nil {
		return response.ServiceError(c, err)
	}

	return response.NoContent(c)
}
