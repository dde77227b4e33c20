package mentorship

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// MentorshipHandler exposes mentor matching and the session log
type MentorshipHandler struct {
	matches  *services.MentorshipService
	sessions *services.SessionService
}

// NewMentorshipHandler creates a new mentorship handler
func NewMentorshipHandler(matches *services.MentorshipService, sessions *services.SessionService) *MentorshipHandler {
	return &MentorshipHandler{
		matches:  matches,
		sessions: sessions,
	}
}

// RequestMentorRequest asks a mentor for a pairing
type RequestMentorRequest struct {
	MentorProfileID uint   `json:"mentor_profile_id" validate:"required"`
	Goals           string `json:"goals,omitempty"`
}

// RespondRequest carries the mentor's decision on a pending request
type RespondRequest struct {
	Accept bool `json:"accept"`
}

// ListMentors returns browseable mentor profiles
func (h *MentorshipHandler) ListMentors(c *fiber.Ctx) error {
	acceptingOnly := c.QueryBool("accepting", true)

	profiles, err := h.matches.ListMentors(c.Context(), acceptingOnly)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, profiles)
}

// RequestMentor creates a pending match from the caller to a mentor
func (h *MentorshipHandler) RequestMentor(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req RequestMentorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.MentorProfileID == 0 {
		return response.BadRequest(c, "mentor_profile_id is required")
	}

	match, err := h.matches.RequestMentor(c.Context(), caller, req.MentorProfileID, req.Goals)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Created(c, match.ToResponse())
}

// Withdraw cancels the caller's pending or active match
func (h *MentorshipHandler) Withdraw(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	matchID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid match ID")
	}

	match, err := h.matches.Withdraw(c.Context(), caller, matchID)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, match.ToResponse())
}

// Respond lets the mentor accept or reject a pending request
func (h *MentorshipHandler) Respond(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	matchID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid match ID")
	}

	var req RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	match, err := h.matches.Respond(c.Context(), caller, matchID, req.Accept)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, match.ToResponse())
}

// CurrentMatch returns the caller's pending or active match, if any
func (h *MentorshipHandler) CurrentMatch(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	match, err := h.matches.CurrentMatch(c.Context(), caller)
	if err != nil {
		return response.ServiceError(c, err)
	}
	if match == nil {
		return response.Success(c, nil)
	}

	return response.Success(c, match.ToResponse())
}

// PendingRequests returns the mentor's inbox of pending requests
func (h *MentorshipHandler) PendingRequests(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	matches, err := h.matches.PendingRequests(c.Context(), caller)
	if err != nil {
		return response.ServiceError(c, err)
	}

	out := make([]model.MatchResponse, 0, len(matches))
	for i := range matches {
		out = append(out, matches[i].ToResponse())
	}

	return response.Success(c, out)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
