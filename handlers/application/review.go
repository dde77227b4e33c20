package application

import (
	"github.com/gofiber/fiber/v2"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// ReviewRequest carries an admin decision on a submitted application
type ReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject request_info"`
	Notes    string `json:"notes" validate:"required"`
}

// Review applies an admin decision to an application
func (h *ApplicationHandler) Review(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	appID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid application ID")
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	decision := services.ReviewDecision(req.Decision)
	switch decision {
	case services.ReviewDecisionApprove, services.ReviewDecisionReject, services.ReviewDecisionRequestInfo:
	default:
		return response.BadRequest(c, "Decision must be 'approve', 'reject' or 'request_info'")
	}

	app, err := h.apps.Review(c.Context(), caller, appID, decision, req.Notes)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, app.ToResponse())
}

// ListByStatus returns applications for the admin review queue
func (h *ApplicationHandler) ListByStatus(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	status := model.ApplicationStatus(c.Query("status"))
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	apps, total, err := h.apps.ListByStatus(c.Context(), caller, status, limit, (page-1)*limit)
	if err != nil {
		return response.ServiceError(c, err)
	}

	out := make([]model.ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, apps[i].ToResponse())
	}

	return response.Paginated(c, out, response.CalculatePagination(page, limit, total))
}

// StatusCounts returns how many applications sit in each status
func (h *ApplicationHandler) StatusCounts(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	counts, err := h.apps.StatusCounts(c.Context(), caller)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, counts)
}
