package application

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// ApplicationHandler exposes the applicant side of the grant lifecycle
type ApplicationHandler struct {
	apps      *services.ApplicationService
	autosaver *services.Autosaver
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(apps *services.ApplicationService, autosaver *services.Autosaver) *ApplicationHandler {
	return &ApplicationHandler{
		apps:      apps,
		autosaver: autosaver,
	}
}

// DraftRequest starts or resumes a draft for a program
type DraftRequest struct {
	ProgramID uint `json:"program_id" validate:"required"`
}

// SaveRequest carries the form payload. The data field is kept raw so both
// current and legacy field sets decode through the same path as stored rows.
type SaveRequest struct {
	Data json.RawMessage `json:"application_data"`
}

func parseData(raw json.RawMessage) (*model.ApplicationData, error) {
	return model.NormalizeApplicationData(datatypes.JSON(raw))
}

// EnsureDraft returns the caller's draft for a program, creating one if needed
func (h *ApplicationHandler) EnsureDraft(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req DraftRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ProgramID == 0 {
		return response.BadRequest(c, "program_id is required")
	}

	app, err := h.apps.EnsureDraft(c.Context(), caller, req.ProgramID)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, app.ToResponse())
}

// SaveDraft persists the draft form immediately
func (h *ApplicationHandler) SaveDraft(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	appID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid application ID")
	}

	var req SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	data, err := parseData(req.Data)
	if err != nil {
		return response.BadRequest(c, "Invalid application data")
	}

	if err := h.apps.SaveDraft(c.Context(), caller, appID, data); err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, fiber.Map{"message": "Draft saved"})
}

// Autosave queues a debounced draft save. Returns immediately; the write
// lands after the quiet period with only the latest payload kept.
func (h *ApplicationHandler) Autosave(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	appID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid application ID")
	}

	var req SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	data, err := parseData(req.Data)
	if err != nil {
		return response.BadRequest(c, "Invalid application data")
	}

	h.autosaver.Save(caller, appID, data)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"message": "Autosave queued",
	})
}

// Submit validates and submits the application for review
func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	appID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid application ID")
	}

	var req SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	data, err := parseData(req.Data)
	if err != nil {
		return response.BadRequest(c, "Invalid application data")
	}

	app, err := h.apps.Submit(c.Context(), caller, appID, data)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, app.ToResponse())
}

// Get returns a single application
func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	appID, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid application ID")
	}

	app, err := h.apps.Get(c.Context(), caller, appID)
	if err != nil {
		return response.ServiceError(c, err)
	}

	return response.Success(c, app.ToResponse())
}

// List returns the caller's applications
func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	apps, err := h.apps.ListForApplicant(c.Context(), caller)
	if err != nil {
		return response.ServiceError(c, err)
	}

	out := make([]model.ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, apps[i].ToResponse())
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
