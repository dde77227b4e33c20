// Package content serves portal content: partner events, admin announcements
// and the newsletter opt-in list.
package content

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// EventHandler handles partner event requests
type EventHandler struct {
	db *gorm.DB
}

// NewEventHandler creates a new event handler
func NewEventHandler(db *gorm.DB) *EventHandler {
	return &EventHandler{db: db}
}

// ListPublished returns published events, soonest first. Past events are
// excluded unless ?past=true.
// GET /api/events
func (h *EventHandler) ListPublished(c *fiber.Ctx) error {
	query := h.db.Preload("Partner").Where("published = ?", true)
	if c.Query("past") != "true" {
		query = query.Where("starts_at > ? OR (ends_at IS NOT NULL AND ends_at > ?)", time.Now(), time.Now())
	}

	var events []model.Event
	if err := query.Order("starts_at ASC").Find(&events).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch events")
	}
	return response.Success(c, events)
}

// Get returns a single published event
// GET /api/events/:id
func (h *EventHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid event ID")
	}

	var event model.Event
	if err := h.db.Preload("Partner").First(&event, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Event not found")
		}
		return response.InternalServerError(c, "Failed to fetch event")
	}

	role, _ := middleware.GetUserRole(c)
	if !event.Published && role != model.RoleAdmin {
		org, orgErr := h.callerOrganization(c)
		if orgErr != nil || org == nil || org.ID != event.PartnerID {
			return response.NotFound(c, "Event not found")
		}
	}

	return response.Success(c, event)
}

// EventRequest is the create/update payload for an event
type EventRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=255"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Published   *bool      `json:"published,omitempty"`
}

// Create posts a new event for the caller's verified organization
// POST /api/events
func (h *EventHandler) Create(c *fiber.Ctx) error {
	org, err := h.verifiedOrganization(c)
	if err != nil {
		return err
	}

	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Title == "" {
		return response.BadRequest(c, "Title is required")
	}
	if req.StartsAt.IsZero() {
		return response.BadRequest(c, "Start time is required")
	}
	if req.EndsAt != nil && req.EndsAt.Before(req.StartsAt) {
		return response.BadRequest(c, "End time cannot be before start time")
	}

	event := model.Event{
		PartnerID:   org.ID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}
	if req.Published != nil {
		event.Published = *req.Published
	}

	if err := h.db.Create(&event).Error; err != nil {
		return response.InternalServerError(c, "Failed to create event")
	}
	return response.Created(c, event)
}

// ListMine returns all events of the caller's organization, drafts included
// GET /api/events/mine
func (h *EventHandler) ListMine(c *fiber.Ctx) error {
	org, err := h.callerOrganization(c)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch organization")
	}
	if org == nil {
		return response.NotFound(c, "No organization registered for this account")
	}

	var events []model.Event
	if err := h.db.Where("partner_id = ?", org.ID).
		Order("starts_at DESC").Find(&events).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch events")
	}
	return response.Success(c, events)
}

// Update edits an event owned by the caller's organization
// PUT /api/events/:id
func (h *EventHandler) Update(c *fiber.Ctx) error {
	event, err := h.ownedEvent(c)
	if err != nil {
		return err
	}

	var req EventRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Title != "" {
		event.Title = req.Title
	}
	if req.Description != "" {
		event.Description = req.Description
	}
	if req.Location != "" {
		event.Location = req.Location
	}
	if !req.StartsAt.IsZero() {
		event.StartsAt = req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = req.EndsAt
	}
	if req.Published != nil {
		event.Published = *req.Published
	}
	if event.EndsAt != nil && event.EndsAt.Before(event.StartsAt) {
		return response.BadRequest(c, "End time cannot be before start time")
	}

	if err := h.db.Save(event).Error; err != nil {
		return response.InternalServerError(c, "Failed to update event")
	}
	return response.Success(c, event)
}

// Delete removes an event owned by the caller's organization. Admins can
// delete any event.
// DELETE /api/events/:id
func (h *EventHandler) Delete(c *fiber.Ctx) error {
	if role, _ := middleware.GetUserRole(c); role == model.RoleAdmin {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid event ID")
		}
		result := h.db.Delete(&model.Event{}, uint(id))
		if result.Error != nil {
			return response.InternalServerError(c, "Failed to delete event")
		}
		if result.RowsAffected == 0 {
			return response.NotFound(c, "Event not found")
		}
		return response.Success(c, fiber.Map{"message": "Event deleted"})
	}

	event, err := h.ownedEvent(c)
	if err != nil {
		return err
	}
	if err := h.db.Delete(event).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete event")
	}
	return response.Success(c, fiber.Map{"message": "Event deleted"})
}

// ownedEvent loads the :id event and checks it belongs to the caller's
// organization. It writes the error response itself on failure.
func (h *EventHandler) ownedEvent(c *fiber.Ctx) (*model.Event, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, response.BadRequest(c, "Invalid event ID")
	}

	var event model.Event
	if err := h.db.First(&event, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, response.NotFound(c, "Event not found")
		}
		return nil, response.InternalServerError(c, "Failed to fetch event")
	}

	org, orgErr := h.callerOrganization(c)
	if orgErr != nil {
		return nil, response.InternalServerError(c, "Failed to fetch organization")
	}
	if org == nil || org.ID != event.PartnerID {
		return nil, response.Forbidden(c, "You do not own this event")
	}
	return &event, nil
}

func (h *EventHandler) verifiedOrganization(c *fiber.Ctx) (*model.PartnerOrganization, error) {
	org, err := h.callerOrganization(c)
	if err != nil {
		return nil, response.InternalServerError(c, "Failed to fetch organization")
	}
	if org == nil {
		return nil, response.Forbidden(c, "Register a partner organization first")
	}
	if org.Status != model.PartnerStatusVerified {
		return nil, response.Forbidden(c, "Organization must be verified before posting events")
	}
	return org, nil
}

func (h *EventHandler) callerOrganization(c *fiber.Ctx) (*model.PartnerOrganization, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil, nil
	}

	var org model.PartnerOrganization
	err := h.db.Where("owner_id = ?", userID).First(&org).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}
