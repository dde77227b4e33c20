// Package partner handles partner organization registration and the admin
// verification workflow.
package partner

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services"
	"github.com/granthub/granthub-api/services/realtime"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// PartnerHandler handles partner organization requests
type PartnerHandler struct {
	db         *gorm.DB
	dispatcher services.Dispatcher
	events     services.EventPublisher
	appURL     string
}

// NewPartnerHandler creates a new partner handler. events may be nil when no
// realtime feed is available.
func NewPartnerHandler(db *gorm.DB, dispatcher services.Dispatcher, events services.EventPublisher, appURL string) *PartnerHandler {
	return &PartnerHandler{db: db, dispatcher: dispatcher, events: events, appURL: appURL}
}

// RegisterRequest is the organization registration payload
type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
}

// Register creates a partner organization in pending state. One organization
// per partner account.
// POST /api/partners
func (h *PartnerHandler) Register(c *fiber.Ctx) error {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}
	if caller.Role != model.RolePartner {
		return response.Forbidden(c, "Only partner accounts can register an organization")
	}
	userID := caller.ID

	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Name == "" {
		return response.BadRequest(c, "Organization name is required")
	}

	var existing model.PartnerOrganization
	if err := h.db.Where("owner_id = ?", userID).First(&existing).Error; err == nil {
		return response.Conflict(c, "You already have a registered organization")
	}

	org := model.PartnerOrganization{
		OwnerID:     userID,
		Name:        req.Name,
		Website:     req.Website,
		Description: req.Description,
		Status:      model.PartnerStatusPending,
	}
	if err := h.db.Create(&org).Error; err != nil {
		return response.InternalServerError(c, "Failed to register organization")
	}

	h.notifyAdmins(c, &org)
	return response.Created(c, org)
}

// MyOrganization returns the caller's organization, if any
// GET /api/partners/me
func (h *PartnerHandler) MyOrganization(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var org model.PartnerOrganization
	if err := h.db.Where("owner_id = ?", userID).First(&org).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "No organization registered for this account")
		}
		return response.InternalServerError(c, "Failed to fetch organization")
	}

	return response.Success(c, org)
}

// UpdateRequest is the organization profile update payload
type UpdateRequest struct {
	Name        string `json:"name,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
}

// Update edits the caller's organization profile. Editing a verified
// organization's name drops it back to pending for re-review.
// PUT /api/partners/me
func (h *PartnerHandler) Update(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	var org model.PartnerOrganization
	if err := h.db.Where("owner_id = ?", userID).First(&org).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "No organization registered for this account")
		}
		return response.InternalServerError(c, "Failed to fetch organization")
	}

	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Name != "" && req.Name != org.Name {
		org.Name = req.Name
		if org.Status == model.PartnerStatusVerified {
			org.Status = model.PartnerStatusPending
			org.VerifiedAt = nil
		}
	}
	if req.Website != "" {
		org.Website = req.Website
	}
	if req.Description != "" {
		org.Description = req.Description
	}

	if err := h.db.Save(&org).Error; err != nil {
		return response.InternalServerError(c, "Failed to update organization")
	}

	return response.Success(c, org)
}

// ListPublic returns verified partner organizations
// GET /api/partners
func (h *PartnerHandler) ListPublic(c *fiber.Ctx) error {
	var orgs []model.PartnerOrganization
	if err := h.db.Where("status = ?", model.PartnerStatusVerified).
		Order("name ASC").Find(&orgs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch partners")
	}
	return response.Success(c, orgs)
}

// AdminList returns organizations filtered by status (admin only)
// GET /api/admin/partners?status=pending
func (h *PartnerHandler) AdminList(c *fiber.Ctx) error {
	query := h.db.Preload("Owner").Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		switch model.PartnerStatus(status) {
		case model.PartnerStatusPending, model.PartnerStatusVerified, model.PartnerStatusRejected:
			query = query.Where("status = ?", status)
		default:
			return response.BadRequest(c, "Invalid status filter")
		}
	}

	var orgs []model.PartnerOrganization
	if err := query.Find(&orgs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch partners")
	}
	return response.Success(c, orgs)
}

// Verify marks a pending organization as verified (admin only)
// POST /api/admin/partners/:id/verify
func (h *PartnerHandler) Verify(c *fiber.Ctx) error {
	return h.decide(c, model.PartnerStatusVerified)
}

// Reject marks a pending organization as rejected (admin only)
// POST /api/admin/partners/:id/reject
func (h *PartnerHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, model.PartnerStatusRejected)
}

func (h *PartnerHandler) decide(c *fiber.Ctx, decision model.PartnerStatus) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid organization ID")
	}

	var org model.PartnerOrganization
	if err := h.db.Preload("Owner").First(&org, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Organization not found")
		}
		return response.InternalServerError(c, "Failed to fetch organization")
	}

	if org.Status != model.PartnerStatusPending {
		return response.Conflict(c, "Organization has already been reviewed")
	}

	org.Status = decision
	if decision == model.PartnerStatusVerified {
		now := time.Now()
		org.VerifiedAt = &now
	}

	if err := h.db.Save(&org).Error; err != nil {
		return response.InternalServerError(c, "Failed to update organization")
	}

	h.notifyOwner(c, &org)
	h.publishDecision(c.Context(), &org)
	return response.Success(c, org)
}

// publishDecision announces a verification outcome on the partners feed
func (h *PartnerHandler) publishDecision(ctx context.Context, org *model.PartnerOrganization) {
	if h.events == nil {
		return
	}

	eventType := "partner.rejected"
	if org.Status == model.PartnerStatusVerified {
		eventType = "partner.verified"
	}
	event := realtime.Event{Type: eventType, Payload: map[string]interface{}{
		"organization_id": org.ID,
		"name":            org.Name,
		"status":          org.Status,
	}}
	if err := h.events.Publish(ctx, realtime.TopicPartners, event); err != nil {
		log.Printf("Partner decision event publish for org %d failed: %v", org.ID, err)
	}
}

func (h *PartnerHandler) notifyOwner(c *fiber.Ctx, org *model.PartnerOrganization) {
	if h.dispatcher == nil {
		return
	}

	d := services.Dispatch{
		UserID:   org.OwnerID,
		Category: model.NotificationCategoryPartner,
		Link:     "/partners/me",
		EmailTo:  org.Owner.Email,
	}

	switch org.Status {
	case model.PartnerStatusVerified:
		d.Type = model.NotificationTypeSuccess
		d.Title = "Organization verified"
		d.Message = org.Name + " has been verified. You can now publish events."
		d.EmailSubject, d.EmailBody = services.PartnerVerifiedEmail(org.Owner.FullName, org.Name, h.appURL)
	case model.PartnerStatusRejected:
		d.Type = model.NotificationTypeError
		d.Title = "Organization rejected"
		d.Message = org.Name + " did not pass verification."
		d.EmailSubject, d.EmailBody = services.PartnerRejectedEmail(org.Owner.FullName, org.Name, h.appURL)
	default:
		return
	}

	if result := h.dispatcher.Dispatch(c.Context(), d); result.Failed() {
		log.Printf("Partner decision dispatch for org %d incomplete: in-app=%v email=%v", org.ID, result.InApp, result.Email)
	}
}

func (h *PartnerHandler) notifyAdmins(c *fiber.Ctx, org *model.PartnerOrganization) {
	if h.dispatcher == nil {
		return
	}

	var admins []model.User
	if err := h.db.Where("role = ?", model.RoleAdmin).Find(&admins).Error; err != nil {
		log.Printf("Failed to load admins for partner registration notice: %v", err)
		return
	}

	for _, admin := range admins {
		h.dispatcher.Dispatch(c.Context(), services.Dispatch{
			UserID:   admin.ID,
			Type:     model.NotificationTypeInfo,
			Category: model.NotificationCategoryPartner,
			Title:    "New partner registration",
			Message:  org.Name + " is awaiting verification.",
			Link:     "/admin/partners?status=pending",
		})
	}
}
