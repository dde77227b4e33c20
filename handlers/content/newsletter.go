package content

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/utils/response"
	"github.com/granthub/granthub-api/utils/validation"
)

// NewsletterHandler handles newsletter subscription requests
type NewsletterHandler struct {
	db *gorm.DB
}

// NewNewsletterHandler creates a new newsletter handler
func NewNewsletterHandler(db *gorm.DB) *NewsletterHandler {
	return &NewsletterHandler{db: db}
}

// SubscribeRequest carries the email address to subscribe or unsubscribe
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Subscribe opts an email address into the newsletter. Re-subscribing a
// previously unsubscribed address reactivates it.
// POST /api/newsletter/subscribe
func (h *NewsletterHandler) Subscribe(c *fiber.Ctx) error {
	var req SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validation.ValidateEmail(email) {
		return response.BadRequest(c, "Invalid email address")
	}

	var existing model.NewsletterSubscription
	err := h.db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.UnsubscribedAt == nil {
			return response.Success(c, fiber.Map{"message": "Already subscribed"})
		}
		existing.UnsubscribedAt = nil
		if err := h.db.Save(&existing).Error; err != nil {
			return response.InternalServerError(c, "Failed to subscribe")
		}
		return response.Success(c, fiber.Map{"message": "Subscription reactivated"})
	case err == gorm.ErrRecordNotFound:
		sub := model.NewsletterSubscription{Email: email}
		if err := h.db.Create(&sub).Error; err != nil {
			return response.InternalServerError(c, "Failed to subscribe")
		}
		return response.Created(c, fiber.Map{"message": "Subscribed"})
	default:
		return response.InternalServerError(c, "Failed to subscribe")
	}
}

// Unsubscribe opts an email address out. The reply does not reveal whether
// the address was subscribed.
// POST /api/newsletter/unsubscribe
func (h *NewsletterHandler) Unsubscribe(c *fiber.Ctx) error {
	var req SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validation.ValidateEmail(email) {
		return response.BadRequest(c, "Invalid email address")
	}

	now := time.Now()
	h.db.Model(&model.NewsletterSubscription{}).
		Where("email = ? AND unsubscribed_at IS NULL", email).
		Update("unsubscribed_at", &now)

	return response.Success(c, fiber.Map{"message": "If that address was subscribed, it has been removed"})
}
