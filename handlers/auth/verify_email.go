package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/granthub/granthub-api/model"
	authutil "github.com/granthub/granthub-api/utils/auth"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// VerifyEmail confirms an email address from a verification link
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return response.BadRequest(c, "Verification token is required")
	}

	var record model.EmailVerificationToken
	if err := h.db.Where("token = ?", authutil.HashToken(token)).First(&record).Error; err != nil {
		return response.BadRequest(c, "Invalid or expired verification token")
	}

	if record.IsExpired() {
		return response.BadRequest(c, "Verification token has expired")
	}

	if record.IsUsed() {
		return response.BadRequest(c, "Verification token has already been used")
	}

	now := time.Now()
	if err := h.db.Model(&model.User{}).
		Where("id = ?", record.UserID).
		Update("email_verified_at", now).Error; err != nil {
		return response.InternalServerError(c, "Failed to verify email")
	}

	record.MarkAsUsed()
	h.db.Save(&record)

	return response.Success(c, fiber.Map{
		"message": "Email verified successfully",
	})
}

// ResendVerification issues a fresh verification email to the current user
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if user.IsEmailVerified() {
		return response.BadRequest(c, "Email is already verified")
	}

	if err := h.sendVerificationEmail(c, user); err != nil {
		return response.InternalServerError(c, "Failed to send verification email")
	}

	return response.Success(c, fiber.Map{
		"message": "Verification email sent",
	})
}
