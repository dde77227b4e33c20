package auth

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services"
	authutil "github.com/granthub/granthub-api/utils/auth"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// ForgotPasswordRequest represents a password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents a password reset with token
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ForgotPassword handles password reset requests
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}

	// Don't reveal whether the email exists
	genericReply := fiber.Map{
		"message": "If the email exists, a password reset link will be sent",
	}

	var user model.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return response.Success(c, genericReply)
	}

	resetToken, err := authutil.GenerateSecureToken()
	if err != nil {
		return response.InternalServerError(c, "Failed to create reset token")
	}

	passwordReset := model.PasswordResetToken{
		UserID:    user.ID,
		Token:     authutil.HashToken(resetToken),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}

	if err := h.db.Create(&passwordReset).Error; err != nil {
		return response.InternalServerError(c, "Failed to create reset token")
	}

	subject, body := services.PasswordResetEmail(user.FullName, resetToken, h.emailService.AppURL())
	if err := h.emailService.Send(user.Email, subject, body); err != nil {
		log.Printf("Failed to send password reset email to user %d: %v", user.ID, err)
	}

	return response.Success(c, genericReply)
}

// ResetPassword handles password reset with token
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Token == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Token and new password are required")
	}

	if !authutil.IsPasswordValid(req.NewPassword) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	var resetToken model.PasswordResetToken
	if err := h.db.Where("token = ?", authutil.HashToken(req.Token)).First(&resetToken).Error; err != nil {
		return response.BadRequest(c, "Invalid or expired reset token")
	}

	if resetToken.IsExpired() {
		return response.BadRequest(c, "Reset token has expired")
	}

	if resetToken.IsUsed() {
		return response.BadRequest(c, "Reset token has already been used")
	}

	var user model.User
	if err := h.db.First(&user, resetToken.UserID).Error; err != nil {
		return response.BadRequest(c, "User not found")
	}

	hashedPassword, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	// Invalidate all existing sessions along with the password change
	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"password_hash": hashedPassword,
		"token_version": user.TokenVersion + 1,
	}).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	resetToken.MarkAsUsed()
	h.db.Save(&resetToken)

	return response.Success(c, fiber.Map{
		"message": "Password reset successfully",
	})
}

// ChangePassword handles password change for authenticated users
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		return response.BadRequest(c, "Old password and new password are required")
	}

	if !authutil.IsPasswordValid(req.NewPassword) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return response.Unauthorized(c, "User not found")
	}

	if err := authutil.VerifyPassword(user.PasswordHash, req.OldPassword); err != nil {
		return response.BadRequest(c, "Current password is incorrect")
	}

	hashedPassword, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	if err := h.db.Model(&user).Updates(map[string]interface{}{
		"password_hash": hashedPassword,
		"token_version": user.TokenVersion + 1,
	}).Error; err != nil {
		return response.InternalServerError(c, "Failed to update password")
	}

	return response.Success(c, fiber.Map{
		"message": "Password changed successfully. Please login again with your new password",
	})
}
