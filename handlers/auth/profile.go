package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// GetProfile retrieves the current user's profile
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var user model.User
	if err := h.db.Preload("MentorProfile").First(&user, userID).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, user.ToResponse())
}

// UpdateProfile updates the current user's profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return response.NotFound(c, "User not found")
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if err := h.db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	return response.Success(c, user.ToResponse())
}
