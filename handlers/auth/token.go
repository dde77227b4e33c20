package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/granthub/granthub-api/model"
	authutil "github.com/granthub/granthub-api/utils/auth"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse represents a token refresh response
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return response.BadRequest(c, "Refresh token is required")
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	if claims.TokenType != authutil.TokenTypeRefresh {
		return response.Unauthorized(c, "Invalid token type")
	}

	isRevoked, err := h.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if isRevoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	var user model.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		return response.Unauthorized(c, "User not found")
	}

	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	newAccessToken, _, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}

	newRefreshToken, _, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	// Rotate: the old refresh token may no longer be reused
	expiresAt, _ := h.jwtManager.GetTokenExpiry(req.RefreshToken)
	h.blacklistService.RevokeToken(c.Context(), claims.ID, user.ID, expiresAt, "token_refresh")

	res := RefreshResponse{
		AccessToken:  newAccessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    24 * 60 * 60,
	}

	return response.Success(c, res)
}

// Logout handles user logout by blacklisting the current token
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	jti, ok := middleware.GetTokenJTI(c)
	if !ok {
		return response.BadRequest(c, "No token ID found")
	}

	authHeader := c.Get("Authorization")
	tokenString := ""
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		tokenString = authHeader[7:]
	}

	expiresAt := time.Now().Add(24 * time.Hour)
	if tokenString != "" {
		if exp, err := h.jwtManager.GetTokenExpiry(tokenString); err == nil {
			expiresAt = exp
		}
	}

	if err := h.blacklistService.RevokeToken(c.Context(), jti, user.ID, expiresAt, "logout"); err != nil {
		return response.InternalServerError(c, "Failed to logout")
	}

	return response.Success(c, fiber.Map{
		"message": "Successfully logged out",
	})
}
