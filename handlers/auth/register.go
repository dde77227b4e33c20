package auth

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services"
	authutil "github.com/granthub/granthub-api/utils/auth"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	emailService         *services.EmailService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, bruteForceProtection *middleware.BruteForceProtection, emailService *services.EmailService) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		blacklistService:     authutil.NewBlacklistService(db),
		bruteForceProtection: bruteForceProtection,
		emailService:         emailService,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,min=2"`
	Role     string `json:"role,omitempty"` // Optional, defaults to "applicant"
	Phone    string `json:"phone,omitempty"`
}

// TokenPairResponse represents an auth response with a fresh token pair
type TokenPairResponse struct {
	User         model.UserResponse `json:"user"`
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	ExpiresIn    int                `json:"expires_in"` // in seconds
}

// Register handles user registration
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return response.BadRequest(c, "Email, password, and full name are required")
	}

	if !authutil.IsPasswordValid(req.Password) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	if req.Role == "" {
		req.Role = model.RoleApplicant
	}

	// Admin accounts are provisioned out of band, never self-registered
	switch req.Role {
	case model.RoleApplicant, model.RoleMentor, model.RolePartner:
	default:
		return response.BadRequest(c, "Invalid role. Must be 'applicant', 'mentor' or 'partner'")
	}

	var existingUser model.User
	if err := h.db.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		return response.Conflict(c, "User with this email already exists")
	}

	hashedPassword, err := authutil.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: hashedPassword,
		FullName:     req.FullName,
		Role:         req.Role,
		Phone:        req.Phone,
		TokenVersion: 0,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create user")
	}

	// Verification email is best effort, registration succeeds regardless
	if err := h.sendVerificationEmail(c, &user); err != nil {
		log.Printf("Failed to send verification email to user %d: %v", user.ID, err)
	}

	accessToken, _, err := h.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}

	refreshToken, _, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Email, user.Role, user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	res := TokenPairResponse{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    24 * 60 * 60,
	}

	return response.Created(c, res)
}

// sendVerificationEmail creates a one-shot token and emails the confirmation link
func (h *AuthHandler) sendVerificationEmail(c *fiber.Ctx, user *model.User) error {
	token, err := authutil.GenerateSecureToken()
	if err != nil {
		return err
	}

	record := model.EmailVerificationToken{
		UserID:    user.ID,
		Token:     authutil.HashToken(token),
		ExpiresAt: time.Now().Add(48 * time.Hour),
	}
	if err := h.db.WithContext(c.Context()).Create(&record).Error; err != nil {
		return err
	}

	subject, body := services.VerifyEmailEmail(user.FullName, token, h.emailService.AppURL())
	return h.emailService.Send(user.Email, subject, body)
}
