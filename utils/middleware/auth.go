package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/services"
	"github.com/granthub/granthub-api/utils/auth"
	"github.com/granthub/granthub-api/utils/response"
)

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// authenticate validates the bearer token and loads the user. On success it
// populates the request locals and returns nil.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return response.Unauthorized(c, "Missing authorization token")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return response.Unauthorized(c, "Invalid authorization format")
	}

	claims, err := m.jwtManager.ValidateToken(parts[1])
	if err != nil {
		if err == auth.ErrExpiredToken {
			return response.Unauthorized(c, "Token has expired")
		}
		return response.Unauthorized(c, "Invalid token")
	}

	if claims.TokenType != auth.TokenTypeAccess {
		return response.Unauthorized(c, "Invalid token type")
	}

	isRevoked, err := m.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to check token status")
	}
	if isRevoked {
		return response.Unauthorized(c, "Token has been revoked")
	}

	var user model.User
	if err := m.db.First(&user, claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.Unauthorized(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to load user")
	}

	if user.TokenVersion != claims.TokenVersion {
		return response.Unauthorized(c, "Token has been invalidated")
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("user_email", claims.Email)
	c.Locals("user_role", claims.Role)
	c.Locals("claims", claims)
	c.Locals("user", &user)
	c.Locals("token_jti", claims.ID)

	return nil
}

// Required is middleware that requires a valid JWT token
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := m.authenticate(c); err != nil {
			return err
		}
		return c.Next()
	}
}

// Optional is middleware that allows requests with or without a token.
// Invalid tokens are treated as anonymous, not rejected.
func (m *AuthMiddleware) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Next()
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Next()
		}

		claims, err := m.jwtManager.ValidateToken(parts[1])
		if err != nil || claims.TokenType != auth.TokenTypeAccess {
			return c.Next()
		}

		isRevoked, err := m.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
		if err != nil || isRevoked {
			return c.Next()
		}

		var user model.User
		if err := m.db.First(&user, claims.UserID).Error; err != nil {
			return c.Next()
		}

		if user.TokenVersion != claims.TokenVersion {
			return c.Next()
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user_email", claims.Email)
		c.Locals("user_role", claims.Role)
		c.Locals("claims", claims)
		c.Locals("user", &user)
		c.Locals("token_jti", claims.ID)

		return c.Next()
	}
}

// RequireRole is middleware that requires one of the given user roles.
// Must run after Required.
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := GetUserRole(c)
		if !ok {
			return response.Forbidden(c, "Access denied")
		}

		for _, r := range roles {
			if userRole == r {
				return c.Next()
			}
		}

		return response.Forbidden(c, "Insufficient permissions")
	}
}

// RequireAdmin is middleware that requires a valid token with the admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := m.authenticate(c); err != nil {
			return err
		}

		role, _ := GetUserRole(c)
		if role != model.RoleAdmin {
			return response.Forbidden(c, "Admin access required")
		}

		return c.Next()
	}
}

// RequireVerifiedEmail rejects users who have not verified their email.
// Must run after Required.
func (m *AuthMiddleware) RequireVerifiedEmail() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := GetUser(c)
		if !ok {
			return response.Unauthorized(c, "")
		}
		if user.EmailVerifiedAt == nil {
			return response.Forbidden(c, "Email verification required")
		}
		return c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	userID := c.Locals("user_id")
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *fiber.Ctx) (string, bool) {
	email := c.Locals("user_email")
	if email == nil {
		return "", false
	}
	e, ok := email.(string)
	return e, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role := c.Locals("user_role")
	if role == nil {
		return "", false
	}
	r, ok := role.(string)
	return r, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user := c.Locals("user")
	if user == nil {
		return nil, false
	}
	u, ok := user.(*model.User)
	return u, ok
}

// GetCaller builds the service-layer caller identity from the request context
func GetCaller(c *fiber.Ctx) (services.Caller, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return services.Caller{}, false
	}
	role, _ := GetUserRole(c)
	return services.Caller{ID: id, Role: role}, true
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims := c.Locals("claims")
	if claims == nil {
		return nil, false
	}
	claimsData, ok := claims.(*auth.Claims)
	return claimsData, ok
}

// GetTokenJTI extracts the token JTI from context
func GetTokenJTI(c *fiber.Ctx) (string, bool) {
	jti := c.Locals("token_jti")
	if jti == nil {
		return "", false
	}
	j, ok := jti.(string)
	return j, ok
}
