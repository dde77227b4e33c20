package admin

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/database"
	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/utils/auth"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// ListUsersRequest represents the query parameters for listing users
type ListUsersRequest struct {
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
	Role    string `query:"role"`
	Search  string `query:"search"`
	Sort    string `query:"sort"`
	SortDir string `query:"sort_dir"`
}

// UpdateUserRequest represents the request body for updating a user
type UpdateUserRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

// ResetPasswordRequest represents the request for admin password reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

var sortableUserColumns = map[string]bool{
	"created_at": true,
	"email":      true,
	"full_name":  true,
	"role":       true,
}

// ListUsers retrieves all users with pagination and filters
// GET /api/admin/users
func ListUsers(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var req ListUsersRequest
	if err := c.QueryParser(&req); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}
	if !sortableUserColumns[req.Sort] {
		req.Sort = "created_at"
	}
	if req.SortDir != "asc" && req.SortDir != "desc" {
		req.SortDir = "desc"
	}

	query := db.Model(&model.User{})

	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}

	if req.Search != "" {
		searchTerm := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count users")
	}

	var users []model.User
	offset := (req.Page - 1) * req.Limit
	orderBy := req.Sort + " " + req.SortDir

	if err := query.Offset(offset).Limit(req.Limit).Order(orderBy).Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch users")
	}

	responses := make([]model.UserResponse, len(users))
	for i := range users {
		responses[i] = users[i].ToResponse()
	}

	pagination := response.CalculatePagination(req.Page, req.Limit, total)
	return response.Paginated(c, responses, pagination)
}

// GetUser retrieves a specific user by ID
// GET /api/admin/users/:id
func GetUser(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := db.Preload("MentorProfile").First(&user, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	return response.Success(c, user.ToResponse())
}

// UpdateUser updates a user's information or role
// PUT /api/admin/users/:id
func UpdateUser(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var user model.User
	if err := db.First(&user, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Email != "" && req.Email != user.Email {
		var existing model.User
		if err := db.Where("email = ? AND id != ?", req.Email, user.ID).First(&existing).Error; err == nil {
			return response.Conflict(c, "Email already in use")
		}
		user.Email = req.Email
		user.EmailVerifiedAt = nil
	}
	if req.Role != "" && req.Role != user.Role {
		switch req.Role {
		case model.RoleApplicant, model.RoleMentor, model.RolePartner, model.RoleAdmin:
		default:
			return response.BadRequest(c, "Invalid role")
		}
		if callerID, ok := middleware.GetUserID(c); ok && user.ID == callerID {
			return response.BadRequest(c, "You cannot change your own role")
		}
		user.Role = req.Role
		// Issued tokens carry the old role; force a re-login
		user.TokenVersion++
	}

	if err := db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to update user")
	}

	return response.Success(c, user.ToResponse())
}

// DeleteUser soft deletes a user
// DELETE /api/admin/users/:id
func DeleteUser(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	if callerID, ok := middleware.GetUserID(c); ok && uint(id) == callerID {
		return response.BadRequest(c, "You cannot delete your own account")
	}

	result := db.Delete(&model.User{}, uint(id))
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete user")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, fiber.Map{"message": "User deleted"})
}

// ResetUserPassword allows an admin to reset a user's password. All of the
// user's existing tokens are invalidated.
// POST /api/admin/users/:id/reset-password
func ResetUserPassword(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if !auth.IsPasswordValid(req.NewPassword) {
		return response.BadRequest(c, "Password must be at least 8 characters long")
	}

	var user model.User
	if err := db.First(&user, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to fetch user")
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return response.InternalServerError(c, "Failed to process password")
	}

	user.PasswordHash = hashed
	user.TokenVersion++
	if err := db.Save(&user).Error; err != nil {
		return response.InternalServerError(c, "Failed to reset password")
	}

	return response.Success(c, fiber.Map{"message": "Password reset, user must log in again"})
}

// GetUserStats retrieves overall user statistics
// GET /api/admin/users/stats
func GetUserStats(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	var stats struct {
		TotalUsers    int64            `json:"total_users"`
		VerifiedUsers int64            `json:"verified_users"`
		ByRole        map[string]int64 `json:"by_role"`
	}
	stats.ByRole = make(map[string]int64)

	db.Model(&model.User{}).Count(&stats.TotalUsers)
	db.Model(&model.User{}).Where("email_verified_at IS NOT NULL").Count(&stats.VerifiedUsers)

	var roleCounts []struct {
		Role  string
		Count int64
	}
	db.Model(&model.User{}).
		Select("role, COUNT(*) as count").
		Group("role").
		Scan(&roleCounts)
	for _, rc := range roleCounts {
		stats.ByRole[rc.Role] = rc.Count
	}

	return response.Success(c, stats)
}
