package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/database"
	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/utils/response"
)

// ListAuditLogs retrieves admin audit logs with pagination
// GET /api/admin/audit-logs
func ListAuditLogs(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	action := c.Query("action")
	resource := c.Query("resource")
	adminIDStr := c.Query("admin_id")

	query := db.Model(&model.AdminAuditLog{}).Preload("Admin")

	if action != "" {
		query = query.Where("action = ?", action)
	}
	if resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if adminIDStr != "" {
		if adminID, err := strconv.ParseUint(adminIDStr, 10, 32); err == nil {
			query = query.Where("admin_id = ?", adminID)
		}
	}

	var total int64
	query.Count(&total)

	var logs []model.AdminAuditLog
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Order("created_at DESC").Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	pagination := response.CalculatePagination(page, limit, total)
	return response.Paginated(c, logs, pagination)
}

// GetAuditLog retrieves a specific audit log entry
// GET /api/admin/audit-logs/:id
func GetAuditLog(c *fiber.Ctx, store database.Storage) error {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		return response.InternalServerError(c, "Database connection error")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid audit log ID")
	}

	var entry model.AdminAuditLog
	if err := db.Preload("Admin").First(&entry, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Audit log entry not found")
		}
		return response.InternalServerError(c, "Failed to fetch audit log entry")
	}

	return response.Success(c, entry)
}
