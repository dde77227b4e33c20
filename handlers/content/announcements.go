package content

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/utils/middleware"
	"github.com/granthub/granthub-api/utils/response"
)

// AnnouncementHandler handles portal-wide announcement requests
type AnnouncementHandler struct {
	db *gorm.DB
}

// NewAnnouncementHandler creates a new announcement handler
func NewAnnouncementHandler(db *gorm.DB) *AnnouncementHandler {
	return &AnnouncementHandler{db: db}
}

// List returns published announcements, newest first
// GET /api/announcements
func (h *AnnouncementHandler) List(c *fiber.Ctx) error {
	query := h.db.Order("created_at DESC")
	role, _ := middleware.GetUserRole(c)
	if role == model.RoleAdmin && c.Query("all") == "true" {
		// drafts included
	} else {
		query = query.Where("published = ?", true)
	}

	var announcements []model.Announcement
	if err := query.Find(&announcements).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch announcements")
	}
	return response.Success(c, announcements)
}

// AnnouncementRequest is the admin create/update payload
type AnnouncementRequest struct {
	Title     string `json:"title" validate:"required,min=3,max=255"`
	Body      string `json:"body"`
	Published *bool  `json:"published,omitempty"`
}

// Create publishes a new announcement (admin only)
// POST /api/admin/announcements
func (h *AnnouncementHandler) Create(c *fiber.Ctx) error {
	var req AnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Title == "" {
		return response.BadRequest(c, "Title is required")
	}

	authorID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Authentication required")
	}

	announcement := model.Announcement{
		AuthorID:  authorID,
		Title:     req.Title,
		Body:      req.Body,
		Published: true,
	}
	if req.Published != nil {
		announcement.Published = *req.Published
	}

	if err := h.db.Create(&announcement).Error; err != nil {
		return response.InternalServerError(c, "Failed to create announcement")
	}
	return response.Created(c, announcement)
}

// Update edits an announcement (admin only)
// PUT /api/admin/announcements/:id
func (h *AnnouncementHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid announcement ID")
	}

	var announcement model.Announcement
	if err := h.db.First(&announcement, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Announcement not found")
		}
		return response.InternalServerError(c, "Failed to fetch announcement")
	}

	var req AnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Title != "" {
		announcement.Title = req.Title
	}
	if req.Body != "" {
		announcement.Body = req.Body
	}
	if req.Published != nil {
		announcement.Published = *req.Published
	}

	if err := h.db.Save(&announcement).Error; err != nil {
		return response.InternalServerError(c, "Failed to update announcement")
	}
	return response.Success(c, announcement)
}

// Delete removes an announcement (admin only)
// DELETE /api/admin/announcements/:id
func (h *AnnouncementHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid announcement ID")
	}

	result := h.db.Delete(&model.Announcement{}, uint(id))
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete announcement")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Announcement not found")
	}
	return response.Success(c, fiber.Map{"message": "Announcement deleted"})
}
