// Package program serves the grant program catalog. Reads are public and
// cached; writes are admin-only and bust the cache.
package program

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/model"
	"github.com/granthub/granthub-api/utils/cache"
	"github.com/granthub/granthub-api/utils/response"
)

const (
	openProgramsCacheKey = "granthub:programs:open"
	programCacheTTL      = 5 * time.Minute
)

// ProgramHandler handles grant program requests
type ProgramHandler struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

// NewProgramHandler creates a new program handler
func NewProgramHandler(db *gorm.DB, redisCache *cache.RedisCache) *ProgramHandler {
	return &ProgramHandler{db: db, cache: redisCache}
}

// List returns grant programs. By default only open programs; admins can pass
// ?all=true to include closed and inactive ones.
// GET /api/programs
func (h *ProgramHandler) List(c *fiber.Ctx) error {
	if c.Query("all") == "true" {
		var programs []model.Program
		if err := h.db.Order("created_at DESC").Find(&programs).Error; err != nil {
			return response.InternalServerError(c, "Failed to fetch programs")
		}
		return response.Success(c, programs)
	}

	ctx := c.Context()
	var cached []model.Program
	if h.cache != nil {
		if err := h.cache.GetJSON(ctx, openProgramsCacheKey, &cached); err == nil {
			return response.Success(c, cached)
		}
	}

	programs, err := h.openPrograms(ctx)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch programs")
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(ctx, openProgramsCacheKey, programs, programCacheTTL); err != nil {
			log.Printf("Failed to cache open programs: %v", err)
		}
	}

	return response.Success(c, programs)
}

// Get returns a single program by ID
// GET /api/programs/:id
func (h *ProgramHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid program ID")
	}

	var program model.Program
	if err := h.db.First(&program, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Program not found")
		}
		return response.InternalServerError(c, "Failed to fetch program")
	}

	return response.Success(c, fiber.Map{
		"program": program,
		"open":    program.IsOpen(),
	})
}

// ProgramRequest is the admin create/update payload
type ProgramRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=255"`
	Description string     `json:"description"`
	GrantAmount int64      `json:"grant_amount" validate:"gte=0"`
	Currency    string     `json:"currency"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Active      *bool      `json:"active,omitempty"`
}

// Create adds a new grant program (admin only)
// POST /api/admin/programs
func (h *ProgramHandler) Create(c *fiber.Ctx) error {
	var req ProgramRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Title == "" {
		return response.BadRequest(c, "Title is required")
	}
	if req.GrantAmount < 0 {
		return response.BadRequest(c, "Grant amount cannot be negative")
	}
	if req.Currency == "" {
		req.Currency = "NGN"
	}

	program := model.Program{
		Title:       req.Title,
		Description: req.Description,
		GrantAmount: req.GrantAmount,
		Currency:    req.Currency,
		Deadline:    req.Deadline,
		Active:      true,
	}
	if req.Active != nil {
		program.Active = *req.Active
	}

	if err := h.db.Create(&program).Error; err != nil {
		return response.InternalServerError(c, "Failed to create program")
	}

	h.invalidateCache(c.Context())
	return response.Created(c, program)
}

// Update modifies an existing program (admin only)
// PUT /api/admin/programs/:id
func (h *ProgramHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid program ID")
	}

	var program model.Program
	if err := h.db.First(&program, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Program not found")
		}
		return response.InternalServerError(c, "Failed to fetch program")
	}

	var req ProgramRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Title != "" {
		program.Title = req.Title
	}
	if req.Description != "" {
		program.Description = req.Description
	}
	if req.GrantAmount > 0 {
		program.GrantAmount = req.GrantAmount
	}
	if req.Currency != "" {
		program.Currency = req.Currency
	}
	if req.Deadline != nil {
		program.Deadline = req.Deadline
	}
	if req.Active != nil {
		program.Active = *req.Active
	}

	if err := h.db.Save(&program).Error; err != nil {
		return response.InternalServerError(c, "Failed to update program")
	}

	h.invalidateCache(c.Context())
	return response.Success(c, program)
}

// Delete soft-deletes a program (admin only). Applications already attached
// stay readable through the admin views.
// DELETE /api/admin/programs/:id
func (h *ProgramHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid program ID")
	}

	result := h.db.Delete(&model.Program{}, uint(id))
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete program")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Program not found")
	}

	h.invalidateCache(c.Context())
	return response.Success(c, fiber.Map{"message": "Program deleted"})
}

func (h *ProgramHandler) openPrograms(ctx context.Context) ([]model.Program, error) {
	var programs []model.Program
	err := h.db.WithContext(ctx).
		Where("active = ? AND (deadline IS NULL OR deadline > ?)", true, time.Now()).
		Order("deadline ASC NULLS LAST").
		Find(&programs).Error
	return programs, err
}

func (h *ProgramHandler) invalidateCache(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(ctx, openProgramsCacheKey); err != nil {
		log.Printf("Failed to invalidate program cache: %v", err)
	}
}
