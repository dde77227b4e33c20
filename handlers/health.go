package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/utils/cache"
)

// HandleCheckHealth reports service liveness plus database and cache
// reachability. It always answers 200 so load balancers keep routing while
// dependencies degrade; the body carries the per-dependency state.
func HandleCheckHealth(c *fiber.Ctx, db *gorm.DB, redisCache *cache.RedisCache) error {
	status := fiber.Map{"status": "ok"}

	sqlDB, err := db.DB()
	if err != nil || sqlDB.PingContext(c.Context()) != nil {
		status["database"] = "unreachable"
		status["status"] = "degraded"
	} else {
		status["database"] = "ok"
	}

	if redisCache == nil {
		status["cache"] = "disabled"
	} else if err := redisCache.GetClient().Ping(c.Context()).Err(); err != nil {
		status["cache"] = "unreachable"
		status["status"] = "degraded"
	} else {
		status["cache"] = "ok"
	}

	return c.JSON(status)
}
