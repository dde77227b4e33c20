package middleware

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/granthub/granthub-api/model"
)

// AdminAuditLog records admin actions after the handler completes.
// Must run after RequireAdmin so the admin identity is in the context.
func AdminAuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		adminID, ok := GetUserID(c)
		if !ok {
			return err
		}

		// Only log actions that succeeded
		if c.Response().StatusCode() >= 400 {
			return err
		}

		targetID := c.Params("id")

		details := map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
		}
		if c.Method() == fiber.MethodPost || c.Method() == fiber.MethodPut || c.Method() == fiber.MethodPatch {
			var body map[string]interface{}
			if len(c.Body()) > 0 && json.Unmarshal(c.Body(), &body) == nil {
				delete(body, "password")
				details["body"] = body
			}
		}

		detailsJSON, _ := json.Marshal(details)

		entry := model.AdminAuditLog{
			AdminID:   adminID,
			Action:    action,
			Resource:  resource,
			TargetID:  targetID,
			Details:   datatypes.JSON(detailsJSON),
			IPAddress: c.IP(),
		}

		go func() {
			db.Create(&entry)
		}()

		return err
	}
}
