package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduadmit/database"
)

// HandleCheckHealth reports service liveness along with database
// reachability.
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	dbStatus := "ok"
	if err := store.HealthCheck(); err != nil {
		dbStatus = "unreachable"
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"database": dbStatus,
	})
}
