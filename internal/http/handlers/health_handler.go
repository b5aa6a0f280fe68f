package handlers

import (
	"bookfolio/internal/log"
	"bookfolio/internal/repos"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	Slots *repos.SlotRepo
	Quota int
}

// GET /healthz reports storage use against the quota.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	used, err := h.Slots.Usage()
	if err != nil {
		log.Error(c, "health.storage", err, nil)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
	}
	return c.JSON(fiber.Map{"ok": true, "storageBytes": used, "storageQuota": h.Quota})
}
