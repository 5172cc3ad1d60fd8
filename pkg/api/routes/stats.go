package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/reachability/pkg/reachability"
)

func StatsRouter(router fiber.Router, dataset *Dataset) {
	router.Get("/", dataset.getStats)
}

func (d *Dataset) getStats(c *fiber.Ctx) error {
	if d.Stats == nil {
		c.SendStatus(fiber.StatusServiceUnavailable)
		return c.JSON(fiber.Map{
			"error": "Statistics have not been calculated",
		})
	}

	return c.JSON(d.Stats)
}

func ListWindows(c *fiber.Ctx) error {
	windows := []fiber.Map{}
	for _, window := range reachability.WindowPresets() {
		windows = append(windows, fiber.Map{
			"name":  window.Name,
			"range": window.String(),
		})
	}
	windows = append(windows, fiber.Map{"name": reachability.WindowAllDay})

	return c.JSON(windows)
}
