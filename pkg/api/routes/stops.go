package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/travigo/reachability/pkg/schedule"
)

func StopsRouter(router fiber.Router, dataset *Dataset) {
	router.Get("/", dataset.listStops)
	router.Get("/:identifier", dataset.getStop)
}

func (d *Dataset) listStops(c *fiber.Ctx) error {
	name := c.Query("name")

	if name == "" {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "A name filter must be applied to the request",
		})
	}

	stops := []schedule.Stop{}
	for _, stopID := range d.Index.FindStopsByName(name) {
		stop, _ := d.Index.Stop(stopID)
		stops = append(stops, stop)
	}

	stopsReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, stops)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce stops",
		})
	}

	return c.JSON(stopsReduced)
}

func (d *Dataset) getStop(c *fiber.Ctx) error {
	identifier := c.Params("identifier")

	stop, ok := d.Index.Stop(identifier)
	if !ok {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Stop matching Stop Identifier",
		})
	}

	visits := d.Index.VisitsByStop(identifier)
	trips := map[string]bool{}
	for _, ref := range visits {
		trips[ref.TripID] = true
	}

	return c.JSON(fiber.Map{
		"stop":   stop,
		"visits": len(visits),
		"trips":  len(trips),
	})
}
