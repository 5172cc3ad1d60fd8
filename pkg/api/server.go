package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/travigo/reachability/pkg/api/routes"
)

func NewApp(dataset *routes.Dataset) *fiber.App {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	group := webApp.Group("/core")

	group.Get("version", routes.APIVersion)
	group.Get("windows", routes.ListWindows)

	routes.StopsRouter(group.Group("/stops"), dataset)
	routes.ReachabilityRouter(group.Group("/reachability"), dataset)
	routes.StatsRouter(group.Group("/stats"), dataset)

	if dataset.Metrics != nil {
		webApp.Get("/metrics", adaptor.HTTPHandler(dataset.Metrics.Handler()))
	}

	return webApp
}

func SetupServer(listen string, dataset *routes.Dataset) error {
	return NewApp(dataset).Listen(listen)
}
