package routes

import (
	"trailstatus/internal/delivery/http/handler"
	"trailstatus/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	Health *handler.HealthHandler
	Points *handler.PointsHandler
	WS     *ws.Handler
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	app.Get("/health", r.Health.HandleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/ws/status", r.WS.HandleStatusWS)

	v1 := app.Group("/api").Group("/v1")
	v1.Get("/points", r.Points.HandleListPoints)
	v1.Get("/points/:id/conditions", r.Points.HandleGetConditions)
	v1.Post("/points/:id/refresh", r.Points.HandleForceRefresh)
}
