package app

import (
	"fmt"
	"strings"

	"trailstatus/internal/config"
	"trailstatus/internal/delivery/http/handler"
	"trailstatus/internal/delivery/http/middleware"
	"trailstatus/internal/delivery/http/routes"
	"trailstatus/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func Bootstrap(cfg config.Config, c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName: cfg.App.AppName,
	})

	errMw := middleware.NewErrorMiddleware()
	reqLogMw := middleware.NewRequestLogMiddleware(c.Logger)
	f.Use(errMw.Middleware())
	f.Use(reqLogMw.Middleware())

	reg := &routes.Registry{
		Health: handler.NewHealthHandler(c.DB, c.Cache),
		Points: handler.NewPointsHandler(c.Points, c.Conditions, c.Cache),
		WS:     ws.NewHandler(c.Hub, c.Logger),
	}
	reg.Register(f)

	go c.Hub.Run()

	return &App{Fiber: f, Container: c}
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
