package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// RequestLogMiddleware logs one line per request. Conditions reads and
// refresh triggers carry the point id so slow or failing points can be
// traced from the access log alone.
type RequestLogMiddleware struct {
	logger *log.Logger
}

func NewRequestLogMiddleware(logger *log.Logger) *RequestLogMiddleware {
	if logger == nil {
		logger = log.Default()
	}
	return &RequestLogMiddleware{logger: logger}
}

func (m *RequestLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
			c.Set("X-Request-ID", rid)
		}

		err := c.Next()

		if m == nil || m.logger == nil {
			return err
		}

		line := fmt.Sprintf("HTTP %s %s | rid=%s status=%d latency=%s ip=%s resp_bytes=%d",
			c.Method(), c.Path(), rid,
			c.Response().StatusCode(), time.Since(start), c.IP(),
			c.Response().Header.ContentLength(),
		)
		if pointID := c.Params("id"); pointID != "" {
			line += " point_id=" + pointID
		}
		m.logger.Print(line)

		return err
	}
}
