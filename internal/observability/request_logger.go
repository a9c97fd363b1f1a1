package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs every request and records the HTTP metrics. Routes are
// labeled by their registered pattern so path parameters do not explode the
// metric cardinality.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		route := c.Route().Path
		duration := time.Since(start)

		HTTPRequests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		HTTPDuration.WithLabelValues(route, c.Method()).Observe(duration.Seconds())

		logger.Info("http request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		)
		return err
	}
}
