package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/rotafacil/internal/debug"
)

// DashboardLogger envia um log por requisição ao dashboard de debug.
func DashboardLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		level := "info"
		if status >= 500 {
			level = "error"
		} else if status >= 400 {
			level = "warn"
		}

		// Endpoints que saem para o OpenRouteService ganham fonte própria.
		source := "backend"
		path := c.Path()
		if strings.HasPrefix(path, "/rota") || strings.HasPrefix(path, "/calculate_route") || strings.HasPrefix(path, "/geocoding") {
			source = "ors"
		}

		debug.SendLog(source, level, fmt.Sprintf("%s %s", c.Method(), path), map[string]interface{}{
			"method":      c.Method(),
			"path":        path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"ip":          c.IP(),
		})

		return err
	}
}
