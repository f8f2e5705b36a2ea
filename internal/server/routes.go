package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/rotafacil/internal/debug"
	"github.com/yourorg/rotafacil/internal/middleware"
)

// Register liga os endpoints ao app Fiber. O dashboard de debug segue a
// configuração das Settings.
func Register(app *fiber.App, h *Handlers) {
	debug.Configure(h.cfg.DebugDashboard)

	app.Use(middleware.RateLimiter())
	if debug.IsEnabled() {
		app.Use(middleware.DashboardLogger())
	}

	app.Get("/", h.Root)
	app.Get("/test_connection", h.TestConnection)

	// Endpoints que gastam cota do ORS têm limite próprio.
	app.Post("/geocoding", middleware.UpstreamRateLimiter(), h.Geocoding)
	app.Post("/rota", middleware.UpstreamRateLimiter(), h.Rota)
	app.Post("/calculate_route", middleware.UpstreamRateLimiter(), h.CalculateRoute)

	app.Post("/update_gps", h.UpdateGPS)
	app.Get("/gps/history", h.GPSHistory)

	if debug.IsEnabled() {
		app.Get("/debug/cache", h.CacheStats)
		app.Use("/debug/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/debug/ws", websocket.New(debug.HandleWebSocketFiber))
	}
}
