package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ============================================================================
// RATE LIMITING
// ============================================================================
// Protege o backend contra abuso. O limite geral cobre os endpoints leves;
// os que saem para o OpenRouteService têm limite próprio, mais apertado, para
// não estourar a cota da chave.

// RateLimiter é o limitador geral: 100 requisições por minuto por IP.
func RateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"erro":        "limite de requisições excedido",
				"message":     "muitas requisições, tente novamente em um minuto",
				"retry_after": 60,
			})
		},
		SkipFailedRequests:     false,
		SkipSuccessfulRequests: false,
		LimiterMiddleware:      limiter.SlidingWindow{},
	})
}

// UpstreamRateLimiter limita os endpoints que consomem a cota do serviço de
// rotas: 30 requisições por minuto por IP.
func UpstreamRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"erro":        "limite de requisições excedido",
				"message":     "muitas consultas de rota, tente novamente em um minuto",
				"retry_after": 60,
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
