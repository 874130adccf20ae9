package handler

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// RateLimit applies a per-IP token bucket to the HTTP surface.
func RateLimit(rps rate.Limit, burst int) fiber.Handler {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rps, burst)
			limiters[ip] = limiter
		}
		return limiter
	}

	return func(c *fiber.Ctx) error {
		if !limiterFor(c.IP()).Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
