package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/lora-lending/lora/internal/metrics"
	"github.com/lora-lending/lora/internal/onboarding"
)

const loginRateLimitPrefix = "rl:login:"

// LoginRateLimit limits login attempts per phone, or per IP when the body
// has no phone, using Redis if available.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Phone string `json:"phone"`
		}
		_ = c.BodyParser(&req)
		key := c.IP()
		if strings.TrimSpace(req.Phone) != "" {
			key = onboarding.NormalizePhone(req.Phone)
		}
		key = loginRateLimitPrefix + key
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			// fail open
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			metrics.LoginAttempts.WithLabelValues("throttled").Inc()
			return fiber.NewError(http.StatusTooManyRequests, "too many login attempts, try again later")
		}
		return c.Next()
	}
}
