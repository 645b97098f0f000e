package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginStatus(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestLoginRateLimitPerPhone(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	app := fiber.New()
	app.Post("/login", LoginRateLimit(cache, 2), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, fiber.StatusOK, loginStatus(t, app, `{"phone":"+639171234567"}`))
	// same number typed differently shares the bucket
	assert.Equal(t, fiber.StatusOK, loginStatus(t, app, `{"phone":"917 123 4567"}`))
	assert.Equal(t, fiber.StatusTooManyRequests, loginStatus(t, app, `{"phone":"+639171234567"}`))
	assert.Equal(t, fiber.StatusOK, loginStatus(t, app, `{"phone":"+639998887777"}`))

	assert.True(t, mr.TTL(loginRateLimitPrefix+"+639171234567") > 0)
	mr.FastForward(61 * time.Second)
	assert.Equal(t, fiber.StatusOK, loginStatus(t, app, `{"phone":"+639171234567"}`))
}

func TestLoginRateLimitWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginRateLimit(nil, 1), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	for i := 0; i < 3; i++ {
		assert.Equal(t, fiber.StatusOK, loginStatus(t, app, `{"phone":"+639171234567"}`))
	}
}
