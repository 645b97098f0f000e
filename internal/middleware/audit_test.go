package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		rec := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func TestAuditRecordsCallerAndSession(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	app := fiber.New()
	app.Use(RequestID())
	app.Use(Audit(logger))
	app.Post("/onboarding/sessions/:sessionId/verify", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Invalid MPIN. Please try again")
	})
	app.Get("/me", func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodPost, "/onboarding/sessions/abc/verify", nil)
	req.Header.Set(requestIDHeader, "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get(requestIDHeader))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	records := auditRecords(t, &buf)
	require.Len(t, records, 2)

	assert.Equal(t, "WARN", records[0]["level"])
	assert.Equal(t, float64(fiber.StatusUnprocessableEntity), records[0]["status"])
	assert.Equal(t, "abc", records[0]["onboarding_session"])
	assert.Equal(t, "req-42", records[0]["request_id"])
	assert.Equal(t, "/onboarding/sessions/:sessionId/verify", records[0]["route"])
	assert.NotContains(t, records[0], "user_id")

	assert.Equal(t, "INFO", records[1]["level"])
	assert.Equal(t, "user-1", records[1]["user_id"])
	assert.NotContains(t, records[1], "onboarding_session")
	assert.NotEmpty(t, records[1]["request_id"])
}

func TestRequestIDReplacesUnusableIDs(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFrom(c))
	})

	for _, supplied := range []string{"", strings.Repeat("x", maxRequestIDLen+1), "has space"} {
		req := httptest.NewRequest(fiber.MethodGet, "/", nil)
		if supplied != "" {
			req.Header.Set(requestIDHeader, supplied)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		got := resp.Header.Get(requestIDHeader)
		assert.NotEqual(t, supplied, got)
		assert.Len(t, got, 36)
	}
}
