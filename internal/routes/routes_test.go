package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lora-lending/lora/internal/config"
	"github.com/lora-lending/lora/internal/logging"
)

func devConfig() config.Config {
	return config.Config{
		AppName:                "Lora",
		Env:                    "test",
		JWTSecret:              "access",
		RefreshSecret:          "refresh",
		AccessTokenTTL:         time.Minute,
		RefreshTokenTTL:        time.Hour,
		OTPMode:                config.OTPModeStatic,
		OTPStaticCode:          "123456",
		OTPTTL:                 time.Minute,
		ResendCountdownSeconds: 300,
		OnboardingSessionTTL:   time.Minute,
		LoginAttemptsPerMinute: 5,
		IdempotencyTTL:         time.Minute,
	}
}

type client struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func (c *client) do(method, path, body string) (int, map[string]any) {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if c.token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (c *client) ok(method, path, body string, want int) map[string]any {
	c.t.Helper()
	status, out := c.do(method, path, body)
	require.Equal(c.t, want, status, "%s %s -> %v", method, path, out)
	return out
}

func setupApp(t *testing.T) *client {
	t.Helper()
	app := fiber.New()
	sessions, err := Setup(app, Deps{Cfg: devConfig(), Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(sessions.Close)
	return &client{t: t, app: app}
}

func onboard(c *client, phone, pin string) string {
	c.t.Helper()
	started := c.ok(http.MethodPost, "/api/v1/onboarding/sessions", "", http.StatusCreated)
	base := "/api/v1/onboarding/sessions/" + started["session_id"].(string)

	c.ok(http.MethodPatch, base+"/registration", `{"phone":"`+phone+`","agreed":true}`, http.StatusOK)
	c.ok(http.MethodPost, base+"/registration/submit", "", http.StatusOK)
	for i, d := range "123456" {
		c.ok(http.MethodPut, fmt.Sprintf("%s/code/%d", base, i), `{"value":"`+string(d)+`"}`, http.StatusOK)
	}
	c.ok(http.MethodPost, base+"/verify", "", http.StatusOK)
	c.ok(http.MethodPatch, base+"/details", `{"first_name":"Ana","last_name":"Cruz","birthdate":"07/04/1990","gender":"Female","nationality":"Filipino","agreed":true}`, http.StatusOK)
	c.ok(http.MethodPost, base+"/details/submit", "", http.StatusOK)
	c.ok(http.MethodPatch, base+"/address", `{"country":"Philippines","province":"Cebu City","municipality":"Cebu City","barangay":"Duljo","street":"3 Osmena Blvd","agreed":true}`, http.StatusOK)
	c.ok(http.MethodPost, base+"/address/submit", "", http.StatusOK)
	for _, field := range []string{"pin", "confirm"} {
		for i, d := range pin {
			c.ok(http.MethodPut, fmt.Sprintf("%s/pin/%s/%d", base, field, i), `{"value":"`+string(d)+`"}`, http.StatusOK)
		}
	}
	out := c.ok(http.MethodPost, base+"/pin/submit", "", http.StatusOK)
	state := out["state"].(map[string]any)
	require.Equal(c.t, "Dashboard", state["destination"])
	return state["user_id"].(string)
}

func TestOnboardingToRepayment(t *testing.T) {
	c := setupApp(t)
	userID := onboard(c, "9171234567", "2580")

	status, _ := c.do(http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	login := c.ok(http.MethodPost, "/api/v1/auth/login", `{"phone":"+63 917 123 4567","pin":"2580"}`, http.StatusOK)
	assert.Equal(t, userID, login["user_id"])
	walletID := login["wallet_id"].(string)
	require.NotEmpty(t, walletID)
	c.token = login["access_token"].(string)

	me := c.ok(http.MethodGet, "/api/v1/me", "", http.StatusOK)
	assert.Equal(t, "Ana Cruz", me["full_name"])
	assert.Equal(t, "+63 917 123 4567", me["display_phone"])
	assert.Equal(t, "07/04/1990", me["birthdate"])
	assert.Equal(t, "tier1", me["tier"])

	loan := c.ok(http.MethodPost, "/api/v1/loans",
		`{"amount":300000,"purpose":"sewing machine","duration_months":3,"employment_status":"self-employed","monthly_income":1500000}`,
		http.StatusCreated)
	loanID := loan["id"].(string)

	dash := c.ok(http.MethodGet, "/api/v1/dashboard", "", http.StatusOK)
	assert.Equal(t, float64(300000), dash["wallet"].(map[string]any)["balance"])
	active := dash["active_loan"].(map[string]any)
	assert.Equal(t, loanID, active["id"])
	assert.Equal(t, float64(103000), active["next_payment"].(map[string]any)["amount"])

	repaid := c.ok(http.MethodPost, "/api/v1/loans/"+loanID+"/repayments", "", http.StatusCreated)
	assert.Equal(t, float64(1), repaid["installment_number"])
	assert.Equal(t, float64(197000), repaid["wallet_balance"])

	c.ok(http.MethodPost, "/api/v1/wallets/"+walletID+"/top-ups",
		`{"card_number":"4111111111111111","expiry":"12/29","cvv":"123","amount":200000,"client_tx_id":"topup-1"}`,
		http.StatusCreated)
	history := c.ok(http.MethodGet, "/api/v1/wallets/"+walletID+"/transactions", "", http.StatusOK)
	assert.Len(t, history["transactions"], 3)

	inbox := c.ok(http.MethodGet, "/api/v1/notifications", "", http.StatusOK)
	assert.Equal(t, true, inbox["has_unread"])
	notes := inbox["notifications"].([]any)
	require.Len(t, notes, 3)
	assert.Equal(t, "Wallet Topped Up", notes[0].(map[string]any)["title"])
	c.ok(http.MethodPost, "/api/v1/notifications/"+notes[1].(map[string]any)["id"].(string)+"/read", "", http.StatusOK)
	read := c.ok(http.MethodPost, "/api/v1/notifications/read-all", "", http.StatusOK)
	assert.Equal(t, false, read["has_unread"])
	dash = c.ok(http.MethodGet, "/api/v1/dashboard", "", http.StatusOK)
	assert.Equal(t, false, dash["has_unread"])

	c.ok(http.MethodPost, "/api/v1/auth/logout", "", http.StatusOK)
	status, _ = c.do(http.MethodGet, "/api/v1/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestOnboardingRejectsTakenPhone(t *testing.T) {
	c := setupApp(t)
	onboard(c, "9170001111", "1111")

	started := c.ok(http.MethodPost, "/api/v1/onboarding/sessions", "", http.StatusCreated)
	base := "/api/v1/onboarding/sessions/" + started["session_id"].(string)
	c.ok(http.MethodPatch, base+"/registration", `{"phone":"9170001111","agreed":true}`, http.StatusOK)
	c.ok(http.MethodPost, base+"/registration/submit", "", http.StatusOK)
	for i, d := range "123456" {
		c.ok(http.MethodPut, fmt.Sprintf("%s/code/%d", base, i), `{"value":"`+string(d)+`"}`, http.StatusOK)
	}
	c.ok(http.MethodPost, base+"/verify", "", http.StatusOK)
	c.ok(http.MethodPatch, base+"/details", `{"first_name":"Ben","last_name":"Uy","birthdate":"01/02/1985","agreed":true}`, http.StatusOK)
	c.ok(http.MethodPost, base+"/details/submit", "", http.StatusOK)
	c.ok(http.MethodPatch, base+"/address", `{"country":"Philippines","province":"Cebu City","municipality":"Cebu City","barangay":"Pasil","street":"1 Colon St","agreed":true}`, http.StatusOK)
	c.ok(http.MethodPost, base+"/address/submit", "", http.StatusOK)
	for _, field := range []string{"pin", "confirm"} {
		for i := 0; i < 4; i++ {
			c.ok(http.MethodPut, fmt.Sprintf("%s/pin/%s/%d", base, field, i), `{"value":"2"}`, http.StatusOK)
		}
	}
	status, _ := c.do(http.MethodPost, base+"/pin/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	state := c.ok(http.MethodGet, base, "", http.StatusOK)["state"].(map[string]any)
	assert.Equal(t, "pin", state["step"])
}

func TestHealthAndMetrics(t *testing.T) {
	c := setupApp(t)
	health := c.ok(http.MethodGet, "/healthz", "", http.StatusOK)
	assert.Equal(t, map[string]any{"postgres": "disabled", "redis": "disabled"}, health["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := c.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "lora_request_duration_seconds")
}

func TestSetupRequiresStoresOutsideDev(t *testing.T) {
	cfg := devConfig()
	cfg.Env = "production"
	_, err := Setup(fiber.New(), Deps{Cfg: cfg})
	assert.Error(t, err)
}
