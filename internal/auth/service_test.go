package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lora-lending/lora/internal/config"
	"github.com/lora-lending/lora/internal/identity"
	"github.com/lora-lending/lora/internal/ledger"
	"github.com/lora-lending/lora/internal/wallet"
)

const testPhone = "+639171234567"

func testConfig() config.Config {
	return config.Config{
		AppName:         "Lora",
		JWTSecret:       "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	}
}

func registerUser(t *testing.T, repo identity.Repository) (*identity.Service, identity.User) {
	t.Helper()
	ids := identity.NewService(repo)
	user, err := ids.Register(context.Background(), identity.Registration{Phone: testPhone, PIN: "2468", FirstName: "Maria"})
	require.NoError(t, err)
	return ids, user
}

func TestLoginAndParseAccess(t *testing.T) {
	repo := identity.NewMemoryRepository()
	_, user := registerUser(t, repo)
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	pair, err := svc.Login(user)
	require.NoError(t, err)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	claims, err := svc.ParseAccess(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, testPhone, claims.Phone)
	assert.Equal(t, "Lora", claims.Issuer)

	_, err = svc.ParseAccess(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token is signed with another secret")
	_, err = svc.ParseAccess(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessRejectsExpiredAndForeignAlgorithms(t *testing.T) {
	repo := identity.NewMemoryRepository()
	_, user := registerUser(t, repo)
	svc := NewService(testConfig(), repo)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	pair, err := svc.Login(user)
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.ParseAccess(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ParseAccess(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshIssuesAccessToken(t *testing.T) {
	repo := identity.NewMemoryRepository()
	_, user := registerUser(t, repo)
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	pair, err := svc.Login(user)
	require.NoError(t, err)

	access, exp, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(900), exp)
	claims, err := svc.ParseAccess(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)

	_, _, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesTokens(t *testing.T) {
	repo := identity.NewMemoryRepository()
	_, user := registerUser(t, repo)
	svc := NewService(testConfig(), repo)
	ctx := context.Background()

	pair, err := svc.Login(user)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, user.ID))

	_, err = svc.ParseAccess(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, _, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	assert.ErrorIs(t, svc.Logout(ctx, "missing"), identity.ErrUserNotFound)
}

func TestHandlerLoginRefreshLogout(t *testing.T) {
	repo := identity.NewMemoryRepository()
	ids, user := registerUser(t, repo)
	led := ledger.NewInMemory()
	wallets := wallet.NewService(wallet.NewMemoryRepository(), led)
	w, err := wallets.Create(context.Background(), wallet.CreateInput{OwnerID: user.ID})
	require.NoError(t, err)

	svc := NewService(testConfig(), repo)
	h := NewHandler(ids, svc, wallets)
	app := fiber.New()
	app.Post("/login", h.Login)
	app.Post("/refresh", h.Refresh)
	app.Post("/logout", func(c *fiber.Ctx) error {
		c.Locals("user_id", user.ID)
		return c.Next()
	}, h.Logout)

	post := func(path, body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := post("/login", `{"phone":"+63 917 123 4567","pin":"0000"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = post("/login", `{"phone":"+63 917 123 4567","pin":"2468"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	assert.Equal(t, user.ID, login.UserID)
	assert.Equal(t, w.ID, login.WalletID)

	resp = post("/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post("/logout", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post("/refresh", `{"refresh_token":"`+login.RefreshToken+`"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
