package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func testConfig() config.Config {
	return config.Config{JWTSecret: "test-secret"}
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func doRequest(authz string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, c
}

func TestAuthJWT_ValidToken(t *testing.T) {
	token := signToken(t, "test-secret", jwt.MapClaims{
		"sub":  float64(42),
		"role": "USER",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, c := doRequest("Bearer " + token)

	called := false
	h := middleware.AuthJWT(testConfig())(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	err := h(c)
	assert.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), c.Get(middleware.CtxUserIDKey))
	assert.Equal(t, "USER", c.Get(middleware.CtxUserRoleKey))
}

func TestAuthJWT_MissingHeader(t *testing.T) {
	rec, c := doRequest("")

	h := middleware.AuthJWT(testConfig())(func(c echo.Context) error {
		t.Fatal("next should not be called")
		return nil
	})

	_ = h(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", jwt.MapClaims{
		"sub":  float64(42),
		"role": "USER",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, c := doRequest("Bearer " + token)

	h := middleware.AuthJWT(testConfig())(func(c echo.Context) error {
		t.Fatal("next should not be called")
		return nil
	})

	_ = h(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_ExpiredToken(t *testing.T) {
	token := signToken(t, "test-secret", jwt.MapClaims{
		"sub":  float64(42),
		"role": "USER",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	rec, c := doRequest("Bearer " + token)

	h := middleware.AuthJWT(testConfig())(func(c echo.Context) error {
		t.Fatal("next should not be called")
		return nil
	})

	_ = h(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoleGuard_UserForbidden(t *testing.T) {
	rec, c := doRequest("")
	c.Set(middleware.CtxUserRoleKey, "USER")

	h := middleware.AdminRoleGuard()(func(c echo.Context) error {
		t.Fatal("next should not be called")
		return nil
	})

	_ = h(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoleGuard_AdminAllowed(t *testing.T) {
	rec, c := doRequest("")
	c.Set(middleware.CtxUserRoleKey, "ADMIN")

	h := middleware.AdminRoleGuard()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	err := h(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}
