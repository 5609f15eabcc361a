package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-booking/internal/utils"
)

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func doRequest(e *echo.Echo, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	const secret = "test-secret"
	at, err := utils.NewAccessToken(secret, 42, "USER", 15)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		assert.EqualValues(t, 42, c.Get("user_id"))
		assert.Equal(t, "USER", c.Get("role"))
		return okHandler(c)
	}, JWTAuth(secret))

	rec := doRequest(e, "Bearer "+at.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	e := echo.New()
	e.GET("/protected", okHandler, JWTAuth("test-secret"))

	rec := doRequest(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 42, "USER", 15)
	require.NoError(t, err)

	e := echo.New()
	e.GET("/protected", okHandler, JWTAuth("test-secret"))

	rec := doRequest(e, "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsMalformedToken(t *testing.T) {
	e := echo.New()
	e.GET("/protected", okHandler, JWTAuth("test-secret"))

	rec := doRequest(e, "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func requestWithRole(role string, mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	inject := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role != "" {
				c.Set("role", role)
			}
			return next(c)
		}
	}
	e.GET("/protected", okHandler, inject, mw)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole("ADMIN", "USER")

	assert.Equal(t, http.StatusOK, requestWithRole("ADMIN", mw).Code)
	assert.Equal(t, http.StatusOK, requestWithRole("USER", mw).Code)
	assert.Equal(t, http.StatusForbidden, requestWithRole("GUEST", mw).Code)
	assert.Equal(t, http.StatusForbidden, requestWithRole("", mw).Code)
}

func TestRequireRoleAdminOnly(t *testing.T) {
	mw := RequireRole("ADMIN")

	assert.Equal(t, http.StatusOK, requestWithRole("ADMIN", mw).Code)
	assert.Equal(t, http.StatusForbidden, requestWithRole("USER", mw).Code)
}
