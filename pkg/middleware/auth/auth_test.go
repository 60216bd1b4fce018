package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skotchmaster/marketplace/pkg/tokens"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret")

func mint(t *testing.T, role, tenant, purpose string) string {
	t.Helper()
	tok, err := tokens.NewAccessToken(testSecret, "5", role, tenant, purpose, time.Now().Add(time.Minute))
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, mw echo.MiddlewareFunc, tenant, header string, cookie *http.Cookie) (int, echo.Context) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(CtxTenantID, tenant)

	err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	if err != nil {
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		return he.Code, c
	}
	return rec.Code, c
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(testSecret)

	tests := []struct {
		name   string
		tenant string
		header string
		cookie *http.Cookie
		want   int
	}{
		{name: "missing token", want: http.StatusUnauthorized},
		{name: "bearer header", header: "Bearer " + mint(t, "user", "", tokens.PurposeAccess), want: http.StatusOK},
		{name: "cookie fallback", cookie: &http.Cookie{Name: "accessToken", Value: mint(t, "user", "", tokens.PurposeAccess)}, want: http.StatusOK},
		{name: "garbage", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "other tenant", tenant: "t-2", header: "Bearer " + mint(t, "user", "t-1", tokens.PurposeAccess), want: http.StatusUnauthorized},
		{name: "onboarding token", header: "Bearer " + mint(t, "admin", "", tokens.PurposeOnboarding), want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, _ := run(t, m.RequireAuth, tt.tenant, tt.header, tt.cookie)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRequireAuth_SetsContext(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(testSecret)
	code, c := run(t, m.RequireAuth, "t-1", "Bearer "+mint(t, "seller", "t-1", tokens.PurposeAccess), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "5", c.Get(CtxUserID))
	assert.Equal(t, "seller", c.Get(CtxRole))
}

func TestRequireAdminAndRole(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(testSecret)

	code, _ := run(t, m.RequireAdmin, "", "Bearer "+mint(t, "seller", "", tokens.PurposeAccess), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = run(t, m.RequireAdmin, "", "Bearer "+mint(t, "admin", "", tokens.PurposeAccess), nil)
	assert.Equal(t, http.StatusOK, code)

	sellerOrAdmin := func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.RequireAuth(RequireRole("seller", "admin")(next))
	}
	code, _ = run(t, sellerOrAdmin, "", "Bearer "+mint(t, "user", "", tokens.PurposeAccess), nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRequireOnboarding(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(testSecret)

	code, _ := run(t, m.RequireOnboarding, "", "Bearer "+mint(t, "admin", "", tokens.PurposeOnboarding), nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = run(t, m.RequireOnboarding, "", "Bearer "+mint(t, "admin", "", tokens.PurposeAccess), nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestOptional(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(testSecret)

	code, c := run(t, m.Optional, "", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, c.Get(CtxUserID))

	code, c = run(t, m.Optional, "", "Bearer nope", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, c.Get(CtxUserID))

	code, c = run(t, m.Optional, "t-2", "Bearer "+mint(t, "user", "t-1", tokens.PurposeAccess), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, c.Get(CtxUserID))

	code, c = run(t, m.Optional, "t-1", "Bearer "+mint(t, "user", "t-1", tokens.PurposeAccess), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "5", c.Get(CtxUserID))
}
