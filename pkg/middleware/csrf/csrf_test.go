package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serve(t *testing.T, method, path string, mutate func(*http.Request)) int {
	t.Helper()

	e := echo.New()
	e.Use(Middleware(Config{SkipPrefixes: []string{"/api/payments/webhooks/"}}))
	e.Any("/*", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(method, path, nil)
	req.Host = "shop.example.com"
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	session := &http.Cookie{Name: "accessToken", Value: "jwt"}
	xsrf := &http.Cookie{Name: "XSRF-TOKEN", Value: "tok"}

	tests := []struct {
		name   string
		method string
		path   string
		mutate func(*http.Request)
		want   int
	}{
		{name: "safe method", method: http.MethodGet, path: "/api/user/cart", want: http.StatusOK},
		{name: "anonymous post", method: http.MethodPost, path: "/api/auth/login", want: http.StatusOK},
		{name: "bearer post", method: http.MethodPost, path: "/api/orders", mutate: func(r *http.Request) {
			r.AddCookie(session)
			r.Header.Set(echo.HeaderAuthorization, "Bearer jwt")
		}, want: http.StatusOK},
		{name: "cookie post without token", method: http.MethodPost, path: "/api/orders", mutate: func(r *http.Request) {
			r.AddCookie(session)
			r.AddCookie(xsrf)
		}, want: http.StatusForbidden},
		{name: "cookie post with token", method: http.MethodPost, path: "/api/orders", mutate: func(r *http.Request) {
			r.AddCookie(session)
			r.AddCookie(xsrf)
			r.Header.Set("X-CSRF-Token", "tok")
		}, want: http.StatusOK},
		{name: "foreign origin", method: http.MethodPost, path: "/api/orders", mutate: func(r *http.Request) {
			r.AddCookie(session)
			r.AddCookie(xsrf)
			r.Header.Set("X-CSRF-Token", "tok")
			r.Header.Set(echo.HeaderOrigin, "https://evil.example.net")
		}, want: http.StatusForbidden},
		{name: "webhook skipped", method: http.MethodPost, path: "/api/payments/webhooks/stripe", mutate: func(r *http.Request) {
			r.AddCookie(session)
		}, want: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, serve(t, tt.method, tt.path, tt.mutate))
		})
	}
}
