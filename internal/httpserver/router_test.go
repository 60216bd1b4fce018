package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/payments"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/tenant"
	"github.com/Skotchmaster/marketplace/internal/transport"
	pkgdb "github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	storeSecret = []byte("store-secret")
	adminSecret = []byte("platform-secret")
)

type testServer struct {
	e    *echo.Echo
	repo *repo.GormRepo
}

func newTestServer(t *testing.T, ready func(context.Context) error) *testServer {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := pkgdb.OpenSQLite(ctx, filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	require.NoError(t, tenant.MigrateStore(db))
	platform, err := pkgdb.OpenSQLite(ctx, filepath.Join(dir, "platform.db"))
	require.NoError(t, err)
	require.NoError(t, tenant.MigratePlatform(platform))
	reg := tenant.NewRegistry(db, platform, filepath.Join(dir, "tenants"), "platform.test")
	t.Cleanup(func() {
		reg.Close()
		_ = pkgdb.Close(db)
		_ = pkgdb.Close(platform)
	})

	r := &repo.GormRepo{DB: db}
	updates := &mykafka.Broadcaster{Pub: mykafka.Noop{}, Topic: "updates"}
	notifier := &service.Notifier{Repo: r, Updates: updates}
	keys := &service.KeyResolver{Repo: r}
	keys.Env.RazorpayWebhookSecret = "whsec"
	gw := payments.NewClient()
	now := func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) }

	e := echo.New()
	Register(e, &Deps{
		Auth:     &AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: storeSecret, TokenTTL: time.Hour}, CookieTTL: time.Hour},
		Catalog:  &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Updates: updates}},
		Cart:     &CartHTTP{Svc: &service.CartService{Repo: r, Now: now}},
		Orders:   &OrderHTTP{Svc: &service.OrderService{Repo: r, Gateway: gw, Keys: keys, Notifier: notifier, Updates: updates, Now: now}},
		Payments: &PaymentHTTP{Svc: &service.PaymentService{Repo: r, Gateway: gw, Keys: keys, Notifier: notifier, Updates: updates}},
		Coupons:  &CouponHTTP{Svc: &service.CouponService{Repo: r, Now: now}},
		Seller:   &SellerHTTP{Svc: &service.SellerService{Repo: r, Updates: updates, Now: now}},
		Admin:    &AdminHTTP{Svc: &service.AdminService{Repo: r, Notifier: notifier, Updates: updates, Now: now}},
		Store:    &StoreHTTP{Svc: &service.StoreService{Repo: r, UploadDir: filepath.Join(dir, "uploads"), Now: now}},
		Platform: &PlatformHTTP{Svc: &service.PlatformService{
			Platform:  &repo.PlatformRepo{DB: platform},
			Registry:  reg,
			JWTSecret: adminSecret,
			TokenTTL:  time.Hour,
			Now:       now,
		}},
		Tenant:           tenant.Middleware(reg),
		JWTSecret:        storeSecret,
		SuperadminSecret: adminSecret,
		Ready:            ready,
	})
	return &testServer{e: e, repo: r}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", transport.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res transport.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.AccessToken)
	return res.AccessToken
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", fmt.Errorf("%w: quantity must be positive", service.ErrValidation), http.StatusBadRequest, "quantity must be positive"},
		{"conflict", fmt.Errorf("%w: email taken", service.ErrConflict), http.StatusBadRequest, "email taken"},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized, service.ErrUnauthorized.Error()},
		{"forbidden", fmt.Errorf("%w: not yours", service.ErrForbidden), http.StatusForbidden, "not yours"},
		{"not found", fmt.Errorf("%w: order", service.ErrNotFound), http.StatusNotFound, "order"},
		{"gateway", fmt.Errorf("%w: timeout", service.ErrPaymentGateway), http.StatusBadGateway, "timeout"},
		{"signature", service.ErrInvalidSignature, http.StatusBadRequest, "signature verification failed"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, msg := statusOf(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ok := newTestServer(t, nil)
	assert.Equal(t, http.StatusOK, ok.do(t, http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, ok.do(t, http.MethodGet, "/health/ready", "", nil).Code)

	down := newTestServer(t, func(context.Context) error { return errors.New("db down") })
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/health/ready", "", nil).Code)
}

func TestCheckoutFlow(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	ctx := context.Background()

	seller := &models.User{Name: "Seller", Email: "seller@example.com", PasswordHash: "x", Role: models.RoleSeller, IsActive: true, IsApproved: true}
	require.NoError(t, s.repo.CreateUser(ctx, seller))
	cat := &models.Category{Name: "Books", Slug: "books", IsApproved: true}
	require.NoError(t, s.repo.CreateCategory(ctx, cat))
	p := &models.Product{SellerID: seller.ID, CategoryID: cat.ID, Name: "Go Book", Price: 250, Status: models.ProductApproved}
	require.NoError(t, s.repo.CreateProduct(ctx, p, 3))

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", transport.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "secret123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tok := s.login(t, "ann@example.com", "secret123")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/user/cart", "", nil).Code)

	rec = s.do(t, http.MethodPost, "/api/user/cart/items", tok, transport.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/orders", tok, transport.CheckoutRequest{PaymentMethod: "cod"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res transport.CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotZero(t, res.OrderID)
	assert.Equal(t, "cod", res.PG)
	assert.InDelta(t, 500, res.Amount, 0.001)

	inv, err := s.repo.InventoryByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, inv.StockQty)

	rec = s.do(t, http.MethodGet, "/api/user/cart", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart transport.CartView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)

	rec = s.do(t, http.MethodGet, "/api/user/orders", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)

	// Stock ran out for a second order of two.
	s.do(t, http.MethodPost, "/api/user/cart/items", tok, transport.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	rec = s.do(t, http.MethodPost, "/api/orders", tok, transport.CheckoutRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, fmt.Sprintf("/api/orders/%d/cancel", res.OrderID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	inv, err = s.repo.InventoryByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, inv.StockQty)
}

func TestRoleGuards(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	s.do(t, http.MethodPost, "/api/auth/register", "", transport.RegisterRequest{Name: "Bob", Email: "bob@example.com", Password: "secret123"})
	tok := s.login(t, "bob@example.com", "secret123")

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/admin/dashboard", tok, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/seller/dashboard/stats", tok, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/auth/me", tok, nil).Code)

	foreign, err := tokens.NewAccessToken(storeSecret, "1", models.RoleUser, "other-store", tokens.PurposeAccess, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/auth/me", foreign, nil).Code)
}

func TestRazorpayWebhook_BadSignature(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhooks/razorpay", bytes.NewBufferString(`{"event":"payment.captured"}`))
	req.Header.Set("X-Razorpay-Signature", "deadbeef")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var res transport.PaymentStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, "failed", res.Status)
}

func TestSuperAdminGuard(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/superadmin/clients", "", nil).Code)

	storeTok, err := tokens.NewAccessToken(storeSecret, "1", models.RoleAdmin, "", tokens.PurposeAccess, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/superadmin/clients", storeTok, nil).Code)

	wrongRole, err := tokens.NewAccessToken(adminSecret, "1", models.RoleAdmin, "", tokens.PurposeAccess, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/superadmin/clients", wrongRole, nil).Code)

	tok, err := tokens.NewAccessToken(adminSecret, "superadmin_1", models.RoleSuperAdmin, "", tokens.PurposeAccess, time.Now().Add(time.Hour))
	require.NoError(t, err)
	rec := s.do(t, http.MethodGet, "/api/superadmin/clients", tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// License validation is open to client installs.
	rec = s.do(t, http.MethodPost, "/api/superadmin/licenses/validate", "", transport.ValidateLicenseRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorHandler_RendersErrorKey(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/categories/slug/missing", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "category not found", body["error"])

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", transport.LoginRequest{Email: "ghost@example.com", Password: "x"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}
