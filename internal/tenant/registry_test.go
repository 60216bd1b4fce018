package tenant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Skotchmaster/marketplace/internal/models"
	pkgdb "github.com/Skotchmaster/marketplace/pkg/db"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	def, err := pkgdb.OpenSQLite(ctx, filepath.Join(dir, "default.db"))
	require.NoError(t, err)
	require.NoError(t, MigrateStore(def))

	platform, err := pkgdb.OpenSQLite(ctx, filepath.Join(dir, "platform.db"))
	require.NoError(t, err)
	require.NoError(t, MigratePlatform(platform))

	require.NoError(t, platform.Create(&models.Client{
		ClientID: "c-agro", Name: "Agro", Email: "agro@example.com",
		Status: models.ClientActive, Subdomain: strPtr("agro"), CustomDomain: strPtr("myagroshop.com"),
	}).Error)
	require.NoError(t, platform.Create(&models.Client{
		ClientID: "c-frozen", Name: "Frozen", Email: "frozen@example.com",
		Status: models.ClientSuspended, Subdomain: strPtr("frozen"),
	}).Error)

	reg := NewRegistry(def, platform, filepath.Join(dir, "tenants"), "platform.com")
	t.Cleanup(func() {
		reg.Close()
		_ = pkgdb.Close(def)
		_ = pkgdb.Close(platform)
	})
	return reg
}

func TestNormalizeHost(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"Agro.Platform.com:8080", "agro.platform.com"},
		{" shop.example.com. ", "shop.example.com"},
		{"localhost", "localhost"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeHost(tt.in), tt.in)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		host       string
		wantClient string
	}{
		{name: "subdomain of base domain", host: "agro.platform.com", wantClient: "c-agro"},
		{name: "custom domain with port", host: "MyAgroShop.com:443", wantClient: "c-agro"},
		{name: "bare label header", host: "agro", wantClient: "c-agro"},
		{name: "unknown subdomain", host: "nobody.platform.com"},
		{name: "unknown domain", host: "example.org"},
		{name: "empty host", host: ""},
		{name: "nested subdomain", host: "x.agro.platform.com"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			db, client, err := reg.Resolve(ctx, tt.host)
			require.NoError(t, err)
			require.NotNil(t, db)
			if tt.wantClient == "" {
				assert.Nil(t, client)
				assert.Same(t, reg.Default, db)
				return
			}
			require.NotNil(t, client)
			assert.Equal(t, tt.wantClient, client.ClientID)
			assert.NotSame(t, reg.Default, db)
		})
	}
}

func TestRegistry_ResolveInactive(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	_, client, err := reg.Resolve(context.Background(), "frozen.platform.com")
	require.ErrorIs(t, err, ErrInactive)
	require.NotNil(t, client)
	assert.Equal(t, "c-frozen", client.ClientID)
}

func TestRegistry_OpenCreatesAndCachesFile(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	ctx := context.Background()

	db1, err := reg.Open(ctx, "c-agro")
	require.NoError(t, err)
	_, err = os.Stat(reg.Path("c-agro"))
	require.NoError(t, err)

	require.NoError(t, db1.Create(&models.Setting{Key: "site_title", Value: "Agro"}).Error)

	db2, err := reg.Open(ctx, "c-agro")
	require.NoError(t, err)
	assert.Same(t, db1, db2)

	var defaultCount int64
	require.NoError(t, reg.Default.Model(&models.Setting{}).Count(&defaultCount).Error)
	assert.Zero(t, defaultCount, "tenant writes must not leak into the default store")

	_, err = reg.Open(ctx, "../escape")
	require.Error(t, err)
}

func TestMiddleware_BindsStore(t *testing.T) {
	t.Parallel()

	reg := newTestRegistry(t)
	e := echo.New()

	tests := []struct {
		name       string
		host       string
		header     string
		wantTenant string
		wantCode   int
	}{
		{name: "header wins", host: "example.org", header: "agro", wantTenant: "c-agro", wantCode: http.StatusOK},
		{name: "host fallback", host: "agro.platform.com", wantTenant: "c-agro", wantCode: http.StatusOK},
		{name: "unmatched falls back", host: "example.org", wantCode: http.StatusOK},
		{name: "suspended store", host: "frozen.platform.com", wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			if tt.header != "" {
				req.Header.Set(HeaderTenantDomain, tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var gotTenant string
			err := Middleware(reg)(func(c echo.Context) error {
				gotTenant, _ = c.Get(authmw.CtxTenantID).(string)
				assert.Equal(t, gotTenant, ID(c.Request().Context()))
				return c.NoContent(http.StatusOK)
			})(c)

			if tt.wantCode != http.StatusOK {
				var he *echo.HTTPError
				require.ErrorAs(t, err, &he)
				assert.Equal(t, tt.wantCode, he.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTenant, gotTenant)
		})
	}
}
