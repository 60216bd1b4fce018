package tenant

import (
	"errors"
	"net/http"

	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/labstack/echo/v4"
)

const HeaderTenantDomain = "X-Tenant-Domain"

// Middleware binds the store database of the requesting host to the request
// context. X-Tenant-Domain wins over Host.
func Middleware(reg *Registry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			host := req.Header.Get(HeaderTenantDomain)
			if host == "" {
				host = req.Host
			}

			db, client, err := reg.Resolve(ctx, host)
			if err != nil {
				l := logging.FromContext(ctx).With("handler", "tenant.resolve")
				if errors.Is(err, ErrInactive) {
					l.Warn("tenant_resolve_failed", "status", 403, "reason", "tenant inactive", "host", host)
					return echo.NewHTTPError(http.StatusForbidden, "store is not active")
				}
				l.Error("tenant_resolve_failed", "status", 500, "reason", "cannot resolve tenant", "host", host, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot resolve store")
			}

			tenantID := ""
			l := logging.FromContext(ctx)
			if client != nil {
				tenantID = client.ClientID
				l = l.With("tenant", tenantID)
			}
			ctx = IntoContext(logging.IntoContext(ctx, l), db, client)
			c.SetRequest(req.WithContext(ctx))
			c.Set(authmw.CtxTenantID, tenantID)

			return next(c)
		}
	}
}
