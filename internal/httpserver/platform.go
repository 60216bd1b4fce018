package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/labstack/echo/v4"
)

// PlatformHTTP is the super-admin API. It runs against the platform
// database, never a store database.
type PlatformHTTP struct {
	Svc *service.PlatformService
}

func (h *PlatformHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.login")

	var req transport.SuperAdminLoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "superadmin_login_error", "invalid body", err)
	}
	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "superadmin_login_error", err)
	}
	l.Info("superadmin_login_success")
	return c.JSON(http.StatusOK, res)
}

func (h *PlatformHTTP) Clients(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.clients")

	items, err := h.Svc.Clients(ctx)
	if err != nil {
		return fail(l, "clients_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *PlatformHTTP) Client(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.client")

	cl, err := h.Svc.Client(ctx, c.Param("id"))
	if err != nil {
		return fail(l, "client_error", err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *PlatformHTTP) CreateClient(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.create_client")

	var req transport.CreateClientRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_client_error", "invalid body", err)
	}
	cl, err := h.Svc.CreateClient(ctx, req)
	if err != nil {
		return fail(l, "create_client_error", err)
	}
	l.Info("create_client_success", "client_id", cl.ClientID)
	return c.JSON(http.StatusCreated, cl)
}

func (h *PlatformHTTP) UpdateClient(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.update_client")

	var req transport.UpdateClientRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_client_error", "invalid body", err)
	}
	cl, err := h.Svc.UpdateClient(ctx, c.Param("id"), req)
	if err != nil {
		return fail(l, "update_client_error", err)
	}
	return c.JSON(http.StatusOK, cl)
}

func (h *PlatformHTTP) DeleteClient(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.delete_client")

	if err := h.Svc.DeleteClient(ctx, c.Param("id")); err != nil {
		return fail(l, "delete_client_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "client deleted"})
}

func (h *PlatformHTTP) Licenses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.licenses")

	items, err := h.Svc.Licenses(ctx)
	if err != nil {
		return fail(l, "licenses_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *PlatformHTTP) CreateLicense(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.create_license")

	var req transport.CreateLicenseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_license_error", "invalid body", err)
	}
	lic, err := h.Svc.CreateLicense(ctx, req)
	if err != nil {
		return fail(l, "create_license_error", err)
	}
	return c.JSON(http.StatusCreated, lic)
}

func (h *PlatformHTTP) ValidateLicense(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.validate_license")

	var req transport.ValidateLicenseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "validate_license_error", "invalid body", err)
	}
	out, err := h.Svc.ValidateLicense(ctx, req)
	if err != nil {
		return fail(l, "validate_license_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PlatformHTTP) Subscriptions(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.subscriptions")

	items, err := h.Svc.Subscriptions(ctx)
	if err != nil {
		return fail(l, "subscriptions_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *PlatformHTTP) UpsertSubscription(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.upsert_subscription")

	var req transport.SubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "subscription_error", "invalid body", err)
	}
	sub, err := h.Svc.UpsertSubscription(ctx, req)
	if err != nil {
		return fail(l, "subscription_error", err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *PlatformHTTP) Revenue(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.revenue")

	out, err := h.Svc.RevenueSummary(ctx)
	if err != nil {
		return fail(l, "revenue_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PlatformHTTP) RecordRevenue(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.record_revenue")

	var req transport.RevenueRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "revenue_error", "invalid body", err)
	}
	rev, err := h.Svc.RecordRevenue(ctx, req)
	if err != nil {
		return fail(l, "revenue_error", err)
	}
	return c.JSON(http.StatusCreated, rev)
}

func (h *PlatformHTTP) Config(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.config")

	items, err := h.Svc.Config(ctx)
	if err != nil {
		return fail(l, "config_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *PlatformHTTP) UpsertConfig(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.upsert_config")

	var req transport.ConfigRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "config_error", "invalid body", err)
	}
	cfg, err := h.Svc.UpsertConfig(ctx, req)
	if err != nil {
		return fail(l, "config_error", err)
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *PlatformHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "superadmin.dashboard")

	out, err := h.Svc.Dashboard(ctx)
	if err != nil {
		return fail(l, "platform_dashboard_error", err)
	}
	return c.JSON(http.StatusOK, out)
}
