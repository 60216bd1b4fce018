package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CouponHTTP struct {
	Svc *service.CouponService
}

func (h *CouponHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.create")

	a, err := actor(c)
	if err != nil {
		return err
	}
	var req transport.CreateCouponRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "coupon_create_error", "invalid body", err)
	}

	cp, err := h.Svc.Create(ctx, a, req)
	if err != nil {
		return fail(l, "coupon_create_error", err)
	}
	l.Info("coupon_created", "coupon_id", cp.ID, "code", cp.Code)
	return c.JSON(http.StatusCreated, cp)
}

func (h *CouponHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.list")

	a, err := actor(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.List(ctx, a)
	if err != nil {
		return fail(l, "coupon_list_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CouponHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.delete")

	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "coupon_delete_error", err.Error(), err)
	}
	if err := h.Svc.Delete(ctx, a, id); err != nil {
		return fail(l, "coupon_delete_error", err)
	}
	l.Info("coupon_deleted", "coupon_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CouponHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.validate")

	var req transport.ValidateCouponRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "coupon_validate_error", "invalid body", err)
	}
	out, err := h.Svc.Validate(ctx, req)
	if err != nil {
		return fail(l, "coupon_validate_error", err)
	}
	return c.JSON(http.StatusOK, out)
}
