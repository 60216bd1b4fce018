package httpserver

import (
	"errors"
	"net/http"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/labstack/echo/v4"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}

	res, err := h.Svc.Checkout(ctx, uid, req)
	if err != nil {
		if errors.Is(err, service.ErrPaymentGateway) {
			_, msg := statusOf(err)
			return badRequest(l, "create_order_error", msg, err)
		}
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", res.OrderID, "pg", res.PG)
	return c.JSON(http.StatusCreated, res)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.List(ctx, uid)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_order_error", err.Error(), err)
	}
	o, err := h.Svc.Get(ctx, a, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) Track(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.track")

	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "track_order_error", err.Error(), err)
	}
	out, err := h.Svc.Track(ctx, a, id)
	if err != nil {
		return fail(l, "track_order_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHTTP) Invoice(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.invoice")

	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "invoice_error", err.Error(), err)
	}
	html, err := h.Svc.Invoice(ctx, a, id)
	if err != nil {
		return fail(l, "invoice_error", err)
	}
	return c.HTML(http.StatusOK, html)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "cancel_order_error", err.Error(), err)
	}
	o, err := h.Svc.Cancel(ctx, uid, id)
	if err != nil {
		return fail(l, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", id)
	return c.JSON(http.StatusOK, echo.Map{"message": "order cancelled", "order": o})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "order_status_error", err.Error(), err)
	}
	var req transport.OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "order_status_error", "invalid body", err)
	}

	o, err := h.Svc.UpdateStatus(ctx, a, id, req)
	if err != nil {
		return fail(l, "order_status_error", err)
	}
	l.Info("order_status_updated", "order_id", id, "order_status", o.Status)
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) RetryPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.retry_payment")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "retry_payment_error", err.Error(), err)
	}
	res, err := h.Svc.RetryPayment(ctx, uid, id)
	if err != nil {
		return fail(l, "retry_payment_error", err)
	}
	return c.JSON(http.StatusOK, res)
}
