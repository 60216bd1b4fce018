package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/labstack/echo/v4"
)

const maxWebhookBody = 1 << 20

type PaymentHTTP struct {
	Svc *service.PaymentService
}

// signatureRejected is the body gateways and clients get back on a failed
// signature check.
func signatureRejected(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, transport.PaymentStatusResponse{
		Success: false,
		Message: "signature verification failed",
		Status:  "failed",
	})
}

func (h *PaymentHTTP) InitiateRazorpay(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.initiate_razorpay")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "initiate_payment_error", "invalid body", err)
	}

	res, err := h.Svc.InitiateRazorpay(ctx, uid, req.OrderID)
	if err != nil {
		return fail(l, "initiate_payment_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) VerifyRazorpay(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.verify_razorpay")

	var req transport.RazorpayVerifyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "verify_payment_error", "invalid body", err)
	}

	res, err := h.Svc.VerifyRazorpay(ctx, req)
	if errors.Is(err, service.ErrInvalidSignature) {
		l.Warn("verify_payment_error", "status", 400, "reason", "bad signature")
		return signatureRejected(c)
	}
	if err != nil {
		return fail(l, "verify_payment_error", err)
	}

	l.Info("verify_payment_success", "order_id", res.OrderID)
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) Failure(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.failure")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.PaymentFailureRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "payment_failure_error", "invalid body", err)
	}

	res, err := h.Svc.Failure(ctx, uid, req)
	if err != nil {
		return fail(l, "payment_failure_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHTTP) RazorpayWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.razorpay_webhook")

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return badRequest(l, "webhook_error", "cannot read body", err)
	}

	err = h.Svc.RazorpayWebhook(ctx, body, c.Request().Header.Get("X-Razorpay-Signature"))
	if errors.Is(err, service.ErrInvalidSignature) {
		return signatureRejected(c)
	}
	if err != nil {
		return fail(l, "webhook_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *PaymentHTTP) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.stripe_webhook")

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return badRequest(l, "webhook_error", "cannot read body", err)
	}

	err = h.Svc.StripeWebhook(ctx, body, c.Request().Header.Get("Stripe-Signature"))
	if errors.Is(err, service.ErrInvalidSignature) {
		return signatureRejected(c)
	}
	if err != nil {
		return fail(l, "webhook_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
