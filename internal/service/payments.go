package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/payments"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/tenant"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"gorm.io/gorm"
)

// ErrInvalidSignature marks a payment confirmation or webhook whose
// signature does not verify.
var ErrInvalidSignature = fmt.Errorf("%w: signature verification failed", ErrValidation)

type PaymentService struct {
	Repo     *repo.GormRepo
	Gateway  payments.Gateway
	Keys     *KeyResolver
	Notifier *Notifier
	Updates  *mykafka.Broadcaster
}

func (s *PaymentService) InitiateRazorpay(ctx context.Context, userID, orderID uint) (*transport.RazorpayOrderResponse, error) {
	if orderID == 0 {
		return nil, validation("order_id is required")
	}
	o, err := s.Repo.OrderByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("%w: order not found", ErrNotFound)
	}
	switch {
	case o.PaymentStatus == models.PaymentPaid:
		return nil, validation("order is already paid")
	case o.Status == models.OrderCancelled || o.Status == models.OrderPaymentFailed:
		return nil, validation("order is %s", o.Status)
	}

	ro, keys, err := createRemoteOrder(ctx, s.Repo, s.Gateway, s.Keys, o)
	if err != nil {
		return nil, err
	}
	return &transport.RazorpayOrderResponse{ID: ro.ID, Amount: ro.Amount, Currency: ro.Currency, KeyID: keys.RazorpayKeyID}, nil
}

func (s *PaymentService) VerifyRazorpay(ctx context.Context, req transport.RazorpayVerifyRequest) (*transport.PaymentStatusResponse, error) {
	keys, err := s.Keys.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !payments.VerifyRazorpayPayment(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, keys.RazorpayKeySecret) {
		logging.FromContext(ctx).Warn("razorpay_verify_failed", "razorpay_order_id", req.RazorpayOrderID)
		return nil, ErrInvalidSignature
	}

	o, err := s.Repo.OrderByReference(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if err := s.markPaid(ctx, o.ID, payments.MethodRazorpay, req.RazorpayPaymentID); err != nil {
		return nil, err
	}
	return &transport.PaymentStatusResponse{Success: true, Message: "payment verified", Status: models.OrderPaid, OrderID: o.ID}, nil
}

// markPaid settles an order once. A second confirmation for a paid order is a
// no-op; a cancelled or failed order cannot be revived by a late payment.
func (s *PaymentService) markPaid(ctx context.Context, orderID uint, gateway, transactionID string) error {
	var o *models.Order
	already := false
	err := s.Repo.Transact(ctx, func(tx *repo.GormRepo) error {
		var err error
		o, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return notFound(err, "order")
		}
		if o.PaymentStatus == models.PaymentPaid {
			already = true
			return nil
		}
		if o.Status == models.OrderCancelled || o.Status == models.OrderPaymentFailed {
			return validation("order is %s", o.Status)
		}
		o.Status = models.OrderPaid
		o.PaymentStatus = models.PaymentPaid
		if err := tx.SetOrderStatus(ctx, o); err != nil {
			return err
		}
		return tx.CreatePaymentTransaction(ctx, &models.PaymentTransaction{
			OrderID:        o.ID,
			Amount:         o.TotalAmount,
			Currency:       payments.Currency(gateway),
			PaymentStatus:  models.TxnSuccess,
			PaymentGateway: gateway,
			TransactionID:  transactionID,
		})
	})
	if err != nil || already {
		return err
	}

	logging.FromContext(ctx).Info("order_paid", "order_id", o.ID, "gateway", gateway)
	s.Updates.Emit(ctx, tenant.ID(ctx), "order", "paid", map[string]any{"id": o.ID, "total": o.TotalAmount})
	s.Notifier.notifyAfterCommit(ctx, []uint{o.UserID}, "Payment Success", fmt.Sprintf("Order #%d paid.", o.ID))
	return nil
}

// markFailed releases the stock of an unpaid order and records the failed
// attempt. It reports false when the order was already settled either way.
func (s *PaymentService) markFailed(ctx context.Context, orderID uint, paymentID, reason string) (bool, error) {
	var o *models.Order
	changed := false
	err := s.Repo.Transact(ctx, func(tx *repo.GormRepo) error {
		var err error
		o, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return notFound(err, "order")
		}
		if o.PaymentStatus == models.PaymentPaid || o.Status == models.OrderPaymentFailed || o.Status == models.OrderCancelled {
			return nil
		}
		if err := restoreStock(ctx, tx, o); err != nil {
			return err
		}
		o.Status = models.OrderPaymentFailed
		o.PaymentStatus = models.PaymentFailed
		if err := tx.SetOrderStatus(ctx, o); err != nil {
			return err
		}
		changed = true
		return tx.CreatePaymentTransaction(ctx, &models.PaymentTransaction{
			OrderID:        o.ID,
			Amount:         o.TotalAmount,
			Currency:       payments.Currency(o.PaymentGateway),
			PaymentStatus:  models.TxnFailure,
			PaymentGateway: o.PaymentGateway,
			TransactionID:  paymentID,
			FailureReason:  reason,
		})
	})
	if err != nil || !changed {
		return false, err
	}

	logging.FromContext(ctx).Info("order_payment_failed", "order_id", o.ID, "reason", reason)
	s.Updates.Emit(ctx, tenant.ID(ctx), "order", "payment_failed", map[string]any{"id": o.ID})
	s.Notifier.notifyAfterCommit(ctx, []uint{o.UserID},
		fmt.Sprintf("Payment Failed for Order #%d", o.ID),
		fmt.Sprintf("Your payment for order #%d of %.2f failed. Reason: %s. Stock has been released.", o.ID, o.TotalAmount, reason))
	return true, nil
}

// Failure is reported by the buyer's client when the gateway popup fails.
func (s *PaymentService) Failure(ctx context.Context, userID uint, req transport.PaymentFailureRequest) (*transport.PaymentStatusResponse, error) {
	if req.OrderID == 0 {
		return nil, validation("missing order_id")
	}
	o, err := s.Repo.OrderByID(ctx, req.OrderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("%w: order not found", ErrNotFound)
	}
	reason := req.Reason
	if reason == "" {
		reason = "Unknown failure"
	}
	if _, err := s.markFailed(ctx, o.ID, req.PaymentID, reason); err != nil {
		return nil, err
	}
	return &transport.PaymentStatusResponse{Message: "Payment failure recorded", Status: "failed", OrderID: o.ID}, nil
}

type razorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// RazorpayWebhook applies payment.captured and payment.failed events. Events
// for orders this store does not know are acknowledged and ignored.
func (s *PaymentService) RazorpayWebhook(ctx context.Context, body []byte, signature string) error {
	l := logging.FromContext(ctx).With("svc", "payment.razorpay_webhook")

	keys, err := s.Keys.Resolve(ctx)
	if err != nil {
		return err
	}
	if keys.RazorpayWebhookSecret == "" {
		return gatewayError(payments.ErrNotConfigured)
	}
	if !payments.VerifyRazorpayWebhook(body, signature, keys.RazorpayWebhookSecret) {
		l.Warn("webhook_rejected", "reason", "bad signature")
		return ErrInvalidSignature
	}

	var ev razorpayEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return validation("malformed webhook payload")
	}
	entity := ev.Payload.Payment.Entity

	switch ev.Event {
	case "payment.captured", "payment.failed":
	default:
		l.Debug("webhook_ignored", "event", ev.Event)
		return nil
	}

	o, err := s.Repo.OrderByReference(ctx, entity.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("webhook_ignored", "event", ev.Event, "reason", "unknown order", "razorpay_order_id", entity.OrderID)
		return nil
	}
	if err != nil {
		return err
	}

	if ev.Event == "payment.captured" {
		err = s.markPaid(ctx, o.ID, payments.MethodRazorpay, entity.ID)
		if errors.Is(err, ErrValidation) {
			l.Warn("webhook_ignored", "event", ev.Event, "order_id", o.ID, "error", err)
			return nil
		}
		return err
	}
	reason := entity.ErrorDescription
	if reason == "" {
		reason = "payment failed at gateway"
	}
	_, err = s.markFailed(ctx, o.ID, entity.ID, reason)
	return err
}

// StripeWebhook settles the order behind a completed checkout session.
func (s *PaymentService) StripeWebhook(ctx context.Context, payload []byte, header string) error {
	l := logging.FromContext(ctx).With("svc", "payment.stripe_webhook")

	keys, err := s.Keys.Resolve(ctx)
	if err != nil {
		return err
	}
	ev, err := payments.ParseStripeWebhook(payload, header, keys.StripeWebhookSecret)
	if errors.Is(err, payments.ErrNotConfigured) {
		return gatewayError(err)
	}
	if err != nil {
		l.Warn("webhook_rejected", "reason", "bad signature", "error", err)
		return ErrInvalidSignature
	}
	if ev.Type != "checkout.session.completed" {
		l.Debug("webhook_ignored", "event", ev.Type)
		return nil
	}

	o, err := s.Repo.OrderByReference(ctx, ev.SessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("webhook_ignored", "event", ev.Type, "reason", "unknown session", "session_id", ev.SessionID)
		return nil
	}
	if err != nil {
		return err
	}
	err = s.markPaid(ctx, o.ID, payments.MethodStripe, ev.SessionID)
	if errors.Is(err, ErrValidation) {
		l.Warn("webhook_ignored", "event", ev.Type, "order_id", o.ID, "error", err)
		return nil
	}
	return err
}
