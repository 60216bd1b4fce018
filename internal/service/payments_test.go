package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hmacHex(secret string, data []byte) string {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write(data)
	return hex.EncodeToString(m.Sum(nil))
}

// razorpayOrder checks out one unit of a fresh product through razorpay.
func razorpayOrder(t *testing.T, s *shop, stock int) (buyer *models.User, p *models.Product, resp *transport.CheckoutResponse) {
	t.Helper()
	buyer = seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	p = seedProduct(t, s.repo, 3, "Headphones", 199.99, stock)
	addToCart(t, s, buyer.ID, p.ID, 1)

	resp, err := s.orders.Checkout(context.Background(), buyer.ID, transport.CheckoutRequest{PaymentMethod: "razorpay"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.RazorpayOrderID)
	return buyer, p, resp
}

func TestVerifyRazorpay_Idempotent(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer, _, resp := razorpayOrder(t, s, 2)

	req := transport.RazorpayVerifyRequest{
		RazorpayOrderID:   resp.RazorpayOrderID,
		RazorpayPaymentID: "pay_1",
		RazorpaySignature: hmacHex("rzp_secret", []byte(resp.RazorpayOrderID+"|pay_1")),
	}

	out, err := s.payments.VerifyRazorpay(ctx, req)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, resp.OrderID, out.OrderID)

	_, err = s.payments.VerifyRazorpay(ctx, req)
	require.NoError(t, err)

	o, err := s.repo.OrderByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, o.Status)
	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)

	txns, err := s.repo.PaymentTransactions(ctx, resp.OrderID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TxnSuccess, txns[0].PaymentStatus)
	assert.Equal(t, "pay_1", txns[0].TransactionID)

	notes, err := s.repo.NotificationsForUser(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Payment Success", notes[0].Subject)
}

func TestVerifyRazorpay_BadSignature(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	_, _, resp := razorpayOrder(t, s, 2)

	_, err := s.payments.VerifyRazorpay(ctx, transport.RazorpayVerifyRequest{
		RazorpayOrderID:   resp.RazorpayOrderID,
		RazorpayPaymentID: "pay_1",
		RazorpaySignature: "deadbeef",
	})
	require.ErrorIs(t, err, ErrInvalidSignature)

	o, err := s.repo.OrderByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentUnpaid, o.PaymentStatus)
}

func TestFailure_RestoresStockOnce(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer, p, resp := razorpayOrder(t, s, 2)
	assert.Equal(t, 1, stockOfProduct(t, s.repo, p.ID))

	out, err := s.payments.Failure(ctx, buyer.ID, transport.PaymentFailureRequest{OrderID: resp.OrderID, PaymentID: "pay_x"})
	require.NoError(t, err)
	assert.Equal(t, "failed", out.Status)
	assert.Equal(t, 2, stockOfProduct(t, s.repo, p.ID))

	_, err = s.payments.Failure(ctx, buyer.ID, transport.PaymentFailureRequest{OrderID: resp.OrderID})
	require.NoError(t, err)
	assert.Equal(t, 2, stockOfProduct(t, s.repo, p.ID))

	_, err = s.orders.Cancel(ctx, buyer.ID, resp.OrderID)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 2, stockOfProduct(t, s.repo, p.ID))

	txns, err := s.repo.PaymentTransactions(ctx, resp.OrderID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TxnFailure, txns[0].PaymentStatus)
	assert.Equal(t, "Unknown failure", txns[0].FailureReason)

	assert.Contains(t, s.pub.actions("order"), "payment_failed")
}

func TestFailure_Validation(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	_, err := s.payments.Failure(context.Background(), 1, transport.PaymentFailureRequest{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestPaidOrderIgnoresLateFailure(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer, p, resp := razorpayOrder(t, s, 2)

	require.NoError(t, s.payments.markPaid(ctx, resp.OrderID, "razorpay", "pay_ok"))

	changed, err := s.payments.markFailed(ctx, resp.OrderID, "pay_late", "late")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, stockOfProduct(t, s.repo, p.ID))

	o, err := s.orders.Cancel(ctx, buyer.ID, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, o.PaymentStatus)
	assert.Equal(t, 2, stockOfProduct(t, s.repo, p.ID))
}

func TestRazorpayWebhook(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	_, p, resp := razorpayOrder(t, s, 3)

	event := func(name, orderID string) []byte {
		return []byte(fmt.Sprintf(
			`{"event":%q,"payload":{"payment":{"entity":{"id":"pay_w","order_id":%q,"error_description":"card declined"}}}}`,
			name, orderID))
	}

	body := event("payment.captured", resp.RazorpayOrderID)
	require.ErrorIs(t, s.payments.RazorpayWebhook(ctx, body, "bad"), ErrInvalidSignature)

	require.NoError(t, s.payments.RazorpayWebhook(ctx, body, hmacHex("rzp_whsec", body)))
	o, err := s.repo.OrderByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)

	// A failure after capture must not release the sold unit.
	failed := event("payment.failed", resp.RazorpayOrderID)
	require.NoError(t, s.payments.RazorpayWebhook(ctx, failed, hmacHex("rzp_whsec", failed)))
	assert.Equal(t, 2, stockOfProduct(t, s.repo, p.ID))

	unknown := event("payment.captured", "order_unknown")
	require.NoError(t, s.payments.RazorpayWebhook(ctx, unknown, hmacHex("rzp_whsec", unknown)))

	other := []byte(`{"event":"refund.created"}`)
	require.NoError(t, s.payments.RazorpayWebhook(ctx, other, hmacHex("rzp_whsec", other)))
}

func TestRazorpayWebhook_FailedReleasesStock(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	_, p, resp := razorpayOrder(t, s, 3)

	body := []byte(fmt.Sprintf(
		`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_f","order_id":%q,"error_description":"card declined"}}}}`,
		resp.RazorpayOrderID))
	require.NoError(t, s.payments.RazorpayWebhook(ctx, body, hmacHex("rzp_whsec", body)))

	assert.Equal(t, 3, stockOfProduct(t, s.repo, p.ID))
	txns, err := s.repo.PaymentTransactions(ctx, resp.OrderID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "card declined", txns[0].FailureReason)
}

func TestInitiateRazorpay(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer, _, resp := razorpayOrder(t, s, 2)

	out, err := s.payments.InitiateRazorpay(ctx, buyer.ID, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "rzp_key", out.KeyID)
	assert.Equal(t, int64(19999), out.Amount)

	_, err = s.payments.InitiateRazorpay(ctx, buyer.ID+1, resp.OrderID)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.payments.markPaid(ctx, resp.OrderID, "razorpay", "pay_ok"))
	_, err = s.payments.InitiateRazorpay(ctx, buyer.ID, resp.OrderID)
	require.ErrorIs(t, err, ErrValidation)
}

func stripeSigned(t *testing.T, secret string, payload []byte) string {
	t.Helper()
	ts := time.Now()
	return fmt.Sprintf("t=%s,v1=%x", strconv.FormatInt(ts.Unix(), 10), webhook.ComputeSignature(ts, payload, secret))
}

func TestStripeWebhook_MarksPaid(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	p := seedProduct(t, s.repo, 3, "Poster", 19.99, 4)
	addToCart(t, s, buyer.ID, p.ID, 1)
	resp, err := s.orders.Checkout(ctx, buyer.ID, transport.CheckoutRequest{PaymentMethod: "stripe"})
	require.NoError(t, err)

	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":%q,"object":"checkout.session"}}}`, resp.CheckoutSessionID))

	require.ErrorIs(t, s.payments.StripeWebhook(ctx, payload, stripeSigned(t, "whsec_other", payload)), ErrInvalidSignature)
	o, err := s.repo.OrderByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentUnpaid, o.PaymentStatus)

	header := stripeSigned(t, "whsec_test", payload)
	require.NoError(t, s.payments.StripeWebhook(ctx, payload, header))
	require.NoError(t, s.payments.StripeWebhook(ctx, payload, header))

	o, err = s.repo.OrderByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, o.Status)
	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)

	txns, err := s.repo.PaymentTransactions(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "USD", txns[0].Currency)
	assert.Equal(t, "stripe", txns[0].PaymentGateway)
	assert.Equal(t, resp.CheckoutSessionID, txns[0].TransactionID)

	other := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)
	assert.NoError(t, s.payments.StripeWebhook(ctx, other, stripeSigned(t, "whsec_test", other)))
}
