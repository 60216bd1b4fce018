package payments

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRazorpayPayment(t *testing.T) {
	t.Parallel()

	const secret = "rzp_secret"
	good := sign(secret, []byte("order_1|pay_1"))

	tests := []struct {
		name                   string
		order, payment, sig, s string
		want                   bool
	}{
		{name: "valid", order: "order_1", payment: "pay_1", sig: good, s: secret, want: true},
		{name: "tampered payment", order: "order_1", payment: "pay_2", sig: good, s: secret},
		{name: "wrong secret", order: "order_1", payment: "pay_1", sig: good, s: "other"},
		{name: "empty signature", order: "order_1", payment: "pay_1", s: secret},
		{name: "no secret", order: "order_1", payment: "pay_1", sig: good},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, VerifyRazorpayPayment(tt.order, tt.payment, tt.sig, tt.s))
		})
	}
}

func TestVerifyRazorpayWebhook(t *testing.T) {
	t.Parallel()

	body := []byte(`{"event":"payment.captured"}`)
	sig := sign("whsec", body)

	assert.True(t, VerifyRazorpayWebhook(body, sig, "whsec"))
	assert.False(t, VerifyRazorpayWebhook([]byte(`{}`), sig, "whsec"))
	assert.False(t, VerifyRazorpayWebhook(body, sig, ""))
}

func TestParseStripeWebhook(t *testing.T) {
	t.Parallel()

	const secret = "whsec_test"
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_123","object":"checkout.session"}}}`)

	ts := time.Now()
	mac := webhook.ComputeSignature(ts, payload, secret)
	header := fmt.Sprintf("t=%s,v1=%x", strconv.FormatInt(ts.Unix(), 10), mac)

	ev, err := ParseStripeWebhook(payload, header, secret)
	require.NoError(t, err)
	assert.Equal(t, "checkout.session.completed", ev.Type)
	assert.Equal(t, "cs_test_123", ev.SessionID)

	_, err = ParseStripeWebhook(payload, header, "whsec_other")
	require.Error(t, err)

	_, err = ParseStripeWebhook(payload, header, "")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestGatewayClient_RequiresKeys(t *testing.T) {
	t.Parallel()

	c := NewClient()
	_, err := c.CreateRazorpayOrder(context.Background(), Keys{}, 100, "1")
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = c.CreateStripeSession(context.Background(), Keys{}, SessionInput{})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, KnownMethod("upi"))
	assert.False(t, KnownMethod("bitcoin"))
	assert.EqualValues(t, 0, ToMinorUnits(0))
	assert.EqualValues(t, 1999, ToMinorUnits(19.99))
	assert.EqualValues(t, 10050, ToMinorUnits(100.5))

	assert.Equal(t, "USD", Currency(MethodStripe))
	assert.Equal(t, "INR", Currency(MethodUPI))

	tests := []struct {
		method string
		amount float64
		want   int64
	}{
		{MethodRazorpay, 0, 100},
		{MethodRazorpay, 0.4, 100},
		{MethodRazorpay, 12.5, 1250},
		{MethodStripe, 0, 50},
		{MethodStripe, 0.2, 50},
		{MethodStripe, 19.99, 1999},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ChargeAmount(tt.method, tt.amount), "%s %.2f", tt.method, tt.amount)
	}
}
