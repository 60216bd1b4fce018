package payments

import (
	"context"
	"errors"
)

const (
	MethodCOD      = "cod"
	MethodPayLater = "pay_later"
	MethodRazorpay = "razorpay"
	MethodUPI      = "upi"
	MethodStripe   = "stripe"
)

var ErrNotConfigured = errors.New("payment gateway not configured")

// Keys are the effective credentials of one store: env values overridden by
// the store's settings rows.
type Keys struct {
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	StripeSecretKey       string
	StripeWebhookSecret   string
	StripeSuccessURL      string
	StripeCancelURL       string
}

type RemoteOrder struct {
	ID       string
	Amount   int64
	Currency string
}

type SessionInput struct {
	Name       string
	AmountCent int64
	Currency   string
	SuccessURL string
	CancelURL  string
	Reference  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type Gateway interface {
	CreateRazorpayOrder(ctx context.Context, keys Keys, amountPaise int64, receipt string) (*RemoteOrder, error)
	CreateStripeSession(ctx context.Context, keys Keys, in SessionInput) (*CheckoutSession, error)
}

func KnownMethod(m string) bool {
	switch m {
	case MethodCOD, MethodPayLater, MethodRazorpay, MethodUPI, MethodStripe:
		return true
	}
	return false
}

// Currency is the ISO code a method settles in. Stripe sessions are priced
// in USD, everything else in INR.
func Currency(method string) string {
	if method == MethodStripe {
		return "USD"
	}
	return "INR"
}

// Gateways reject charges below these amounts, in minor units.
const (
	minRazorpayPaise = 100
	minStripeCents   = 50
)

// ChargeAmount is the amount sent to the gateway for method: the total in
// minor units, raised to the gateway's minimum charge.
func ChargeAmount(method string, amount float64) int64 {
	minor := ToMinorUnits(amount)
	floor := int64(minRazorpayPaise)
	if method == MethodStripe {
		floor = minStripeCents
	}
	return max(minor, floor)
}

// ToMinorUnits converts a decimal amount to paise/cents.
func ToMinorUnits(amount float64) int64 {
	if amount <= 0 {
		return 0
	}
	return int64(amount*100 + 0.5)
}
