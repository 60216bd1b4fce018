package service

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/payments"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/config"
)

// Setting keys a store admin can use to override the process-wide gateway
// credentials.
const (
	SettingRazorpayKeyID         = "razorpay_key_id"
	SettingRazorpayKeySecret     = "razorpay_key_secret"
	SettingRazorpayWebhookSecret = "razorpay_webhook_secret"
	SettingStripeSecretKey       = "stripe_secret_key"
	SettingStripeWebhookSecret   = "stripe_webhook_secret"
	SettingStripeSuccessURL      = "stripe_success_url"
	SettingStripeCancelURL       = "stripe_cancel_url"
)

var secretSettings = map[string]bool{
	SettingRazorpayKeySecret:     true,
	SettingRazorpayWebhookSecret: true,
	SettingStripeSecretKey:       true,
	SettingStripeWebhookSecret:   true,
}

func paymentSettingKeys() []string {
	return []string{
		SettingRazorpayKeyID, SettingRazorpayKeySecret, SettingRazorpayWebhookSecret,
		SettingStripeSecretKey, SettingStripeWebhookSecret, SettingStripeSuccessURL, SettingStripeCancelURL,
	}
}

// KeyResolver yields the gateway credentials of the store bound to ctx.
type KeyResolver struct {
	Repo *repo.GormRepo
	Env  config.PaymentKeys
}

func (k *KeyResolver) Resolve(ctx context.Context) (payments.Keys, error) {
	keys := payments.Keys{
		RazorpayKeyID:         k.Env.RazorpayKeyID,
		RazorpayKeySecret:     k.Env.RazorpayKeySecret,
		RazorpayWebhookSecret: k.Env.RazorpayWebhookSecret,
		StripeSecretKey:       k.Env.StripeSecretKey,
		StripeWebhookSecret:   k.Env.StripeWebhookSecret,
		StripeSuccessURL:      k.Env.StripeSuccessURL,
		StripeCancelURL:       k.Env.StripeCancelURL,
	}

	rzp, err := k.Repo.Settings(ctx, "razorpay_")
	if err != nil {
		return keys, err
	}
	stripe, err := k.Repo.Settings(ctx, "stripe_")
	if err != nil {
		return keys, err
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&keys.RazorpayKeyID, rzp[SettingRazorpayKeyID])
	override(&keys.RazorpayKeySecret, rzp[SettingRazorpayKeySecret])
	override(&keys.RazorpayWebhookSecret, rzp[SettingRazorpayWebhookSecret])
	override(&keys.StripeSecretKey, stripe[SettingStripeSecretKey])
	override(&keys.StripeWebhookSecret, stripe[SettingStripeWebhookSecret])
	override(&keys.StripeSuccessURL, stripe[SettingStripeSuccessURL])
	override(&keys.StripeCancelURL, stripe[SettingStripeCancelURL])
	return keys, nil
}
