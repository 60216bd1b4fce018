package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

func (c *Client) CreateRazorpayOrder(_ context.Context, keys Keys, amountPaise int64, receipt string) (*RemoteOrder, error) {
	if keys.RazorpayKeyID == "" || keys.RazorpayKeySecret == "" {
		return nil, fmt.Errorf("%w: razorpay", ErrNotConfigured)
	}

	client := razorpay.NewClient(keys.RazorpayKeyID, keys.RazorpayKeySecret)
	body, err := client.Order.Create(map[string]interface{}{
		"amount":          amountPaise,
		"currency":        "INR",
		"receipt":         receipt,
		"payment_capture": 1,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay order create: response without id")
	}
	out := &RemoteOrder{ID: id, Amount: amountPaise, Currency: "INR"}
	if cur, ok := body["currency"].(string); ok && cur != "" {
		out.Currency = cur
	}
	if amt, ok := body["amount"].(float64); ok {
		out.Amount = int64(amt)
	}
	return out, nil
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRazorpayPayment checks the checkout signature, an HMAC-SHA256 of
// "order_id|payment_id" keyed with the API secret.
func VerifyRazorpayPayment(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}
	expected := sign(secret, []byte(orderID+"|"+paymentID))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyRazorpayWebhook checks X-Razorpay-Signature against the raw body.
func VerifyRazorpayWebhook(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return hmac.Equal([]byte(sign(secret, body)), []byte(signature))
}
