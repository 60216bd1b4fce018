package transport

import "github.com/Skotchmaster/marketplace/internal/models"

type AddToCartRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CouponCodeRequest struct {
	Code string `json:"code"`
}

type CartLine struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Price     float64         `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal float64         `json:"line_total"`
	Stock     int             `json:"stock"`
	Product   *models.Product `json:"product,omitempty"`
}

type CartView struct {
	ID         uint       `json:"id"`
	Items      []CartLine `json:"items"`
	Total      float64    `json:"total"`
	Discount   float64    `json:"discount"`
	FinalTotal float64    `json:"final_total"`
	CouponCode *string    `json:"coupon_code"`
}

type WishlistRequest struct {
	ProductID uint `json:"product_id"`
}

type AddressRequest struct {
	AddressLine1 string `json:"address_line_1"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	IsDefault    bool   `json:"is_default"`
}

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method"`
	AddressID     *uint  `json:"address_id"`
}

// CheckoutResponse carries what the client needs to finish paying. Gateway
// specific fields are empty for the other gateways.
type CheckoutResponse struct {
	OrderID           uint    `json:"order_id"`
	Message           string  `json:"message,omitempty"`
	PG                string  `json:"pg"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency,omitempty"`
	RazorpayOrderID   string  `json:"razorpay_order_id,omitempty"`
	RazorpayKey       string  `json:"razorpay_key,omitempty"`
	MethodPreference  *string `json:"method_preference"`
	CheckoutSessionID string  `json:"checkout_session_id,omitempty"`
	CheckoutURL       string  `json:"checkout_url,omitempty"`
}

type OrderStatusRequest struct {
	Status       string  `json:"status"`
	DeliveryInfo *string `json:"delivery_info"`
}

type TrackResponse struct {
	Status       string `json:"status"`
	DeliveryInfo string `json:"delivery_info"`
}

type InitiatePaymentRequest struct {
	OrderID uint `json:"order_id"`
}

type RazorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type RazorpayVerifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

type PaymentFailureRequest struct {
	OrderID   uint   `json:"order_id"`
	Reason    string `json:"reason"`
	PaymentID string `json:"payment_id"`
}

type PaymentStatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status"`
	OrderID uint   `json:"order_id,omitempty"`
}

type CreateCouponRequest struct {
	Code              string   `json:"code"`
	DiscountPercent   float64  `json:"discount_percent"`
	MaxDiscountAmount *float64 `json:"max_discount_amount"`
	MinOrderValue     float64  `json:"min_order_value"`
	ExpiryDate        string   `json:"expiry_date"`
	UsageLimit        int      `json:"usage_limit"`
}

type ValidateCouponRequest struct {
	Code      string  `json:"code"`
	CartTotal float64 `json:"cart_total"`
}

type ValidateCouponResponse struct {
	Valid      bool    `json:"valid"`
	Code       string  `json:"code"`
	Discount   float64 `json:"discount"`
	FinalTotal float64 `json:"final_total"`
}
