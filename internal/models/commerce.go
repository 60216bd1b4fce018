package models

import "time"

type Cart struct {
	ID         uint       `gorm:"primaryKey"          json:"id"`
	UserID     uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	CouponCode *string    `gorm:"size:50"             json:"coupon_code"`
	Items      []CartItem `gorm:"foreignKey:CartID"   json:"items"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"     json:"id"`
	CartID    uint `gorm:"index;not null" json:"cart_id"`
	ProductID uint `gorm:"not null"       json:"product_id"`
	Quantity  int  `gorm:"default:1"      json:"quantity"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

type Wishlist struct {
	ID     uint           `gorm:"primaryKey"            json:"id"`
	UserID uint           `gorm:"uniqueIndex;not null"  json:"user_id"`
	Items  []WishlistItem `gorm:"foreignKey:WishlistID" json:"items"`
}

type WishlistItem struct {
	ID         uint `gorm:"primaryKey"                                      json:"id"`
	WishlistID uint `gorm:"uniqueIndex:idx_wishlist_product;not null" json:"wishlist_id"`
	ProductID  uint `gorm:"uniqueIndex:idx_wishlist_product;not null" json:"product_id"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

type Address struct {
	ID           uint      `gorm:"primaryKey"            json:"id"`
	UserID       uint      `gorm:"index;not null"        json:"user_id"`
	AddressLine1 string    `gorm:"column:address_line_1;size:255;not null" json:"address_line_1"`
	City         string    `gorm:"size:100;not null"     json:"city"`
	State        string    `gorm:"size:100;not null"     json:"state"`
	PostalCode   string    `gorm:"size:20;not null"      json:"postal_code"`
	Country      string    `gorm:"size:100;default:India" json:"country"`
	IsDefault    bool      `gorm:"default:false"         json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	OrderPending        = "pending"
	OrderPendingPayment = "pending_payment"
	OrderPaid           = "paid"
	OrderShipped        = "shipped"
	OrderDelivered      = "delivered"
	OrderCancelled      = "cancelled"
	OrderPaymentFailed  = "payment_failed"

	PaymentUnpaid    = "unpaid"
	PaymentPaid      = "paid"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
	PaymentCancelled = "cancelled"
)

type Order struct {
	ID               uint      `gorm:"primaryKey"                json:"id"`
	UserID           uint      `gorm:"index;not null"            json:"user_id"`
	SubtotalAmount   float64   `gorm:"default:0"                 json:"subtotal_amount"`
	DiscountAmount   float64   `gorm:"default:0"                 json:"discount_amount"`
	TotalAmount      float64   `gorm:"default:0"                 json:"total_amount"`
	CouponCode       string    `gorm:"size:50"                   json:"coupon_code"`
	Status           string    `gorm:"size:20;default:pending;index" json:"status"`
	PaymentStatus    string    `gorm:"size:20;default:unpaid"    json:"payment_status"`
	PaymentGateway   string    `gorm:"size:20"                   json:"payment_gateway"`
	PaymentReference string    `gorm:"size:120;index"            json:"payment_reference"`
	InvoiceHTML      string    `gorm:"column:invoice_html"       json:"-"`
	DeliveryInfo     string    `json:"delivery_info"`
	CreatedAt        time.Time `gorm:"index"                     json:"created_at"`

	User  *User       `gorm:"foreignKey:UserID"  json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey"     json:"id"`
	OrderID   uint    `gorm:"index;not null" json:"order_id"`
	ProductID uint    `gorm:"index;not null" json:"product_id"`
	SellerID  uint    `gorm:"index;not null" json:"seller_id"`
	Quantity  int     `gorm:"not null"       json:"quantity"`
	Price     float64 `gorm:"not null"       json:"price"`
	Subtotal  float64 `gorm:"not null"       json:"subtotal"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Seller  *User    `gorm:"foreignKey:SellerID"  json:"-"`
}

const (
	CouponAdmin  = "admin"
	CouponSeller = "seller"
)

type Coupon struct {
	ID                uint       `gorm:"primaryKey"                   json:"id"`
	Code              string     `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Type              string     `gorm:"size:20;default:admin"        json:"type"`
	DiscountPercent   float64    `gorm:"not null"                     json:"discount_percent"`
	MaxDiscountAmount *float64   `json:"max_discount_amount"`
	MinOrderValue     float64    `gorm:"default:0"                    json:"min_order_value"`
	ExpiryDate        *time.Time `json:"expiry_date"`
	UsageLimit        int        `gorm:"default:0"                    json:"usage_limit"`
	UsedCount         int        `gorm:"default:0"                    json:"used_count"`
	SellerID          *uint      `gorm:"index"                        json:"seller_id"`
	IsActive          bool       `gorm:"not null"                     json:"is_active"`
	CreatedAt         time.Time  `json:"created_at"`
}

const (
	TxnSuccess = "success"
	TxnFailure = "failure"
)

type PaymentTransaction struct {
	ID             uint      `gorm:"primaryKey"        json:"id"`
	OrderID        uint      `gorm:"index;not null"    json:"order_id"`
	Amount         float64   `gorm:"not null"          json:"amount"`
	Currency       string    `gorm:"size:10;default:INR" json:"currency"`
	PaymentStatus  string    `gorm:"size:20;not null"  json:"payment_status"`
	PaymentGateway string    `gorm:"size:20"           json:"payment_gateway"`
	TransactionID  string    `gorm:"size:120"          json:"transaction_id"`
	FailureReason  string    `json:"failure_reason"`
	CreatedAt      time.Time `json:"created_at"`
}
