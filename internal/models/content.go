package models

import "time"

const (
	WithdrawalRequested = "requested"
	WithdrawalApproved  = "approved"
	WithdrawalRejected  = "rejected"
	WithdrawalCompleted = "completed"
	WithdrawalCancelled = "cancelled"
)

type WithdrawalRequest struct {
	ID              uint       `gorm:"primaryKey"              json:"id"`
	SellerID        uint       `gorm:"index;not null"          json:"seller_id"`
	Amount          float64    `gorm:"not null"                json:"amount"`
	Status          string     `gorm:"size:20;default:requested;index" json:"status"`
	RequestedAt     time.Time  `json:"requested_at"`
	DueDate         *time.Time `json:"due_date"`
	PayoutID        string     `gorm:"size:100"                json:"payout_id"`
	RejectionReason string     `json:"rejection_reason"`

	Seller   *User           `gorm:"foreignKey:SellerID"     json:"-"`
	Payments []PaymentRecord `gorm:"foreignKey:WithdrawalID" json:"payments,omitempty"`
}

type PaymentRecord struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	WithdrawalID *uint      `gorm:"index"      json:"withdrawal_id"`
	Amount       float64    `json:"amount"`
	Method       string     `gorm:"size:64"    json:"method"`
	Details      string     `json:"details"`
	PaidAt       *time.Time `json:"paid_at"`
	AdminID      *uint      `json:"admin_id"`
}

type SellerPurchaseBill struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SellerID     uint      `gorm:"index"      json:"seller_id"`
	SupplierName string    `gorm:"size:200"   json:"supplier_name"`
	BillNumber   string    `gorm:"size:100"   json:"bill_number"`
	TotalAmount  float64   `json:"total_amount"`
	BillDate     time.Time `json:"bill_date"`
}

type SellerSalesBill struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SellerID    uint      `gorm:"index"      json:"seller_id"`
	OrderID     *uint     `json:"order_id"`
	BillNumber  string    `gorm:"size:100"   json:"bill_number"`
	TotalAmount float64   `json:"total_amount"`
	BillDate    time.Time `json:"bill_date"`
}

const (
	SellerRequestOpen     = "requested"
	SellerRequestApproved = "approved"
	SellerRequestRejected = "rejected"
)

type SellerRequest struct {
	ID          uint      `gorm:"primaryKey"     json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Status      string    `gorm:"size:20;default:requested" json:"status"`
	RequestedAt time.Time `json:"requested_at"`
	Note        string    `json:"note"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type Advertisement struct {
	ID            uint       `gorm:"primaryKey"              json:"id"`
	Title         string     `gorm:"size:200"                json:"title"`
	Text          string     `gorm:"size:500"                json:"text"`
	ImageURL      string     `gorm:"size:255"                json:"image_url"`
	FooterLogoURL string     `gorm:"size:255"                json:"footer_logo_url"`
	TargetURL     string     `gorm:"size:255"                json:"target_url"`
	IsActive      bool       `gorm:"not null"                json:"is_active"`
	Position      string     `gorm:"size:50;default:home_banner;index" json:"position"`
	Priority      int        `gorm:"default:0"               json:"priority"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	TargetRoles   string     `gorm:"size:200"                json:"target_roles"`
	Views         int        `gorm:"default:0"               json:"views"`
	Clicks        int        `gorm:"default:0"               json:"clicks"`
	ProductID     *uint      `json:"product_id"`
}

type SupportTicket struct {
	ID        uint      `gorm:"primaryKey"        json:"id"`
	UserID    *uint     `gorm:"index"             json:"user_id"`
	Email     string    `gorm:"size:120"          json:"email"`
	Subject   string    `gorm:"size:200"          json:"subject"`
	Message   string    `json:"message"`
	Status    string    `gorm:"size:20;default:open" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Setting struct {
	ID        uint      `gorm:"primaryKey"                    json:"id"`
	Key       string    `gorm:"size:200;uniqueIndex;not null" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

type File struct {
	ID             uint      `gorm:"primaryKey"                    json:"id"`
	OwnerID        uint      `gorm:"index;not null"                json:"owner_id"`
	Filename       string    `gorm:"size:255;not null"             json:"filename"`
	StoredFilename string    `gorm:"size:255;uniqueIndex;not null" json:"stored_filename"`
	Filepath       string    `gorm:"size:1024;not null"            json:"-"`
	Status         string    `gorm:"size:32;default:pending"       json:"status"`
	Size           int64     `gorm:"default:0"                     json:"size"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Notification struct {
	ID        uint      `gorm:"primaryKey"     json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Subject   string    `gorm:"size:200"       json:"subject"`
	Message   string    `json:"message"`
	IsRead    bool      `gorm:"default:false"  json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type NewsletterSubscriber struct {
	ID                uint      `gorm:"primaryKey"                    json:"id"`
	Email             string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	IsConfirmed       bool      `gorm:"default:false"                 json:"is_confirmed"`
	ConfirmationToken *string   `gorm:"size:100;uniqueIndex"          json:"-"`
	GDPRConsent       bool      `gorm:"column:gdpr_consent;default:false" json:"gdpr_consent"`
	CreatedAt         time.Time `json:"created_at"`
}

// TenantModels is the schema of a store database, default or per tenant.
func TenantModels() []any {
	return []any{
		&User{}, &Category{}, &Product{}, &Inventory{}, &ProductImage{}, &Review{},
		&Cart{}, &CartItem{}, &Wishlist{}, &WishlistItem{}, &Address{},
		&Order{}, &OrderItem{}, &Coupon{}, &PaymentTransaction{},
		&WithdrawalRequest{}, &PaymentRecord{}, &SellerPurchaseBill{}, &SellerSalesBill{},
		&SellerRequest{}, &Advertisement{}, &SupportTicket{}, &Setting{}, &File{},
		&Notification{}, &NewsletterSubscriber{},
	}
}
