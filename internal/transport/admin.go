package transport

import (
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type SellerDashboard struct {
	ProductCount  int64   `json:"product_count"`
	OrderCount    int64   `json:"order_count"`
	TotalSales    float64 `json:"total_sales"`
	LowStockCount int64   `json:"low_stock_count"`
}

type WithdrawalRequestBody struct {
	Amount         *float64 `json:"amount"`
	PaymentMethod  string   `json:"payment_method"`
	PaymentDetails string   `json:"payment_details"`
}

type WithdrawalCreated struct {
	ID      uint      `json:"id"`
	Status  string    `json:"status"`
	Amount  float64   `json:"amount"`
	DueDate time.Time `json:"due_date"`
}

type WithdrawalSummary struct {
	Balance               float64                    `json:"balance"`
	TotalWithdrawn        float64                    `json:"total_withdrawn"`
	BankDetailsConfigured bool                       `json:"bank_details_configured"`
	HasBank               bool                       `json:"has_bank"`
	HasUPI                bool                       `json:"has_upi"`
	Withdrawals           []models.WithdrawalRequest `json:"withdrawals"`
}

type SellerTransaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
}

type PurchaseBillRequest struct {
	SupplierName string  `json:"supplier_name"`
	BillNumber   string  `json:"bill_number"`
	TotalAmount  float64 `json:"total_amount"`
	BillDate     string  `json:"bill_date"`
}

type DashboardQuery struct {
	StartDate string
	EndDate   string
	Interval  string
}

type ChartPoint struct {
	Period string  `json:"period"`
	Orders int     `json:"orders"`
	Sales  float64 `json:"sales"`
}

type AdminDashboard struct {
	TotalUsers         int64        `json:"total_users"`
	TotalSellers       int64        `json:"total_sellers"`
	TotalOrders        int64        `json:"total_orders"`
	TotalSales         float64      `json:"total_sales"`
	PendingWithdrawals int64        `json:"pending_withdrawals"`
	Chart              []ChartPoint `json:"chart"`
}

type UpdateUserRequest struct {
	IsActive *bool   `json:"is_active"`
	Role     *string `json:"role"`
}

type ApproveRequest struct {
	Approved *bool `json:"approved"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type CompleteWithdrawalRequest struct {
	Details string `json:"details"`
}

type AdminOrderRow struct {
	models.Order
	CustomerName string   `json:"customer_name"`
	SellerNames  []string `json:"seller_names"`
}

type SystemAlert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

type SendNotificationRequest struct {
	Target  string `json:"target"`
	UserID  uint   `json:"user_id"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type AdRequest struct {
	Title         string     `json:"title"`
	Text          string     `json:"text"`
	ImageURL      string     `json:"image_url"`
	FooterLogoURL string     `json:"footer_logo_url"`
	TargetURL     string     `json:"target_url"`
	IsActive      *bool      `json:"is_active"`
	Position      string     `json:"position"`
	Priority      int        `json:"priority"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	TargetRoles   string     `json:"target_roles"`
	ProductID     *uint      `json:"product_id"`
}

type TicketRequest struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type NewsletterRequest struct {
	Email       string `json:"email"`
	GDPRConsent bool   `json:"gdpr_consent"`
}
