package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser     = "user"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
	RoleDelivery = "delivery"
)

type User struct {
	ID           uint      `gorm:"primaryKey"                 json:"id"`
	Name         string    `gorm:"size:120;not null"          json:"name"`
	Email        string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null"          json:"-"`
	Role         string    `gorm:"size:20;default:user;index" json:"role"`
	IsActive     bool      `gorm:"default:true"               json:"is_active"`
	IsApproved   bool      `gorm:"default:false"              json:"is_approved"`
	Phone        string    `gorm:"size:20"                    json:"phone"`
	CreatedAt    time.Time `json:"created_at"`

	ProfilePhotoID *uint `json:"profile_photo_id"`

	BankAccountNumber     string `gorm:"size:50"                json:"bank_account_number"`
	BankIFSC              string `gorm:"size:20"                json:"bank_ifsc"`
	BankBeneficiaryName   string `gorm:"size:100"               json:"bank_beneficiary_name"`
	UPIID                 string `gorm:"column:upi_id;size:50"  json:"upi_id"`
	PreferredPayoutMethod string `gorm:"size:20;default:bank"   json:"preferred_payout_method"`
	GSTNumber             string `gorm:"size:20"                json:"gst_number"`

	ClientID     string            `gorm:"size:36"       json:"client_id"`
	IsFirstLogin bool              `gorm:"default:false" json:"is_first_login"`
	ShopDetails  datatypes.JSONMap `json:"shop_details"`
}

type Category struct {
	ID          uint   `gorm:"primaryKey"                    json:"id"`
	Name        string `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Description string `json:"description"`
	Image       string `gorm:"size:255"                      json:"image"`
	SellerID    *uint  `json:"seller_id"`
	IsApproved  bool   `gorm:"default:false"                 json:"is_approved"`
}

const (
	ProductPending  = "pending"
	ProductApproved = "approved"
	ProductRejected = "rejected"
)

type Product struct {
	ID             uint              `gorm:"primaryKey"                json:"id"`
	SellerID       uint              `gorm:"index;not null"            json:"seller_id"`
	CategoryID     uint              `gorm:"index;not null"            json:"category_id"`
	Name           string            `gorm:"size:200;not null"         json:"name"`
	Description    string            `json:"description"`
	Price          float64           `gorm:"not null"                  json:"price"`
	MRP            float64           `gorm:"column:mrp;default:0"      json:"mrp"`
	Status         string            `gorm:"size:20;default:pending;index" json:"status"`
	SKU            string            `gorm:"column:sku;size:50"        json:"sku"`
	AverageRating  float64           `gorm:"default:0"                 json:"average_rating"`
	ReviewCount    int               `gorm:"default:0"                 json:"review_count"`
	Brand          string            `gorm:"size:100;index"            json:"brand"`
	Specifications datatypes.JSONMap `json:"specifications"`
	CreatedAt      time.Time         `json:"created_at"`

	Category  *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Inventory *Inventory     `gorm:"foreignKey:ProductID"  json:"inventory,omitempty"`
	Images    []ProductImage `gorm:"foreignKey:ProductID"  json:"images,omitempty"`
}

type Inventory struct {
	ID                uint `gorm:"primaryKey"          json:"id"`
	ProductID         uint `gorm:"uniqueIndex;not null" json:"product_id"`
	StockQty          int  `gorm:"default:0"           json:"stock_qty"`
	LowStockThreshold int  `gorm:"default:5"           json:"low_stock_threshold"`
}

type ProductImage struct {
	ID        uint `gorm:"primaryKey"     json:"id"`
	ProductID uint `gorm:"index;not null" json:"product_id"`
	FileID    uint `gorm:"not null"       json:"file_id"`
	Position  int  `gorm:"default:0"      json:"position"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey"                                 json:"id"`
	ProductID uint      `gorm:"uniqueIndex:idx_review_product_user;not null" json:"product_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_review_product_user;not null" json:"user_id"`
	Rating    int       `gorm:"not null"                                   json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
