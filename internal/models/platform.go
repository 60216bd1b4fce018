package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ClientActive    = "active"
	ClientSuspended = "suspended"
	ClientBlocked   = "blocked"

	LicenseActive = "active"

	RoleSuperAdmin = "superadmin"
)

type SuperAdminUser struct {
	ID           uint      `gorm:"primaryKey"                    json:"id"`
	Email        string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null"             json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (SuperAdminUser) TableName() string { return "super_admin_users" }

type Client struct {
	ClientID     string            `gorm:"primaryKey;size:36"    json:"client_id"`
	Name         string            `gorm:"size:120;not null"     json:"name"`
	Email        string            `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Status       string            `gorm:"size:20;default:active;not null" json:"status"`
	Subdomain    *string           `gorm:"size:100;uniqueIndex"  json:"subdomain"`
	CustomDomain *string           `gorm:"size:200;uniqueIndex"  json:"custom_domain"`
	ThemeConfig  datatypes.JSONMap `json:"theme_config"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	Licenses []License `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`
	Revenue  []Revenue `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`

	LicenseCount int64 `gorm:"-" json:"license_count"`
}

type License struct {
	LicenseID   string    `gorm:"primaryKey;size:36"            json:"license_id"`
	ClientID    string    `gorm:"size:36;index;not null"        json:"client_id"`
	Key         string    `gorm:"size:100;uniqueIndex;not null" json:"key"`
	MachineHash *string   `gorm:"size:255"                      json:"machine_hash"`
	PlanType    string    `gorm:"size:50;default:basic;not null" json:"plan_type"`
	ValidUntil  time.Time `gorm:"not null"                      json:"valid_until"`
	Status      string    `gorm:"size:20;default:active;not null" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Client *Client `gorm:"foreignKey:ClientID" json:"-"`
}

type Subscription struct {
	SubscriptionID uint              `gorm:"primaryKey"                   json:"subscription_id"`
	PlanName       string            `gorm:"size:50;uniqueIndex;not null" json:"plan_name"`
	Price          float64           `gorm:"not null"                     json:"price"`
	Features       datatypes.JSONMap `json:"features"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type Revenue struct {
	RevenueID       string    `gorm:"primaryKey;size:36"     json:"revenue_id"`
	ClientID        string    `gorm:"size:36;index;not null" json:"client_id"`
	Amount          float64   `gorm:"not null"               json:"amount"`
	TransactionDate time.Time `gorm:"index;not null"         json:"transaction_date"`
	CreatedAt       time.Time `json:"created_at"`

	Client *Client `gorm:"foreignKey:ClientID" json:"-"`
}

func (Revenue) TableName() string { return "revenue" }

type SystemConfig struct {
	ConfigKey   string    `gorm:"primaryKey;size:100" json:"key"`
	ConfigValue string    `json:"value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (SystemConfig) TableName() string { return "system_config" }

func PlatformModels() []any {
	return []any{&SuperAdminUser{}, &Client{}, &License{}, &Subscription{}, &Revenue{}, &SystemConfig{}}
}
