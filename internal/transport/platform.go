package transport

import (
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type CreateClientRequest struct {
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Subdomain     *string `json:"subdomain"`
	CustomDomain  *string `json:"custom_domain"`
	AdminPassword string  `json:"admin_password"`
}

type UpdateClientRequest struct {
	Name         *string        `json:"name"`
	Email        *string        `json:"email"`
	Status       *string        `json:"status"`
	Subdomain    *string        `json:"subdomain"`
	CustomDomain *string        `json:"custom_domain"`
	ThemeConfig  map[string]any `json:"theme_config"`
}

type CreateLicenseRequest struct {
	ClientID  string `json:"client_id"`
	PlanType  string `json:"plan_type"`
	DaysValid int    `json:"days_valid"`
}

type ValidateLicenseRequest struct {
	Key         string `json:"key"`
	MachineHash string `json:"machine_hash"`
}

type LicenseValidation struct {
	Valid       bool      `json:"valid"`
	PlanType    string    `json:"plan_type"`
	ValidUntil  time.Time `json:"valid_until"`
	MachineHash string    `json:"machine_hash"`
}

type SubscriptionRequest struct {
	PlanName string         `json:"plan_name"`
	Price    float64        `json:"price"`
	Features map[string]any `json:"features"`
}

type RevenueRequest struct {
	ClientID        string     `json:"client_id"`
	Amount          float64    `json:"amount"`
	TransactionDate *time.Time `json:"transaction_date"`
}

type RevenueSummary struct {
	Total   float64          `json:"total_revenue"`
	Monthly float64          `json:"monthly_revenue"`
	Today   float64          `json:"today_revenue"`
	Recent  []models.Revenue `json:"recent"`
}

type ConfigRequest struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

type SuperAdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SuperAdminUser struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type SuperAdminLoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        SuperAdminUser `json:"user"`
}

type PlatformDashboard struct {
	TotalClients   int64   `json:"total_clients"`
	ActiveClients  int64   `json:"active_clients"`
	TotalLicenses  int64   `json:"total_licenses"`
	ActiveLicenses int64   `json:"active_licenses"`
	TotalRevenue   float64 `json:"total_revenue"`
}
