package transport

import "github.com/Skotchmaster/marketplace/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken        string       `json:"access_token,omitempty"`
	RequiresOnboarding bool         `json:"requires_onboarding,omitempty"`
	TempToken          string       `json:"temp_token,omitempty"`
	User               *models.User `json:"user,omitempty"`
}

type OnboardingRequest struct {
	NewPassword string  `json:"new_password"`
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
}

type SellerAccessRequest struct {
	Note string `json:"note"`
}

type BankDetailsRequest struct {
	BankAccountNumber     *string `json:"bank_account_number"`
	BankIFSC              *string `json:"bank_ifsc"`
	BankBeneficiaryName   *string `json:"bank_beneficiary_name"`
	UPIID                 *string `json:"upi_id"`
	PreferredPayoutMethod *string `json:"preferred_payout_method"`
	GSTNumber             *string `json:"gst_number"`
}
