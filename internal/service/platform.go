package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/hash"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/tenant"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultAdminPassword = "TempPassword123!"
	licenseAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	subdomainAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
	recentRevenueLimit   = 100
)

var subdomainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

var clientStatuses = map[string]bool{
	models.ClientActive:    true,
	models.ClientSuspended: true,
	models.ClientBlocked:   true,
}

// PlatformService runs the operator API: tenants, their licenses and the
// platform's own books.
type PlatformService struct {
	Platform *repo.PlatformRepo
	Registry *tenant.Registry

	JWTSecret         []byte
	TokenTTL          time.Duration
	BootstrapEmail    string
	BootstrapPassword string

	Now func() time.Time
}

func (s *PlatformService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Login authenticates an operator. The very first login with the bootstrap
// credentials creates that account.
func (s *PlatformService) Login(ctx context.Context, req transport.SuperAdminLoginRequest) (*transport.SuperAdminLoginResponse, error) {
	l := logging.FromContext(ctx).With("svc", "platform.login")
	invalid := fmt.Errorf("%w: invalid credentials", ErrUnauthorized)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, invalid
	}

	n, err := s.Platform.CountSuperAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 && s.BootstrapEmail != "" && email == strings.ToLower(s.BootstrapEmail) {
		if req.Password != s.BootstrapPassword {
			return nil, invalid
		}
		pwHash, err := hash.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		if err := s.Platform.CreateSuperAdmin(ctx, &models.SuperAdminUser{Email: email, PasswordHash: pwHash}); err != nil {
			return nil, err
		}
		l.Info("superadmin_bootstrapped", "email", email)
	}

	u, err := s.Platform.SuperAdminByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, req.Password) {
		l.Warn("login_failed", "reason", "bad password", "email", email)
		return nil, invalid
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	sub := "superadmin_" + strconv.FormatUint(uint64(u.ID), 10)
	tok, err := tokens.NewAccessToken(s.JWTSecret, sub, models.RoleSuperAdmin, "", tokens.PurposeAccess, time.Now().Add(ttl))
	if err != nil {
		return nil, err
	}
	return &transport.SuperAdminLoginResponse{
		AccessToken: tok,
		User:        transport.SuperAdminUser{Email: u.Email, Role: models.RoleSuperAdmin},
	}, nil
}

func (s *PlatformService) Clients(ctx context.Context) ([]models.Client, error) {
	return s.Platform.ListClients(ctx)
}

func (s *PlatformService) Client(ctx context.Context, id string) (*models.Client, error) {
	c, err := s.Platform.ClientByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "client")
	}
	return c, nil
}

// optional turns a blank string into a NULL so unique indexes ignore it.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.ToLower(strings.TrimSpace(*v))
	if t == "" {
		return nil
	}
	return &t
}

func (s *PlatformService) ensureUnique(ctx context.Context, column, value, exceptID string) error {
	taken, err := s.Platform.ClientFieldTaken(ctx, column, value, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: a client with this %s already exists", ErrConflict, strings.ReplaceAll(column, "_", " "))
	}
	return nil
}

// CreateClient registers a tenant, provisions its store database and seeds
// the store admin, who must change the password on first login. A failed
// provisioning removes the client row again.
func (s *PlatformService) CreateClient(ctx context.Context, req transport.CreateClientRequest) (*models.Client, error) {
	l := logging.FromContext(ctx).With("svc", "platform.client_create")

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, validation("name and email required")
	}

	subdomain := optional(req.Subdomain)
	if subdomain == nil {
		suffix, err := hash.RandomString(subdomainAlphabet, 4)
		if err != nil {
			return nil, err
		}
		gen := slugify(name)
		if gen == "" {
			gen = "store"
		}
		gen += "-" + suffix
		subdomain = &gen
	}
	if !subdomainRe.MatchString(*subdomain) {
		return nil, validation("invalid subdomain %q", *subdomain)
	}
	customDomain := optional(req.CustomDomain)

	if err := s.ensureUnique(ctx, "email", email, ""); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, "subdomain", *subdomain, ""); err != nil {
		return nil, err
	}
	if customDomain != nil {
		if err := s.ensureUnique(ctx, "custom_domain", *customDomain, ""); err != nil {
			return nil, err
		}
	}

	password := strings.TrimSpace(req.AdminPassword)
	if password == "" {
		password = defaultAdminPassword
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	c := &models.Client{
		ClientID:     uuid.NewString(),
		Name:         name,
		Email:        email,
		Status:       models.ClientActive,
		Subdomain:    subdomain,
		CustomDomain: customDomain,
	}
	if err := s.Platform.CreateClient(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: client with this subdomain or email already exists", ErrConflict)
		}
		return nil, err
	}

	if err := s.provision(ctx, c, pwHash); err != nil {
		l.Error("client_provision_failed", "client_id", c.ClientID, "error", err)
		s.Registry.Forget(c.ClientID)
		if derr := s.Platform.DeleteClient(ctx, c.ClientID); derr != nil {
			l.Error("client_rollback_failed", "client_id", c.ClientID, "error", derr)
		}
		return nil, err
	}

	l.Info("client_created", "client_id", c.ClientID, "subdomain", *c.Subdomain)
	return c, nil
}

func (s *PlatformService) provision(ctx context.Context, c *models.Client, pwHash string) error {
	store, err := s.Registry.Open(ctx, c.ClientID)
	if err != nil {
		return err
	}
	return repo.SeedStoreAdmin(ctx, store, c.ClientID, c.Name+" Admin", c.Email, pwHash)
}

func (s *PlatformService) UpdateClient(ctx context.Context, id string, req transport.UpdateClientRequest) (*models.Client, error) {
	if _, err := s.Client(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validation("name cannot be empty")
		}
		fields["name"] = name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			return nil, validation("email cannot be empty")
		}
		if err := s.ensureUnique(ctx, "email", email, id); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if req.Status != nil {
		if !clientStatuses[*req.Status] {
			return nil, validation("status must be active, suspended or blocked")
		}
		fields["status"] = *req.Status
	}
	if req.Subdomain != nil {
		sub := optional(req.Subdomain)
		if sub != nil {
			if !subdomainRe.MatchString(*sub) {
				return nil, validation("invalid subdomain %q", *sub)
			}
			if err := s.ensureUnique(ctx, "subdomain", *sub, id); err != nil {
				return nil, err
			}
		}
		fields["subdomain"] = sub
	}
	if req.CustomDomain != nil {
		cd := optional(req.CustomDomain)
		if cd != nil {
			if err := s.ensureUnique(ctx, "custom_domain", *cd, id); err != nil {
				return nil, err
			}
		}
		fields["custom_domain"] = cd
	}
	if req.ThemeConfig != nil {
		fields["theme_config"] = datatypes.JSONMap(req.ThemeConfig)
	}

	if len(fields) > 0 {
		if err := s.Platform.UpdateClient(ctx, id, fields); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, fmt.Errorf("%w: client with this subdomain or email already exists", ErrConflict)
			}
			return nil, notFound(err, "client")
		}
	}
	return s.Client(ctx, id)
}

// DeleteClient removes the tenant and its licenses and revenue. The store
// file stays on disk for manual archiving.
func (s *PlatformService) DeleteClient(ctx context.Context, id string) error {
	if _, err := s.Client(ctx, id); err != nil {
		return err
	}
	if err := s.Platform.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.Registry.Forget(id)
	logging.FromContext(ctx).Info("client_deleted", "svc", "platform.client_delete", "client_id", id)
	return nil
}

func (s *PlatformService) Licenses(ctx context.Context) ([]models.License, error) {
	return s.Platform.ListLicenses(ctx)
}

func licenseKey() (string, error) {
	parts := make([]string, 4)
	for i := range parts {
		p, err := hash.RandomString(licenseAlphabet, 4)
		if err != nil {
			return "", err
		}
		parts[i] = p
	}
	return strings.Join(parts, "-"), nil
}

func (s *PlatformService) CreateLicense(ctx context.Context, req transport.CreateLicenseRequest) (*models.License, error) {
	if strings.TrimSpace(req.ClientID) == "" {
		return nil, validation("client ID required")
	}
	if _, err := s.Client(ctx, req.ClientID); err != nil {
		return nil, err
	}
	plan := strings.TrimSpace(req.PlanType)
	if plan == "" {
		plan = "basic"
	}
	days := req.DaysValid
	if days == 0 {
		days = 365
	}
	if days < 0 {
		return nil, validation("days_valid must be positive")
	}
	key, err := licenseKey()
	if err != nil {
		return nil, err
	}
	lic := &models.License{
		LicenseID:  uuid.NewString(),
		ClientID:   req.ClientID,
		Key:        key,
		PlanType:   plan,
		ValidUntil: s.now().AddDate(0, 0, days),
		Status:     models.LicenseActive,
	}
	if err := s.Platform.CreateLicense(ctx, lic); err != nil {
		return nil, err
	}
	return lic, nil
}

// ValidateLicense checks a key for an installation and binds the machine hash
// on first use.
func (s *PlatformService) ValidateLicense(ctx context.Context, req transport.ValidateLicenseRequest) (*transport.LicenseValidation, error) {
	key := strings.TrimSpace(req.Key)
	machine := strings.TrimSpace(req.MachineHash)
	if key == "" || machine == "" {
		return nil, validation("missing key or machine_hash")
	}
	lic, err := s.Platform.LicenseByKey(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invalid license key", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if lic.Status != models.LicenseActive {
		return nil, fmt.Errorf("%w: license is inactive", ErrForbidden)
	}
	if s.now().After(lic.ValidUntil) {
		return nil, fmt.Errorf("%w: license expired", ErrForbidden)
	}

	if lic.MachineHash == nil || *lic.MachineHash == "" {
		bound, err := s.Platform.BindLicense(ctx, lic.LicenseID, machine)
		if err != nil {
			return nil, err
		}
		if !bound {
			// Lost a race with another installation; re-read the winner.
			if lic, err = s.Platform.LicenseByKey(ctx, key); err != nil {
				return nil, err
			}
		} else {
			lic.MachineHash = &machine
		}
	}
	if lic.MachineHash == nil || *lic.MachineHash != machine {
		return nil, fmt.Errorf("%w: machine hash mismatch", ErrForbidden)
	}

	return &transport.LicenseValidation{
		Valid:       true,
		PlanType:    lic.PlanType,
		ValidUntil:  lic.ValidUntil,
		MachineHash: machine,
	}, nil
}

func (s *PlatformService) Subscriptions(ctx context.Context) ([]models.Subscription, error) {
	return s.Platform.ListSubscriptions(ctx)
}

func (s *PlatformService) UpsertSubscription(ctx context.Context, req transport.SubscriptionRequest) (*models.Subscription, error) {
	name := strings.TrimSpace(req.PlanName)
	if name == "" {
		return nil, validation("plan_name is required")
	}
	if req.Price < 0 {
		return nil, validation("price must be >= 0")
	}
	sub := &models.Subscription{PlanName: name, Price: req.Price, Features: datatypes.JSONMap(req.Features)}
	if err := s.Platform.UpsertSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *PlatformService) RecordRevenue(ctx context.Context, req transport.RevenueRequest) (*models.Revenue, error) {
	if req.Amount <= 0 {
		return nil, validation("amount must be positive")
	}
	if _, err := s.Client(ctx, req.ClientID); err != nil {
		return nil, err
	}
	rev := &models.Revenue{
		RevenueID:       uuid.NewString(),
		ClientID:        req.ClientID,
		Amount:          req.Amount,
		TransactionDate: s.now(),
	}
	if req.TransactionDate != nil {
		rev.TransactionDate = req.TransactionDate.UTC()
	}
	if err := s.Platform.CreateRevenue(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

func (s *PlatformService) RevenueSummary(ctx context.Context) (*transport.RevenueSummary, error) {
	now := s.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var out transport.RevenueSummary
	var err error
	if out.Total, err = s.Platform.RevenueSince(ctx, time.Time{}); err != nil {
		return nil, err
	}
	if out.Monthly, err = s.Platform.RevenueSince(ctx, month); err != nil {
		return nil, err
	}
	if out.Today, err = s.Platform.RevenueSince(ctx, day); err != nil {
		return nil, err
	}
	if out.Recent, err = s.Platform.RecentRevenue(ctx, recentRevenueLimit); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *PlatformService) Config(ctx context.Context) ([]models.SystemConfig, error) {
	return s.Platform.ListConfig(ctx)
}

func (s *PlatformService) UpsertConfig(ctx context.Context, req transport.ConfigRequest) (*models.SystemConfig, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" {
		return nil, validation("key required")
	}
	c := &models.SystemConfig{ConfigKey: key, ConfigValue: req.Value, Description: req.Description}
	if err := s.Platform.UpsertConfig(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PlatformService) Dashboard(ctx context.Context) (*transport.PlatformDashboard, error) {
	st, err := s.Platform.Stats(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.Platform.RevenueSince(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	return &transport.PlatformDashboard{
		TotalClients:   st.Clients,
		ActiveClients:  st.ActiveClients,
		TotalLicenses:  st.Licenses,
		ActiveLicenses: st.ActiveLicenses,
		TotalRevenue:   total,
	}, nil
}
