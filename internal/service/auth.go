package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
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
	"gorm.io/gorm"
)

const onboardingTTL = 15 * time.Minute

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	TokenTTL  time.Duration
}

func (s *AuthService) accessToken(ctx context.Context, u *models.User, purpose string, ttl time.Duration) (string, error) {
	sub := strconv.FormatUint(uint64(u.ID), 10)
	return tokens.NewAccessToken(s.JWTSecret, sub, u.Role, tenant.ID(ctx), purpose, time.Now().Add(ttl))
}

func (s *AuthService) ttl() time.Duration {
	if s.TokenTTL <= 0 {
		return 24 * time.Hour
	}
	return s.TokenTTL
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", validation("invalid email")
	}
	return email, nil
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name := strings.TrimSpace(req.Name)
	if name == "" || req.Password == "" {
		return nil, validation("name, email and password are required")
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleSeller {
		return nil, validation("role must be user or seller")
	}

	taken, err := s.Repo.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
		IsActive:     true,
		IsApproved:   role == models.RoleUser,
		Phone:        strings.TrimSpace(req.Phone),
		ClientID:     tenant.ID(ctx),
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}
	l.Info("user_registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResponse, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, validation("email and password are required")
	}
	u, err := s.Repo.UserByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPassword(u.PasswordHash, req.Password) {
		l.Warn("login_failed", "reason", "bad password", "user_id", u.ID)
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", ErrForbidden)
	}

	if u.IsFirstLogin {
		tok, err := s.accessToken(ctx, u, tokens.PurposeOnboarding, onboardingTTL)
		if err != nil {
			return nil, err
		}
		return &transport.LoginResponse{RequiresOnboarding: true, TempToken: tok}, nil
	}

	tok, err := s.accessToken(ctx, u, tokens.PurposeAccess, s.ttl())
	if err != nil {
		return nil, err
	}
	l.Info("login_success", "user_id", u.ID)
	return &transport.LoginResponse{AccessToken: tok, User: u}, nil
}

// CompleteOnboarding replaces the provisioned password of a first-login
// account and hands out a regular access token.
func (s *AuthService) CompleteOnboarding(ctx context.Context, userID uint, req transport.OnboardingRequest) (*transport.LoginResponse, error) {
	if len(req.NewPassword) < 6 {
		return nil, validation("new password must be at least 6 characters")
	}
	u, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if !u.IsFirstLogin {
		return nil, validation("onboarding already completed")
	}

	pwHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{"password_hash": pwHash, "is_first_login": false}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if err := s.Repo.UpdateUser(ctx, userID, fields); err != nil {
		return nil, err
	}

	u, err = s.Repo.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	tok, err := s.accessToken(ctx, u, tokens.PurposeAccess, s.ttl())
	if err != nil {
		return nil, err
	}
	return &transport.LoginResponse{AccessToken: tok, User: u}, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

// RequestSellerAccess files a request for a buyer to become a seller.
func (s *AuthService) RequestSellerAccess(ctx context.Context, userID uint, note string) (*models.SellerRequest, error) {
	u, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if u.Role == models.RoleSeller {
		return nil, validation("already a seller")
	}
	if _, err := s.Repo.OpenSellerRequest(ctx, userID); err == nil {
		return nil, validation("a seller request is already pending")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sr := &models.SellerRequest{
		UserID:      userID,
		Status:      models.SellerRequestOpen,
		RequestedAt: time.Now().UTC(),
		Note:        strings.TrimSpace(note),
	}
	if err := s.Repo.CreateSellerRequest(ctx, sr); err != nil {
		return nil, err
	}
	return sr, nil
}
