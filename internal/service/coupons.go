package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"gorm.io/gorm"
)

// couponUsable checks a coupon against an order total at now.
func couponUsable(c *models.Coupon, total float64, now time.Time) error {
	switch {
	case !c.IsActive:
		return validation("coupon is not active")
	case c.ExpiryDate != nil && c.ExpiryDate.Before(now):
		return validation("coupon has expired")
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return validation("coupon usage limit reached")
	case c.MinOrderValue > 0 && total < c.MinOrderValue:
		return validation("minimum order value is %.2f", c.MinOrderValue)
	}
	return nil
}

// couponDiscount is pct of the whole total for store coupons, or of the
// issuing seller's share for seller coupons, capped at max_discount_amount.
func couponDiscount(c *models.Coupon, total float64, sellerTotals map[uint]float64) float64 {
	base := total
	if c.Type == models.CouponSeller {
		if c.SellerID == nil {
			return 0
		}
		base = sellerTotals[*c.SellerID]
	}
	discount := base * c.DiscountPercent / 100
	if c.MaxDiscountAmount != nil && *c.MaxDiscountAmount > 0 && discount > *c.MaxDiscountAmount {
		discount = *c.MaxDiscountAmount
	}
	if discount > total {
		discount = total
	}
	if discount < 0 {
		discount = 0
	}
	return util.RoundMoney(discount)
}

type CouponService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (s *CouponService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *CouponService) Create(ctx context.Context, actor Actor, req transport.CreateCouponRequest) (*models.Coupon, error) {
	l := logging.FromContext(ctx).With("svc", "coupon.create")

	if !actor.IsAdmin() && !actor.IsSeller() {
		return nil, fmt.Errorf("%w: only admins and sellers can create coupons", ErrForbidden)
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, validation("code is required")
	}
	if req.DiscountPercent <= 0 || req.DiscountPercent > 100 {
		return nil, validation("discount_percent must be between 0 and 100")
	}
	if req.MaxDiscountAmount != nil && *req.MaxDiscountAmount < 0 {
		return nil, validation("max_discount_amount must be >= 0")
	}
	if req.UsageLimit < 0 || req.MinOrderValue < 0 {
		return nil, validation("usage_limit and min_order_value must be >= 0")
	}

	c := &models.Coupon{
		Code:              code,
		Type:              models.CouponAdmin,
		DiscountPercent:   req.DiscountPercent,
		MaxDiscountAmount: req.MaxDiscountAmount,
		MinOrderValue:     req.MinOrderValue,
		UsageLimit:        req.UsageLimit,
		IsActive:          true,
	}
	if actor.IsSeller() {
		id := actor.ID
		c.Type = models.CouponSeller
		c.SellerID = &id
	}
	if req.ExpiryDate != "" {
		exp, err := parseDate(req.ExpiryDate)
		if err != nil {
			return nil, validation("invalid expiry_date")
		}
		c.ExpiryDate = &exp
	}

	taken, err := s.Repo.CouponCodeTaken(ctx, code)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: coupon code already exists", ErrConflict)
	}
	if err := s.Repo.CreateCoupon(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: coupon code already exists", ErrConflict)
		}
		return nil, err
	}
	l.Info("coupon_created", "code", c.Code, "type", c.Type)
	return c, nil
}

func (s *CouponService) List(ctx context.Context, actor Actor) ([]models.Coupon, error) {
	if actor.IsAdmin() {
		return s.Repo.ListCoupons(ctx, nil)
	}
	if actor.IsSeller() {
		id := actor.ID
		return s.Repo.ListCoupons(ctx, &id)
	}
	return nil, fmt.Errorf("%w: coupons are managed by admins and sellers", ErrForbidden)
}

func (s *CouponService) Delete(ctx context.Context, actor Actor, id uint) error {
	c, err := s.Repo.CouponByID(ctx, id)
	if err != nil {
		return notFound(err, "coupon")
	}
	if !actor.IsAdmin() {
		if !actor.IsSeller() || c.SellerID == nil || *c.SellerID != actor.ID {
			return fmt.Errorf("%w: not your coupon", ErrForbidden)
		}
	}
	return notFound(s.Repo.DeleteCoupon(ctx, id), "coupon")
}

// Validate previews the discount for a cart total without consuming the
// coupon.
func (s *CouponService) Validate(ctx context.Context, req transport.ValidateCouponRequest) (*transport.ValidateCouponResponse, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, validation("code is required")
	}
	if req.CartTotal < 0 {
		return nil, validation("cart_total must be >= 0")
	}
	c, err := s.Repo.CouponByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validation("invalid coupon code")
		}
		return nil, err
	}
	if err := couponUsable(c, req.CartTotal, s.now()); err != nil {
		return nil, err
	}

	sellerTotals := map[uint]float64{}
	if c.SellerID != nil {
		sellerTotals[*c.SellerID] = req.CartTotal
	}
	discount := couponDiscount(c, req.CartTotal, sellerTotals)
	return &transport.ValidateCouponResponse{
		Valid:      true,
		Code:       c.Code,
		Discount:   discount,
		FinalTotal: util.RoundMoney(max(0, req.CartTotal-discount)),
	}, nil
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
