package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
	"gorm.io/gorm"
)

func (r *GormRepo) CouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	err := r.conn(ctx).Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CouponByID(ctx context.Context, id uint) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.conn(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CouponCodeTaken(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.conn(ctx).Model(&models.Coupon{}).Where("code = ?", code).Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) CreateCoupon(ctx context.Context, c *models.Coupon) error {
	return r.conn(ctx).Create(c).Error
}

// ListCoupons returns every coupon, or only the seller's when sellerID is set.
func (r *GormRepo) ListCoupons(ctx context.Context, sellerID *uint) ([]models.Coupon, error) {
	q := r.conn(ctx).Model(&models.Coupon{})
	if sellerID != nil {
		q = q.Where("seller_id = ?", *sellerID)
	}
	out := []models.Coupon{}
	err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) DeleteCoupon(ctx context.Context, id uint) error {
	res := r.conn(ctx).Delete(&models.Coupon{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

// UseCoupon bumps used_count unless the usage limit has been reached in the
// meantime; it reports whether the coupon was consumed.
func (r *GormRepo) UseCoupon(ctx context.Context, id uint) (bool, error) {
	res := r.conn(ctx).Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	return res.RowsAffected > 0, res.Error
}
