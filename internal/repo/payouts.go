package repo

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/models"
)

// WithdrawnTotal sums the seller's withdrawals that still count against the
// balance: everything except rejected and cancelled requests.
func (r *GormRepo) WithdrawnTotal(ctx context.Context, sellerID uint) (float64, error) {
	var out sumRow
	err := r.conn(ctx).Model(&models.WithdrawalRequest{}).
		Where("seller_id = ? AND status NOT IN ?", sellerID, []string{models.WithdrawalRejected, models.WithdrawalCancelled}).
		Select("COALESCE(SUM(amount), 0) AS total").Scan(&out).Error
	return out.Total, err
}

func (r *GormRepo) CreateWithdrawal(ctx context.Context, w *models.WithdrawalRequest) error {
	return r.conn(ctx).Omit("Seller", "Payments").Create(w).Error
}

func (r *GormRepo) WithdrawalByID(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.conn(ctx).Preload("Payments").First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormRepo) LockWithdrawal(ctx context.Context, id uint) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.conn(ctx).Clauses(forUpdate()).First(&w, id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormRepo) WithdrawalsBySeller(ctx context.Context, sellerID uint) ([]models.WithdrawalRequest, error) {
	out := []models.WithdrawalRequest{}
	err := r.conn(ctx).Preload("Payments").
		Where("seller_id = ?", sellerID).
		Order("requested_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) ListWithdrawals(ctx context.Context, status string) ([]models.WithdrawalRequest, error) {
	q := r.conn(ctx).Preload("Payments").Preload("Seller")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	out := []models.WithdrawalRequest{}
	err := q.Order("requested_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) CountWithdrawals(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&models.WithdrawalRequest{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *GormRepo) UpdateWithdrawal(ctx context.Context, id uint, fields map[string]any) error {
	res := r.conn(ctx).Model(&models.WithdrawalRequest{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *GormRepo) CreatePaymentRecord(ctx context.Context, p *models.PaymentRecord) error {
	return r.conn(ctx).Create(p).Error
}

func (r *GormRepo) CreatePurchaseBill(ctx context.Context, b *models.SellerPurchaseBill) error {
	return r.conn(ctx).Create(b).Error
}

func (r *GormRepo) PurchaseBills(ctx context.Context, sellerID uint) ([]models.SellerPurchaseBill, error) {
	out := []models.SellerPurchaseBill{}
	err := r.conn(ctx).Where("seller_id = ?", sellerID).Order("bill_date DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) CreateSalesBill(ctx context.Context, b *models.SellerSalesBill) error {
	return r.conn(ctx).Create(b).Error
}

func (r *GormRepo) SalesBills(ctx context.Context, sellerID uint) ([]models.SellerSalesBill, error) {
	out := []models.SellerSalesBill{}
	err := r.conn(ctx).Where("seller_id = ?", sellerID).Order("bill_date DESC").Find(&out).Error
	return out, err
}
