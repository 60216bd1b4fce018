package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"gorm.io/gorm/clause"
)

// CreateOrder inserts the order header; items are added with AddOrderItem.
func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.conn(ctx).Omit(clause.Associations).Create(o).Error
}

func (r *GormRepo) AddOrderItem(ctx context.Context, it *models.OrderItem) error {
	return r.conn(ctx).Omit(clause.Associations).Create(it).Error
}

func (r *GormRepo) UpdateOrder(ctx context.Context, id uint, fields map[string]any) error {
	res := r.conn(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *GormRepo) OrderByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.conn(ctx).Preload("Items").Preload("Items.Product").First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// LockOrder reads the order header under a row lock.
func (r *GormRepo) LockOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.conn(ctx).Clauses(forUpdate()).First(&o, id).Error; err != nil {
		return nil, err
	}
	if err := r.conn(ctx).Where("order_id = ?", id).Find(&o.Items).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) OrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	var o models.Order
	if err := r.conn(ctx).Where("payment_reference = ?", reference).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) OrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	out := []models.Order{}
	err := r.conn(ctx).Preload("Items").Preload("Items.Product").
		Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) OrdersForSeller(ctx context.Context, sellerID uint) ([]models.Order, error) {
	out := []models.Order{}
	err := r.conn(ctx).
		Preload("User").
		Preload("Items", "seller_id = ?", sellerID).Preload("Items.Product").
		Where("id IN (?)", r.conn(ctx).Model(&models.OrderItem{}).Select("order_id").Where("seller_id = ?", sellerID)).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	return out, err
}

func (r *GormRepo) SellerOwnsOrderItem(ctx context.Context, orderID, sellerID uint) (bool, error) {
	var n int64
	err := r.conn(ctx).Model(&models.OrderItem{}).
		Where("order_id = ? AND seller_id = ?", orderID, sellerID).Count(&n).Error
	return n > 0, err
}

type OrderFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	SKU    string
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := r.conn(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("orders.created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("orders.created_at < ?", *f.To)
	}
	if f.SKU != "" {
		sub := r.conn(ctx).Model(&models.OrderItem{}).Select("order_items.order_id").
			Joins("JOIN products ON products.id = order_items.product_id").
			Where("products.sku = ?", f.SKU)
		q = q.Where("orders.id IN (?)", sub)
	}
	out := []models.Order{}
	err := q.Preload("User").Preload("Items").Preload("Items.Product").Preload("Items.Seller").
		Order("orders.created_at DESC").Order("orders.id DESC").Find(&out).Error
	return out, err
}

func (r *GormRepo) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

// SalesTotal sums total_amount over orders that were not cancelled or failed.
func (r *GormRepo) SalesTotal(ctx context.Context) (float64, error) {
	var out sumRow
	err := r.conn(ctx).Model(&models.Order{}).
		Where("status NOT IN ?", []string{models.OrderCancelled, models.OrderPaymentFailed}).
		Select("COALESCE(SUM(total_amount), 0) AS total").Scan(&out).Error
	return out.Total, err
}

// OrdersBetween returns the headers created in [from, to) for chart data.
func (r *GormRepo) OrdersBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	out := []models.Order{}
	err := r.conn(ctx).Omit("invoice_html").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").Find(&out).Error
	return out, err
}

func (r *GormRepo) CreatePaymentTransaction(ctx context.Context, t *models.PaymentTransaction) error {
	return r.conn(ctx).Create(t).Error
}

func (r *GormRepo) PaymentTransactions(ctx context.Context, orderID uint) ([]models.PaymentTransaction, error) {
	out := []models.PaymentTransaction{}
	err := r.conn(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&out).Error
	return out, err
}

// SellerSales returns the seller's order lines, newest first.
func (r *GormRepo) SellerSales(ctx context.Context, sellerID uint) ([]SaleLine, error) {
	out := []SaleLine{}
	err := r.conn(ctx).Model(&models.OrderItem{}).
		Select("order_items.id, order_items.order_id, order_items.subtotal, orders.created_at, products.name AS product_name").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("LEFT JOIN products ON products.id = order_items.product_id").
		Where("order_items.seller_id = ?", sellerID).
		Order("orders.created_at DESC").
		Scan(&out).Error
	return out, err
}

type sumRow struct {
	Total float64
}

type SaleLine struct {
	ID          uint
	OrderID     uint
	Subtotal    float64
	CreatedAt   time.Time
	ProductName string
}

func (r *GormRepo) SellerSalesTotal(ctx context.Context, sellerID uint) (float64, error) {
	var out sumRow
	err := r.conn(ctx).Model(&models.OrderItem{}).
		Where("seller_id = ?", sellerID).
		Select("COALESCE(SUM(subtotal), 0) AS total").Scan(&out).Error
	return out.Total, err
}

func (r *GormRepo) SellerOrderCount(ctx context.Context, sellerID uint) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&models.OrderItem{}).
		Where("seller_id = ?", sellerID).
		Distinct("order_id").Count(&n).Error
	return n, err
}

// SellerIDsForOrder lists the distinct sellers with lines in the order.
func (r *GormRepo) SellerIDsForOrder(ctx context.Context, orderID uint) ([]uint, error) {
	var ids []uint
	err := r.conn(ctx).Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).Distinct().Pluck("seller_id", &ids).Error
	return ids, err
}

// SetOrderStatus writes only the status columns so a concurrent invoice or
// total update is never clobbered.
func (r *GormRepo) SetOrderStatus(ctx context.Context, o *models.Order) error {
	return r.conn(ctx).Model(&models.Order{}).Where("id = ?", o.ID).Updates(map[string]any{
		"status":            o.Status,
		"payment_status":    o.PaymentStatus,
		"payment_gateway":   o.PaymentGateway,
		"payment_reference": o.PaymentReference,
		"delivery_info":     o.DeliveryInfo,
	}).Error
}
