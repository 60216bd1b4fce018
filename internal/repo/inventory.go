package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/marketplace/internal/models"
	"gorm.io/gorm"
)

var ErrInsufficientStock = errors.New("insufficient stock")

func (r *GormRepo) InventoryByProduct(ctx context.Context, productID uint) (*models.Inventory, error) {
	var inv models.Inventory
	if err := r.conn(ctx).Where("product_id = ?", productID).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// DecreaseStock locks the inventory row and takes qty from it. The update is
// guarded by stock_qty >= qty so the column can never go negative, even on
// databases without row locks.
func (r *GormRepo) DecreaseStock(ctx context.Context, productID uint, qty int) error {
	if qty <= 0 {
		return nil
	}
	db := r.conn(ctx)

	var inv models.Inventory
	err := db.Clauses(forUpdate()).Where("product_id = ?", productID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInsufficientStock
	}
	if err != nil {
		return err
	}
	if inv.StockQty < qty {
		return ErrInsufficientStock
	}

	res := db.Model(&models.Inventory{}).
		Where("id = ? AND stock_qty >= ?", inv.ID, qty).
		Update("stock_qty", gorm.Expr("stock_qty - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// IncreaseStock returns qty to the product, creating the inventory row if it
// was removed in the meantime.
func (r *GormRepo) IncreaseStock(ctx context.Context, productID uint, qty int) error {
	if qty <= 0 {
		return nil
	}
	db := r.conn(ctx)
	res := db.Model(&models.Inventory{}).
		Where("product_id = ?", productID).
		Update("stock_qty", gorm.Expr("stock_qty + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return db.Create(&models.Inventory{ProductID: productID, StockQty: qty, LowStockThreshold: 5}).Error
	}
	return nil
}

func (r *GormRepo) SetStock(ctx context.Context, productID uint, qty int) (*models.Inventory, error) {
	db := r.conn(ctx)
	var inv models.Inventory
	err := db.Where("product_id = ?", productID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		inv = models.Inventory{ProductID: productID, StockQty: qty, LowStockThreshold: 5}
		return &inv, db.Create(&inv).Error
	}
	if err != nil {
		return nil, err
	}
	inv.StockQty = qty
	return &inv, db.Model(&inv).Update("stock_qty", qty).Error
}

func (r *GormRepo) CountLowStock(ctx context.Context, sellerID uint) (int64, error) {
	var n int64
	q := r.conn(ctx).Model(&models.Inventory{}).Where("inventories.stock_qty <= inventories.low_stock_threshold")
	if sellerID != 0 {
		q = q.Joins("JOIN products ON products.id = inventories.product_id").Where("products.seller_id = ?", sellerID)
	}
	err := q.Count(&n).Error
	return n, err
}
