package repo

import (
	"context"
	"errors"

	"github.com/Skotchmaster/marketplace/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartByUser returns the user's cart, creating it on first access.
func (r *GormRepo) CartByUser(ctx context.Context, userID uint) (*models.Cart, error) {
	db := r.conn(ctx)
	var cart models.Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&cart).Error; err != nil {
		return nil, err
	}
	if cart.ID == 0 {
		if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			return nil, err
		}
	}
	return &cart, nil
}

// CartItems loads the lines of a cart with their product and stock.
func (r *GormRepo) CartItems(ctx context.Context, cartID uint) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := r.conn(ctx).
		Preload("Product").Preload("Product.Inventory").
		Where("cart_id = ?", cartID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *GormRepo) CartItem(ctx context.Context, cartID, itemID uint) (*models.CartItem, error) {
	var it models.CartItem
	if err := r.conn(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *GormRepo) CartItemByProduct(ctx context.Context, cartID, productID uint) (*models.CartItem, error) {
	var it models.CartItem
	if err := r.conn(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *GormRepo) CreateCartItem(ctx context.Context, it *models.CartItem) error {
	return r.conn(ctx).Omit(clause.Associations).Create(it).Error
}

func (r *GormRepo) SetCartItemQuantity(ctx context.Context, itemID uint, qty int) error {
	return r.conn(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).Update("quantity", qty).Error
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, cartID, itemID uint) error {
	res := r.conn(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

// ClearCart drops every line and the applied coupon.
func (r *GormRepo) ClearCart(ctx context.Context, cartID uint) error {
	db := r.conn(ctx)
	if err := db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return db.Model(&models.Cart{}).Where("id = ?", cartID).Update("coupon_code", nil).Error
}

// SetCartCoupon stores code on the cart; nil clears it.
func (r *GormRepo) SetCartCoupon(ctx context.Context, cartID uint, code *string) error {
	return r.conn(ctx).Model(&models.Cart{}).Where("id = ?", cartID).Update("coupon_code", code).Error
}

func (r *GormRepo) WishlistByUser(ctx context.Context, userID uint) (*models.Wishlist, error) {
	db := r.conn(ctx)
	var wl models.Wishlist
	err := db.Where("user_id = ?", userID).First(&wl).Error
	if err == nil {
		return &wl, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	wl = models.Wishlist{UserID: userID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&wl).Error; err != nil {
		return nil, err
	}
	if wl.ID == 0 {
		if err := db.Where("user_id = ?", userID).First(&wl).Error; err != nil {
			return nil, err
		}
	}
	return &wl, nil
}

func (r *GormRepo) WishlistItems(ctx context.Context, wishlistID uint) ([]models.WishlistItem, error) {
	items := []models.WishlistItem{}
	err := r.conn(ctx).Preload("Product").Preload("Product.Inventory").
		Where("wishlist_id = ?", wishlistID).Order("id ASC").Find(&items).Error
	return items, err
}

// AddWishlistItem is idempotent on (wishlist, product).
func (r *GormRepo) AddWishlistItem(ctx context.Context, wishlistID, productID uint) error {
	it := models.WishlistItem{WishlistID: wishlistID, ProductID: productID}
	return r.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Omit(clause.Associations).Create(&it).Error
}

func (r *GormRepo) RemoveWishlistItem(ctx context.Context, wishlistID, productID uint) error {
	res := r.conn(ctx).Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).Delete(&models.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *GormRepo) ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	out := []models.Address{}
	err := r.conn(ctx).Where("user_id = ?", userID).Order("is_default DESC").Order("id ASC").Find(&out).Error
	return out, err
}

func (r *GormRepo) AddressByID(ctx context.Context, userID, id uint) (*models.Address, error) {
	var a models.Address
	if err := r.conn(ctx).Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAddress stores a; the user's first address always becomes the
// default, and a new default clears the flag on the others.
func (r *GormRepo) CreateAddress(ctx context.Context, a *models.Address) error {
	return r.Transact(ctx, func(tx *GormRepo) error {
		db := tx.conn(ctx)
		var n int64
		if err := db.Model(&models.Address{}).Where("user_id = ?", a.UserID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			a.IsDefault = true
		}
		if a.IsDefault {
			if err := db.Model(&models.Address{}).Where("user_id = ?", a.UserID).Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return db.Create(a).Error
	})
}

func (r *GormRepo) UpdateAddress(ctx context.Context, a *models.Address) error {
	return r.Transact(ctx, func(tx *GormRepo) error {
		db := tx.conn(ctx)
		if a.IsDefault {
			if err := db.Model(&models.Address{}).
				Where("user_id = ? AND id <> ?", a.UserID, a.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return db.Save(a).Error
	})
}

func (r *GormRepo) DeleteAddress(ctx context.Context, userID, id uint) error {
	res := r.conn(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *GormRepo) SetDefaultAddress(ctx context.Context, userID, id uint) error {
	return r.Transact(ctx, func(tx *GormRepo) error {
		db := tx.conn(ctx)
		res := db.Model(&models.Address{}).Where("id = ? AND user_id = ?", id, userID).Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoRows
		}
		return db.Model(&models.Address{}).
			Where("user_id = ? AND id <> ?", userID, id).
			Update("is_default", false).Error
	})
}
