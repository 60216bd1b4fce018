package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"gorm.io/gorm"
)

type CartService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (s *CartService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func stockOf(p *models.Product) int {
	if p == nil || p.Inventory == nil {
		return 0
	}
	return p.Inventory.StockQty
}

// GetCart prices the cart. A coupon that stopped being valid is dropped from
// the cart instead of failing the read.
func (s *CartService) GetCart(ctx context.Context, userID uint) (*transport.CartView, error) {
	cart, err := s.Repo.CartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.Repo.CartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	view := &transport.CartView{ID: cart.ID, Items: make([]transport.CartLine, 0, len(items))}
	sellerTotals := map[uint]float64{}
	var total float64
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		line := util.RoundMoney(it.Product.Price * float64(it.Quantity))
		view.Items = append(view.Items, transport.CartLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Product.Name,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
			LineTotal: line,
			Stock:     stockOf(it.Product),
			Product:   it.Product,
		})
		total += line
		sellerTotals[it.Product.SellerID] += line
	}
	view.Total = util.RoundMoney(total)

	if cart.CouponCode != nil && *cart.CouponCode != "" {
		c, err := s.Repo.CouponByCode(ctx, *cart.CouponCode)
		if err == nil && couponUsable(c, view.Total, s.now()) == nil {
			view.Discount = couponDiscount(c, view.Total, sellerTotals)
			view.CouponCode = &c.Code
		} else {
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			logging.FromContext(ctx).Info("cart_coupon_dropped", "cart_id", cart.ID, "code", *cart.CouponCode)
			if err := s.Repo.SetCartCoupon(ctx, cart.ID, nil); err != nil {
				return nil, err
			}
		}
	}
	view.FinalTotal = util.RoundMoney(max(0, view.Total-view.Discount))
	return view, nil
}

func (s *CartService) AddItem(ctx context.Context, userID uint, req transport.AddToCartRequest) (*transport.CartView, error) {
	if req.ProductID == 0 {
		return nil, validation("product_id is required")
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		return nil, validation("quantity must be >= 1")
	}

	p, err := s.Repo.ProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if p.Status != models.ProductApproved {
		return nil, validation("product %s not available", p.Name)
	}
	if ok, err := s.Repo.SellerVisible(ctx, p.SellerID); err != nil {
		return nil, err
	} else if !ok {
		return nil, validation("product %s not available", p.Name)
	}

	cart, err := s.Repo.CartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.Repo.Transact(ctx, func(tx *repo.GormRepo) error {
		existing, err := tx.CartItemByProduct(ctx, cart.ID, p.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if req.Quantity > stockOf(p) {
				return validation("only %d in stock", stockOf(p))
			}
			return tx.CreateCartItem(ctx, &models.CartItem{CartID: cart.ID, ProductID: p.ID, Quantity: req.Quantity})
		case err != nil:
			return err
		}
		qty := existing.Quantity + req.Quantity
		if qty > stockOf(p) {
			return validation("only %d in stock", stockOf(p))
		}
		return tx.SetCartItemQuantity(ctx, existing.ID, qty)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uint, qty int) (*transport.CartView, error) {
	cart, err := s.Repo.CartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	it, err := s.Repo.CartItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, notFound(err, "cart item")
	}

	if qty <= 0 {
		if err := s.Repo.DeleteCartItem(ctx, cart.ID, it.ID); err != nil {
			return nil, notFound(err, "cart item")
		}
		return s.GetCart(ctx, userID)
	}

	inv, err := s.Repo.InventoryByProduct(ctx, it.ProductID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	stock := 0
	if inv != nil {
		stock = inv.StockQty
	}
	if qty > stock {
		return nil, validation("only %d in stock", stock)
	}
	if err := s.Repo.SetCartItemQuantity(ctx, it.ID, qty); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) (*transport.CartView, error) {
	cart, err := s.Repo.CartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.DeleteCartItem(ctx, cart.ID, itemID); err != nil {
		return nil, notFound(err, "cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) ApplyCoupon(ctx context.Context, userID uint, code string) (*transport.CartView, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, validation("code is required")
	}
	view, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(view.Items) == 0 {
		return nil, validation("cart is empty")
	}

	c, err := s.Repo.CouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validation("invalid coupon code")
		}
		return nil, err
	}
	if err := couponUsable(c, view.Total, s.now()); err != nil {
		return nil, err
	}
	if c.Type == models.CouponSeller {
		applies := false
		for _, line := range view.Items {
			if line.Product != nil && c.SellerID != nil && line.Product.SellerID == *c.SellerID {
				applies = true
				break
			}
		}
		if !applies {
			return nil, validation("coupon does not apply to any item in the cart")
		}
	}

	if err := s.Repo.SetCartCoupon(ctx, view.ID, &c.Code); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveCoupon(ctx context.Context, userID uint) (*transport.CartView, error) {
	cart, err := s.Repo.CartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetCartCoupon(ctx, cart.ID, nil); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) Wishlist(ctx context.Context, userID uint) ([]models.WishlistItem, error) {
	wl, err := s.Repo.WishlistByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Repo.WishlistItems(ctx, wl.ID)
}

func (s *CartService) AddToWishlist(ctx context.Context, userID, productID uint) ([]models.WishlistItem, error) {
	if productID == 0 {
		return nil, validation("product_id is required")
	}
	if _, err := s.Repo.ProductByID(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}
	wl, err := s.Repo.WishlistByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddWishlistItem(ctx, wl.ID, productID); err != nil {
		return nil, err
	}
	return s.Repo.WishlistItems(ctx, wl.ID)
}

func (s *CartService) RemoveFromWishlist(ctx context.Context, userID, productID uint) error {
	wl, err := s.Repo.WishlistByUser(ctx, userID)
	if err != nil {
		return err
	}
	return notFound(s.Repo.RemoveWishlistItem(ctx, wl.ID, productID), "wishlist item")
}

func (s *CartService) Addresses(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.Repo.ListAddresses(ctx, userID)
}

func validateAddress(req transport.AddressRequest) error {
	if strings.TrimSpace(req.AddressLine1) == "" || strings.TrimSpace(req.City) == "" ||
		strings.TrimSpace(req.State) == "" || strings.TrimSpace(req.PostalCode) == "" {
		return validation("address_line_1, city, state and postal_code are required")
	}
	return nil
}

func (s *CartService) CreateAddress(ctx context.Context, userID uint, req transport.AddressRequest) (*models.Address, error) {
	if err := validateAddress(req); err != nil {
		return nil, err
	}
	a := &models.Address{
		UserID:       userID,
		AddressLine1: strings.TrimSpace(req.AddressLine1),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		Country:      strings.TrimSpace(req.Country),
		IsDefault:    req.IsDefault,
	}
	if a.Country == "" {
		a.Country = "India"
	}
	if err := s.Repo.CreateAddress(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *CartService) UpdateAddress(ctx context.Context, userID, id uint, req transport.AddressRequest) (*models.Address, error) {
	if err := validateAddress(req); err != nil {
		return nil, err
	}
	a, err := s.Repo.AddressByID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err, "address")
	}
	a.AddressLine1 = strings.TrimSpace(req.AddressLine1)
	a.City = strings.TrimSpace(req.City)
	a.State = strings.TrimSpace(req.State)
	a.PostalCode = strings.TrimSpace(req.PostalCode)
	if c := strings.TrimSpace(req.Country); c != "" {
		a.Country = c
	}
	if req.IsDefault {
		a.IsDefault = true
	}
	if err := s.Repo.UpdateAddress(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *CartService) DeleteAddress(ctx context.Context, userID, id uint) error {
	return notFound(s.Repo.DeleteAddress(ctx, userID, id), "address")
}

func (s *CartService) SetDefaultAddress(ctx context.Context, userID, id uint) error {
	return notFound(s.Repo.SetDefaultAddress(ctx, userID, id), "address")
}
