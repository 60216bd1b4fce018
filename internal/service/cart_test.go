package service

import (
	"context"
	"testing"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddMergesAndChecksStock(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	p := seedProduct(t, s.repo, 3, "Pen", 2.5, 4)

	view, err := s.cart.AddItem(ctx, 1, transport.AddToCartRequest{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 1, view.Items[0].Quantity)

	view, err = s.cart.AddItem(ctx, 1, transport.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.InDelta(t, 7.5, view.Total, 0.001)

	_, err = s.cart.AddItem(ctx, 1, transport.AddToCartRequest{ProductID: p.ID, Quantity: 2})
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.cart.AddItem(ctx, 1, transport.AddToCartRequest{ProductID: p.ID, Quantity: -1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.cart.UpdateItem(ctx, 1, view.Items[0].ID, 5)
	require.ErrorIs(t, err, ErrValidation)

	view, err = s.cart.UpdateItem(ctx, 1, view.Items[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCart_RejectsUnapprovedProduct(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	p := seedProduct(t, s.repo, 3, "Draft", 10, 4)
	require.NoError(t, s.repo.UpdateProduct(ctx, p.ID, map[string]any{"status": models.ProductPending}))

	_, err := s.cart.AddItem(ctx, 1, transport.AddToCartRequest{ProductID: p.ID})
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.cart.AddItem(ctx, 1, transport.AddToCartRequest{ProductID: 4242})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCart_SellerCouponNeedsSellerLine(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	p := seedProduct(t, s.repo, 3, "Cup", 20, 4)

	_, err := s.coupons.Create(ctx, Actor{ID: 8, Role: models.RoleSeller}, transport.CreateCouponRequest{Code: "OTHER", DiscountPercent: 10})
	require.NoError(t, err)
	_, err = s.coupons.Create(ctx, Actor{ID: 3, Role: models.RoleSeller}, transport.CreateCouponRequest{Code: "MINE", DiscountPercent: 10})
	require.NoError(t, err)

	_, err = s.cart.ApplyCoupon(ctx, 1, "MINE")
	require.ErrorIs(t, err, ErrValidation, "empty cart")

	addToCart(t, s, 1, p.ID, 2)

	_, err = s.cart.ApplyCoupon(ctx, 1, "OTHER")
	require.ErrorIs(t, err, ErrValidation)

	view, err := s.cart.ApplyCoupon(ctx, 1, "mine")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, view.Discount, 0.001)

	view, err = s.cart.RemoveCoupon(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, view.CouponCode)
	assert.Zero(t, view.Discount)
}

func TestCart_DropsCouponThatStoppedApplying(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	p := seedProduct(t, s.repo, 3, "Plate", 20, 4)

	c, err := s.coupons.Create(ctx, Actor{ID: 1, Role: models.RoleAdmin}, transport.CreateCouponRequest{Code: "MIN30", DiscountPercent: 10, MinOrderValue: 30})
	require.NoError(t, err)

	addToCart(t, s, 1, p.ID, 2)
	_, err = s.cart.ApplyCoupon(ctx, 1, c.Code)
	require.NoError(t, err)

	view, err := s.cart.UpdateItem(ctx, 1, mustFirstLine(t, s, 1), 1)
	require.NoError(t, err)
	assert.Nil(t, view.CouponCode)

	cart, err := s.repo.CartByUser(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, cart.CouponCode)
}

func mustFirstLine(t *testing.T, s *shop, userID uint) uint {
	t.Helper()
	view, err := s.cart.GetCart(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, view.Items)
	return view.Items[0].ID
}

func TestWishlist(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	p := seedProduct(t, s.repo, 3, "Scarf", 15, 4)

	items, err := s.cart.AddToWishlist(ctx, 1, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = s.cart.AddToWishlist(ctx, 1, p.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, s.cart.RemoveFromWishlist(ctx, 1, p.ID))
	require.ErrorIs(t, s.cart.RemoveFromWishlist(ctx, 1, p.ID), ErrNotFound)
}

func TestAddresses_SingleDefault(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()

	_, err := s.cart.CreateAddress(ctx, 1, transport.AddressRequest{City: "Pune"})
	require.ErrorIs(t, err, ErrValidation)

	req := transport.AddressRequest{AddressLine1: "1 Main St", City: "Pune", State: "MH", PostalCode: "411001"}
	first, err := s.cart.CreateAddress(ctx, 1, req)
	require.NoError(t, err)
	assert.True(t, first.IsDefault)
	assert.Equal(t, "India", first.Country)

	req.IsDefault = true
	second, err := s.cart.CreateAddress(ctx, 1, req)
	require.NoError(t, err)

	list, err := s.cart.Addresses(ctx, 1)
	require.NoError(t, err)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
			assert.Equal(t, second.ID, a.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	require.NoError(t, s.cart.SetDefaultAddress(ctx, 1, first.ID))
	require.ErrorIs(t, s.cart.SetDefaultAddress(ctx, 2, first.ID), ErrNotFound)
	require.ErrorIs(t, s.cart.DeleteAddress(ctx, 2, first.ID), ErrNotFound)
	require.NoError(t, s.cart.DeleteAddress(ctx, 1, second.ID))
}

func TestAddItem_InactiveSeller(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	seller := seedUser(t, s.repo, "seller@example.com", models.RoleSeller)
	p := seedProduct(t, s.repo, seller.ID, "Lamp", 30, 5)

	_, err := s.cart.AddItem(ctx, buyer.ID, transport.AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, s.repo.UpdateUser(ctx, seller.ID, map[string]any{"is_active": false}))
	_, err = s.cart.AddItem(ctx, buyer.ID, transport.AddToCartRequest{ProductID: p.ID, Quantity: 1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.orders.Checkout(ctx, buyer.ID, transport.CheckoutRequest{PaymentMethod: "cod"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 5, stockOfProduct(t, s.repo, p.ID))
}
