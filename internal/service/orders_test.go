package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addToCart(t *testing.T, s *shop, userID, productID uint, qty int) {
	t.Helper()
	_, err := s.cart.AddItem(context.Background(), userID, transport.AddToCartRequest{ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

func TestCheckout_CODDecrementsStockAndClearsCart(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	seller := seedUser(t, s.repo, "seller@example.com", models.RoleSeller)
	p := seedProduct(t, s.repo, seller.ID, "Lamp", 250, 5)

	addToCart(t, s, buyer.ID, p.ID, 2)

	resp, err := s.orders.Checkout(ctx, buyer.ID, transport.CheckoutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "cod", resp.PG)
	assert.Equal(t, "Order placed successfully", resp.Message)
	assert.InDelta(t, 500.0, resp.Amount, 0.001)

	assert.Equal(t, 3, stockOfProduct(t, s.repo, p.ID))

	view, err := s.cart.GetCart(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	o, err := s.repo.OrderByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPendingPayment, o.Status)
	assert.Equal(t, models.PaymentUnpaid, o.PaymentStatus)
	require.Len(t, o.Items, 1)
	assert.Equal(t, seller.ID, o.Items[0].SellerID)
	assert.Contains(t, o.InvoiceHTML, "Total: 500.00")

	bills, err := s.repo.SalesBills(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.InDelta(t, 500.0, bills[0].TotalAmount, 0.001)

	notes, err := s.repo.NotificationsForUser(ctx, seller.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "New order", notes[0].Subject)

	assert.Contains(t, s.pub.actions("order"), "created")
}

func TestCheckout_InsufficientStockChangesNothing(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	a := seedProduct(t, s.repo, 9, "Desk", 100, 5)
	b := seedProduct(t, s.repo, 9, "Chair", 40, 2)

	addToCart(t, s, buyer.ID, a.ID, 1)
	addToCart(t, s, buyer.ID, b.ID, 2)
	_, err := s.repo.SetStock(ctx, b.ID, 1)
	require.NoError(t, err)

	_, err = s.orders.Checkout(ctx, buyer.ID, transport.CheckoutRequest{PaymentMethod: "cod"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "insufficient stock")

	assert.Equal(t, 5, stockOfProduct(t, s.repo, a.ID))
	assert.Equal(t, 1, stockOfProduct(t, s.repo, b.ID))

	orders, err := s.orders.List(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)

	view, err := s.cart.GetCart(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
}

func TestCheckout_EmptyCart(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)

	_, err := s.orders.Checkout(context.Background(), buyer.ID, transport.CheckoutRequest{})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "cart is empty")
}

func TestCheckout_UnknownMethod(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	_, err := s.orders.Checkout(context.Background(), 1, transport.CheckoutRequest{PaymentMethod: "barter"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCheckout_GatewayFailureRollsBack(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	admin := seedUser(t, s.repo, "admin@example.com", models.RoleAdmin)
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	p := seedProduct(t, s.repo, 3, "Kettle", 80, 4)

	_, err := s.coupons.Create(ctx, Actor{ID: admin.ID, Role: models.RoleAdmin}, transport.CreateCouponRequest{
		Code: "once", DiscountPercent: 10, UsageLimit: 1,
	})
	require.NoError(t, err)

	addToCart(t, s, buyer.ID, p.ID, 3)
	_, err = s.cart.ApplyCoupon(ctx, buyer.ID, "ONCE")
	require.NoError(t, err)

	s.gateway.err = errors.New("gateway timeout")
	_, err = s.orders.Checkout(ctx, buyer.ID, transport.CheckoutRequest{PaymentMethod: "razorpay"})
	require.ErrorIs(t, err, ErrPaymentGateway)

	assert.Equal(t, 4, stockOfProduct(t, s.repo, p.ID))

	c, err := s.repo.CouponByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 0, c.UsedCount)

	view, err := s.cart.GetCart(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	require.NotNil(t, view.CouponCode)
	assert.Equal(t, "ONCE", *view.CouponCode)

	orders, err := s.orders.List(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckout_DiscountIsCapped(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	admin := seedUser(t, s.repo, "admin@example.com", models.RoleAdmin)
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	p := seedProduct(t, s.repo, 3, "Sofa", 1000, 2)

	maxOff := 100.0
	_, err := s.coupons.Create(ctx, Actor{ID: admin.ID, Role: models.RoleAdmin}, transport.CreateCouponRequest{
		Code: "HALF", DiscountPercent: 50, MaxDiscountAmount: &maxOff,
	})
	require.NoError(t, err)

	addToCart(t, s, buyer.ID, p.ID, 1)
	view, err := s.cart.ApplyCoupon(ctx, buyer.ID, "half")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, view.Discount, 0.001)
	assert.InDelta(t, 900.0, view.FinalTotal, 0.001)

	resp, err := s.orders.Checkout(ctx, buyer.ID, transport.CheckoutRequest{})
	require.NoError(t, err)
	assert.InDelta(t, 900.0, resp.Amount, 0.001)

	o, err := s.repo.OrderByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, o.SubtotalAmount, 0.001)
	assert.InDelta(t, 100.0, o.DiscountAmount, 0.001)
	assert.Equal(t, "HALF", o.CouponCode)

	c, err := s.repo.CouponByCode(ctx, "HALF")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsedCount)
}

func TestCheckout_RazorpayAndUPI(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	p := seedProduct(t, s.repo, 3, "Mug", 12.5, 10)

	addToCart(t, s, buyer.ID, p.ID, 2)
	resp, err := s.orders.Checkout(ctx, buyer.ID, transport.CheckoutRequest{PaymentMethod: "upi"})
	require.NoError(t, err)
	assert.Equal(t, "INR", resp.Currency)
	assert.Equal(t, "rzp_key", resp.RazorpayKey)
	assert.NotEmpty(t, resp.RazorpayOrderID)
	require.NotNil(t, resp.MethodPreference)
	assert.Equal(t, "upi", *resp.MethodPreference)
	assert.Equal(t, int64(2500), s.gateway.lastAmt)

	o, err := s.repo.OrderByReference(ctx, resp.RazorpayOrderID)
	require.NoError(t, err)
	assert.Equal(t, resp.OrderID, o.ID)
	assert.Equal(t, models.OrderPending, o.Status)
}

func TestCancel_RestoresStockOnce(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	p := seedProduct(t, s.repo, 3, "Rug", 60, 3)

	addToCart(t, s, buyer.ID, p.ID, 2)
	resp, err := s.orders.Checkout(ctx, buyer.ID, transport.CheckoutRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, stockOfProduct(t, s.repo, p.ID))

	o, err := s.orders.Cancel(ctx, buyer.ID, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, o.Status)
	assert.Equal(t, models.PaymentCancelled, o.PaymentStatus)
	assert.Equal(t, 3, stockOfProduct(t, s.repo, p.ID))

	_, err = s.orders.Cancel(ctx, buyer.ID, resp.OrderID)
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.payments.Failure(ctx, buyer.ID, transport.PaymentFailureRequest{OrderID: resp.OrderID})
	require.NoError(t, err)

	admin := Actor{ID: 1000, Role: models.RoleAdmin}
	_, err = s.orders.UpdateStatus(ctx, admin, resp.OrderID, transport.OrderStatusRequest{Status: models.OrderShipped})
	require.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, 3, stockOfProduct(t, s.repo, p.ID))
}

func TestCancel_OtherUsersOrderIsHidden(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	other := seedUser(t, s.repo, "other@example.com", models.RoleUser)
	p := seedProduct(t, s.repo, 3, "Vase", 30, 3)

	addToCart(t, s, buyer.ID, p.ID, 1)
	resp, err := s.orders.Checkout(ctx, buyer.ID, transport.CheckoutRequest{})
	require.NoError(t, err)

	_, err = s.orders.Cancel(ctx, other.ID, resp.OrderID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.orders.Get(ctx, Actor{ID: other.ID, Role: models.RoleUser}, resp.OrderID)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := s.orders.Get(ctx, Actor{ID: 3, Role: models.RoleSeller}, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, resp.OrderID, got.ID)
}

func TestUpdateStatus_NotifiesBuyer(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	p := seedProduct(t, s.repo, 3, "Clock", 45, 3)

	addToCart(t, s, buyer.ID, p.ID, 1)
	resp, err := s.orders.Checkout(ctx, buyer.ID, transport.CheckoutRequest{})
	require.NoError(t, err)

	info := "Courier AWB 123"
	o, err := s.orders.UpdateStatus(ctx, Actor{ID: 3, Role: models.RoleSeller}, resp.OrderID,
		transport.OrderStatusRequest{Status: models.OrderShipped, DeliveryInfo: &info})
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, o.Status)

	tr, err := s.orders.Track(ctx, Actor{ID: buyer.ID, Role: models.RoleUser}, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, tr.Status)
	assert.Equal(t, info, tr.DeliveryInfo)

	notes, err := s.repo.NotificationsForUser(ctx, buyer.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, notes)

	_, err = s.orders.UpdateStatus(ctx, Actor{ID: 77, Role: models.RoleSeller}, resp.OrderID,
		transport.OrderStatusRequest{Status: models.OrderDelivered})
	require.Error(t, err)

	_, err = s.orders.UpdateStatus(ctx, Actor{ID: 3, Role: models.RoleSeller}, resp.OrderID,
		transport.OrderStatusRequest{Status: "lost"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestInvoiceHTML(t *testing.T) {
	t.Parallel()

	html := invoiceHTML(&models.Order{ID: 7, SubtotalAmount: 100, DiscountAmount: 10, TotalAmount: 90, CouponCode: "<b>"})
	assert.Contains(t, html, "<h1>Invoice #7</h1>")
	assert.Contains(t, html, "Discount (&lt;b&gt;): 10.00")
	assert.Contains(t, html, "Total: 90.00")
}

func TestCheckout_ConcurrentNeverOversells(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	p := seedProduct(t, s.repo, 3, "Last lamps", 40, 3)

	const buyers = 8
	ids := make([]uint, buyers)
	for i := range ids {
		u := seedUser(t, s.repo, fmt.Sprintf("buyer%d@example.com", i), models.RoleUser)
		addToCart(t, s, u.ID, p.ID, 1)
		ids[i] = u.ID
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		errs []error
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := s.orders.Checkout(ctx, id, transport.CheckoutRequest{PaymentMethod: "cod"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ok++
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	require.Len(t, errs, buyers-3)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Equal(t, 0, stockOfProduct(t, s.repo, p.ID))
}

func TestCheckout_Stripe(t *testing.T) {
	t.Parallel()

	s := newShop(t)
	ctx := context.Background()
	buyer := seedUser(t, s.repo, "buyer@example.com", models.RoleUser)
	p := seedProduct(t, s.repo, 3, "Poster", 19.99, 4)

	addToCart(t, s, buyer.ID, p.ID, 2)
	resp, err := s.orders.Checkout(ctx, buyer.ID, transport.CheckoutRequest{PaymentMethod: "stripe"})
	require.NoError(t, err)
	assert.Equal(t, "stripe", resp.PG)
	assert.Equal(t, "usd", resp.Currency)
	assert.Equal(t, fmt.Sprintf("cs_%d", resp.OrderID), resp.CheckoutSessionID)
	assert.NotEmpty(t, resp.CheckoutURL)
	assert.Equal(t, int64(3998), s.gateway.lastSession.AmountCent)
	assert.Equal(t, "usd", s.gateway.lastSession.Currency)

	o, err := s.repo.OrderByReference(ctx, resp.CheckoutSessionID)
	require.NoError(t, err)
	assert.Equal(t, resp.OrderID, o.ID)
	assert.Equal(t, models.OrderPending, o.Status)
	assert.Equal(t, 2, stockOfProduct(t, s.repo, p.ID))
}
