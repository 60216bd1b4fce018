package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/payments"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/tenant"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"gorm.io/gorm"
)

type OrderService struct {
	Repo     *repo.GormRepo
	Gateway  payments.Gateway
	Keys     *KeyResolver
	Notifier *Notifier
	Updates  *mykafka.Broadcaster
	Now      func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

var orderStatuses = map[string]bool{
	models.OrderPending:        true,
	models.OrderPendingPayment: true,
	models.OrderPaid:           true,
	models.OrderShipped:        true,
	models.OrderDelivered:      true,
	models.OrderCancelled:      true,
}

func formatAddress(a *models.Address) string {
	parts := []string{a.AddressLine1, a.City, a.State, a.PostalCode, a.Country}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func invoiceHTML(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>Invoice #%d</h1>", o.ID)
	fmt.Fprintf(&b, "<p>Subtotal: %.2f</p>", o.SubtotalAmount)
	if o.CouponCode != "" {
		fmt.Fprintf(&b, "<p>Discount (%s): %.2f</p>", html.EscapeString(o.CouponCode), o.DiscountAmount)
	} else {
		fmt.Fprintf(&b, "<p>Discount: %.2f</p>", o.DiscountAmount)
	}
	fmt.Fprintf(&b, "<p>Total: %.2f</p>", o.TotalAmount)
	return b.String()
}

func gatewayError(err error) error {
	return fmt.Errorf("%w: %v", ErrPaymentGateway, err)
}

// Checkout turns the caller's cart into an order. Stock, order rows, coupon
// usage and the cart are changed in one transaction, so any failure including
// a gateway error leaves all of them untouched.
func (s *OrderService) Checkout(ctx context.Context, userID uint, req transport.CheckoutRequest) (*transport.CheckoutResponse, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout")

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method == "" {
		method = payments.MethodCOD
	}
	if !payments.KnownMethod(method) {
		return nil, validation("unknown payment method %s", method)
	}

	cart, err := s.Repo.CartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var deliveryInfo string
	if req.AddressID != nil {
		a, err := s.Repo.AddressByID(ctx, userID, *req.AddressID)
		if err != nil {
			return nil, notFound(err, "address")
		}
		deliveryInfo = formatAddress(a)
	}

	var keys payments.Keys
	if method != payments.MethodCOD && method != payments.MethodPayLater {
		if s.Gateway == nil {
			return nil, gatewayError(payments.ErrNotConfigured)
		}
		if keys, err = s.Keys.Resolve(ctx); err != nil {
			return nil, err
		}
	}

	resp := &transport.CheckoutResponse{PG: method}
	var order *models.Order
	var sellers []uint

	err = s.Repo.Transact(ctx, func(tx *repo.GormRepo) error {
		items, err := tx.CartItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return validation("cart is empty")
		}

		order = &models.Order{
			UserID:         userID,
			Status:         models.OrderPending,
			PaymentStatus:  models.PaymentUnpaid,
			PaymentGateway: method,
			DeliveryInfo:   deliveryInfo,
			CreatedAt:      s.now(),
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		var total float64
		sellerTotals := map[uint]float64{}
		for _, it := range items {
			p := it.Product
			if p == nil {
				return validation("product %d not available", it.ProductID)
			}
			if p.Status != models.ProductApproved {
				return validation("product %s not available", p.Name)
			}
			visible, err := tx.SellerVisible(ctx, p.SellerID)
			if err != nil {
				return err
			}
			if !visible {
				return validation("product %s not available", p.Name)
			}
			if err := tx.DecreaseStock(ctx, p.ID, it.Quantity); err != nil {
				if errors.Is(err, repo.ErrInsufficientStock) {
					return validation("insufficient stock for product %d", p.ID)
				}
				return err
			}
			subtotal := util.RoundMoney(p.Price * float64(it.Quantity))
			line := &models.OrderItem{
				OrderID:   order.ID,
				ProductID: p.ID,
				SellerID:  p.SellerID,
				Quantity:  it.Quantity,
				Price:     p.Price,
				Subtotal:  subtotal,
			}
			if err := tx.AddOrderItem(ctx, line); err != nil {
				return err
			}
			order.Items = append(order.Items, *line)
			total += subtotal
			sellerTotals[p.SellerID] += subtotal
		}
		total = util.RoundMoney(total)

		var discount float64
		if cart.CouponCode != nil && *cart.CouponCode != "" {
			discount, err = s.redeemCoupon(ctx, tx, *cart.CouponCode, total, sellerTotals)
			if err != nil {
				return err
			}
			if discount > 0 {
				order.CouponCode = *cart.CouponCode
			}
		}

		order.SubtotalAmount = total
		order.DiscountAmount = discount
		order.TotalAmount = util.RoundMoney(max(0, total-discount))
		order.InvoiceHTML = invoiceHTML(order)
		resp.OrderID = order.ID
		resp.Amount = order.TotalAmount

		switch method {
		case payments.MethodCOD, payments.MethodPayLater:
			order.Status = models.OrderPendingPayment
			resp.Message = "Order placed successfully"
		case payments.MethodRazorpay, payments.MethodUPI:
			paise := payments.ChargeAmount(method, order.TotalAmount)
			ro, err := s.Gateway.CreateRazorpayOrder(ctx, keys, paise, strconv.FormatUint(uint64(order.ID), 10))
			if err != nil {
				return gatewayError(err)
			}
			order.PaymentReference = ro.ID
			resp.Currency = payments.Currency(method)
			resp.RazorpayOrderID = ro.ID
			resp.RazorpayKey = keys.RazorpayKeyID
			if method == payments.MethodUPI {
				pref := payments.MethodUPI
				resp.MethodPreference = &pref
			}
		case payments.MethodStripe:
			sess, err := s.Gateway.CreateStripeSession(ctx, keys, payments.SessionInput{
				Name:       fmt.Sprintf("Order %d", order.ID),
				AmountCent: payments.ChargeAmount(method, order.TotalAmount),
				Currency:   strings.ToLower(payments.Currency(method)),
				SuccessURL: keys.StripeSuccessURL,
				CancelURL:  keys.StripeCancelURL,
				Reference:  strconv.FormatUint(uint64(order.ID), 10),
			})
			if err != nil {
				return gatewayError(err)
			}
			order.PaymentReference = sess.ID
			resp.Currency = strings.ToLower(payments.Currency(method))
			resp.CheckoutSessionID = sess.ID
			resp.CheckoutURL = sess.URL
		}

		if err := tx.UpdateOrder(ctx, order.ID, map[string]any{
			"subtotal_amount":   order.SubtotalAmount,
			"discount_amount":   order.DiscountAmount,
			"total_amount":      order.TotalAmount,
			"coupon_code":       order.CouponCode,
			"invoice_html":      order.InvoiceHTML,
			"status":            order.Status,
			"payment_reference": order.PaymentReference,
		}); err != nil {
			return err
		}

		for sellerID, amount := range sellerTotals {
			orderID := order.ID
			if err := tx.CreateSalesBill(ctx, &models.SellerSalesBill{
				SellerID:    sellerID,
				OrderID:     &orderID,
				BillNumber:  fmt.Sprintf("SB-%d-%d", order.ID, sellerID),
				TotalAmount: util.RoundMoney(amount),
				BillDate:    s.now(),
			}); err != nil {
				return err
			}
			sellers = append(sellers, sellerID)
		}

		return tx.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		l.Warn("checkout_failed", "user_id", userID, "method", method, "error", err)
		return nil, err
	}

	l.Info("order_created", "order_id", order.ID, "total", order.TotalAmount, "method", method)
	s.Updates.Emit(ctx, tenant.ID(ctx), "order", "created", map[string]any{"id": order.ID, "total": order.TotalAmount})
	s.Notifier.notifyAfterCommit(ctx, sellers, "New order", fmt.Sprintf("Order #%d contains your products.", order.ID))
	return resp, nil
}

// redeemCoupon re-checks the cart coupon and consumes one use of it. A coupon
// that is no longer usable yields no discount rather than an error.
func (s *OrderService) redeemCoupon(ctx context.Context, tx *repo.GormRepo, code string, total float64, sellerTotals map[uint]float64) (float64, error) {
	c, err := tx.CouponByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if couponUsable(c, total, s.now()) != nil {
		return 0, nil
	}
	discount := couponDiscount(c, total, sellerTotals)
	if discount <= 0 {
		return 0, nil
	}
	ok, err := tx.UseCoupon(ctx, c.ID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return discount, nil
}

// restoreStock puts the quantities of every line back, but only when the
// order still held them: cancelled and failed orders were already restored.
func restoreStock(ctx context.Context, tx *repo.GormRepo, o *models.Order) error {
	if o.Status == models.OrderCancelled || o.Status == models.OrderPaymentFailed {
		return nil
	}
	for _, it := range o.Items {
		if err := tx.IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) List(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.Repo.OrdersByUser(ctx, userID)
}

// canView reports whether actor may read the order: its buyer, an admin, or a
// seller with a line in it.
func (s *OrderService) canView(ctx context.Context, actor Actor, o *models.Order) (bool, error) {
	if o.UserID == actor.ID || actor.IsAdmin() {
		return true, nil
	}
	if actor.IsSeller() {
		return s.Repo.SellerOwnsOrderItem(ctx, o.ID, actor.ID)
	}
	return false, nil
}

func (s *OrderService) Get(ctx context.Context, actor Actor, id uint) (*models.Order, error) {
	o, err := s.Repo.OrderByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	ok, err := s.canView(ctx, actor, o)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order not found", ErrNotFound)
	}
	return o, nil
}

func (s *OrderService) Track(ctx context.Context, actor Actor, id uint) (*transport.TrackResponse, error) {
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return &transport.TrackResponse{Status: o.Status, DeliveryInfo: o.DeliveryInfo}, nil
}

func (s *OrderService) Invoice(ctx context.Context, actor Actor, id uint) (string, error) {
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", err
	}
	if o.InvoiceHTML == "" {
		return invoiceHTML(o), nil
	}
	return o.InvoiceHTML, nil
}

// Cancel is the buyer's cancellation. Stock comes back and a paid order is
// marked refunded.
func (s *OrderService) Cancel(ctx context.Context, userID, id uint) (*models.Order, error) {
	var o *models.Order
	err := s.Repo.Transact(ctx, func(tx *repo.GormRepo) error {
		var err error
		o, err = tx.LockOrder(ctx, id)
		if err != nil {
			return notFound(err, "order")
		}
		if o.UserID != userID {
			return fmt.Errorf("%w: order not found", ErrNotFound)
		}
		switch o.Status {
		case models.OrderCancelled:
			return validation("order already cancelled")
		case models.OrderDelivered, models.OrderPaymentFailed:
			return validation("order cannot be cancelled in status %s", o.Status)
		}
		if err := restoreStock(ctx, tx, o); err != nil {
			return err
		}
		if o.PaymentStatus == models.PaymentPaid {
			o.PaymentStatus = models.PaymentRefunded
		} else {
			o.PaymentStatus = models.PaymentCancelled
		}
		o.Status = models.OrderCancelled
		return tx.SetOrderStatus(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	s.Updates.Emit(ctx, tenant.ID(ctx), "order", "cancelled", map[string]any{"id": o.ID})
	return o, nil
}

// UpdateStatus is the fulfilment update by an admin or a seller with a line
// in the order.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, id uint, req transport.OrderStatusRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.status")

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status != "" && !orderStatuses[status] {
		return nil, validation("unknown order status %s", status)
	}
	if !actor.IsAdmin() && !actor.IsSeller() {
		return nil, fmt.Errorf("%w: only sellers and admins can update orders", ErrForbidden)
	}
	if actor.IsSeller() {
		owns, err := s.Repo.SellerOwnsOrderItem(ctx, id, actor.ID)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, fmt.Errorf("%w: order has none of your items", ErrForbidden)
		}
	}

	var o *models.Order
	var prev string
	err := s.Repo.Transact(ctx, func(tx *repo.GormRepo) error {
		var err error
		o, err = tx.LockOrder(ctx, id)
		if err != nil {
			return notFound(err, "order")
		}
		prev = o.Status
		if status != "" && status != o.Status {
			if o.Status == models.OrderCancelled {
				return validation("cancelled orders cannot be reopened")
			}
			if status == models.OrderCancelled {
				if err := restoreStock(ctx, tx, o); err != nil {
					return err
				}
				if o.PaymentStatus == models.PaymentPaid {
					o.PaymentStatus = models.PaymentRefunded
				} else {
					o.PaymentStatus = models.PaymentCancelled
				}
			}
			o.Status = status
		}
		if req.DeliveryInfo != nil {
			o.DeliveryInfo = strings.TrimSpace(*req.DeliveryInfo)
		}
		return tx.SetOrderStatus(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	l.Info("order_status_updated", "order_id", o.ID, "from", prev, "to", o.Status, "by", actor.ID)
	s.Updates.Emit(ctx, tenant.ID(ctx), "order", "status_updated", map[string]any{"id": o.ID, "status": o.Status})
	if prev != o.Status {
		s.Notifier.notifyAfterCommit(ctx, []uint{o.UserID}, "Order update",
			fmt.Sprintf("Order #%d is now %s.", o.ID, o.Status))
	}
	return o, nil
}

// RetryPayment opens a fresh Razorpay order for an order that is still
// waiting for its money.
func (s *OrderService) RetryPayment(ctx context.Context, userID, id uint) (*transport.CheckoutResponse, error) {
	o, err := s.Repo.OrderByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("%w: order not found", ErrNotFound)
	}
	if o.PaymentStatus != models.PaymentUnpaid ||
		(o.Status != models.OrderPending && o.Status != models.OrderPendingPayment) {
		return nil, validation("order is not awaiting payment")
	}
	ro, keys, err := createRemoteOrder(ctx, s.Repo, s.Gateway, s.Keys, o)
	if err != nil {
		return nil, err
	}
	return &transport.CheckoutResponse{
		OrderID:         o.ID,
		PG:              payments.MethodRazorpay,
		Amount:          o.TotalAmount,
		Currency:        ro.Currency,
		RazorpayOrderID: ro.ID,
		RazorpayKey:     keys.RazorpayKeyID,
	}, nil
}

// createRemoteOrder creates a Razorpay order for the total of o and stores
// its id as the payment reference.
func createRemoteOrder(ctx context.Context, r *repo.GormRepo, gw payments.Gateway, kr *KeyResolver, o *models.Order) (*payments.RemoteOrder, payments.Keys, error) {
	if gw == nil {
		return nil, payments.Keys{}, gatewayError(payments.ErrNotConfigured)
	}
	keys, err := kr.Resolve(ctx)
	if err != nil {
		return nil, keys, err
	}
	paise := payments.ChargeAmount(payments.MethodRazorpay, o.TotalAmount)
	ro, err := gw.CreateRazorpayOrder(ctx, keys, paise, strconv.FormatUint(uint64(o.ID), 10))
	if err != nil {
		logging.FromContext(ctx).Error("razorpay_order_failed", "order_id", o.ID, "error", err)
		return nil, keys, gatewayError(err)
	}
	if ro.Currency == "" {
		ro.Currency = payments.Currency(payments.MethodRazorpay)
	}
	if err := r.UpdateOrder(ctx, o.ID, map[string]any{
		"payment_gateway":   payments.MethodRazorpay,
		"payment_reference": ro.ID,
	}); err != nil {
		return nil, keys, err
	}
	return ro, keys, nil
}
