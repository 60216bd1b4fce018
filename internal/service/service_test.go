package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/payments"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/tenant"
	pkgdb "github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	db, err := pkgdb.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	require.NoError(t, tenant.MigrateStore(db))
	t.Cleanup(func() { _ = pkgdb.Close(db) })
	return &repo.GormRepo{DB: db}
}

// capture records every published update.
type capture struct {
	mu      sync.Mutex
	updates []mykafka.Update
}

func (c *capture) PublishEvent(_ context.Context, _, _ string, event any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u, ok := event.(mykafka.Update); ok {
		c.updates = append(c.updates, u)
	}
	return nil
}

func (c *capture) Close() error { return nil }

func (c *capture) actions(entity string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, u := range c.updates {
		if u.Entity == entity {
			out = append(out, u.Action)
		}
	}
	return out
}

type fakeGateway struct {
	err         error
	orders      int
	lastAmt     int64
	lastSession payments.SessionInput
}

func (g *fakeGateway) CreateRazorpayOrder(_ context.Context, _ payments.Keys, amountPaise int64, receipt string) (*payments.RemoteOrder, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.orders++
	g.lastAmt = amountPaise
	return &payments.RemoteOrder{ID: "order_rzp_" + receipt, Amount: amountPaise, Currency: "INR"}, nil
}

func (g *fakeGateway) CreateStripeSession(_ context.Context, _ payments.Keys, in payments.SessionInput) (*payments.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.lastSession = in
	return &payments.CheckoutSession{ID: "cs_" + in.Reference, URL: "https://checkout.example/" + in.Reference}, nil
}

func seedUser(t *testing.T, r *repo.GormRepo, email, role string) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, PasswordHash: "x", Role: role, IsActive: true, IsApproved: true}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, r *repo.GormRepo, sellerID uint, name string, price float64, stock int) *models.Product {
	t.Helper()
	ctx := context.Background()
	cat, err := r.CategoryBySlug(ctx, "general")
	if err != nil {
		cat = &models.Category{Name: "General", Slug: "general", IsApproved: true}
		require.NoError(t, r.CreateCategory(ctx, cat))
	}
	if _, err := r.UserByID(ctx, sellerID); err != nil {
		email := fmt.Sprintf("seller%d@example.com", sellerID)
		u := &models.User{ID: sellerID, Name: email, Email: email, PasswordHash: "x", Role: models.RoleSeller, IsActive: true, IsApproved: true}
		require.NoError(t, r.CreateUser(ctx, u))
	}
	p := &models.Product{SellerID: sellerID, CategoryID: cat.ID, Name: name, Price: price, Status: models.ProductApproved}
	require.NoError(t, r.CreateProduct(ctx, p, stock))
	return p
}

func stockOfProduct(t *testing.T, r *repo.GormRepo, productID uint) int {
	t.Helper()
	inv, err := r.InventoryByProduct(context.Background(), productID)
	require.NoError(t, err)
	return inv.StockQty
}

// shop wires the order and payment services over one store.
type shop struct {
	repo     *repo.GormRepo
	pub      *capture
	gateway  *fakeGateway
	cart     *CartService
	orders   *OrderService
	payments *PaymentService
	coupons  *CouponService
	sellers  *SellerService
}

func newShop(t *testing.T) *shop {
	t.Helper()
	r := newTestRepo(t)
	pub := &capture{}
	updates := &mykafka.Broadcaster{Pub: pub, Topic: "updates"}
	notifier := &Notifier{Repo: r, Updates: updates}
	gw := &fakeGateway{}
	keys := &KeyResolver{Repo: r}
	keys.Env.RazorpayKeyID = "rzp_key"
	keys.Env.RazorpayKeySecret = "rzp_secret"
	keys.Env.RazorpayWebhookSecret = "rzp_whsec"
	keys.Env.StripeWebhookSecret = "whsec_test"

	return &shop{
		repo:     r,
		pub:      pub,
		gateway:  gw,
		cart:     &CartService{Repo: r, Now: clock},
		orders:   &OrderService{Repo: r, Gateway: gw, Keys: keys, Notifier: notifier, Updates: updates, Now: clock},
		payments: &PaymentService{Repo: r, Gateway: gw, Keys: keys, Notifier: notifier, Updates: updates},
		coupons:  &CouponService{Repo: r, Now: clock},
		sellers:  &SellerService{Repo: r, Updates: updates, Now: clock},
	}
}
