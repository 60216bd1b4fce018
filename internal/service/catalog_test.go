package service

import (
	"context"
	"testing"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) (*CatalogService, *capture) {
	t.Helper()
	pub := &capture{}
	return &CatalogService{Repo: newTestRepo(t), Updates: &mykafka.Broadcaster{Pub: pub, Topic: "updates"}}, pub
}

func floatPtr(f float64) *float64 { return &f }

func TestCategories(t *testing.T) {
	t.Parallel()

	s, pub := newCatalog(t)
	ctx := context.Background()
	admin := Actor{ID: 1, Role: models.RoleAdmin}

	c, err := s.CreateCategory(ctx, admin, transport.CategoryRequest{Name: "Home & Garden"})
	require.NoError(t, err)
	assert.Equal(t, "home-garden", c.Slug)
	assert.True(t, c.IsApproved)
	assert.Equal(t, []string{"created"}, pub.actions("category"))

	_, err = s.CreateCategory(ctx, admin, transport.CategoryRequest{Name: "Home & Garden", Slug: "other"})
	require.ErrorIs(t, err, ErrConflict)
	_, err = s.CreateCategory(ctx, admin, transport.CategoryRequest{Name: "  "})
	require.ErrorIs(t, err, ErrValidation)

	got, err := s.CategoryBySlug(ctx, "home-garden")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	_, err = s.CategoryBySlug(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)

	own, err := s.CreateCategory(ctx, Actor{ID: 7, Role: models.RoleSeller}, transport.CategoryRequest{Name: "Toys"})
	require.NoError(t, err)
	assert.False(t, own.IsApproved)
	require.NotNil(t, own.SellerID)
	assert.Equal(t, uint(7), *own.SellerID)

	seedProduct(t, s.Repo, 7, "Rake", 10, 1)
	general, err := s.CategoryBySlug(ctx, "general")
	require.NoError(t, err)
	require.ErrorIs(t, s.DeleteCategory(ctx, general.ID), ErrValidation)
	require.NoError(t, s.DeleteCategory(ctx, own.ID))
}

func TestListProducts_FiltersAndSort(t *testing.T) {
	t.Parallel()

	s, _ := newCatalog(t)
	ctx := context.Background()
	seller := seedUser(t, s.Repo, "seller@example.com", models.RoleSeller)

	cheap := seedProduct(t, s.Repo, seller.ID, "Cheap pen", 5, 10)
	mid := seedProduct(t, s.Repo, seller.ID, "Mid pen", 50, 0)
	dear := seedProduct(t, s.Repo, seller.ID, "Dear pen", 500, 3)
	pending := seedProduct(t, s.Repo, seller.ID, "Hidden pen", 1, 3)
	require.NoError(t, s.Repo.UpdateProduct(ctx, pending.ID, map[string]any{"status": models.ProductPending}))
	require.NoError(t, s.Repo.UpdateProduct(ctx, dear.ID, map[string]any{"brand": "Lux"}))

	page, err := s.ListProducts(ctx, transport.ProductQuery{Sort: "price_low_high"})
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	assert.Equal(t, []uint{cheap.ID, mid.ID, dear.ID}, productIDs(page.Data))
	assert.EqualValues(t, 3, page.Meta.Total)

	page, err = s.ListProducts(ctx, transport.ProductQuery{Sort: "price_high_low", InStock: true})
	require.NoError(t, err)
	assert.Equal(t, []uint{dear.ID, cheap.ID}, productIDs(page.Data))

	page, err = s.ListProducts(ctx, transport.ProductQuery{MinPrice: floatPtr(10), MaxPrice: floatPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, []uint{mid.ID}, productIDs(page.Data))

	page, err = s.ListProducts(ctx, transport.ProductQuery{Brand: "Lux", Category: "general"})
	require.NoError(t, err)
	assert.Equal(t, []uint{dear.ID}, productIDs(page.Data))

	_, err = s.ListProducts(ctx, transport.ProductQuery{MinPrice: floatPtr(100), MaxPrice: floatPtr(10)})
	require.ErrorIs(t, err, ErrValidation)

	f, err := s.Filters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lux"}, f.Brands)
	assert.InDelta(t, 5, f.PriceRange.Min, 0.001)
	assert.InDelta(t, 500, f.PriceRange.Max, 0.001)

	_, err = s.Product(ctx, pending.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func productIDs(items []models.Product) []uint {
	out := make([]uint, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func TestSearchProducts_SQLFallback(t *testing.T) {
	t.Parallel()

	s, _ := newCatalog(t)
	ctx := context.Background()
	seedProduct(t, s.Repo, 1, "Blue kettle", 20, 1)
	seedProduct(t, s.Repo, 1, "Red mug", 5, 1)

	page, err := s.SearchProducts(ctx, "kettle", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Blue kettle", page.Data[0].Name)

	_, err = s.SearchProducts(ctx, "  ", 1, 10)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAddReview_RollingMean(t *testing.T) {
	t.Parallel()

	s, _ := newCatalog(t)
	ctx := context.Background()
	p := seedProduct(t, s.Repo, 1, "Lamp", 30, 1)

	_, err := s.AddReview(ctx, 10, p.ID, transport.ReviewRequest{Rating: 6})
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.AddReview(ctx, 10, p.ID, transport.ReviewRequest{Rating: 5, Comment: " great "})
	require.NoError(t, err)
	_, err = s.AddReview(ctx, 11, p.ID, transport.ReviewRequest{Rating: 2})
	require.NoError(t, err)
	_, err = s.AddReview(ctx, 10, p.ID, transport.ReviewRequest{Rating: 1})
	require.ErrorIs(t, err, ErrConflict)

	got, err := s.Product(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReviewCount)
	assert.InDelta(t, 3.5, got.AverageRating, 0.0001)

	reviews, err := s.Reviews(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)

	_, err = s.AddReview(ctx, 10, 9999, transport.ReviewRequest{Rating: 3})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSellerProducts_Ownership(t *testing.T) {
	t.Parallel()

	s, pub := newCatalog(t)
	ctx := context.Background()
	owner := Actor{ID: 3, Role: models.RoleSeller}
	other := Actor{ID: 4, Role: models.RoleSeller}

	cat, err := s.CreateCategory(ctx, Actor{ID: 1, Role: models.RoleAdmin}, transport.CategoryRequest{Name: "Audio"})
	require.NoError(t, err)

	_, err = s.CreateProduct(ctx, owner.ID, transport.CreateProductRequest{Name: "Amp", Price: 0, CategoryID: cat.ID})
	require.ErrorIs(t, err, ErrValidation)
	_, err = s.CreateProduct(ctx, owner.ID, transport.CreateProductRequest{Name: "Amp", Price: 10, CategoryID: 999})
	require.ErrorIs(t, err, ErrValidation)

	p, err := s.CreateProduct(ctx, owner.ID, transport.CreateProductRequest{
		Name: "Amp", Price: 99.999, CategoryID: cat.ID, Stock: 4,
		Specifications: map[string]any{"watts": 40},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProductPending, p.Status)
	assert.InDelta(t, 100, p.Price, 0.001)

	inv, err := s.Repo.InventoryByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, inv.StockQty)
	assert.Equal(t, 5, inv.LowStockThreshold)

	name := "Other amp"
	_, err = s.UpdateProduct(ctx, other, p.ID, transport.PatchProductRequest{Name: &name})
	require.ErrorIs(t, err, ErrNotFound)
	upd, err := s.UpdateProduct(ctx, owner, p.ID, transport.PatchProductRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, upd.Name)

	_, err = s.UpdateStock(ctx, owner, p.ID, -1)
	require.ErrorIs(t, err, ErrValidation)
	inv, err = s.UpdateStock(ctx, owner, p.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, 9, inv.StockQty)

	_, err = s.SetStatus(ctx, p.ID, "archived")
	require.ErrorIs(t, err, ErrValidation)
	approved, err := s.SetStatus(ctx, p.ID, models.ProductApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ProductApproved, approved.Status)

	mine, err := s.SellerProducts(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.ErrorIs(t, s.DeleteProduct(ctx, other, p.ID), ErrNotFound)
	require.NoError(t, s.DeleteProduct(ctx, owner, p.ID))
	assert.Equal(t, []string{"created", "updated", "updated", "deleted"}, pub.actions("product"))
}

func TestStorefront_HidesInactiveSellers(t *testing.T) {
	t.Parallel()

	s, _ := newCatalog(t)
	ctx := context.Background()
	seller := seedUser(t, s.Repo, "seller@example.com", models.RoleSeller)
	p := seedProduct(t, s.Repo, seller.ID, "Blue kettle", 20, 3)
	require.NoError(t, s.Repo.UpdateProduct(ctx, p.ID, map[string]any{"brand": "Acme"}))

	page, err := s.ListProducts(ctx, transport.ProductQuery{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"unapproved", map[string]any{"is_approved": false, "is_active": true}},
		{"inactive", map[string]any{"is_approved": true, "is_active": false}},
	}
	for _, tt := range tests {
		require.NoError(t, s.Repo.UpdateUser(ctx, seller.ID, tt.fields), tt.name)

		page, err := s.ListProducts(ctx, transport.ProductQuery{})
		require.NoError(t, err)
		assert.Empty(t, page.Data, tt.name)
		assert.Zero(t, page.Meta.Total, tt.name)

		featured, err := s.Featured(ctx)
		require.NoError(t, err)
		assert.Empty(t, featured, tt.name)

		f, err := s.Filters(ctx)
		require.NoError(t, err)
		assert.Empty(t, f.Brands, tt.name)

		found, err := s.SearchProducts(ctx, "kettle", 1, 10)
		require.NoError(t, err)
		assert.Empty(t, found.Data, tt.name)

		_, err = s.Product(ctx, p.ID)
		require.ErrorIs(t, err, ErrForbidden, tt.name)
	}
}
