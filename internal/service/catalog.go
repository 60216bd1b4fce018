package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/es"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/tenant"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const featuredLimit = 16

type CatalogService struct {
	Repo    *repo.GormRepo
	Search  *es.ProductIndex
	Updates *mykafka.Broadcaster
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.Repo.CategoryBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return c, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor Actor, req transport.CategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validation("name is required")
	}
	slug := slugify(req.Slug)
	if slug == "" {
		slug = slugify(name)
	}
	if slug == "" {
		return nil, validation("slug is required")
	}

	c := &models.Category{
		Name:        name,
		Slug:        slug,
		Description: req.Description,
		Image:       req.Image,
		IsApproved:  actor.IsAdmin(),
	}
	if !actor.IsAdmin() {
		id := actor.ID
		c.SellerID = &id
	}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: category name or slug already exists", ErrConflict)
		}
		return nil, err
	}
	s.Updates.Emit(ctx, tenant.ID(ctx), "category", "created", map[string]any{"id": c.ID, "name": c.Name})
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, req transport.CategoryRequest) (*models.Category, error) {
	c, err := s.Repo.CategoryByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		c.Name = name
	}
	if slug := slugify(req.Slug); slug != "" {
		c.Slug = slug
	}
	if req.Description != "" {
		c.Description = req.Description
	}
	if req.Image != "" {
		c.Image = req.Image
	}
	c.IsApproved = true
	if err := s.Repo.SaveCategory(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: category name or slug already exists", ErrConflict)
		}
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	n, _, err := s.Repo.ListProducts(ctx, repo.ProductFilter{CategoryID: id, Limit: 1})
	if err != nil {
		return err
	}
	if n > 0 {
		return validation("category still has products")
	}
	return notFound(s.Repo.DeleteCategory(ctx, id), "category")
}

func (s *CatalogService) ListProducts(ctx context.Context, q transport.ProductQuery) (*transport.ProductPage, error) {
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, validation("min_price must not exceed max_price")
	}
	offset, limit := util.Calculate(q.Page, q.Size)
	total, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{
		Status:       models.ProductApproved,
		VisibleOnly:  true,
		CategorySlug: q.Category,
		Brand:        q.Brand,
		MinPrice:     q.MinPrice,
		MaxPrice:     q.MaxPrice,
		InStock:      q.InStock,
		Sort:         q.Sort,
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}
	return &transport.ProductPage{Data: items, Meta: util.NewMeta(q.Page, offset, limit, total)}, nil
}

func (s *CatalogService) Filters(ctx context.Context) (*transport.ProductFilters, error) {
	brands, err := s.Repo.Brands(ctx)
	if err != nil {
		return nil, err
	}
	lo, hi, err := s.Repo.PriceRange(ctx)
	if err != nil {
		return nil, err
	}
	if brands == nil {
		brands = []string{}
	}
	return &transport.ProductFilters{Brands: brands, PriceRange: transport.PriceRange{Min: lo, Max: hi}}, nil
}

func (s *CatalogService) Featured(ctx context.Context) ([]models.Product, error) {
	return s.Repo.FeaturedProducts(ctx, featuredLimit)
}

// Product returns an approved product for the storefront. A product whose
// seller is unapproved or inactive is forbidden.
func (s *CatalogService) Product(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.ProductByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if p.Status != models.ProductApproved {
		return nil, fmt.Errorf("%w: product not found", ErrNotFound)
	}
	ok, err := s.Repo.SellerVisible(ctx, p.SellerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: seller is not active", ErrForbidden)
	}
	return p, nil
}

// SearchProducts uses the search index when one is configured and falls back
// to a LIKE query otherwise or when the index is unreachable.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, page, size int) (*transport.ProductPage, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validation("q is required")
	}
	offset, limit := util.Calculate(page, size)

	if s.Search != nil {
		total, ids, err := s.Search.Search(ctx, tenant.ID(ctx), query, offset, limit)
		if err == nil {
			items, err := s.Repo.ProductsByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			return &transport.ProductPage{Data: orderByIDs(items, ids), Meta: util.NewMeta(page, offset, limit, total)}, nil
		}
		l.Warn("search_index_unavailable", "error", err)
	}

	total, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{
		Status:      models.ProductApproved,
		VisibleOnly: true,
		Query:       query,
		Offset:      offset,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}
	return &transport.ProductPage{Data: items, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

// orderByIDs restores the relevance order of search hits.
func orderByIDs(items []models.Product, ids []uint) []models.Product {
	byID := make(map[uint]models.Product, len(items))
	for _, p := range items {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(items))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *CatalogService) AddReview(ctx context.Context, userID, productID uint, req transport.ReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, validation("rating must be between 1 and 5")
	}
	if _, err := s.Product(ctx, productID); err != nil {
		return nil, err
	}
	exists, err := s.Repo.ReviewExists(ctx, productID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: you have already reviewed this product", ErrConflict)
	}

	rev := &models.Review{ProductID: productID, UserID: userID, Rating: req.Rating, Comment: strings.TrimSpace(req.Comment)}
	if _, err := s.Repo.AddReview(ctx, rev); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: you have already reviewed this product", ErrConflict)
		}
		return nil, err
	}
	return rev, nil
}

func (s *CatalogService) Reviews(ctx context.Context, productID uint) ([]models.Review, error) {
	return s.Repo.ListReviews(ctx, productID)
}

func (s *CatalogService) SellerProducts(ctx context.Context, sellerID uint) ([]models.Product, error) {
	_, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{SellerID: sellerID})
	return items, err
}

// AdminProducts lists products in any state, optionally filtered by status.
func (s *CatalogService) AdminProducts(ctx context.Context, status string) ([]models.Product, error) {
	_, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{Status: status})
	return items, err
}

// OwnedProduct loads a product the actor may manage.
func (s *CatalogService) OwnedProduct(ctx context.Context, actor Actor, id uint) (*models.Product, error) {
	p, err := s.Repo.ProductByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if !actor.IsAdmin() && p.SellerID != actor.ID {
		return nil, fmt.Errorf("%w: product not found", ErrNotFound)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, sellerID uint, req transport.CreateProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_product")

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, validation("name is required")
	case req.Price <= 0:
		return nil, validation("price must be > 0")
	case req.MRP < 0:
		return nil, validation("mrp must be >= 0")
	case req.Stock < 0:
		return nil, validation("stock must be >= 0")
	case req.CategoryID == 0:
		return nil, validation("category_id is required")
	}
	if _, err := s.Repo.CategoryByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validation("unknown category")
		}
		return nil, err
	}

	p := &models.Product{
		SellerID:       sellerID,
		CategoryID:     req.CategoryID,
		Name:           name,
		Description:    req.Description,
		Price:          util.RoundMoney(req.Price),
		MRP:            util.RoundMoney(req.MRP),
		Status:         models.ProductPending,
		SKU:            strings.TrimSpace(req.SKU),
		Brand:          strings.TrimSpace(req.Brand),
		Specifications: datatypes.JSONMap(req.Specifications),
	}
	if err := s.Repo.CreateProduct(ctx, p, req.Stock); err != nil {
		return nil, err
	}
	for i, fileID := range req.ImageFileIDs {
		img := &models.ProductImage{ProductID: p.ID, FileID: fileID, Position: i}
		if err := s.Repo.AddProductImage(ctx, img); err != nil {
			return nil, err
		}
		p.Images = append(p.Images, *img)
	}

	l.Info("product_created", "product_id", p.ID, "seller_id", sellerID)
	s.Updates.Emit(ctx, tenant.ID(ctx), "product", "created", map[string]any{"id": p.ID, "name": p.Name})
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, actor Actor, id uint, req transport.PatchProductRequest) (*models.Product, error) {
	if _, err := s.OwnedProduct(ctx, actor, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validation("name must not be empty")
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, validation("price must be > 0")
		}
		fields["price"] = util.RoundMoney(*req.Price)
	}
	if req.MRP != nil {
		if *req.MRP < 0 {
			return nil, validation("mrp must be >= 0")
		}
		fields["mrp"] = util.RoundMoney(*req.MRP)
	}
	if req.CategoryID != nil {
		if _, err := s.Repo.CategoryByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validation("unknown category")
			}
			return nil, err
		}
		fields["category_id"] = *req.CategoryID
	}
	if req.SKU != nil {
		fields["sku"] = strings.TrimSpace(*req.SKU)
	}
	if req.Brand != nil {
		fields["brand"] = strings.TrimSpace(*req.Brand)
	}
	if req.Specifications != nil {
		fields["specifications"] = datatypes.JSONMap(req.Specifications)
	}
	if len(fields) > 0 {
		if err := s.Repo.UpdateProduct(ctx, id, fields); err != nil {
			return nil, notFound(err, "product")
		}
	}

	p, err := s.Repo.ProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.syncIndex(ctx, p)
	s.Updates.Emit(ctx, tenant.ID(ctx), "product", "updated", map[string]any{"id": p.ID})
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.OwnedProduct(ctx, actor, id); err != nil {
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err, "product")
	}
	if s.Search != nil {
		if err := s.Search.Remove(ctx, tenant.ID(ctx), id); err != nil {
			logging.FromContext(ctx).Warn("search_remove_failed", "product_id", id, "error", err)
		}
	}
	s.Updates.Emit(ctx, tenant.ID(ctx), "product", "deleted", map[string]any{"id": id})
	return nil
}

func (s *CatalogService) UpdateStock(ctx context.Context, actor Actor, id uint, stock int) (*models.Inventory, error) {
	if stock < 0 {
		return nil, validation("stock must be >= 0")
	}
	if _, err := s.OwnedProduct(ctx, actor, id); err != nil {
		return nil, err
	}
	inv, err := s.Repo.SetStock(ctx, id, stock)
	if err != nil {
		return nil, err
	}
	s.Updates.Emit(ctx, tenant.ID(ctx), "inventory", "updated", map[string]any{"product_id": id, "stock_qty": stock})
	return inv, nil
}

// SetStatus moderates a product and keeps the search index in step: only
// approved products are searchable.
func (s *CatalogService) SetStatus(ctx context.Context, id uint, status string) (*models.Product, error) {
	switch status {
	case models.ProductApproved, models.ProductRejected, models.ProductPending:
	default:
		return nil, validation("status must be approved, rejected or pending")
	}
	if err := s.Repo.UpdateProduct(ctx, id, map[string]any{"status": status}); err != nil {
		return nil, notFound(err, "product")
	}
	p, err := s.Repo.ProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.syncIndex(ctx, p)
	s.Updates.Emit(ctx, tenant.ID(ctx), "product", "updated", map[string]any{"id": p.ID, "status": p.Status})
	return p, nil
}

func (s *CatalogService) syncIndex(ctx context.Context, p *models.Product) {
	if s.Search == nil {
		return
	}
	var err error
	if p.Status == models.ProductApproved {
		err = s.Search.Upsert(ctx, tenant.ID(ctx), p)
	} else {
		err = s.Search.Remove(ctx, tenant.ID(ctx), p.ID)
	}
	if err != nil {
		logging.FromContext(ctx).Warn("search_sync_failed", "product_id", p.ID, "error", err)
	}
}
