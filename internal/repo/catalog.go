package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := r.conn(ctx).Order("name ASC").Find(&cats).Error
	return cats, err
}

func (r *GormRepo) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := r.conn(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.conn(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.conn(ctx).Create(c).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, c *models.Category) error {
	return r.conn(ctx).Save(c).Error
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	res := r.conn(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

type ProductFilter struct {
	Status       string
	CategorySlug string
	CategoryID   uint
	SellerID     uint
	Brand        string
	MinPrice     *float64
	MaxPrice     *float64
	InStock      bool
	// VisibleOnly hides products whose seller is unapproved or inactive.
	VisibleOnly  bool
	Query        string
	Sort         string
	Offset       int
	Limit        int
}

const visibleSeller = "EXISTS (SELECT 1 FROM users WHERE users.id = products.seller_id AND users.is_active = ? AND users.is_approved = ?)"

func sellerVisible(db *gorm.DB) *gorm.DB {
	return db.Where(visibleSeller, true, true)
}

// SellerVisible reports whether the seller's products may be shown and sold.
func (r *GormRepo) SellerVisible(ctx context.Context, sellerID uint) (bool, error) {
	var n int64
	err := r.conn(ctx).Model(&models.User{}).
		Where("id = ? AND is_active = ? AND is_approved = ?", sellerID, true, true).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) filteredProducts(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.conn(ctx).Model(&models.Product{})
	if f.VisibleOnly {
		q = q.Scopes(sellerVisible)
	}
	if f.Status != "" {
		q = q.Where("products.status = ?", f.Status)
	}
	if f.SellerID != 0 {
		q = q.Where("products.seller_id = ?", f.SellerID)
	}
	if f.CategoryID != 0 {
		q = q.Where("products.category_id = ?", f.CategoryID)
	}
	if f.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", f.CategorySlug)
	}
	if f.Brand != "" {
		q = q.Where("LOWER(products.brand) = ?", strings.ToLower(f.Brand))
	}
	if f.MinPrice != nil {
		q = q.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("products.price <= ?", *f.MaxPrice)
	}
	if f.InStock {
		q = q.Where("EXISTS (SELECT 1 FROM inventories WHERE inventories.product_id = products.id AND inventories.stock_qty > 0)")
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ? OR LOWER(products.brand) LIKE ?", like, like, like)
	}
	return q
}

func productOrder(sort string) clause.OrderByColumn {
	switch sort {
	case "price_low_high":
		return clause.OrderByColumn{Column: clause.Column{Table: "products", Name: "price"}}
	case "price_high_low":
		return clause.OrderByColumn{Column: clause.Column{Table: "products", Name: "price"}, Desc: true}
	case "popularity":
		return clause.OrderByColumn{Column: clause.Column{Table: "products", Name: "review_count"}, Desc: true}
	default:
		return clause.OrderByColumn{Column: clause.Column{Table: "products", Name: "created_at"}, Desc: true}
	}
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	var total int64
	if err := r.filteredProducts(ctx, f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	q := r.filteredProducts(ctx, f).
		Preload("Inventory").Preload("Category").Preload("Images").
		Order(productOrder(f.Sort)).
		Order(clause.OrderByColumn{Column: clause.Column{Table: "products", Name: "id"}, Desc: true})
	if f.Limit > 0 {
		q = q.Offset(f.Offset).Limit(f.Limit)
	}

	items := []models.Product{}
	if err := q.Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var items []models.Product
	err := r.conn(ctx).Model(&models.Product{}).Scopes(sellerVisible).
		Preload("Inventory").Preload("Category").
		Where("products.id IN ? AND products.status = ?", ids, models.ProductApproved).Find(&items).Error
	return items, err
}

func (r *GormRepo) Brands(ctx context.Context) ([]string, error) {
	var brands []string
	err := r.conn(ctx).Model(&models.Product{}).Scopes(sellerVisible).
		Where("status = ? AND brand IS NOT NULL AND brand <> ''", models.ProductApproved).
		Distinct().Order("brand ASC").Pluck("brand", &brands).Error
	return brands, err
}

func (r *GormRepo) PriceRange(ctx context.Context) (float64, float64, error) {
	var out struct {
		Min *float64
		Max *float64
	}
	err := r.conn(ctx).Model(&models.Product{}).
		Select("MIN(price) AS min, MAX(price) AS max").
		Scopes(sellerVisible).
		Where("status = ?", models.ProductApproved).
		Scan(&out).Error
	if err != nil || out.Min == nil || out.Max == nil {
		return 0, 0, err
	}
	return *out.Min, *out.Max, nil
}

func (r *GormRepo) FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var items []models.Product
	err := r.conn(ctx).Model(&models.Product{}).Scopes(sellerVisible).
		Preload("Inventory").Preload("Images").
		Where("status = ?", models.ProductApproved).
		Order("average_rating DESC").Order("review_count DESC").Order("id DESC").
		Limit(limit).Find(&items).Error
	return items, err
}

func (r *GormRepo) ProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := r.conn(ctx).Preload("Inventory").Preload("Category").Preload("Images").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts the product and its inventory row together.
func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product, stock int) error {
	return r.Transact(ctx, func(tx *GormRepo) error {
		if err := tx.conn(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		inv := &models.Inventory{ProductID: p.ID, StockQty: stock, LowStockThreshold: 5}
		if err := tx.conn(ctx).Create(inv).Error; err != nil {
			return err
		}
		p.Inventory = inv
		return nil
	})
}

func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, fields map[string]any) error {
	res := r.conn(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.Transact(ctx, func(tx *GormRepo) error {
		db := tx.conn(ctx)
		for _, m := range []any{&models.Inventory{}, &models.ProductImage{}, &models.CartItem{}, &models.WishlistItem{}, &models.Review{}} {
			if err := db.Where("product_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := db.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoRows
		}
		return nil
	})
}

func (r *GormRepo) CountProducts(ctx context.Context, sellerID uint) (int64, error) {
	var n int64
	q := r.conn(ctx).Model(&models.Product{})
	if sellerID != 0 {
		q = q.Where("seller_id = ?", sellerID)
	}
	err := q.Count(&n).Error
	return n, err
}

func (r *GormRepo) AddProductImage(ctx context.Context, img *models.ProductImage) error {
	return r.conn(ctx).Create(img).Error
}

func (r *GormRepo) ReviewExists(ctx context.Context, productID, userID uint) (bool, error) {
	var n int64
	err := r.conn(ctx).Model(&models.Review{}).Where("product_id = ? AND user_id = ?", productID, userID).Count(&n).Error
	return n > 0, err
}

// AddReview stores the review and folds its rating into the product's
// rolling average.
func (r *GormRepo) AddReview(ctx context.Context, rev *models.Review) (*models.Product, error) {
	var prod models.Product
	err := r.Transact(ctx, func(tx *GormRepo) error {
		db := tx.conn(ctx)
		if err := db.Clauses(forUpdate()).First(&prod, rev.ProductID).Error; err != nil {
			return err
		}
		if err := db.Create(rev).Error; err != nil {
			return err
		}
		n := float64(prod.ReviewCount)
		prod.AverageRating = (prod.AverageRating*n + float64(rev.Rating)) / (n + 1)
		prod.ReviewCount++
		return db.Model(&models.Product{}).Where("id = ?", prod.ID).Updates(map[string]any{
			"average_rating": prod.AverageRating,
			"review_count":   prod.ReviewCount,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

func (r *GormRepo) ListReviews(ctx context.Context, productID uint) ([]models.Review, error) {
	var out []models.Review
	err := r.conn(ctx).Preload("User").Where("product_id = ?", productID).Order("created_at DESC").Find(&out).Error
	return out, err
}
