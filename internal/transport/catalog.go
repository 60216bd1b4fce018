package transport

import (
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/util"
)

type CategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type ProductQuery struct {
	Category string
	Brand    string
	MinPrice *float64
	MaxPrice *float64
	InStock  bool
	Sort     string
	Page     int
	Size     int
}

type ProductPage struct {
	Data []models.Product `json:"data"`
	Meta util.Meta        `json:"meta"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type ProductFilters struct {
	Brands     []string   `json:"brands"`
	PriceRange PriceRange `json:"price_range"`
}

type CreateProductRequest struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Price          float64        `json:"price"`
	MRP            float64        `json:"mrp"`
	CategoryID     uint           `json:"category_id"`
	SKU            string         `json:"sku"`
	Brand          string         `json:"brand"`
	Specifications map[string]any `json:"specifications"`
	Stock          int            `json:"stock"`
	ImageFileIDs   []uint         `json:"image_file_ids"`
}

type PatchProductRequest struct {
	Name           *string        `json:"name"`
	Description    *string        `json:"description"`
	Price          *float64       `json:"price"`
	MRP            *float64       `json:"mrp"`
	CategoryID     *uint          `json:"category_id"`
	SKU            *string        `json:"sku"`
	Brand          *string        `json:"brand"`
	Specifications map[string]any `json:"specifications"`
}

type StockRequest struct {
	Stock *int `json:"stock"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
