package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) Categories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.categories")

	items, err := h.Svc.Categories(ctx)
	if err != nil {
		return fail(l, "get_categories_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) CategoryBySlug(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.category_by_slug")

	cat, err := h.Svc.CategoryBySlug(ctx, c.Param("slug"))
	if err != nil {
		return fail(l, "get_category_error", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_category")

	a, err := actor(c)
	if err != nil {
		return err
	}
	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_category_error", "invalid body", err)
	}

	cat, err := h.Svc.CreateCategory(ctx, a, req)
	if err != nil {
		return fail(l, "create_category_error", err)
	}
	l.Info("create_category_success", "category_id", cat.ID)
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.update_category")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_category_error", err.Error(), err)
	}
	var req transport.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_category_error", "invalid body", err)
	}

	cat, err := h.Svc.UpdateCategory(ctx, id, req)
	if err != nil {
		return fail(l, "update_category_error", err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_category")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_category_error", err.Error(), err)
	}
	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return fail(l, "delete_category_error", err)
	}
	l.Info("delete_category_success", "category_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_products")

	q := transport.ProductQuery{
		Category: c.QueryParam("category"),
		Brand:    c.QueryParam("brand"),
		InStock:  c.QueryParam("in_stock") == "true",
		Sort:     c.QueryParam("sort"),
		Page:     util.ParseIntDefault(c.QueryParam("page"), 1),
		Size:     util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	}
	if v := c.QueryParam("min_price"); v != "" {
		f := util.ParseFloatDefault(v, 0)
		q.MinPrice = &f
	}
	if v := c.QueryParam("max_price"); v != "" {
		f := util.ParseFloatDefault(v, 0)
		q.MaxPrice = &f
	}

	page, err := h.Svc.ListProducts(ctx, q)
	if err != nil {
		return fail(l, "get_products_error", err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *CatalogHTTP) Filters(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.filters")

	out, err := h.Svc.Filters(ctx)
	if err != nil {
		return fail(l, "get_filters_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHTTP) Featured(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.featured")

	items, err := h.Svc.Featured(ctx)
	if err != nil {
		return fail(l, "get_featured_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_product_failed", err.Error(), err)
	}
	p, err := h.Svc.Product(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search_products")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	out, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(l, "search_products_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHTTP) Reviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.reviews")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_reviews_error", err.Error(), err)
	}
	items, err := h.Svc.Reviews(ctx, id)
	if err != nil {
		return fail(l, "get_reviews_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) AddReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.add_review")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "add_review_error", err.Error(), err)
	}
	var req transport.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_review_error", "invalid body", err)
	}

	rv, err := h.Svc.AddReview(ctx, uid, id, req)
	if err != nil {
		return fail(l, "add_review_error", err)
	}
	l.Info("add_review_success", "product_id", id)
	return c.JSON(http.StatusCreated, rv)
}

func (h *CatalogHTTP) SellerProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.products")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.SellerProducts(ctx, uid)
	if err != nil {
		return fail(l, "seller_products_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) OwnedProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.product")

	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "seller_product_error", err.Error(), err)
	}
	p, err := h.Svc.OwnedProduct(ctx, a, id)
	if err != nil {
		return fail(l, "seller_product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.create_product")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_create_error", "invalid body", err)
	}

	p, err := h.Svc.CreateProduct(ctx, uid, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}
	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.patch_product")

	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "product_patch_error", err.Error(), err)
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_patch_error", "invalid body", err)
	}

	p, err := h.Svc.UpdateProduct(ctx, a, id, req)
	if err != nil {
		return fail(l, "product_patch_error", err)
	}
	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.delete_product")

	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "product_delete_error", err.Error(), err)
	}
	if err := h.Svc.DeleteProduct(ctx, a, id); err != nil {
		return fail(l, "product_delete_error", err)
	}
	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) UpdateStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.update_stock")

	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_stock_error", err.Error(), err)
	}
	var req transport.StockRequest
	if err := c.Bind(&req); err != nil || req.Stock == nil {
		return badRequest(l, "update_stock_error", "stock is required", err)
	}

	inv, err := h.Svc.UpdateStock(ctx, a, id, *req.Stock)
	if err != nil {
		return fail(l, "update_stock_error", err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *CatalogHTTP) AdminProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.products")

	items, err := h.Svc.AdminProducts(ctx, c.QueryParam("status"))
	if err != nil {
		return fail(l, "admin_products_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) SetProductStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.product_status")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "product_status_error", err.Error(), err)
	}
	var req transport.StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_status_error", "invalid body", err)
	}

	p, err := h.Svc.SetStatus(ctx, id, req.Status)
	if err != nil {
		return fail(l, "product_status_error", err)
	}
	l.Info("product_status_updated", "product_id", id, "product_status", p.Status)
	return c.JSON(http.StatusOK, p)
}
