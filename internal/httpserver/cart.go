package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/labstack/echo/v4"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	view, err := h.Svc.GetCart(ctx, uid)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	req := transport.AddToCartRequest{Quantity: 1}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_item_error", "invalid body", err)
	}

	view, err := h.Svc.AddItem(ctx, uid, req)
	if err != nil {
		return fail(l, "add_item_error", err)
	}
	l.Info("add_item_success", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_item_error", err.Error(), err)
	}
	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_item_error", "invalid body", err)
	}

	view, err := h.Svc.UpdateItem(ctx, uid, id, req.Quantity)
	if err != nil {
		return fail(l, "update_item_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "remove_item_error", err.Error(), err)
	}

	view, err := h.Svc.RemoveItem(ctx, uid, id)
	if err != nil {
		return fail(l, "remove_item_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) ApplyCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.apply_coupon")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.CouponCodeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "apply_coupon_error", "invalid body", err)
	}

	view, err := h.Svc.ApplyCoupon(ctx, uid, req.Code)
	if err != nil {
		return fail(l, "apply_coupon_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) RemoveCoupon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_coupon")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	view, err := h.Svc.RemoveCoupon(ctx, uid)
	if err != nil {
		return fail(l, "remove_coupon_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Wishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.list")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.Wishlist(ctx, uid)
	if err != nil {
		return fail(l, "wishlist_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHTTP) AddToWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.add")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.WishlistRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "wishlist_add_error", "invalid body", err)
	}

	items, err := h.Svc.AddToWishlist(ctx, uid, req.ProductID)
	if err != nil {
		return fail(l, "wishlist_add_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHTTP) RemoveFromWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "product_id")
	if err != nil {
		return badRequest(l, "wishlist_remove_error", err.Error(), err)
	}
	if err := h.Svc.RemoveFromWishlist(ctx, uid, id); err != nil {
		return fail(l, "wishlist_remove_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Addresses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.list")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.Addresses(ctx, uid)
	if err != nil {
		return fail(l, "address_list_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHTTP) CreateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.create")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "address_create_error", "invalid body", err)
	}

	a, err := h.Svc.CreateAddress(ctx, uid, req)
	if err != nil {
		return fail(l, "address_create_error", err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *CartHTTP) UpdateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.update")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "address_update_error", err.Error(), err)
	}
	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "address_update_error", "invalid body", err)
	}

	a, err := h.Svc.UpdateAddress(ctx, uid, id, req)
	if err != nil {
		return fail(l, "address_update_error", err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *CartHTTP) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.delete")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "address_delete_error", err.Error(), err)
	}
	if err := h.Svc.DeleteAddress(ctx, uid, id); err != nil {
		return fail(l, "address_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) SetDefaultAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.set_default")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "address_default_error", err.Error(), err)
	}
	if err := h.Svc.SetDefaultAddress(ctx, uid, id); err != nil {
		return fail(l, "address_default_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "default address updated"})
}
