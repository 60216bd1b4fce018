package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/labstack/echo/v4"
)

type SellerHTTP struct {
	Svc *service.SellerService
}

func (h *SellerHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.dashboard")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	out, err := h.Svc.Dashboard(ctx, uid)
	if err != nil {
		return fail(l, "seller_dashboard_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SellerHTTP) Orders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.orders")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.Orders(ctx, uid)
	if err != nil {
		return fail(l, "seller_orders_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *SellerHTTP) BankDetails(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.bank_details")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	u, err := h.Svc.BankDetails(ctx, uid)
	if err != nil {
		return fail(l, "bank_details_error", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *SellerHTTP) UpdateBankDetails(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.update_bank_details")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.BankDetailsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "bank_details_error", "invalid body", err)
	}

	u, err := h.Svc.UpdateBankDetails(ctx, uid, req)
	if err != nil {
		return fail(l, "bank_details_error", err)
	}
	l.Info("bank_details_updated", "seller_id", uid)
	return c.JSON(http.StatusOK, u)
}

func (h *SellerHTTP) Withdrawals(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.withdrawals")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	out, err := h.Svc.Withdrawals(ctx, uid)
	if err != nil {
		return fail(l, "withdrawals_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SellerHTTP) RequestWithdrawal(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.request_withdrawal")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.WithdrawalRequestBody
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "withdrawal_request_error", "invalid body", err)
	}

	out, err := h.Svc.RequestWithdrawal(ctx, uid, req)
	if err != nil {
		return fail(l, "withdrawal_request_error", err)
	}
	l.Info("withdrawal_requested", "withdrawal_id", out.ID, "amount", out.Amount)
	return c.JSON(http.StatusCreated, out)
}

func (h *SellerHTTP) CancelWithdrawal(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.cancel_withdrawal")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "withdrawal_cancel_error", err.Error(), err)
	}
	bal, err := h.Svc.CancelWithdrawal(ctx, uid, id)
	if err != nil {
		return fail(l, "withdrawal_cancel_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "withdrawal cancelled", "balance": bal})
}

func (h *SellerHTTP) Transactions(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.transactions")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.Transactions(ctx, uid)
	if err != nil {
		return fail(l, "transactions_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *SellerHTTP) AddPurchaseBill(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.add_purchase_bill")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	var req transport.PurchaseBillRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "purchase_bill_error", "invalid body", err)
	}

	bill, err := h.Svc.AddPurchaseBill(ctx, uid, req)
	if err != nil {
		return fail(l, "purchase_bill_error", err)
	}
	return c.JSON(http.StatusCreated, bill)
}

func (h *SellerHTTP) PurchaseBills(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.purchase_bills")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.PurchaseBills(ctx, uid)
	if err != nil {
		return fail(l, "purchase_bills_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *SellerHTTP) SalesBills(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "seller.sales_bills")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.SalesBills(ctx, uid)
	if err != nil {
		return fail(l, "sales_bills_error", err)
	}
	return c.JSON(http.StatusOK, items)
}
