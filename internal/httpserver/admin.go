package httpserver

import (
	"net/http"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/labstack/echo/v4"
)

type AdminHTTP struct {
	Svc *service.AdminService
}

func (h *AdminHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.dashboard")

	out, err := h.Svc.Dashboard(ctx, transport.DashboardQuery{
		StartDate: c.QueryParam("start_date"),
		EndDate:   c.QueryParam("end_date"),
		Interval:  c.QueryParam("interval"),
	})
	if err != nil {
		return fail(l, "admin_dashboard_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHTTP) Users(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.users")

	items, err := h.Svc.Users(ctx, c.QueryParam("role"), c.QueryParam("search"))
	if err != nil {
		return fail(l, "admin_users_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_user")

	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_user_error", err.Error(), err)
	}
	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_user_error", "invalid body", err)
	}

	u, err := h.Svc.UpdateUser(ctx, a, id, req)
	if err != nil {
		return fail(l, "update_user_error", err)
	}
	l.Info("user_updated", "user_id", id)
	return c.JSON(http.StatusOK, u)
}

func (h *AdminHTTP) Sellers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.sellers")

	items, err := h.Svc.Users(ctx, models.RoleSeller, c.QueryParam("search"))
	if err != nil {
		return fail(l, "admin_sellers_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) ApproveSeller(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.approve_seller")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "approve_seller_error", err.Error(), err)
	}
	req := transport.ApproveRequest{}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "approve_seller_error", "invalid body", err)
	}
	approved := true
	if req.Approved != nil {
		approved = *req.Approved
	}

	u, err := h.Svc.SetSellerApproval(ctx, id, approved)
	if err != nil {
		return fail(l, "approve_seller_error", err)
	}
	l.Info("seller_approval_set", "seller_id", id, "approved", approved)
	return c.JSON(http.StatusOK, u)
}

func (h *AdminHTTP) SellerRequests(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.seller_requests")

	items, err := h.Svc.SellerRequests(ctx, c.QueryParam("status"))
	if err != nil {
		return fail(l, "seller_requests_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) decideSellerRequest(c echo.Context, approve bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.decide_seller_request")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "seller_request_error", err.Error(), err)
	}
	sr, err := h.Svc.DecideSellerRequest(ctx, id, approve)
	if err != nil {
		return fail(l, "seller_request_error", err)
	}
	l.Info("seller_request_decided", "request_id", id, "approved", approve)
	return c.JSON(http.StatusOK, sr)
}

func (h *AdminHTTP) ApproveSellerRequest(c echo.Context) error {
	return h.decideSellerRequest(c, true)
}

func (h *AdminHTTP) RejectSellerRequest(c echo.Context) error {
	return h.decideSellerRequest(c, false)
}

func (h *AdminHTTP) Orders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders")

	f := repo.OrderFilter{Status: c.QueryParam("status"), SKU: c.QueryParam("sku")}
	if v := c.QueryParam("start_date"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return badRequest(l, "admin_orders_error", "invalid start_date", err)
		}
		f.From = &t
	}
	if v := c.QueryParam("end_date"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return badRequest(l, "admin_orders_error", "invalid end_date", err)
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		f.To = &t
	}

	items, err := h.Svc.Orders(ctx, f)
	if err != nil {
		return fail(l, "admin_orders_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) Withdrawals(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.withdrawals")

	items, err := h.Svc.Withdrawals(ctx, c.QueryParam("status"))
	if err != nil {
		return fail(l, "admin_withdrawals_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) ApproveWithdrawal(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.approve_withdrawal")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "withdrawal_approve_error", err.Error(), err)
	}
	w, err := h.Svc.ApproveWithdrawal(ctx, id)
	if err != nil {
		return fail(l, "withdrawal_approve_error", err)
	}
	l.Info("withdrawal_approved", "withdrawal_id", id)
	return c.JSON(http.StatusOK, w)
}

func (h *AdminHTTP) RejectWithdrawal(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.reject_withdrawal")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "withdrawal_reject_error", err.Error(), err)
	}
	var req transport.RejectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "withdrawal_reject_error", "invalid body", err)
	}
	w, err := h.Svc.RejectWithdrawal(ctx, id, req.Reason)
	if err != nil {
		return fail(l, "withdrawal_reject_error", err)
	}
	l.Info("withdrawal_rejected", "withdrawal_id", id)
	return c.JSON(http.StatusOK, w)
}

func (h *AdminHTTP) CompleteWithdrawal(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.complete_withdrawal")

	a, err := actor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "withdrawal_complete_error", err.Error(), err)
	}
	var req transport.CompleteWithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "withdrawal_complete_error", "invalid body", err)
	}
	w, err := h.Svc.CompleteWithdrawal(ctx, a.ID, id, req.Details)
	if err != nil {
		return fail(l, "withdrawal_complete_error", err)
	}
	l.Info("withdrawal_completed", "withdrawal_id", id)
	return c.JSON(http.StatusOK, w)
}

func (h *AdminHTTP) Tickets(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.tickets")

	items, err := h.Svc.Tickets(ctx, c.QueryParam("status"))
	if err != nil {
		return fail(l, "tickets_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) SetTicketStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.ticket_status")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "ticket_status_error", err.Error(), err)
	}
	var req transport.StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "ticket_status_error", "invalid body", err)
	}
	if err := h.Svc.SetTicketStatus(ctx, id, req.Status); err != nil {
		return fail(l, "ticket_status_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}

func (h *AdminHTTP) Alerts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.alerts")

	items, err := h.Svc.Alerts(ctx)
	if err != nil {
		return fail(l, "alerts_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) SendNotification(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.send_notification")

	var req transport.SendNotificationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "send_notification_error", "invalid body", err)
	}
	n, err := h.Svc.SendNotification(ctx, req)
	if err != nil {
		return fail(l, "send_notification_error", err)
	}
	l.Info("notifications_sent", "target", req.Target, "count", n)
	return c.JSON(http.StatusOK, echo.Map{"message": "notifications sent", "count": n})
}

func (h *AdminHTTP) Ads(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.ads")

	items, err := h.Svc.Ads(ctx)
	if err != nil {
		return fail(l, "ads_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHTTP) CreateAd(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_ad")

	var req transport.AdRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_ad_error", "invalid body", err)
	}
	ad, err := h.Svc.CreateAd(ctx, req)
	if err != nil {
		return fail(l, "create_ad_error", err)
	}
	return c.JSON(http.StatusCreated, ad)
}

func (h *AdminHTTP) UpdateAd(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_ad")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_ad_error", err.Error(), err)
	}
	var req transport.AdRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_ad_error", "invalid body", err)
	}
	ad, err := h.Svc.UpdateAd(ctx, id, req)
	if err != nil {
		return fail(l, "update_ad_error", err)
	}
	return c.JSON(http.StatusOK, ad)
}

func (h *AdminHTTP) DeleteAd(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_ad")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_ad_error", err.Error(), err)
	}
	if err := h.Svc.DeleteAd(ctx, id); err != nil {
		return fail(l, "delete_ad_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) Settings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.settings")

	out, err := h.Svc.Settings(ctx)
	if err != nil {
		return fail(l, "settings_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHTTP) PutSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.put_settings")

	var req map[string]string
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "settings_error", "invalid body", err)
	}
	out, err := h.Svc.PutSettings(ctx, req)
	if err != nil {
		return fail(l, "settings_error", err)
	}
	l.Info("settings_updated", "keys", len(req))
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHTTP) PaymentSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.payment_settings")

	out, err := h.Svc.PaymentSettings(ctx)
	if err != nil {
		return fail(l, "payment_settings_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHTTP) PutPaymentSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.put_payment_settings")

	var req map[string]string
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "payment_settings_error", "invalid body", err)
	}
	out, err := h.Svc.PutPaymentSettings(ctx, req)
	if err != nil {
		return fail(l, "payment_settings_error", err)
	}
	l.Info("payment_settings_updated")
	return c.JSON(http.StatusOK, out)
}
