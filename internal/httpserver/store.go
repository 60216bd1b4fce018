package httpserver

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/labstack/echo/v4"
)

// StoreHTTP serves the public storefront extras and the per-user inbox.
type StoreHTTP struct {
	Svc *service.StoreService
}

func (h *StoreHTTP) Ads(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.ads")

	items, err := h.Svc.Ads(ctx, c.QueryParam("position"))
	if err != nil {
		return fail(l, "ads_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *StoreHTTP) ClickAd(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.click_ad")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "click_ad_error", err.Error(), err)
	}
	n, err := h.Svc.ClickAd(ctx, id)
	if err != nil {
		return fail(l, "click_ad_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"clicks": n})
}

func (h *StoreHTTP) PublicSettings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.public_settings")

	out, err := h.Svc.PublicSettings(ctx)
	if err != nil {
		return fail(l, "public_settings_error", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *StoreHTTP) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.upload")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(l, "upload_error", "no file part", err)
	}
	src, err := fh.Open()
	if err != nil {
		return badRequest(l, "upload_error", "cannot read file", err)
	}
	defer src.Close()

	f, err := h.Svc.Upload(ctx, uid, fh.Filename, src)
	if err != nil {
		return fail(l, "upload_error", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       f.ID,
		"filename": f.Filename,
		"url":      fmt.Sprintf("/api/files/%d/download", f.ID),
	})
}

func (h *StoreHTTP) Download(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.download")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "download_error", err.Error(), err)
	}
	f, fh, err := h.Svc.File(ctx, id)
	if err != nil {
		return fail(l, "download_error", err)
	}
	defer fh.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+f.Filename+`"`)
	ct := mime.TypeByExtension(filepath.Ext(f.StoredFilename))
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, ct, fh)
}

func (h *StoreHTTP) CreateTicket(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.create_ticket")

	var req transport.TicketRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "ticket_error", "invalid body", err)
	}
	var uid *uint
	if id, err := userID(c); err == nil {
		uid = &id
	}

	t, err := h.Svc.CreateTicket(ctx, uid, req)
	if err != nil {
		return fail(l, "ticket_error", err)
	}
	l.Info("ticket_created", "ticket_id", t.ID)
	return c.JSON(http.StatusCreated, t)
}

func (h *StoreHTTP) Subscribe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.subscribe")

	var req transport.NewsletterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "subscribe_error", "invalid body", err)
	}
	added, err := h.Svc.Subscribe(ctx, req)
	if err != nil {
		return fail(l, "subscribe_error", err)
	}
	if !added {
		return c.JSON(http.StatusOK, echo.Map{"message": "already subscribed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "subscribed"})
}

func (h *StoreHTTP) Notifications(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.list")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.Notifications(ctx, uid)
	if err != nil {
		return fail(l, "notifications_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *StoreHTTP) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.mark_read")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "mark_read_error", err.Error(), err)
	}
	if err := h.Svc.MarkRead(ctx, uid, id); err != nil {
		return fail(l, "mark_read_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "marked as read"})
}

func (h *StoreHTTP) MarkAllRead(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "notification.mark_all_read")

	uid, err := userID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.MarkAllRead(ctx, uid); err != nil {
		return fail(l, "mark_read_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "all marked as read"})
}
